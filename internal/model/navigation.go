// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "time"

// NavigationItem is an entry of the public site navigation.
// Items with a ParentID are rendered nested under their parent.
type NavigationItem struct {
	ID            int64     `json:"id"`
	LabelEn       string    `json:"labelEn"`
	LabelAr       string    `json:"labelAr"`
	URL           string    `json:"url"`
	ParentID      *int64    `json:"parentId"`
	SortOrder     int64     `json:"sortOrder"`
	IsActive      bool      `json:"isActive"`
	FeaturedImage *string   `json:"featuredImage"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// NavigationNode is a navigation item with its children for tree display.
type NavigationNode struct {
	NavigationItem
	Children []NavigationNode `json:"children"`
}

// BuildNavigationTree nests items under their parents, keeping the input
// order among siblings. Items whose parent is missing are promoted to roots.
func BuildNavigationTree(items []NavigationItem) []NavigationNode {
	present := make(map[int64]bool, len(items))
	for _, item := range items {
		present[item.ID] = true
	}

	children := make(map[int64][]NavigationItem)
	var roots []NavigationItem
	for _, item := range items {
		if item.ParentID != nil && *item.ParentID != item.ID && present[*item.ParentID] {
			children[*item.ParentID] = append(children[*item.ParentID], item)
			continue
		}
		roots = append(roots, item)
	}

	visited := make(map[int64]bool, len(items))
	var build func(list []NavigationItem) []NavigationNode
	build = func(list []NavigationItem) []NavigationNode {
		nodes := make([]NavigationNode, 0, len(list))
		for _, item := range list {
			if visited[item.ID] {
				continue
			}
			visited[item.ID] = true
			nodes = append(nodes, NavigationNode{
				NavigationItem: item,
				Children:       build(children[item.ID]),
			})
		}
		return nodes
	}
	return build(roots)
}
