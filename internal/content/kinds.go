// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package content

// Content kinds.
const (
	KindArchives     = "archives"
	KindPhotos       = "photos"
	KindPoems        = "poems"
	KindPoets        = "poets"
	KindBooks        = "books"
	KindHeritage     = "heritage"
	KindEvents       = "events"
	KindPeople       = "people"
	KindReposts      = "reposts"
	KindPlaces       = "places"
	KindHistory      = "history"
	KindPartnerships = "partnerships"
)

// Enumerations used by kind-specific fields.
var (
	DocumentTypes      = []string{"letter", "manuscript", "newspaper", "certificate", "photograph", "map", "book", "other"}
	PhotoCategories    = []string{"portrait", "landscape", "event", "architecture", "daily_life", "document", "other"}
	HeritageCategories = []string{"crafts", "clothing", "food", "music", "dance", "customs", "architecture", "oral_tradition", "other"}
	EventTypes         = []string{"exhibition", "lecture", "festival", "workshop", "commemoration", "other"}
	SourceTypes        = []string{"article", "video", "podcast", "social", "book", "website", "other"}
)

// Descriptors returns fresh descriptors for all content kinds, in display order.
func Descriptors() []*Descriptor {
	list := []*Descriptor{
		{
			Kind:  KindArchives,
			Table: "archives",
			Fields: fields(
				pair("title", Text),
				pair("description", LongText),
				pair("content", RichText),
				enum("documentType", DocumentTypes...),
				field("year", Int),
				field("period", Text),
				field("placeId", Ref),
				pair("placeName", Text),
				field("fileUrl", Text),
				field("imageUrls", StringList),
				field("source", Text),
			),
			TitleField: "title",
			ImageField: "imageUrls",
			Filters:    map[string]string{"documentType": "documentType", "placeId": "placeId"},
			Latest:     true,
		},
		{
			Kind:  KindPhotos,
			Table: "photos",
			Fields: fields(
				pair("title", Text),
				pair("description", LongText),
				required(field("imageUrl", Text)),
				enum("photoCategory", PhotoCategories...),
				field("photographer", Text),
				field("year", Int),
				field("period", Text),
				field("placeId", Ref),
				pair("placeName", Text),
			),
			TitleField: "title",
			ImageField: "imageUrl",
			Filters:    map[string]string{"category": "photoCategory", "photoCategory": "photoCategory", "placeId": "placeId"},
			Latest:     true,
		},
		{
			Kind:  KindPoems,
			Table: "poems",
			Fields: fields(
				pair("title", Text),
				pair("content", RichText),
				pair("explanation", RichText),
				field("poetId", Ref),
				field("year", Int),
				field("period", Text),
				field("audioUrl", Text),
				field("imageUrl", Text),
			),
			TitleField: "title",
			ImageField: "imageUrl",
			Filters:    map[string]string{"poetId": "poetId"},
			Latest:     true,
		},
		{
			Kind:  KindPoets,
			Table: "poets",
			Fields: fields(
				pair("name", Text),
				pair("bio", RichText),
				field("birthYear", Int),
				field("deathYear", Int),
				field("imageUrl", Text),
				field("placeId", Ref),
			),
			TitleField: "name",
			ImageField: "imageUrl",
			Filters:    map[string]string{"placeId": "placeId"},
		},
		{
			Kind:  KindBooks,
			Table: "books",
			Fields: fields(
				pair("title", Text),
				pair("description", LongText),
				pair("authorName", Text),
				field("coverUrl", Text),
				field("fileUrl", Text),
				field("publishYear", Int),
				field("publisher", Text),
				field("isbn", Text),
			),
			TitleField: "title",
			ImageField: "coverUrl",
			Latest:     true,
		},
		{
			Kind:  KindHeritage,
			Table: "heritage",
			Fields: fields(
				pair("title", Text),
				pair("description", LongText),
				pair("content", RichText),
				enum("heritageCategory", HeritageCategories...),
				field("imageUrls", StringList),
				field("placeId", Ref),
				pair("placeName", Text),
			),
			TitleField: "title",
			ImageField: "imageUrls",
			Filters:    map[string]string{"category": "heritageCategory", "heritageCategory": "heritageCategory", "placeId": "placeId"},
			Latest:     true,
		},
		{
			Kind:  KindEvents,
			Table: "events",
			Fields: fields(
				pair("title", Text),
				pair("description", RichText),
				required(field("startDate", Time)),
				field("endDate", Time),
				pair("location", Text),
				enum("eventType", EventTypes...),
				field("imageUrl", Text),
				field("placeId", Ref),
			),
			TitleField: "title",
			ImageField: "imageUrl",
			DateField:  "startDate",
			Filters:    map[string]string{"eventType": "eventType", "placeId": "placeId"},
			Latest:     true,
		},
		{
			Kind:  KindPeople,
			Table: "people",
			Fields: fields(
				pair("name", Text),
				pair("biography", RichText),
				pair("role", Text),
				field("birthYear", Int),
				field("deathYear", Int),
				field("imageUrl", Text),
				field("placeId", Ref),
			),
			TitleField: "name",
			ImageField: "imageUrl",
			Filters:    map[string]string{"placeId": "placeId"},
		},
		{
			Kind:  KindReposts,
			Table: "reposts",
			Fields: fields(
				pair("title", Text),
				pair("summary", LongText),
				enum("sourceType", SourceTypes...),
				required(field("sourceUrl", Text)),
				field("sourceName", Text),
				field("imageUrl", Text),
			),
			TitleField: "title",
			ImageField: "imageUrl",
			Filters:    map[string]string{"sourceType": "sourceType"},
			Latest:     true,
		},
		{
			Kind:  KindPlaces,
			Table: "places",
			Fields: fields(
				pair("name", Text),
				pair("description", RichText),
				field("latitude", Float),
				field("longitude", Float),
				field("imageUrl", Text),
			),
			TitleField: "name",
			ImageField: "imageUrl",
		},
		{
			Kind:  KindHistory,
			Table: "history",
			Fields: fields(
				pair("title", Text),
				pair("summary", LongText),
				pair("content", RichText),
				field("year", Int),
				field("period", Text),
				field("figureId", Ref),
				field("placeId", Ref),
				field("imageUrl", Text),
			),
			TitleField: "title",
			ImageField: "imageUrl",
			Filters:    map[string]string{"placeId": "placeId", "figureId": "figureId"},
			Latest:     true,
		},
		{
			Kind:  KindPartnerships,
			Table: "partnerships",
			Fields: fields(
				pair("name", Text),
				pair("description", LongText),
				field("logoUrl", Text),
				field("websiteUrl", Text),
			),
			TitleField: "name",
			ImageField: "logoUrl",
		},
	}

	for _, d := range list {
		if d.Filters == nil {
			d.Filters = map[string]string{}
		}
		d.Filters[FieldStatus] = FieldStatus
		d.Filters[FieldIsFeatured] = FieldIsFeatured
		d.index()
	}
	return list
}
