// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package transfer

import (
	"archive/zip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"maps"
	"os"
	"path"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/olegiv/heritage-archive/internal/content"
	"github.com/olegiv/heritage-archive/internal/store"
)

// ErrUnknownKind is returned by ExportKind for a kind that does not exist.
var ErrUnknownKind = errors.New("unknown content kind")

// maxConcurrentReads bounds the table reads of one export.
const maxConcurrentReads = 4

// Exporter reads every table of the archive.
type Exporter struct {
	registry  *content.Registry
	queries   *store.Queries
	logger    *slog.Logger
	uploadDir string
	now       func() time.Time
}

// NewExporter creates a new Exporter instance.
func NewExporter(registry *content.Registry, db store.DBTX, logger *slog.Logger) *Exporter {
	return &Exporter{
		registry: registry,
		queries:  store.New(db),
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SetUploadDir sets the local upload directory copied into zip archives.
// Empty disables copying files.
func (e *Exporter) SetUploadDir(dir string) {
	e.uploadDir = dir
}

// table is one exportable table: a loader for its rows and a counter.
type table struct {
	name  string
	load  func(ctx context.Context) (any, int, error)
	count func(ctx context.Context) (int64, error)
}

func (e *Exporter) tables() []table {
	var out []table
	for _, s := range e.registry.Stores() {
		out = append(out, table{
			name: s.Kind(),
			load: func(ctx context.Context) (any, int, error) {
				rows, err := s.GetAll(ctx, nil)
				return rows, len(rows), err
			},
			count: s.Count,
		})
	}
	out = append(out,
		table{
			name: TableSubmissions,
			load: func(ctx context.Context) (any, int, error) {
				rows, err := e.queries.ListSubmissions(ctx)
				return rows, len(rows), err
			},
			count: e.queries.CountSubmissions,
		},
		table{
			name: TableNavigation,
			load: func(ctx context.Context) (any, int, error) {
				rows, err := e.queries.ListNavigationItems(ctx)
				return rows, len(rows), err
			},
			count: e.queries.CountNavigationItems,
		},
		table{
			name: TableUsers,
			load: func(ctx context.Context) (any, int, error) {
				users, err := e.queries.ListUsers(ctx)
				if err != nil {
					return nil, 0, err
				}
				rows := make([]ExportUser, 0, len(users))
				for _, u := range users {
					rows = append(rows, exportUser(u))
				}
				return rows, len(rows), nil
			},
			count: e.queries.CountUsers,
		},
	)
	return out
}

// Export reads every table into a snapshot.
func (e *Exporter) Export(ctx context.Context) (*Snapshot, error) {
	tables := e.tables()
	snap := &Snapshot{
		Version:    ExportVersion,
		ExportedAt: e.now(),
		Tables:     make(map[string]any, len(tables)),
		Counts:     make(map[string]int64, len(tables)),
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentReads)
	for _, t := range tables {
		g.Go(func() error {
			rows, n, err := t.load(gctx)
			if err != nil {
				return fmt.Errorf("exporting %s: %w", t.name, err)
			}
			mu.Lock()
			snap.Tables[t.name] = rows
			snap.Counts[t.name] = int64(n)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		e.logger.ErrorContext(ctx, "database export failed", "error", err)
		return nil, err
	}

	e.logger.InfoContext(ctx, "database exported", "tables", len(tables))
	return snap, nil
}

// Stats counts the rows of every table.
func (e *Exporter) Stats(ctx context.Context) (*Stats, error) {
	tables := e.tables()
	counts := make([]int64, len(tables))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentReads)
	for i, t := range tables {
		g.Go(func() error {
			n, err := t.count(gctx)
			if err != nil {
				return fmt.Errorf("counting %s: %w", t.name, err)
			}
			counts[i] = n
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		e.logger.ErrorContext(ctx, "export stats failed", "error", err)
		return nil, err
	}

	stats := &Stats{Counts: make(map[string]int64, len(tables))}
	for i, t := range tables {
		stats.Counts[t.name] = counts[i]
		stats.Total += counts[i]
	}
	return stats, nil
}

// ExportKind exports every record of one content kind.
func (e *Exporter) ExportKind(ctx context.Context, kind string) (*KindExport, error) {
	s, ok := e.registry.Lookup(kind)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	rows, err := s.GetAll(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &KindExport{
		Version:    ExportVersion,
		Kind:       kind,
		ExportedAt: e.now(),
		Count:      len(rows),
		Items:      rows,
	}, nil
}

// WriteZip writes a zip archive holding export.json, one JSON file per
// table under tables/ and, when an upload directory is set, the uploaded
// files under uploads/.
func (e *Exporter) WriteZip(ctx context.Context, w io.Writer) error {
	snap, err := e.Export(ctx)
	if err != nil {
		return err
	}

	zw := zip.NewWriter(w)

	if err := writeZipJSON(zw, "export.json", snap); err != nil {
		return err
	}
	for _, name := range slices.Sorted(maps.Keys(snap.Tables)) {
		if err := writeZipJSON(zw, path.Join("tables", name+".json"), snap.Tables[name]); err != nil {
			return err
		}
	}

	if e.uploadDir != "" {
		if err := e.addUploads(ctx, zw); err != nil {
			return err
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("finishing zip archive: %w", err)
	}
	return nil
}

func writeZipJSON(zw *zip.Writer, name string, v any) error {
	fw, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("failed to create %s in zip: %w", name, err)
	}
	enc := json.NewEncoder(fw)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

// addUploads copies regular files of the upload directory into the archive.
func (e *Exporter) addUploads(ctx context.Context, zw *zip.Writer) error {
	err := filepath.WalkDir(e.uploadDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(e.uploadDir, p)
		if err != nil {
			return err
		}
		if err := addFileToZip(zw, p, path.Join("uploads", filepath.ToSlash(rel))); err != nil {
			e.logger.WarnContext(ctx, "failed to add upload to zip", "path", p, "error", err)
		}
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// addFileToZip adds a single file to the zip archive.
func addFileToZip(zw *zip.Writer, srcPath, zipPath string) error {
	f, err := os.Open(srcPath)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	header.Name = zipPath
	header.Method = zip.Deflate

	fw, err := zw.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("failed to create zip entry: %w", err)
	}
	_, err = io.Copy(fw, f)
	return err
}
