// Package catalog maintains a queryable index of archive files in a
// SQLite database, so time-range and pair lookups do not rescan the
// archive tree.
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	_ "modernc.org/sqlite"

	"seisgo/internal/archive"
)

const schema = `
CREATE TABLE IF NOT EXISTS records (
	id       TEXT PRIMARY KEY,
	path     TEXT NOT NULL UNIQUE,
	kind     TEXT NOT NULL,
	pair     TEXT NOT NULL,
	side     TEXT NOT NULL,
	dt       REAL NOT NULL,
	start_ns INTEGER NOT NULL,
	end_ns   INTEGER NOT NULL,
	nwin     INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS records_pair ON records(pair, side);
CREATE INDEX IF NOT EXISTS records_span ON records(start_ns, end_ns);
`

// Catalog is an open index database.
type Catalog struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (creating if needed) the catalog database at path.
func Open(path string, logger *slog.Logger) (*Catalog, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("catalog: opening %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("catalog: creating schema: %w", err)
	}
	return &Catalog{db: db, logger: logger}, nil
}

// Close releases the database.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// Index records one archive file's metadata, replacing any earlier
// entry for the same path.
func (c *Catalog) Index(ctx context.Context, info *archive.Info) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO records (id, path, kind, pair, side, dt, start_ns, end_ns, nwin)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			kind = excluded.kind, pair = excluded.pair, side = excluded.side,
			dt = excluded.dt, start_ns = excluded.start_ns,
			end_ns = excluded.end_ns, nwin = excluded.nwin`,
		uuid.NewString(), info.Path, info.Kind, info.Pair.Key(), info.Side,
		info.Dt, info.Start, info.End, info.NWin)
	if err != nil {
		return fmt.Errorf("catalog: indexing %s: %w", info.Path, err)
	}
	return nil
}

// Scan walks the archive files under dir, reading their metadata in
// parallel, and indexes every readable record. Files holding no archive
// record are skipped with a warning. It returns the number indexed.
func (c *Catalog) Scan(ctx context.Context, dir string) (int, error) {
	paths, err := List(dir, "*"+archive.Ext)
	if err != nil {
		return 0, err
	}

	infos := make(chan *archive.Info, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for _, path := range paths {
		g.Go(func() error {
			info, err := archive.ReadInfo(path)
			if err != nil {
				// Corrupt or foreign files do not abort a scan.
				c.logger.Warn("skipping unreadable file", "path", path, "err", err)
				return nil
			}
			select {
			case infos <- info:
				return nil
			case <-gctx.Done():
				return gctx.Err()
			}
		})
	}

	indexed := 0
	done := make(chan error, 1)
	go func() {
		for info := range infos {
			if err := c.Index(ctx, info); err != nil {
				done <- err
				return
			}
			indexed++
		}
		done <- nil
	}()

	gerr := g.Wait()
	close(infos)
	if ierr := <-done; ierr != nil {
		return indexed, ierr
	}
	if gerr != nil {
		return indexed, gerr
	}
	c.logger.Info("catalog scan complete", "dir", dir, "files", len(paths), "indexed", indexed)
	return indexed, nil
}

// SpanFor returns the earliest start and latest end indexed for a pair
// key. ok is false when nothing matches.
func (c *Catalog) SpanFor(ctx context.Context, pairKey string) (start, end int64, ok bool, err error) {
	row := c.db.QueryRowContext(ctx,
		`SELECT MIN(start_ns), MAX(end_ns) FROM records WHERE pair = ?`, pairKey)
	var s, e sql.NullInt64
	if err := row.Scan(&s, &e); err != nil {
		return 0, 0, false, fmt.Errorf("catalog: span query: %w", err)
	}
	if !s.Valid || !e.Valid {
		return 0, 0, false, nil
	}
	return s.Int64, e.Int64, true, nil
}

// Files returns the indexed paths for a pair key, ordered by start
// time.
func (c *Catalog) Files(ctx context.Context, pairKey string) ([]string, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT path FROM records WHERE pair = ? ORDER BY start_ns, path`, pairKey)
	if err != nil {
		return nil, fmt.Errorf("catalog: file query: %w", err)
	}
	defer rows.Close()
	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

// Pairs returns the distinct pair keys in the catalog.
func (c *Catalog) Pairs(ctx context.Context) ([]string, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT DISTINCT pair FROM records ORDER BY pair`)
	if err != nil {
		return nil, fmt.Errorf("catalog: pair query: %w", err)
	}
	defer rows.Close()
	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// List returns the files directly under dir whose base name matches
// pattern, sorted lexically. A missing directory is an error; an empty
// match is not.
func List(dir, pattern string) ([]string, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("catalog: listing %s: %w", dir, err)
	}
	if _, err := filepath.Match(pattern, ""); err != nil {
		return nil, fmt.Errorf("catalog: bad pattern %q: %w", pattern, err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ok, _ := filepath.Match(pattern, e.Name())
		if ok {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	return paths, nil
}
