// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/catalog-engine/pkg/types"
)

// SQLiteStore is a catalog artifact kept in a SQLite database. It is the
// write side of `catalog import` and a read source for LoadFile.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens or creates the catalog database at path and creates
// the schema if it does not exist.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating catalog directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS entries (
			id TEXT PRIMARY KEY,
			domain TEXT NOT NULL,
			title TEXT NOT NULL,
			description TEXT,
			endpoint_url TEXT,
			endpoint_method TEXT,
			keywords TEXT,
			chart_types TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS columns (
			entry_id TEXT NOT NULL REFERENCES entries(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			name TEXT NOT NULL,
			semantic_type TEXT NOT NULL,
			PRIMARY KEY (entry_id, position)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_entries_domain ON entries(domain)`,
		`CREATE TABLE IF NOT EXISTS enhancements (
			entry_id TEXT PRIMARY KEY REFERENCES entries(id) ON DELETE CASCADE,
			document TEXT NOT NULL
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// ImportSummary holds counts from a catalog import.
type ImportSummary struct {
	Inserted     int
	Updated      int
	Enhancements int
}

// Import upserts entries and overlays in a single transaction. Existing
// entries with the same id are replaced, including their columns.
func (s *SQLiteStore) Import(ctx context.Context, entries []types.CatalogEntry, enhanced []types.EnhancedCatalogEntry) (ImportSummary, error) {
	var summary ImportSummary

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return summary, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, e := range entries {
		var exists int
		if err := tx.QueryRowContext(ctx, `SELECT count(*) FROM entries WHERE id = ?`, e.ID).Scan(&exists); err != nil {
			return summary, fmt.Errorf("checking entry %s: %w", e.ID, err)
		}

		keywordsJSON, _ := json.Marshal(e.Keywords)
		chartTypesJSON, _ := json.Marshal(e.ChartTypes)
		_, err := tx.ExecContext(ctx,
			`INSERT INTO entries (id, domain, title, description, endpoint_url, endpoint_method, keywords, chart_types)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT(id) DO UPDATE SET
				domain=excluded.domain, title=excluded.title, description=excluded.description,
				endpoint_url=excluded.endpoint_url, endpoint_method=excluded.endpoint_method,
				keywords=excluded.keywords, chart_types=excluded.chart_types`,
			e.ID, e.Domain, e.Title, e.Description, e.Endpoint.URL, e.Endpoint.Method,
			string(keywordsJSON), string(chartTypesJSON),
		)
		if err != nil {
			return summary, fmt.Errorf("upserting entry %s: %w", e.ID, err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM columns WHERE entry_id = ?`, e.ID); err != nil {
			return summary, fmt.Errorf("deleting old columns of %s: %w", e.ID, err)
		}
		for pos, c := range e.ResponseSchema {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO columns (entry_id, position, name, semantic_type) VALUES (?, ?, ?, ?)`,
				e.ID, pos, c.Name, string(c.Type),
			)
			if err != nil {
				return summary, fmt.Errorf("inserting column %s.%s: %w", e.ID, c.Name, err)
			}
		}

		if exists > 0 {
			summary.Updated++
		} else {
			summary.Inserted++
		}
	}

	for _, enh := range enhanced {
		doc, err := json.Marshal(enh)
		if err != nil {
			return summary, fmt.Errorf("marshaling enhancement %s: %w", enh.ID, err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO enhancements (entry_id, document) VALUES (?, ?)
			 ON CONFLICT(entry_id) DO UPDATE SET document=excluded.document`,
			enh.ID, string(doc),
		)
		if err != nil {
			return summary, fmt.Errorf("upserting enhancement %s: %w", enh.ID, err)
		}
		summary.Enhancements++
	}

	if err := tx.Commit(); err != nil {
		return summary, fmt.Errorf("committing import: %w", err)
	}
	return summary, nil
}

// Entries returns all entries ordered by id with columns in schema order.
func (s *SQLiteStore) Entries(ctx context.Context) ([]types.CatalogEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, domain, title, description, endpoint_url, endpoint_method, keywords, chart_types
		 FROM entries ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying entries: %w", err)
	}
	defer rows.Close()

	var (
		entries []types.CatalogEntry
		index   = make(map[string]int)
	)
	for rows.Next() {
		var (
			e                    types.CatalogEntry
			desc, url, method    sql.NullString
			keywords, chartTypes sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.Domain, &e.Title, &desc, &url, &method, &keywords, &chartTypes); err != nil {
			return nil, fmt.Errorf("scanning entry: %w", err)
		}
		e.Description = desc.String
		e.Endpoint = types.Endpoint{URL: url.String, Method: method.String}
		if keywords.Valid {
			if err := json.Unmarshal([]byte(keywords.String), &e.Keywords); err != nil {
				return nil, fmt.Errorf("parsing keywords of %s: %w", e.ID, err)
			}
		}
		if chartTypes.Valid {
			if err := json.Unmarshal([]byte(chartTypes.String), &e.ChartTypes); err != nil {
				return nil, fmt.Errorf("parsing chart types of %s: %w", e.ID, err)
			}
		}
		index[e.ID] = len(entries)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	colRows, err := s.db.QueryContext(ctx,
		`SELECT entry_id, name, semantic_type FROM columns ORDER BY entry_id, position`)
	if err != nil {
		return nil, fmt.Errorf("querying columns: %w", err)
	}
	defer colRows.Close()

	for colRows.Next() {
		var entryID, name, semType string
		if err := colRows.Scan(&entryID, &name, &semType); err != nil {
			return nil, fmt.Errorf("scanning column: %w", err)
		}
		if i, ok := index[entryID]; ok {
			entries[i].ResponseSchema = append(entries[i].ResponseSchema,
				types.Column{Name: name, Type: types.SemanticType(semType)})
		}
	}
	return entries, colRows.Err()
}

// Enhancements returns all stored overlays ordered by entry id.
func (s *SQLiteStore) Enhancements(ctx context.Context) ([]types.EnhancedCatalogEntry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT entry_id, document FROM enhancements ORDER BY entry_id`)
	if err != nil {
		return nil, fmt.Errorf("querying enhancements: %w", err)
	}
	defer rows.Close()

	var out []types.EnhancedCatalogEntry
	for rows.Next() {
		var id, doc string
		if err := rows.Scan(&id, &doc); err != nil {
			return nil, fmt.Errorf("scanning enhancement: %w", err)
		}
		var enh types.EnhancedCatalogEntry
		if err := json.Unmarshal([]byte(doc), &enh); err != nil {
			return nil, fmt.Errorf("parsing enhancement %s: %w", id, err)
		}
		enh.ID = id
		out = append(out, enh)
	}
	return out, rows.Err()
}
