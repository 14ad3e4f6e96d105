package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite" // pure-Go SQLite driver

	"github.com/dgallion1/lexchunk/internal/doctree"
)

var sqliteMigrations = []Migration{
	{
		Version: "1.0.0",
		Stmts: []string{
			`CREATE TABLE IF NOT EXISTS documents (
				source TEXT PRIMARY KEY,
				title TEXT NOT NULL,
				has_appendix INTEGER NOT NULL DEFAULT 0,
				unassigned TEXT NOT NULL DEFAULT '[]',
				processed_at TEXT NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS chunks (
				id INTEGER PRIMARY KEY,
				source TEXT NOT NULL REFERENCES documents(source),
				url TEXT NOT NULL DEFAULT '',
				token_length INTEGER NOT NULL,
				content TEXT NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_chunks_source ON chunks(source)`,
		},
	},
	{
		Version: "1.1.0",
		Stmts: []string{
			`CREATE INDEX IF NOT EXISTS idx_documents_processed ON documents(processed_at)`,
		},
	},
}

// SQLiteStore implements Store on a local SQLite file.
type SQLiteStore struct {
	db  *sql.DB
	log *slog.Logger
}

var _ Store = (*SQLiteStore)(nil)

// OpenSQLite opens (or creates) the database at path. All access goes
// through one connection so writers never race for the file lock.
func OpenSQLite(path string, opts ...Option) (*SQLiteStore, error) {
	o := buildOptions(opts)

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA foreign_keys=ON", "PRAGMA busy_timeout=5000"} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("sqlite: %s: %w", pragma, err)
		}
	}

	o.log.Debug("sqlite: store opened", "path", path)
	return &SQLiteStore{db: db, log: o.log}, nil
}

// Init applies pending migrations.
func (s *SQLiteStore) Init(ctx context.Context) error {
	return migrate(ctx, s, sqliteMigrations)
}

func (s *SQLiteStore) appliedVersions(ctx context.Context) ([]string, error) {
	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_version (
		version TEXT PRIMARY KEY,
		applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT version FROM schema_version`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var versions []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

func (s *SQLiteStore) applyMigration(ctx context.Context, m Migration) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	for _, stmt := range m.Stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO schema_version (version) VALUES (?)`, m.Version); err != nil {
		return err
	}
	s.log.Debug("sqlite: migration applied", "version", m.Version)
	return tx.Commit()
}

// AppendDocument implements Store.
func (s *SQLiteStore) AppendDocument(ctx context.Context, meta DocumentMeta, chunks []doctree.FinalChunk) ([]Record, error) {
	unassigned, err := json.Marshal(nonNil(meta.Unassigned))
	if err != nil {
		return nil, fmt.Errorf("sqlite: marshal unassigned: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("sqlite: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx,
		`INSERT INTO documents (source, title, has_appendix, unassigned, processed_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (source) DO NOTHING`,
		meta.Source, meta.Title, meta.HasAppendix, string(unassigned), meta.ProcessedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return nil, fmt.Errorf("sqlite: insert document: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, fmt.Errorf("sqlite: insert document: %w", err)
	} else if n == 0 {
		return nil, ErrAlreadyProcessed
	}

	var next int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(id), 0) + 1 FROM chunks`).Scan(&next); err != nil {
		return nil, fmt.Errorf("sqlite: next id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO chunks (id, source, url, token_length, content) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: prepare chunk insert: %w", err)
	}
	defer stmt.Close()

	records := make([]Record, len(chunks))
	for i, c := range chunks {
		id := next + int64(i)
		if _, err := stmt.ExecContext(ctx, id, meta.Source, c.URL, c.TokenCount, c.Content); err != nil {
			return nil, fmt.Errorf("sqlite: insert chunk %d: %w", id, err)
		}
		records[i] = Record{ID: id, FinalChunk: c}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("sqlite: commit tx: %w", err)
	}
	s.log.Debug("sqlite: document appended", "source", meta.Source, "chunks", len(records))
	return records, nil
}

// IsProcessed implements Store.
func (s *SQLiteStore) IsProcessed(ctx context.Context, source string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM documents WHERE source = ?`, source).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("sqlite: lookup source: %w", err)
	}
	return true, nil
}

// Sources implements Store. Sources are ordered by processing time.
func (s *SQLiteStore) Sources(ctx context.Context) ([]SourceInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT d.source, d.title, d.has_appendix, d.unassigned, d.processed_at,
		        COUNT(c.id), COALESCE(MIN(c.id), 0), COALESCE(MAX(c.id), 0)
		 FROM documents d LEFT JOIN chunks c ON c.source = d.source
		 GROUP BY d.source
		 ORDER BY d.processed_at, d.source`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list sources: %w", err)
	}
	defer rows.Close()

	var out []SourceInfo
	for rows.Next() {
		var (
			info       SourceInfo
			unassigned string
			processed  string
		)
		if err := rows.Scan(&info.Source, &info.Title, &info.HasAppendix, &unassigned, &processed,
			&info.Chunks, &info.FirstID, &info.LastID); err != nil {
			return nil, fmt.Errorf("sqlite: scan source: %w", err)
		}
		if err := json.Unmarshal([]byte(unassigned), &info.Unassigned); err != nil {
			return nil, fmt.Errorf("sqlite: decode unassigned for %s: %w", info.Source, err)
		}
		if info.ProcessedAt, err = time.Parse(time.RFC3339Nano, processed); err != nil {
			return nil, fmt.Errorf("sqlite: decode processed_at for %s: %w", info.Source, err)
		}
		out = append(out, info)
	}
	return out, rows.Err()
}

// Chunks implements Store.
func (s *SQLiteStore) Chunks(ctx context.Context, source string) ([]Record, error) {
	ok, err := s.IsProcessed(ctx, source)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	return s.queryChunks(ctx,
		`SELECT id, source, url, token_length, content FROM chunks WHERE source = ? ORDER BY id`, source)
}

// AllChunks implements Store.
func (s *SQLiteStore) AllChunks(ctx context.Context) ([]Record, error) {
	return s.queryChunks(ctx, `SELECT id, source, url, token_length, content FROM chunks ORDER BY id`)
}

func (s *SQLiteStore) queryChunks(ctx context.Context, query string, args ...any) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: query chunks: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.ID, &r.Source, &r.URL, &r.TokenCount, &r.Content); err != nil {
			return nil, fmt.Errorf("sqlite: scan chunk: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Stats implements Store.
func (s *SQLiteStore) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&st.Sources); err != nil {
		return st, fmt.Errorf("sqlite: count sources: %w", err)
	}
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(token_length), 0), COALESCE(MAX(token_length), 0), COALESCE(MAX(id), 0)
		 FROM chunks`).Scan(&st.Chunks, &st.TotalTokens, &st.MaxTokens, &st.LastID)
	if err != nil {
		return st, fmt.Errorf("sqlite: chunk stats: %w", err)
	}
	st.AvgTokens = avg(st.TotalTokens, st.Chunks)
	return st, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
