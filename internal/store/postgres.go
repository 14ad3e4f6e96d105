package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dgallion1/lexchunk/internal/doctree"
)

var postgresMigrations = []Migration{
	{
		Version: "1.0.0",
		Stmts: []string{
			`CREATE TABLE IF NOT EXISTS documents (
				source TEXT PRIMARY KEY,
				title TEXT NOT NULL,
				has_appendix BOOLEAN NOT NULL DEFAULT FALSE,
				unassigned JSONB NOT NULL DEFAULT '[]'::jsonb,
				processed_at TIMESTAMPTZ NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS chunks (
				id BIGINT PRIMARY KEY,
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

// PostgresStore implements Store on PostgreSQL.
type PostgresStore struct {
	pool    *pgxpool.Pool
	ownPool bool
	log     *slog.Logger
}

var _ Store = (*PostgresStore)(nil)

// NewPostgres wraps an existing pool. The caller owns the pool and is
// responsible for closing it.
func NewPostgres(pool *pgxpool.Pool, opts ...Option) *PostgresStore {
	o := buildOptions(opts)
	return &PostgresStore{pool: pool, log: o.log}
}

// OpenPostgres connects to dsn. Close releases the pool.
func OpenPostgres(ctx context.Context, dsn string, opts ...Option) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	s := NewPostgres(pool, opts...)
	s.ownPool = true
	return s, nil
}

// Init applies pending migrations.
func (s *PostgresStore) Init(ctx context.Context) error {
	return migrate(ctx, s, postgresMigrations)
}

func (s *PostgresStore) appliedVersions(ctx context.Context) ([]string, error) {
	if _, err := s.pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_version (
		version TEXT PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`); err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx, `SELECT version FROM schema_version`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func (s *PostgresStore) applyMigration(ctx context.Context, m Migration) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	for _, stmt := range m.Stmts {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	if _, err := tx.Exec(ctx, `INSERT INTO schema_version (version) VALUES ($1)`, m.Version); err != nil {
		return err
	}
	s.log.Debug("postgres: migration applied", "version", m.Version)
	return tx.Commit(ctx)
}

// AppendDocument implements Store. The chunks table is locked for the
// duration of the transaction so concurrent appends get disjoint IDs.
func (s *PostgresStore) AppendDocument(ctx context.Context, meta DocumentMeta, chunks []doctree.FinalChunk) ([]Record, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("postgres: begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	tag, err := tx.Exec(ctx,
		`INSERT INTO documents (source, title, has_appendix, unassigned, processed_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (source) DO NOTHING`,
		meta.Source, meta.Title, meta.HasAppendix, nonNil(meta.Unassigned), meta.ProcessedAt)
	if err != nil {
		return nil, fmt.Errorf("postgres: insert document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrAlreadyProcessed
	}

	if _, err := tx.Exec(ctx, `LOCK TABLE chunks IN EXCLUSIVE MODE`); err != nil {
		return nil, fmt.Errorf("postgres: lock chunks: %w", err)
	}
	var next int64
	if err := tx.QueryRow(ctx, `SELECT COALESCE(MAX(id), 0) + 1 FROM chunks`).Scan(&next); err != nil {
		return nil, fmt.Errorf("postgres: next id: %w", err)
	}

	records := make([]Record, len(chunks))
	rows := make([][]any, len(chunks))
	for i, c := range chunks {
		id := next + int64(i)
		records[i] = Record{ID: id, FinalChunk: c}
		rows[i] = []any{id, meta.Source, c.URL, c.TokenCount, c.Content}
	}
	if _, err := tx.CopyFrom(ctx, pgx.Identifier{"chunks"},
		[]string{"id", "source", "url", "token_length", "content"}, pgx.CopyFromRows(rows)); err != nil {
		return nil, fmt.Errorf("postgres: insert chunks: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("postgres: commit tx: %w", err)
	}
	s.log.Debug("postgres: document appended", "source", meta.Source, "chunks", len(records))
	return records, nil
}

// IsProcessed implements Store.
func (s *PostgresStore) IsProcessed(ctx context.Context, source string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM documents WHERE source = $1)`, source).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("postgres: lookup source: %w", err)
	}
	return exists, nil
}

// Sources implements Store. Sources are ordered by processing time.
func (s *PostgresStore) Sources(ctx context.Context) ([]SourceInfo, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT d.source, d.title, d.has_appendix, d.unassigned, d.processed_at,
		        COUNT(c.id), COALESCE(MIN(c.id), 0), COALESCE(MAX(c.id), 0)
		 FROM documents d LEFT JOIN chunks c ON c.source = d.source
		 GROUP BY d.source
		 ORDER BY d.processed_at, d.source`)
	if err != nil {
		return nil, fmt.Errorf("postgres: list sources: %w", err)
	}
	defer rows.Close()

	var out []SourceInfo
	for rows.Next() {
		var info SourceInfo
		if err := rows.Scan(&info.Source, &info.Title, &info.HasAppendix, &info.Unassigned, &info.ProcessedAt,
			&info.Chunks, &info.FirstID, &info.LastID); err != nil {
			return nil, fmt.Errorf("postgres: scan source: %w", err)
		}
		out = append(out, info)
	}
	return out, rows.Err()
}

// Chunks implements Store.
func (s *PostgresStore) Chunks(ctx context.Context, source string) ([]Record, error) {
	ok, err := s.IsProcessed(ctx, source)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	return s.queryChunks(ctx,
		`SELECT id, source, url, token_length, content FROM chunks WHERE source = $1 ORDER BY id`, source)
}

// AllChunks implements Store.
func (s *PostgresStore) AllChunks(ctx context.Context) ([]Record, error) {
	return s.queryChunks(ctx, `SELECT id, source, url, token_length, content FROM chunks ORDER BY id`)
}

func (s *PostgresStore) queryChunks(ctx context.Context, query string, args ...any) ([]Record, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: query chunks: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.ID, &r.Source, &r.URL, &r.TokenCount, &r.Content); err != nil {
			return nil, fmt.Errorf("postgres: scan chunk: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Stats implements Store.
func (s *PostgresStore) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := s.pool.QueryRow(ctx,
		`SELECT (SELECT COUNT(*) FROM documents),
		        COUNT(*), COALESCE(SUM(token_length), 0), COALESCE(MAX(token_length), 0), COALESCE(MAX(id), 0)
		 FROM chunks`).Scan(&st.Sources, &st.Chunks, &st.TotalTokens, &st.MaxTokens, &st.LastID)
	if errors.Is(err, pgx.ErrNoRows) {
		return st, nil
	}
	if err != nil {
		return st, fmt.Errorf("postgres: stats: %w", err)
	}
	st.AvgTokens = avg(st.TotalTokens, st.Chunks)
	return st, nil
}

// Close releases the pool if this store opened it.
func (s *PostgresStore) Close() error {
	if s.ownPool {
		s.pool.Close()
	}
	return nil
}
