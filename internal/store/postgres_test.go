package store

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Runs against a disposable database named by LEXCHUNK_TEST_POSTGRES_DSN.
func TestPostgres_AppendAndQuery(t *testing.T) {
	dsn := os.Getenv("LEXCHUNK_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("LEXCHUNK_TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()

	s, err := Open(ctx, dsn, nil)
	require.NoError(t, err)
	defer s.Close()
	require.IsType(t, &PostgresStore{}, s)
	require.NoError(t, s.Init(ctx))

	before, err := s.Stats(ctx)
	require.NoError(t, err)

	src := "pg-" + uuid.NewString() + ".txt"
	recs, err := s.AppendDocument(ctx, meta(src), chunks(src, 3))
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, before.LastID+1, recs[0].ID)
	assert.Equal(t, recs[0].ID+2, recs[2].ID)

	_, err = s.AppendDocument(ctx, meta(src), chunks(src, 1))
	assert.ErrorIs(t, err, ErrAlreadyProcessed)

	got, err := s.Chunks(ctx, src)
	require.NoError(t, err)
	assert.Equal(t, ids(recs), ids(got))

	sources, err := s.Sources(ctx)
	require.NoError(t, err)
	var found bool
	for _, info := range sources {
		if info.Source == src {
			found = true
			assert.Equal(t, []string{"QUỐC HỘI"}, info.Unassigned)
			assert.Equal(t, 3, info.Chunks)
		}
	}
	assert.True(t, found)
}
