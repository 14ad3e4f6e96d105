package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, body := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	}
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"b.txt":           "x",
		"a.md":            "x",
		"sub/c.docx":      "x",
		"notes.csv":       "x",
		"sub/deep/d.HTML": "x",
	})

	files, err := Discover(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.md", "b.txt", "sub/c.docx", "sub/deep/d.HTML"}, files)
}

func TestDiscover_MissingDir(t *testing.T) {
	_, err := Discover(filepath.Join(t.TempDir(), "absent"))
	assert.Error(t, err)
}

func TestRunBatch_AppendsInDiscoveryOrder(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"01.txt":     statute,
		"02.txt":     statute,
		"03.txt":     statute,
		"sub/04.txt": statute,
	})
	w := testWorker(t, testStore(t), nil)

	sum, err := RunBatch(context.Background(), w, dir, 3)
	require.NoError(t, err)

	assert.Equal(t, 4, sum.Total)
	assert.Equal(t, 4, sum.Succeeded)
	assert.Zero(t, sum.Failed)
	require.Len(t, sum.Outcomes, 4)

	next := int64(1)
	for i, o := range sum.Outcomes {
		assert.Equal(t, []string{"01.txt", "02.txt", "03.txt", "sub/04.txt"}[i], o.Source)
		assert.Equal(t, next, o.FirstID, o.Source)
		next = o.LastID + 1
	}
	assert.Equal(t, int64(1), sum.FirstID)
	assert.Equal(t, next-1, sum.LastID)
	assert.Equal(t, int(sum.LastID), sum.NewChunks)

	assert.Positive(t, sum.TokenStats.Avg)
	assert.LessOrEqual(t, sum.TokenStats.Max, 40)
	assert.InDelta(t, sum.TokenStats.Avg/40, sum.TokenStats.Utilisation, 1e-9)
}

func TestRunBatch_RerunSkipsProcessed(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"01.txt": statute})
	w := testWorker(t, testStore(t), nil)
	ctx := context.Background()

	first, err := RunBatch(ctx, w, dir, 2)
	require.NoError(t, err)
	require.Equal(t, 1, first.Succeeded)

	writeFiles(t, dir, map[string]string{"02.txt": statute})
	second, err := RunBatch(ctx, w, dir, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, second.Total)
	assert.Equal(t, 1, second.Skipped)
	assert.Equal(t, 1, second.Succeeded)
	assert.Equal(t, first.LastID+1, second.FirstID)
}

func TestRunBatch_FailureIsIsolated(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"00.pdf": "not a pdf",
		"01.txt": statute,
	})
	st := testStore(t)
	w := testWorker(t, st, nil)
	ctx := context.Background()

	sum, err := RunBatch(ctx, w, dir, 2)
	require.NoError(t, err)

	assert.Equal(t, 1, sum.Failed)
	assert.Equal(t, 1, sum.InputFailures)
	assert.Zero(t, sum.IntegrityFailures)
	assert.Equal(t, 1, sum.Succeeded)
	require.Len(t, sum.Errors, 1)
	assert.Equal(t, "00.pdf", sum.Errors[0].Source)
	assert.Equal(t, KindInput, sum.Errors[0].Kind)
	assert.Equal(t, int64(1), sum.FirstID)

	done, err := st.IsProcessed(ctx, "00.pdf")
	require.NoError(t, err)
	assert.False(t, done)
}

func TestRunBatch_EmptyDir(t *testing.T) {
	w := testWorker(t, testStore(t), nil)

	sum, err := RunBatch(context.Background(), w, t.TempDir(), 4)
	require.NoError(t, err)
	assert.Zero(t, sum.Total)
	assert.Empty(t, sum.Outcomes)
	assert.Zero(t, sum.TokenStats)
}

func TestRunBatch_CancelledContext(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"01.txt": statute})
	w := testWorker(t, testStore(t), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := RunBatch(ctx, w, dir, 1)
	assert.ErrorIs(t, err, context.Canceled)
}
