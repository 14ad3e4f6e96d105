package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/lexchunk/internal/pipeline"
)

const statute = `LUẬT ĐẤT ĐAI
Số: 31/2024/QH15
Điều 1. Phạm vi điều chỉnh
Luật này quy định về chế độ sở hữu đất đai.
Điều 2. Đối tượng áp dụng
1. Cơ quan nhà nước.
2. Người sử dụng đất.
`

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("LEXCHUNK_TOKENIZER", "estimate")
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	err := rootCmd.Execute()
	return out.String(), err
}

func TestChunkCommand(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "luat.txt")
	require.NoError(t, os.WriteFile(path, []byte(statute), 0o644))

	out, err := run(t, "chunk", path, "--max-tokens", "500")
	require.NoError(t, err)

	var chunks []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &chunks), out)
	require.Len(t, chunks, 1)
	assert.Equal(t, "luat.txt", chunks[0]["source_file"])
	assert.True(t, strings.HasPrefix(chunks[0]["chunk_content"].(string), "LUẬT ĐẤT ĐAI Số: 31/2024/QH15. Điều 1."))
}

func TestIngestThenExport(t *testing.T) {
	in := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(in, "01.txt"), []byte(statute), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(in, "02.txt"), []byte(statute), 0o644))
	db := filepath.Join(t.TempDir(), "chunks.db")
	exportPath := filepath.Join(t.TempDir(), "chunks.json")

	out, err := run(t, "ingest", in, "--store", db)
	require.NoError(t, err)
	assert.Contains(t, out, "Ingest")
	assert.Contains(t, out, "Files: 2")

	out, err = run(t, "export", exportPath, "--store", db)
	require.NoError(t, err)
	assert.Contains(t, out, "Exported")

	data, err := os.ReadFile(exportPath)
	require.NoError(t, err)
	var recs []map[string]any
	require.NoError(t, json.Unmarshal(data, &recs))
	require.Len(t, recs, 2)
	assert.Equal(t, float64(1), recs[0]["chunk_id"])
	assert.Equal(t, "01.txt", recs[0]["source_file"])
	assert.Equal(t, "02.txt", recs[1]["source_file"])
}

func TestRenderSummary(t *testing.T) {
	sum := &pipeline.Summary{
		Total:             8,
		Succeeded:         1,
		Failed:            7,
		InputFailures:     6,
		IntegrityFailures: 1,
		NewChunks:         1200,
		FirstID:           1,
		LastID:            1200,
		TokenStats:        pipeline.TokenStats{Avg: 640, Max: 800, Utilisation: 0.8},
	}
	for i := range 7 {
		sum.Errors = append(sum.Errors, pipeline.FileError{Source: "f" + string(rune('0'+i)) + ".pdf", Kind: pipeline.KindInput, Error: "bad"})
	}

	var buf bytes.Buffer
	renderSummary(&buf, sum, 800, 1500*time.Millisecond)
	out := buf.String()

	assert.Contains(t, out, "COVERAGE FAILURES")
	assert.Contains(t, out, "1,200")
	assert.Contains(t, out, "1-1200")
	assert.Contains(t, out, "80.0%")
	assert.Contains(t, out, "f4.pdf")
	assert.NotContains(t, out, "f5.pdf")
	assert.Contains(t, out, "and 2 more")
}
