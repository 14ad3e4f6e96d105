package hierarchy

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dgallion1/lexchunk/internal/doctree"
)

func TestDetectTitle(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		want  string
		found bool
	}{
		{
			name:  "joins keyword line with the next",
			lines: []string{"CHÍNH PHỦ", "NGHỊ ĐỊNH", "Số 12/2022/NĐ-CP", "Điều 1"},
			want:  "NGHỊ ĐỊNH Số 12/2022/NĐ-CP",
			found: true,
		},
		{
			name:  "keyword on the last line",
			lines: []string{"CỘNG HÒA", "Thông tư 05"},
			want:  "Thông tư 05",
			found: true,
		},
		{
			name:  "case insensitive",
			lines: []string{"HIẾN PHÁP", "năm 2013"},
			want:  "HIẾN PHÁP năm 2013",
			found: true,
		},
		{
			name:  "no keyword",
			lines: []string{"Điều 1", "nội dung"},
			want:  doctree.UnknownTitle,
		},
		{
			name: "empty",
			want: doctree.UnknownTitle,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := DetectTitle(tt.lines)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.found, found)
		})
	}
}

func TestDetectTitle_OnlyScansHeader(t *testing.T) {
	var lines []string
	for i := 0; i < TitleScanLines; i++ {
		lines = append(lines, fmt.Sprintf("dòng %d", i))
	}
	lines = append(lines, "Luật Đất đai", "số 31/2024/QH15")

	got, found := DetectTitle(lines)
	assert.False(t, found)
	assert.Equal(t, doctree.UnknownTitle, got)
}

func TestTruncateAppendix(t *testing.T) {
	lines := []string{"Điều 1", "nội dung", "Phụ lục I", "Mẫu số 01", "Điều 2"}

	kept, found := TruncateAppendix(lines)
	assert.True(t, found)
	assert.Equal(t, lines[:2], kept)
}

func TestTruncateAppendix_CaseInsensitive(t *testing.T) {
	kept, found := TruncateAppendix([]string{"Điều 1", "PHỤ LỤC", "x"})
	assert.True(t, found)
	assert.Equal(t, []string{"Điều 1"}, kept)
}

func TestTruncateAppendix_MarkerMustLeadTheLine(t *testing.T) {
	lines := []string{"Điều 1", "Ban hành kèm theo Phụ lục I"}

	kept, found := TruncateAppendix(lines)
	assert.False(t, found)
	assert.Equal(t, lines, kept)
}
