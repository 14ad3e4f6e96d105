package parser

import (
	"bytes"
	"reflect"
	"testing"

	"github.com/fumiama/go-docx"
)

func TestDOCXParser_OneLinePerParagraph(t *testing.T) {
	w := docx.New().WithDefaultTheme()
	w.AddParagraph().AddText("Điều 1. Phạm vi điều chỉnh")
	w.AddParagraph()
	w.AddParagraph().AddText("1. Khoản một")

	var buf bytes.Buffer
	if _, err := w.WriteTo(&buf); err != nil {
		t.Fatalf("write docx: %v", err)
	}

	p := &DOCXParser{}
	src, err := p.Parse(&buf, "luat.docx")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"Điều 1. Phạm vi điều chỉnh", "1. Khoản một"}
	if !reflect.DeepEqual(src.Lines, want) {
		t.Errorf("expected %q, got %q", want, src.Lines)
	}
}

func TestDOCXParser_RejectsGarbage(t *testing.T) {
	p := &DOCXParser{}
	if _, err := p.Parse(bytes.NewReader([]byte("not a zip")), "bad.docx"); err == nil {
		t.Error("expected error for invalid docx")
	}
}
