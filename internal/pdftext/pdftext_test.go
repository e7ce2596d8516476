package pdftext

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// buildMinimalPDF assembles a one-page PDF whose content stream shows text,
// computing the xref offsets from the assembled bytes.
func buildMinimalPDF(text string) []byte {
	content := "BT /F1 12 Tf 72 720 Td (" + text + ") Tj ET"
	objs := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents 4 0 R /Resources << /Font << /F1 5 0 R >> >> >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>",
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objs))
	for i, body := range objs {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, body)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objs)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objs)+1, xref)
	return buf.Bytes()
}

func TestScanContentText(t *testing.T) {
	cases := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "single Tj string",
			content: `BT /F1 12 Tf 72 720 Td (Art. 7 del codice) Tj ET`,
			want:    "Art. 7 del codice",
		},
		{
			name:    "multiple strings joined with spaces",
			content: `BT (Chiunque) Tj (cagiona) Tj (un danno) Tj ET`,
			want:    "Chiunque cagiona un danno",
		},
		{
			name:    "TJ array",
			content: `BT [(Art.) -250 (7)] TJ ET`,
			want:    "Art. 7",
		},
		{
			name:    "escaped parentheses and backslash",
			content: `BT (comma 1 \(lettera a\) e \\ altro) Tj ET`,
			want:    `comma 1 (lettera a) e \ altro`,
		},
		{
			name:    "balanced nested parens",
			content: `BT (outer (inner) tail) Tj ET`,
			want:    "outer (inner) tail",
		},
		{
			name:    "newline escape",
			content: `BT (riga uno\nriga due) Tj ET`,
			want:    "riga uno\nriga due",
		},
		{
			name:    "no text operators",
			content: `q 1 0 0 1 0 0 cm /Im1 Do Q`,
			want:    "",
		},
		{
			name:    "trailing backslash does not panic",
			content: `BT (incompleto\`,
			want:    "",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := scanContentText([]byte(tc.content))
			if got != tc.want {
				t.Errorf("scanContentText() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestExtractBytes(t *testing.T) {
	const want = "Art. 2043 risarcimento del danno"

	got, err := ExtractBytes(buildMinimalPDF(want))
	if err != nil {
		t.Fatalf("ExtractBytes() error = %v", err)
	}
	if got != want {
		t.Errorf("ExtractBytes() = %q, want %q", got, want)
	}
}

func TestExtractText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "law.pdf")
	if err := os.WriteFile(path, buildMinimalPDF("Art. 1"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := ExtractText(path)
	if err != nil {
		t.Fatalf("ExtractText() error = %v", err)
	}
	if got != "Art. 1" {
		t.Errorf("ExtractText() = %q, want %q", got, "Art. 1")
	}

	count, err := PageCount(path)
	if err != nil {
		t.Fatalf("PageCount() error = %v", err)
	}
	if count != 1 {
		t.Errorf("PageCount() = %d, want 1", count)
	}
}

func TestExtractBytes_InvalidPDF(t *testing.T) {
	if _, err := ExtractBytes([]byte("this is not a pdf")); err == nil {
		t.Error("expected error for non-PDF input")
	}
}

func TestExtractText_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.pdf")
	if _, err := ExtractText(path); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := PageCount(path); err == nil {
		t.Error("expected page count error for missing file")
	}
}
