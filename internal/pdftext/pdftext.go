// Package pdftext pulls plain text out of uploaded PDF law documents.
//
// Extraction is best effort: it walks each page's content stream and
// collects the literal strings fed to the text-showing operators. Scanned
// PDFs without a text layer yield an empty result, which callers must treat
// as "no usable text".
package pdftext

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

func relaxedConf() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// PageCount returns the number of pages in the PDF at path.
func PageCount(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	count, err := api.PageCount(f, relaxedConf())
	if err != nil {
		return 0, fmt.Errorf("failed to get page count: %w", err)
	}
	return count, nil
}

// ExtractText returns the text content of every page, pages separated by
// blank lines.
func ExtractText(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	return extractText(f)
}

// ExtractBytes extracts text from an in-memory PDF document.
func ExtractBytes(data []byte) (string, error) {
	return extractText(bytes.NewReader(data))
}

func extractText(rs io.ReadSeeker) (string, error) {
	conf := relaxedConf()
	conf.Cmd = model.EXTRACTCONTENT
	pctx, err := api.ReadValidateAndOptimize(rs, conf)
	if err != nil {
		return "", fmt.Errorf("failed to read PDF: %w", err)
	}

	var pages []string
	for pageNr := 1; pageNr <= pctx.PageCount; pageNr++ {
		r, err := pdfcpu.ExtractPageContent(pctx, pageNr)
		if err != nil {
			return "", fmt.Errorf("failed to extract content of page %d: %w", pageNr, err)
		}
		if r == nil {
			continue
		}
		content, err := io.ReadAll(r)
		if err != nil {
			return "", fmt.Errorf("failed to read content of page %d: %w", pageNr, err)
		}
		if text := scanContentText(content); text != "" {
			pages = append(pages, text)
		}
	}
	return strings.Join(pages, "\n\n"), nil
}

// scanContentText collects the literal strings of a page content stream.
// Balanced parentheses and backslash escapes follow the PDF string syntax;
// anything this scanner cannot interpret is dropped rather than erroring.
func scanContentText(content []byte) string {
	var out strings.Builder
	depth := 0
	var cur strings.Builder

	for i := 0; i < len(content); i++ {
		c := content[i]

		if depth == 0 {
			if c == '(' {
				depth = 1
				cur.Reset()
			}
			continue
		}

		switch c {
		case '\\':
			if i+1 >= len(content) {
				break
			}
			i++
			switch content[i] {
			case 'n', 'r':
				cur.WriteByte('\n')
			case 't':
				cur.WriteByte(' ')
			case '(', ')', '\\':
				cur.WriteByte(content[i])
			}
		case '(':
			depth++
			cur.WriteByte(c)
		case ')':
			depth--
			if depth == 0 {
				if s := cur.String(); s != "" {
					if out.Len() > 0 {
						out.WriteByte(' ')
					}
					out.WriteString(s)
				}
			} else {
				cur.WriteByte(c)
			}
		default:
			cur.WriteByte(c)
		}
	}

	return strings.TrimSpace(out.String())
}
