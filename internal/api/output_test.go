package api

import (
	"bytes"
	"strings"
	"testing"
)

func TestOutputTo(t *testing.T) {
	data := map[string]any{"title": "Art. 7", "count": 2}

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		if err := outputTo(&buf, OutputFormatYAML, data); err != nil {
			t.Fatalf("outputTo() error = %v", err)
		}
		if !strings.Contains(buf.String(), "title: Art. 7") {
			t.Errorf("yaml output missing title: %q", buf.String())
		}
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		if err := outputTo(&buf, OutputFormatJSON, data); err != nil {
			t.Fatalf("outputTo() error = %v", err)
		}
		if !strings.Contains(buf.String(), `"title": "Art. 7"`) {
			t.Errorf("json output missing title: %q", buf.String())
		}
	})

	t.Run("unknown format errors", func(t *testing.T) {
		var buf bytes.Buffer
		if err := outputTo(&buf, OutputFormat("xml"), data); err == nil {
			t.Error("expected error for unknown format")
		}
	})
}

func TestSetOutputFormat(t *testing.T) {
	defer SetOutputFormat("yaml")

	SetOutputFormat("json")
	if outputFormat != OutputFormatJSON {
		t.Errorf("outputFormat = %q, want json", outputFormat)
	}

	SetOutputFormat("not-a-format")
	if outputFormat != OutputFormatYAML {
		t.Errorf("outputFormat = %q, want yaml fallback", outputFormat)
	}
}
