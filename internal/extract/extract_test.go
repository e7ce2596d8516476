package extract

import (
	"reflect"
	"testing"
)

var scriptTags = []string{"title", "keywords", "video_script"}

func TestExtract(t *testing.T) {
	t.Run("repeated groups in document order", func(t *testing.T) {
		text := "<title>A</title><keywords>x, y</keywords><video_script>S1</video_script>\n" +
			"<title>B</title><keywords>z</keywords><video_script>S2</video_script>"

		res := Extract(text, scriptTags)

		if want := []string{"A", "B"}; !reflect.DeepEqual(res.Get("title"), want) {
			t.Errorf("title = %v, want %v", res.Get("title"), want)
		}
		if want := []string{"x, y", "z"}; !reflect.DeepEqual(res.Get("keywords"), want) {
			t.Errorf("keywords = %v, want %v", res.Get("keywords"), want)
		}
		if want := []string{"S1", "S2"}; !reflect.DeepEqual(res.Get("video_script"), want) {
			t.Errorf("video_script = %v, want %v", res.Get("video_script"), want)
		}
		if len(res.Others) != 0 {
			t.Errorf("others = %v, want empty", res.Others)
		}
	})

	t.Run("stray text goes to others", func(t *testing.T) {
		res := Extract("<title>A</title>note<title>B</title>", scriptTags)

		if want := []string{"A", "B"}; !reflect.DeepEqual(res.Get("title"), want) {
			t.Errorf("title = %v, want %v", res.Get("title"), want)
		}
		if want := []string{"note"}; !reflect.DeepEqual(res.Others, want) {
			t.Errorf("others = %v, want %v", res.Others, want)
		}
	})

	t.Run("truncated buffer mid-tag does not crash", func(t *testing.T) {
		res := Extract("<title>A</title><keywords>x</ke", scriptTags)

		if want := []string{"A"}; !reflect.DeepEqual(res.Get("title"), want) {
			t.Errorf("title = %v, want %v", res.Get("title"), want)
		}
		if got := res.Get("keywords"); len(got) != 0 {
			t.Errorf("keywords = %v, want empty (tag not closed yet)", got)
		}
		if got := res.Get("video_script"); len(got) != 0 {
			t.Errorf("video_script = %v, want empty", got)
		}
	})

	t.Run("unclosed tag content is not extracted", func(t *testing.T) {
		res := Extract("<video_script>still streaming", scriptTags)
		if got := res.Get("video_script"); len(got) != 0 {
			t.Errorf("video_script = %v, want empty", got)
		}
	})

	t.Run("empty input", func(t *testing.T) {
		res := Extract("", scriptTags)
		for _, tag := range scriptTags {
			got, ok := res.Tags[tag]
			if !ok {
				t.Errorf("missing key %q", tag)
			}
			if len(got) != 0 {
				t.Errorf("%s = %v, want empty", tag, got)
			}
		}
		if len(res.Others) != 0 {
			t.Errorf("others = %v, want empty", res.Others)
		}
	})

	t.Run("no matching tags", func(t *testing.T) {
		res := Extract("<other>Some content</other>\nPlain text\n", []string{"title", "keywords"})
		if got := res.Get("title"); len(got) != 0 {
			t.Errorf("title = %v, want empty", got)
		}
		if want := []string{"Some content", "Plain text"}; !reflect.DeepEqual(res.Others, want) {
			t.Errorf("others = %v, want %v", res.Others, want)
		}
	})

	t.Run("nested recognized tag is found", func(t *testing.T) {
		res := Extract("<wrapper><keywords>a, b</keywords></wrapper>", scriptTags)
		if want := []string{"a, b"}; !reflect.DeepEqual(res.Get("keywords"), want) {
			t.Errorf("keywords = %v, want %v", res.Get("keywords"), want)
		}
		if len(res.Others) != 0 {
			t.Errorf("others = %v, want empty", res.Others)
		}
	})

	t.Run("inner markup reproduced verbatim", func(t *testing.T) {
		res := Extract("<video_script>line one\n<b>bold</b> tail</video_script>", scriptTags)
		if want := []string{"line one\n<b>bold</b> tail"}; !reflect.DeepEqual(res.Get("video_script"), want) {
			t.Errorf("video_script = %v, want %v", res.Get("video_script"), want)
		}
	})

	t.Run("content is trimmed", func(t *testing.T) {
		res := Extract("<keywords>\n  cars, law  \n</keywords>", scriptTags)
		if want := []string{"cars, law"}; !reflect.DeepEqual(res.Get("keywords"), want) {
			t.Errorf("keywords = %v, want %v", res.Get("keywords"), want)
		}
	})

	t.Run("text inside recognized tag never leaks to others", func(t *testing.T) {
		res := Extract("<video_script>body text</video_script>outside", scriptTags)
		if want := []string{"outside"}; !reflect.DeepEqual(res.Others, want) {
			t.Errorf("others = %v, want %v", res.Others, want)
		}
	})

	t.Run("deterministic", func(t *testing.T) {
		text := "<title>A</title>stray<keywords>k1, k2</keywords><video_script>S</video_script><oops>"
		first := Extract(text, scriptTags)
		second := Extract(text, scriptTags)
		if !reflect.DeepEqual(first, second) {
			t.Errorf("two extractions differ:\n%v\n%v", first, second)
		}
	})
}
