package assemble

import (
	"context"
	"errors"
	"io"
	"reflect"
	"strings"
	"testing"
	"time"
)

const sampleOutput = "<title>A</title><keywords>x, y</keywords><video_script>S1</video_script>\n" +
	"<title>B</title><keywords>z</keywords><video_script>S2</video_script>"

// sliceStream replays canned tokens, then io.EOF or a configured error.
type sliceStream struct {
	tokens []string
	next   int
	err    error
}

func (s *sliceStream) Recv() (string, error) {
	if s.next >= len(s.tokens) {
		if s.err != nil {
			return "", s.err
		}
		return "", io.EOF
	}
	tok := s.tokens[s.next]
	s.next++
	return tok, nil
}

// fakeClock advances a fixed step on every reading.
type fakeClock struct {
	now  time.Time
	step time.Duration
}

func (c *fakeClock) Now() time.Time {
	c.now = c.now.Add(c.step)
	return c.now
}

func collectSnapshots(t *testing.T, a *Assembler, stream TokenStream) ([][]Item, error) {
	t.Helper()
	var snaps [][]Item
	err := a.Run(context.Background(), stream, func(items []Item) {
		snaps = append(snaps, items)
	})
	return snaps, err
}

func TestRun(t *testing.T) {
	t.Run("single token yields complete items", func(t *testing.T) {
		a := New().WithClock((&fakeClock{}).Now)
		snaps, err := collectSnapshots(t, a, &sliceStream{tokens: []string{sampleOutput}})
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if len(snaps) == 0 {
			t.Fatal("no snapshots emitted")
		}

		final := snaps[len(snaps)-1]
		want := []Item{
			{Title: "A", Keywords: []string{"x", "y"}, Script: "S1"},
			{Title: "B", Keywords: []string{"z"}, Script: "S2"},
		}
		if !reflect.DeepEqual(final, want) {
			t.Errorf("final snapshot = %+v, want %+v", final, want)
		}
	})

	t.Run("driver count is monotonic across every split point", func(t *testing.T) {
		for cut := 1; cut < len(sampleOutput); cut++ {
			stream := &sliceStream{tokens: []string{sampleOutput[:cut], sampleOutput[cut:]}}
			// Clock jumps past the throttle window on every reading so each
			// token produces an emission.
			a := New().WithClock((&fakeClock{step: 2 * time.Second}).Now)

			snaps, err := collectSnapshots(t, a, stream)
			if err != nil {
				t.Fatalf("cut %d: Run() error = %v", cut, err)
			}

			prev := -1
			for _, snap := range snaps {
				if len(snap) < prev {
					t.Fatalf("cut %d: item count regressed from %d to %d", cut, prev, len(snap))
				}
				prev = len(snap)
			}
			if final := snaps[len(snaps)-1]; len(final) != 2 {
				t.Fatalf("cut %d: final item count = %d, want 2", cut, len(final))
			}
		}
	})

	t.Run("throttle suppresses intermediate emissions", func(t *testing.T) {
		// Tokens arrive effectively instantly: the clock barely moves.
		tokens := make([]string, 0, len(sampleOutput))
		for _, r := range sampleOutput {
			tokens = append(tokens, string(r))
		}
		a := New().WithClock((&fakeClock{step: time.Millisecond}).Now)

		snaps, err := collectSnapshots(t, a, &sliceStream{tokens: tokens})
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		// First token emits immediately, everything else lands inside the
		// window, then the final flush always fires.
		if len(snaps) != 2 {
			t.Errorf("emissions = %d, want 2 (first + final flush)", len(snaps))
		}
		if final := snaps[len(snaps)-1]; len(final) != 2 {
			t.Errorf("final item count = %d, want 2", len(final))
		}
	})

	t.Run("final flush fires even within the window", func(t *testing.T) {
		a := New().WithClock((&fakeClock{step: time.Millisecond}).Now)
		snaps, err := collectSnapshots(t, a, &sliceStream{tokens: []string{"<title>A</title>", "<keywords>k</keywords>"}})
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		final := snaps[len(snaps)-1]
		if len(final) != 1 || !reflect.DeepEqual(final[0].Keywords, []string{"k"}) {
			t.Errorf("final snapshot missing flushed keywords: %+v", final)
		}
	})

	t.Run("empty stream still emits one final snapshot", func(t *testing.T) {
		a := New().WithClock((&fakeClock{}).Now)
		snaps, err := collectSnapshots(t, a, &sliceStream{})
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if len(snaps) != 1 || len(snaps[0]) != 0 {
			t.Errorf("snapshots = %v, want one empty snapshot", snaps)
		}
	})

	t.Run("truncated tail leaves fields empty", func(t *testing.T) {
		a := New().WithClock((&fakeClock{}).Now)
		snaps, err := collectSnapshots(t, a, &sliceStream{tokens: []string{"<title>A</title><keywords>x</ke"}})
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		final := snaps[len(snaps)-1]
		if len(final) != 1 {
			t.Fatalf("item count = %d, want 1", len(final))
		}
		if final[0].Title != "A" || len(final[0].Keywords) != 0 || final[0].Script != "" {
			t.Errorf("item = %+v, want title A with empty keywords and script", final[0])
		}
	})

	t.Run("stream failure propagates without a final emission", func(t *testing.T) {
		streamErr := errors.New("model connection reset")
		a := New().WithClock((&fakeClock{step: time.Millisecond}).Now)

		var snaps [][]Item
		err := a.Run(context.Background(), &sliceStream{
			tokens: []string{"<title>A</title>", "<title>B"},
			err:    streamErr,
		}, func(items []Item) {
			snaps = append(snaps, items)
		})

		if !errors.Is(err, streamErr) {
			t.Fatalf("Run() error = %v, want wrapped %v", err, streamErr)
		}
		// Only the first token's emission happened; no flush after the error.
		if len(snaps) != 1 {
			t.Errorf("emissions = %d, want 1", len(snaps))
		}
	})

	t.Run("cancellation stops the run", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		a := New()
		err := a.Run(ctx, &sliceStream{tokens: []string{"<title>A</title>"}}, func([]Item) {
			t.Error("emit called after cancellation")
		})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run() error = %v, want context.Canceled", err)
		}
	})

	t.Run("snapshots do not alias", func(t *testing.T) {
		a := New().WithClock((&fakeClock{step: 2 * time.Second}).Now)
		stream := &sliceStream{tokens: []string{
			"<title>A</title><keywords>x</keywords>",
			"<title>B</title>",
		}}

		var snaps [][]Item
		err := a.Run(context.Background(), stream, func(items []Item) {
			snaps = append(snaps, items)
		})
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}

		// Mutating a retained earlier snapshot must not affect later ones.
		snaps[0][0].Title = "mutated"
		final := snaps[len(snaps)-1]
		if final[0].Title != "A" {
			t.Errorf("later snapshot affected by earlier mutation: %+v", final[0])
		}
	})
}

func TestSplitKeywords(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"plain list", "cars, law, study", []string{"cars", "law", "study"}},
		{"single keyword", "transport", []string{"transport"}},
		{"whitespace trimmed", "  a ,b , c  ", []string{"a", "b", "c"}},
		{"empty string", "", []string{}},
		{"embedded empty piece kept", "a,,b", []string{"a", "", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SplitKeywords(tt.in); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SplitKeywords(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestProjectDriverAlignment(t *testing.T) {
	// Keywords for the second item are still open; the title tag alone
	// decides that two items exist.
	text := "<title>A</title><keywords>x</keywords><video_script>S1</video_script>" +
		"<title>B</title><keywords>unfinished"

	items := project(text, DefaultTags, DefaultDriver, AssignScriptField)
	if len(items) != 2 {
		t.Fatalf("item count = %d, want 2", len(items))
	}
	if items[1].Title != "B" || len(items[1].Keywords) != 0 || items[1].Script != "" {
		t.Errorf("in-progress item = %+v, want title only", items[1])
	}
	if !strings.Contains(items[0].Script, "S1") {
		t.Errorf("first item script = %q", items[0].Script)
	}
}
