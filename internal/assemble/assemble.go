// Package assemble turns a live model token stream into an ordered sequence
// of script items.
//
// The model writes items as repeated groups of tags. Because a tag's closing
// delimiter can arrive many tokens after its opening delimiter, content only
// becomes extractable retroactively; the assembler therefore re-extracts over
// the entire accumulated buffer after every token and rebuilds the item slice
// from scratch each cycle. Payloads are small (kilobytes of script text), so
// the quadratic re-parse is a deliberate correctness-over-speed tradeoff.
package assemble

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/remorses/leggiclip/internal/extract"
)

// Default tag layout for generated scripts. The title tag drives item count:
// an item exists as soon as its title closes, even while its keywords and
// script are still streaming.
var DefaultTags = []string{"title", "keywords", "video_script"}

// DefaultDriver is the tag whose occurrence count determines how many items
// a snapshot contains.
const DefaultDriver = "title"

// DefaultThrottle is the minimum wall-clock interval between non-final
// snapshot emissions.
const DefaultThrottle = time.Second

// Item is one assembled script unit. Title, Keywords and Script come from
// the tag stream; the remaining fields are filled in by later pipeline
// phases as footage is resolved and the avatar render progresses.
type Item struct {
	Title    string   `json:"title"`
	Keywords []string `json:"keywords"`
	Script   string   `json:"script"`

	FootageFiles  []string  `json:"footage_files,omitempty"`
	BackgroundURL string    `json:"background_url,omitempty"`
	RenderID      string    `json:"render_id,omitempty"`
	RenderStatus  string    `json:"render_status,omitempty"`
	VideoURL      string    `json:"video_url,omitempty"`
	CreatedAt     time.Time `json:"created_at,omitzero"`
}

// TokenStream yields appended fragments of model output. Recv returns io.EOF
// when the model finishes; any other error means the stream failed upstream.
type TokenStream interface {
	Recv() (string, error)
}

// Assembler consumes a token stream and emits item snapshots.
// The zero value is not usable; construct with New.
type Assembler struct {
	// Tags is the recognized tag set, Driver the tag whose count determines
	// item count. Driver must be an element of Tags.
	Tags   []string
	Driver string

	// Throttle is the minimum interval between non-final emissions.
	Throttle time.Duration

	// Assign writes one extracted tag value into an item.
	Assign func(item *Item, tag, value string)

	clock func() time.Time
}

// New creates an assembler with the default script tag layout.
func New() *Assembler {
	return &Assembler{
		Tags:     DefaultTags,
		Driver:   DefaultDriver,
		Throttle: DefaultThrottle,
		Assign:   AssignScriptField,
		clock:    time.Now,
	}
}

// WithClock overrides the wall clock used for throttling (tests).
func (a *Assembler) WithClock(fn func() time.Time) *Assembler {
	if fn != nil {
		a.clock = fn
	}
	return a
}

// AssignScriptField maps the default script tags onto item fields.
func AssignScriptField(item *Item, tag, value string) {
	switch tag {
	case "title":
		item.Title = value
	case "keywords":
		item.Keywords = SplitKeywords(value)
	case "video_script":
		item.Script = value
	}
}

// SplitKeywords splits raw keyword tag content on commas, trimming each
// piece. An empty string yields no keywords; embedded empty pieces in a
// non-empty string are kept as written.
func SplitKeywords(s string) []string {
	if s == "" {
		return []string{}
	}
	parts := strings.Split(s, ",")
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = strings.TrimSpace(p)
	}
	return out
}

// Run drives the stream to completion, calling emit with the current item
// snapshot at most once per throttle window, plus exactly one unconditional
// final emission reflecting the fully-drained stream. Run is single-threaded:
// emit is called synchronously between tokens, and each snapshot is a fresh
// slice, never shared with a previous emission.
//
// If the stream fails, Run returns the error without any further emission; a
// half-built sequence must not be mistaken for a final one.
func (a *Assembler) Run(ctx context.Context, stream TokenStream, emit func([]Item)) error {
	tags := a.Tags
	if len(tags) == 0 {
		tags = DefaultTags
	}
	driver := a.Driver
	if driver == "" {
		driver = DefaultDriver
	}
	throttle := a.Throttle
	if throttle <= 0 {
		throttle = DefaultThrottle
	}
	assign := a.Assign
	if assign == nil {
		assign = AssignScriptField
	}
	clock := a.clock
	if clock == nil {
		clock = time.Now
	}

	var buf strings.Builder
	var lastEmit time.Time

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		token, err := stream.Recv()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("token stream failed: %w", err)
		}

		buf.WriteString(token)
		items := project(buf.String(), tags, driver, assign)

		now := clock()
		if !lastEmit.IsZero() && now.Sub(lastEmit) < throttle {
			continue
		}
		emit(items)
		lastEmit = now
	}

	// Final flush, regardless of the throttle window. Extraction is pure, so
	// re-projecting the full buffer reproduces the latest computed state.
	emit(project(buf.String(), tags, driver, assign))
	return nil
}

// project rebuilds the whole item slice from one extraction pass. Index i of
// each tag's array is zipped into item i; a tag whose array is still shorter
// than the driver's leaves that field at its empty value until a later token
// completes it.
func project(text string, tags []string, driver string, assign func(*Item, string, string)) []Item {
	res := extract.Extract(text, tags)
	count := len(res.Get(driver))

	items := make([]Item, count)
	for i := 0; i < count; i++ {
		item := Item{Keywords: []string{}}
		for _, tag := range tags {
			values := res.Get(tag)
			if i < len(values) {
				assign(&item, tag, values[i])
			}
		}
		items[i] = item
	}
	return items
}
