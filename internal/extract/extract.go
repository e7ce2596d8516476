// Package extract pulls tagged content out of markup-like text.
//
// The model emits scripts as repeated groups of tags. The text we see is
// usually an in-progress prefix of the final output, so the parser has to
// tolerate unbalanced and truncated markup: anything well-formed so far is
// extracted, the unparseable tail is ignored.
package extract

import (
	"strings"

	"golang.org/x/net/html"
)

// Result maps each requested tag name to the ordered contents of every
// occurrence of that tag, in document order. Text found outside any
// recognized tag lands in Others. Every requested tag is present as a key,
// possibly with an empty slice.
type Result struct {
	Tags   map[string][]string
	Others []string
}

// Get returns the extracted contents for a tag.
func (r Result) Get(tag string) []string {
	return r.Tags[tag]
}

// node is one element or text run in the parsed tree. Element content is
// addressed as a byte range into the source text so nested markup is
// reproduced exactly as written, entities included.
type node struct {
	element  string // empty for text nodes
	start    int    // offset just past the start tag
	end      int    // offset of the end tag
	closed   bool
	children []*node
}

// Extract parses text and returns the contents of every occurrence of the
// recognized tags. Tag matching is by exact name. Unclosed tags are skipped:
// their content may still be growing upstream, so it is not extractable yet.
// Extract is a pure function; identical input yields identical output.
func Extract(text string, tags []string) Result {
	res := Result{Tags: make(map[string][]string, len(tags))}
	for _, tag := range tags {
		res.Tags[tag] = []string{}
	}

	root := parse(text)

	recognized := make(map[string]bool, len(tags))
	for _, tag := range tags {
		recognized[tag] = true
	}
	collect(root, text, recognized, false, &res)

	return res
}

// parse builds a tree from possibly-truncated markup. The tokenizer never
// fails: on a malformed or incomplete tail it simply stops, leaving the tree
// built from the well-formed prefix. Elements still open at that point stay
// marked unclosed.
func parse(text string) *node {
	z := html.NewTokenizer(strings.NewReader(text))
	root := &node{closed: true}
	stack := []*node{root}
	offset := 0

	for {
		tt := z.Next()
		raw := z.Raw()
		switch tt {
		case html.ErrorToken:
			// EOF or an unparseable tail. Best effort: keep what we have.
			return root

		case html.StartTagToken:
			n := &node{
				element: startTagName(raw),
				start:   offset + len(raw),
			}
			top := stack[len(stack)-1]
			top.children = append(top.children, n)
			stack = append(stack, n)

		case html.SelfClosingTagToken:
			n := &node{
				element: startTagName(raw),
				start:   offset + len(raw),
				end:     offset + len(raw),
				closed:  true,
			}
			top := stack[len(stack)-1]
			top.children = append(top.children, n)

		case html.EndTagToken:
			name := endTagName(raw)
			// Close the nearest matching open element. Everything opened
			// inside it is implicitly terminated at the same point.
			for i := len(stack) - 1; i > 0; i-- {
				if stack[i].element != name {
					continue
				}
				for j := len(stack) - 1; j >= i; j-- {
					stack[j].end = offset
					stack[j].closed = true
				}
				stack = stack[:i]
				break
			}
			// No matching open element: stray end tag, ignored.

		case html.TextToken:
			top := stack[len(stack)-1]
			top.children = append(top.children, &node{
				start: offset,
				end:   offset + len(raw),
			})
		}
		// Comments and doctypes contribute nothing but still advance the
		// offset below.
		offset += len(raw)
	}
}

// collect walks the tree depth-first in document order. Recognized closed
// elements contribute their byte-faithful inner content; text runs outside
// any recognized element contribute to Others. Recognized tags nested inside
// other elements are still found.
func collect(n *node, text string, recognized map[string]bool, insideRecognized bool, res *Result) {
	for _, child := range n.children {
		if child.element == "" {
			if insideRecognized {
				continue
			}
			if trimmed := strings.TrimSpace(text[child.start:child.end]); trimmed != "" {
				res.Others = append(res.Others, trimmed)
			}
			continue
		}

		match := recognized[child.element]
		if match && child.closed {
			res.Tags[child.element] = append(res.Tags[child.element], strings.TrimSpace(text[child.start:child.end]))
		}
		collect(child, text, recognized, insideRecognized || match, res)
	}
}

// startTagName reads the element name out of raw start-tag bytes ("<name ...>").
// The raw bytes preserve the author's casing, unlike Tokenizer.TagName which
// canonicalizes to lower case.
func startTagName(raw []byte) string {
	return tagName(raw, 1)
}

// endTagName reads the element name out of raw end-tag bytes ("</name>").
func endTagName(raw []byte) string {
	return tagName(raw, 2)
}

func tagName(raw []byte, skip int) string {
	i := skip
	for i < len(raw) {
		c := raw[i]
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '/' || c == '>' {
			break
		}
		i++
	}
	return string(raw[skip:i])
}
