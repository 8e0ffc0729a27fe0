// Package netscape parses and renders the Netscape bookmark file format used
// by browser import/export. The format nests folders via sibling elements:
//
//	<DL><p>
//	  <DT><H3>Folder Name</H3>
//	  <DL><p>
//	    <DT><A HREF="https://...">Title</A>
//	  </DL><p>
//	</DL>
//
// The key structural rule: an <H3> folder heading is followed (as a sibling
// DT, not nested inside it) by a <DL> block holding the folder's children.
// Regexes cannot match the paired DL tags, so parsing runs over a flat token
// stream with a positional cursor.
package netscape

import (
	"errors"
	"strings"

	"golang.org/x/net/html"
)

// NodeType discriminates parsed tree nodes.
type NodeType int

const (
	NodeFolder NodeType = iota
	NodeBookmark
)

// Node is one entry in the parsed bookmark tree.
type Node struct {
	Type     NodeType
	Name     string // folder name
	Title    string // bookmark title
	URL      string // bookmark target
	Children []*Node
}

// ErrTooDeep rejects adversarially nested inputs before the tree walk can
// exhaust the stack.
var ErrTooDeep = errors.New("bookmark file nesting too deep")

// maxDepth bounds folder nesting. Real browser exports stay in single digits.
const maxDepth = 100

type tokenKind int

const (
	tokenOpen tokenKind = iota
	tokenClose
	tokenText
)

type token struct {
	kind tokenKind
	tag  string
	href string
	text string
}

// relevantTags is the fixed tag set the parser reacts to; everything else in
// the source is reduced to its text content or ignored.
var relevantTags = map[string]bool{
	"dl": true, "dt": true, "h3": true, "a": true, "p": true, "h1": true, "h2": true,
}

// tokenize flattens the source into open/close/text events for the relevant
// tag set. The html tokenizer handles entity decoding and malformed markup.
func tokenize(source string) []token {
	z := html.NewTokenizer(strings.NewReader(source))
	var tokens []token

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			// EOF or unreadable garbage; either way we parse what we have.
			return tokens
		case html.StartTagToken, html.SelfClosingTagToken:
			t := z.Token()
			if !relevantTags[t.Data] {
				continue
			}
			tok := token{kind: tokenOpen, tag: t.Data}
			for _, a := range t.Attr {
				if strings.EqualFold(a.Key, "href") {
					tok.href = a.Val
				}
			}
			tokens = append(tokens, tok)
		case html.EndTagToken:
			t := z.Token()
			if relevantTags[t.Data] {
				tokens = append(tokens, token{kind: tokenClose, tag: t.Data})
			}
		case html.TextToken:
			text := strings.TrimSpace(z.Token().Data)
			if text != "" {
				tokens = append(tokens, token{kind: tokenText, text: text})
			}
		}
	}
}

// Parse returns the bookmark tree rooted at the first top-level <DL> in the
// source, or an empty tree if none is found.
func Parse(source string) ([]*Node, error) {
	tokens := tokenize(source)
	for pos := 0; pos < len(tokens); pos++ {
		if tokens[pos].kind == tokenOpen && tokens[pos].tag == "dl" {
			pos++
			return parseDL(tokens, &pos, 0)
		}
	}
	return nil, nil
}

// parseDL consumes tokens inside one <DL> block until its closing tag,
// producing the ordered child list. pos is a shared cursor advanced across
// recursive calls.
func parseDL(tokens []token, pos *int, depth int) ([]*Node, error) {
	if depth > maxDepth {
		return nil, ErrTooDeep
	}

	var items []*Node

	for *pos < len(tokens) {
		tok := tokens[*pos]

		if tok.kind == tokenClose && tok.tag == "dl" {
			*pos++
			break
		}

		// A nested DL with no preceding H3 is malformed; fold its contents
		// into the most recent folder if there is one, otherwise discard.
		if tok.kind == tokenOpen && tok.tag == "dl" {
			*pos++
			children, err := parseDL(tokens, pos, depth+1)
			if err != nil {
				return nil, err
			}
			if len(items) > 0 && items[len(items)-1].Type == NodeFolder {
				last := items[len(items)-1]
				last.Children = append(last.Children, children...)
			}
			continue
		}

		if tok.kind == tokenOpen && tok.tag == "dt" {
			*pos++
			if err := parseDT(tokens, pos, depth, &items); err != nil {
				return nil, err
			}
			continue
		}

		*pos++
	}

	return items, nil
}

// parseDT handles the content of one <DT>: an H3 heading denotes a folder,
// an anchor denotes a bookmark, anything else is skipped.
func parseDT(tokens []token, pos *int, depth int, items *[]*Node) error {
	for *pos < len(tokens) {
		inner := tokens[*pos]

		if inner.kind == tokenOpen && inner.tag == "h3" {
			*pos++
			folder := &Node{Type: NodeFolder, Name: collectText(tokens, pos, "h3")}
			*items = append(*items, folder)

			// The folder's <DL> should follow as a sibling; skip paragraph
			// markers and stray text, but stop at the next item or the end
			// of the parent list.
			for *pos < len(tokens) {
				peek := tokens[*pos]
				if peek.kind == tokenOpen && peek.tag == "dl" {
					*pos++
					children, err := parseDL(tokens, pos, depth+1)
					if err != nil {
						return err
					}
					folder.Children = children
					break
				}
				if (peek.kind == tokenOpen && peek.tag == "dt") ||
					(peek.kind == tokenClose && peek.tag == "dl") {
					break
				}
				*pos++
			}
			return nil
		}

		if inner.kind == tokenOpen && inner.tag == "a" {
			url := inner.href
			*pos++
			title := collectText(tokens, pos, "a")
			if url != "" && !strings.HasPrefix(url, "javascript:") && url != "about:blank" {
				if title == "" {
					title = url
				}
				*items = append(*items, &Node{Type: NodeBookmark, Title: title, URL: url})
			}
			return nil
		}

		// Anything else inside the DT: skip one token and give up on it.
		*pos++
		return nil
	}
	return nil
}

// collectText concatenates text tokens until the matching close tag.
func collectText(tokens []token, pos *int, closeTag string) string {
	var sb strings.Builder
	for *pos < len(tokens) {
		t := tokens[*pos]
		if t.kind == tokenText {
			sb.WriteString(t.text)
			*pos++
			continue
		}
		if t.kind == tokenClose && t.tag == closeTag {
			*pos++
		}
		break
	}
	return strings.TrimSpace(sb.String())
}
