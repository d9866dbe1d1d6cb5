package reader

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// blockTags start a new text block.
var blockTags = map[string]bool{
	"p": true, "div": true, "li": true, "td": true, "th": true, "tr": true,
	"blockquote": true, "pre": true, "section": true, "article": true, "main": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"br": true, "hr": true, "dt": true, "dd": true, "figcaption": true,
}

// skipTags hold no readable text.
var skipTags = map[string]bool{
	"head": true, "script": true, "style": true, "noscript": true,
	"template": true, "iframe": true, "svg": true,
}

// extractHTML returns the visible text of an HTML document, one block per block-level element,
// with runs of whitespace collapsed.
func extractHTML(r io.Reader) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	var (
		blocks  []string
		current strings.Builder
	)
	flush := func() {
		blocks = append(blocks, strings.Join(strings.Fields(current.String()), " "))
		current.Reset()
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			current.WriteString(n.Data)
			return
		case html.CommentNode:
			return
		case html.ElementNode:
			if skipTags[n.Data] {
				return
			}
			if blockTags[n.Data] {
				flush()
				defer flush()
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	flush()

	return joinBlocks(blocks), nil
}
