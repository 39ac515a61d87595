package extract

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"brand-profiler/backend/internal/brand"
)

const mainContentThreshold = 500

var skippedTextTags = map[string]struct{}{
	"script":   {},
	"style":    {},
	"noscript": {},
	"iframe":   {},
	"template": {},
}

var blockTextTags = map[string]struct{}{
	"p": {}, "div": {}, "section": {}, "article": {}, "main": {}, "header": {}, "footer": {},
	"nav": {}, "aside": {}, "h1": {}, "h2": {}, "h3": {}, "h4": {}, "h5": {}, "h6": {},
	"li": {}, "ul": {}, "ol": {}, "table": {}, "tr": {}, "td": {}, "th": {}, "br": {},
	"figure": {}, "figcaption": {}, "blockquote": {}, "form": {}, "button": {},
}

// TextContent returns the visible page text with whitespace collapsed, taken
// from the main content region when it holds enough text and from <body>
// otherwise. The result is at most 15000 characters.
func TextContent(doc *goquery.Document) string {
	main := nodesText(outermost(doc.Find("main, article, #content, .content")))
	if utf8.RuneCountInString(main) > mainContentThreshold {
		return truncateRunes(main, brand.MaxTextContent)
	}
	body := doc.Find("body")
	if body.Length() == 0 {
		body = doc.Selection
	}
	return truncateRunes(nodesText(body.Nodes), brand.MaxTextContent)
}

// outermost drops nodes nested inside another node of the same selection.
func outermost(sel *goquery.Selection) []*html.Node {
	nodes := sel.Nodes
	out := make([]*html.Node, 0, len(nodes))
	for _, n := range nodes {
		nested := false
		for p := n.Parent; p != nil && !nested; p = p.Parent {
			for _, other := range nodes {
				if other == p {
					nested = true
					break
				}
			}
		}
		if !nested {
			out = append(out, n)
		}
	}
	return out
}

func nodesText(nodes []*html.Node) string {
	var b strings.Builder
	for _, n := range nodes {
		writeText(&b, n)
	}
	return collapseWhitespace(b.String())
}

func writeText(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
		return
	case html.ElementNode:
		tag := strings.ToLower(n.Data)
		if _, skip := skippedTextTags[tag]; skip {
			return
		}
		_, block := blockTextTags[tag]
		if block {
			b.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			writeText(b, c)
		}
		if block {
			b.WriteByte(' ')
		}
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeText(b, c)
	}
}
