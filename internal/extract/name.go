package extract

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var nameChain = []strategy[string]{
	nameFromJSONLD,
	nameFromSiteName,
	nameFromTitle,
}

// BrandName returns the brand name from structured data, og:site_name or the page title.
func BrandName(doc *goquery.Document) string {
	name, _ := firstOf(doc, nil, nameChain)
	return name
}

func nameFromJSONLD(doc *goquery.Document, _ *url.URL) (string, bool) {
	for _, org := range ldOrganizations(jsonLDNodes(doc)) {
		if org.Name != "" {
			return org.Name, true
		}
	}
	return "", false
}

func nameFromSiteName(doc *goquery.Document, _ *url.URL) (string, bool) {
	content := strings.TrimSpace(doc.Find(`meta[property="og:site_name"]`).First().AttrOr("content", ""))
	return content, content != ""
}

// nameFromTitle keeps the part of <title> before the first "|" or "-".
func nameFromTitle(doc *goquery.Document, _ *url.URL) (string, bool) {
	title := doc.Find("title").First().Text()
	if idx := strings.IndexAny(title, "|-"); idx >= 0 {
		title = title[:idx]
	}
	title = collapseWhitespace(title)
	return title, title != ""
}
