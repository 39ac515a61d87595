package extract

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var logoChain = []strategy[string]{
	logoFromJSONLD,
	logoFromMarkedImage,
	logoFromSelector(".logo img", "src"),
	logoFromSelector("header img", "src"),
	logoFromSelector(`link[rel="icon"]`, "href"),
	logoFromSelector(`link[rel="shortcut icon"]`, "href"),
	logoFromSelector(`link[rel="apple-touch-icon"]`, "href"),
}

// Logo returns the resolved URL of the most likely brand logo, or "".
func Logo(doc *goquery.Document, base *url.URL) string {
	logo, _ := firstOf(doc, base, logoChain)
	return logo
}

func logoFromJSONLD(doc *goquery.Document, base *url.URL) (string, bool) {
	for _, org := range ldOrganizations(jsonLDNodes(doc)) {
		if org.Logo != "" {
			return ResolveURL(org.Logo, base), true
		}
	}
	return "", false
}

// logoFromMarkedImage finds the first img whose class, id or alt mentions "logo".
func logoFromMarkedImage(doc *goquery.Document, base *url.URL) (string, bool) {
	var found string
	doc.Find("img").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		for _, attr := range []string{"class", "id", "alt"} {
			value, _ := s.Attr(attr)
			if !strings.Contains(strings.ToLower(value), "logo") {
				continue
			}
			if src := imageSource(s); src != "" {
				found = ResolveURL(src, base)
				return false
			}
		}
		return true
	})
	return found, found != ""
}

func logoFromSelector(selector, attr string) strategy[string] {
	return func(doc *goquery.Document, base *url.URL) (string, bool) {
		value, ok := doc.Find(selector).First().Attr(attr)
		value = strings.TrimSpace(value)
		if !ok || value == "" {
			return "", false
		}
		return ResolveURL(value, base), true
	}
}

func imageSource(s *goquery.Selection) string {
	for _, attr := range []string{"src", "data-src"} {
		if v := strings.TrimSpace(s.AttrOr(attr, "")); v != "" {
			return v
		}
	}
	return ""
}
