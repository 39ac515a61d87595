// Package extract derives brand signals from a single HTML document.
//
// Every sub-extractor is independent: a panic in one is recovered and logged,
// and its field falls back to the zero value while the others still run.
// Output depends only on the input bytes and base URL.
package extract

import (
	"bytes"
	"net/url"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"brand-profiler/backend/internal/brand"
)

// Extract parses html once and runs every sub-extractor against it.
func Extract(html []byte, base *url.URL) brand.BrandData {
	data := brand.BrandData{
		Colors:      []string{},
		Images:      []string{},
		Products:    []brand.Product{},
		SocialLinks: map[string]string{},
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		logrus.WithError(err).Warn("parse html")
		return data
	}

	data.Colors = orEmpty(safely("colors", func() []string { return Colors(doc) }))
	data.Logo = safely("logo", func() string { return Logo(doc, base) })
	data.Name = safely("name", func() string { return BrandName(doc) })
	data.Images = orEmpty(safely("images", func() []string { return Images(doc, base) }))
	data.TextContent = safely("text", func() string { return TextContent(doc) })
	if products := safely("products", func() []brand.Product { return Products(doc, base) }); products != nil {
		data.Products = products
	}
	if links := safely("social", func() map[string]string { return SocialLinks(doc) }); links != nil {
		data.SocialLinks = links
	}
	return data
}

// safely runs fn and converts a panic into the zero value of T.
func safely[T any](name string, fn func() T) (out T) {
	defer func() {
		if r := recover(); r != nil {
			logrus.WithFields(logrus.Fields{"extractor": name, "panic": r}).Warn("extractor failed")
			var zero T
			out = zero
		}
	}()
	return fn()
}

func orEmpty(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

// strategy is one candidate in an ordered fallback chain.
type strategy[T any] func(doc *goquery.Document, base *url.URL) (T, bool)

// firstOf evaluates strategies in order and returns the first successful result.
func firstOf[T any](doc *goquery.Document, base *url.URL, chain []strategy[T]) (T, bool) {
	for _, try := range chain {
		if v, ok := try(doc, base); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}
