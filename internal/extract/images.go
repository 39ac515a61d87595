package extract

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"brand-profiler/backend/internal/brand"
)

var excludedImageTerms = []string{"icon", "logo", "placeholder", "spacer", "pixel", "transparent"}

var lazySourceAttrs = []string{"data-src", "data-lazy-src", "data-original"}

// Images returns up to 15 distinct, absolute http(s) image URLs that look like
// content imagery rather than icons, logos or spacers.
func Images(doc *goquery.Document, base *url.URL) []string {
	seen := make(map[string]struct{})
	images := make([]string, 0, brand.MaxImages)

	doc.Find("img").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		src := pickImageSource(s)
		if src == "" || !keepImage(s, src) {
			return true
		}
		resolved := ResolveURL(src, base)
		if !hasHTTPPrefix(resolved) {
			return true
		}
		if _, dup := seen[resolved]; dup {
			return true
		}
		seen[resolved] = struct{}{}
		images = append(images, resolved)
		return len(images) < brand.MaxImages
	})
	return images
}

// pickImageSource prefers lazy-load attributes, then src, then the last
// (usually largest) srcset candidate.
func pickImageSource(s *goquery.Selection) string {
	for _, attr := range lazySourceAttrs {
		if v := strings.TrimSpace(s.AttrOr(attr, "")); v != "" {
			return v
		}
	}
	if v := strings.TrimSpace(s.AttrOr("src", "")); v != "" {
		return v
	}
	srcset := s.AttrOr("srcset", "")
	if srcset == "" {
		srcset = s.AttrOr("data-srcset", "")
	}
	candidates := srcsetCandidates(srcset)
	if len(candidates) == 0 {
		return ""
	}
	return candidates[len(candidates)-1]
}

func srcsetCandidates(srcset string) []string {
	var out []string
	for _, part := range strings.Split(srcset, ",") {
		fields := strings.Fields(part)
		if len(fields) > 0 {
			out = append(out, fields[0])
		}
	}
	return out
}

func keepImage(s *goquery.Selection, src string) bool {
	lower := strings.ToLower(src)
	if strings.HasPrefix(lower, "data:") {
		return false
	}
	for _, term := range excludedImageTerms {
		if strings.Contains(lower, term) {
			return false
		}
	}
	for _, attr := range []string{"width", "height"} {
		if v, ok := s.Attr(attr); ok {
			if n, ok := leadingInt(v); ok && n < 100 {
				return false
			}
		}
	}
	return !hiddenByStyle(s.AttrOr("style", ""))
}

// leadingInt parses the leading decimal digits of value, so "50px" yields 50.
func leadingInt(value string) (int, bool) {
	value = strings.TrimSpace(value)
	n, digits := 0, 0
	for _, r := range value {
		if r < '0' || r > '9' {
			break
		}
		n = n*10 + int(r-'0')
		digits++
		if digits > 6 {
			break
		}
	}
	return n, digits > 0
}

func hiddenByStyle(style string) bool {
	compact := strings.ToLower(strings.Join(strings.Fields(style), ""))
	return strings.Contains(compact, "display:none") || strings.Contains(compact, "visibility:hidden")
}
