package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"brand-profiler/backend/internal/brand"
)

var (
	colorDeclaration = regexp.MustCompile(`(?i)(?:background-color|border-color|color|fill)\s*:\s*(#(?:[0-9a-f]{6}|[0-9a-f]{3})\b|rgb\(\s*\d{1,3}\s*,\s*\d{1,3}\s*,\s*\d{1,3}\s*\))`)
	rgbFunc          = regexp.MustCompile(`(?i)^rgb\(\s*(\d{1,3})\s*,\s*(\d{1,3})\s*,\s*(\d{1,3})\s*\)$`)
)

// Colors returns up to five distinct brand colors declared in inline style
// attributes and <style> blocks, in scan order. Near-white, near-black and gray
// values are dropped.
func Colors(doc *goquery.Document) []string {
	seen := make(map[string]struct{})
	colors := make([]string, 0, brand.MaxColors)

	scan := func(css string) bool {
		for _, match := range colorDeclaration.FindAllStringSubmatch(css, -1) {
			color, ok := NormalizeColor(match[1])
			if !ok || !isBrandColor(color) {
				continue
			}
			if _, dup := seen[color]; dup {
				continue
			}
			seen[color] = struct{}{}
			colors = append(colors, color)
			if len(colors) == brand.MaxColors {
				return false
			}
		}
		return true
	}

	done := false
	doc.Find("[style]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		style, _ := s.Attr("style")
		if !scan(style) {
			done = true
		}
		return !done
	})
	if !done {
		doc.Find("style").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			return scan(s.Text())
		})
	}
	return colors
}

// NormalizeColor converts "#abc", "#AABBCC" or "rgb(r, g, b)" to lower-case "#rrggbb".
func NormalizeColor(value string) (string, bool) {
	value = strings.TrimSpace(value)
	if m := rgbFunc.FindStringSubmatch(value); m != nil {
		var channels [3]int
		for i := range channels {
			n, err := strconv.Atoi(m[i+1])
			if err != nil || n > 255 {
				return "", false
			}
			channels[i] = n
		}
		return fmt.Sprintf("#%02x%02x%02x", channels[0], channels[1], channels[2]), true
	}
	if !strings.HasPrefix(value, "#") {
		return "", false
	}
	hex := strings.ToLower(value[1:])
	if !isHex(hex) {
		return "", false
	}
	switch len(hex) {
	case 3:
		return "#" + string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]}), true
	case 6:
		return "#" + hex, true
	default:
		return "", false
	}
}

func isHex(value string) bool {
	for _, r := range value {
		if !(r >= '0' && r <= '9' || r >= 'a' && r <= 'f') {
			return false
		}
	}
	return value != ""
}

// isBrandColor expects a normalized "#rrggbb" value.
func isBrandColor(color string) bool {
	r, _ := strconv.ParseUint(color[1:3], 16, 8)
	g, _ := strconv.ParseUint(color[3:5], 16, 8)
	b, _ := strconv.ParseUint(color[5:7], 16, 8)

	if r > 240 && g > 240 && b > 240 {
		return false
	}
	if r < 15 && g < 15 && b < 15 {
		return false
	}
	if absDiff(r, g) < 10 && absDiff(g, b) < 10 && absDiff(r, b) < 10 {
		return false
	}
	return true
}

func absDiff(a, b uint64) uint64 {
	if a > b {
		return a - b
	}
	return b - a
}
