// Package enrich reconciles products found in the page with products the
// analyzer inferred, and associates loose page images with products.
package enrich

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"

	"brand-profiler/backend/internal/brand"
)

// ErrMergeItem marks a single record that could not be merged. A detected
// record is dropped, a scraped record is kept unchanged, and the merge continues.
var ErrMergeItem = errors.New("merge item failed")

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// Engine merges scraped and detected products.
type Engine struct {
	// MatchImageNames enables a pass that pairs images whose file name contains
	// the product name slug before positional assignment.
	MatchImageNames bool
}

// Merge returns a new product list. Inputs are not modified.
//
// With no scraped products the detected products are adopted and tagged
// ai_detected. Otherwise each scraped product takes marketing data from the
// first detected product whose name contains, or is contained in, its own.
// Remaining loose images are then handed to imageless products in order.
func (e Engine) Merge(scraped []brand.Product, analysis *brand.AnalysisResult, images []string) []brand.Product {
	var detected []brand.DetectedProduct
	if analysis != nil {
		detected = analysis.DetectedProducts
	}

	var merged []brand.Product
	switch {
	case len(scraped) > 0:
		merged = enrichScraped(scraped, detected)
	case len(detected) > 0:
		merged = adoptDetected(detected)
	default:
		return []brand.Product{}
	}

	used := usedImages(merged)
	if e.MatchImageNames {
		matchByName(merged, images, used)
	}
	assignByPosition(merged, images, used)
	return merged
}

func adoptDetected(detected []brand.DetectedProduct) []brand.Product {
	out := make([]brand.Product, 0, min(len(detected), brand.MaxProducts))
	for i, d := range detected {
		if len(out) == brand.MaxProducts {
			break
		}
		if strings.TrimSpace(d.Name) == "" {
			logItemFailure(i, fmt.Errorf("%w: detected product has no name", ErrMergeItem))
			continue
		}
		out = append(out, brand.Product{
			Name:        d.Name,
			Description: d.Description,
			Price:       d.Price,
			Currency:    d.Currency,
			Metadata: &brand.ProductMetadata{
				MarketingAngles: append([]string(nil), d.MarketingAngles...),
				VisualContext:   d.VisualContext,
				Colors:          append([]string(nil), d.Colors...),
				Source:          brand.SourceAIDetected,
			},
		})
	}
	return out
}

func enrichScraped(scraped []brand.Product, detected []brand.DetectedProduct) []brand.Product {
	candidates := make([]brand.DetectedProduct, 0, len(detected))
	for i, d := range detected {
		if d.Name == "" {
			logItemFailure(i, fmt.Errorf("%w: detected product has no name", ErrMergeItem))
			continue
		}
		candidates = append(candidates, d)
	}

	out := make([]brand.Product, 0, len(scraped))
	for i, p := range scraped {
		enriched, err := enrichOne(p, candidates)
		if err != nil {
			logItemFailure(i, err)
			out = append(out, p.Clone())
			continue
		}
		out = append(out, enriched)
	}
	return out
}

func enrichOne(p brand.Product, candidates []brand.DetectedProduct) (out brand.Product, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrMergeItem, r)
		}
	}()
	if p.Name == "" {
		return p, fmt.Errorf("%w: scraped product has no name", ErrMergeItem)
	}

	out = p.Clone()
	if out.Metadata == nil {
		out.Metadata = &brand.ProductMetadata{}
	}
	if match, ok := findMatch(p.Name, candidates); ok {
		if len(match.MarketingAngles) > 0 {
			out.Metadata.MarketingAngles = append([]string(nil), match.MarketingAngles...)
		}
		if match.VisualContext != "" {
			out.Metadata.VisualContext = match.VisualContext
		}
		if len(match.Colors) > 0 {
			out.Metadata.Colors = append([]string(nil), match.Colors...)
		}
	}
	if out.Metadata.VisualContext == "" {
		out.Metadata.VisualContext = brand.DefaultVisualContext
	}
	out.Metadata.Analyzed = true
	return out, nil
}

// findMatch is a case-sensitive substring test in either direction; the first
// candidate wins.
func findMatch(name string, candidates []brand.DetectedProduct) (brand.DetectedProduct, bool) {
	for _, c := range candidates {
		if strings.Contains(name, c.Name) || strings.Contains(c.Name, name) {
			return c, true
		}
	}
	return brand.DetectedProduct{}, false
}

func logItemFailure(index int, err error) {
	logrus.WithError(err).WithFields(logrus.Fields{"stage": "merge", "index": index}).Warn("product record not merged")
}

func usedImages(products []brand.Product) map[string]struct{} {
	used := make(map[string]struct{}, len(products))
	for _, p := range products {
		if p.Image != "" {
			used[p.Image] = struct{}{}
		}
	}
	return used
}

// matchByName gives an imageless product the first unused image whose file
// name contains the product slug, or whose stem is contained in the slug.
func matchByName(products []brand.Product, images []string, used map[string]struct{}) {
	for i := range products {
		if products[i].Image != "" {
			continue
		}
		slug := strings.Trim(nonAlnum.ReplaceAllString(strings.ToLower(products[i].Name), "-"), "-")
		if slug == "" {
			continue
		}
		for _, img := range images {
			if _, taken := used[img]; taken {
				continue
			}
			file, stem := imageFileName(img)
			if file == "" {
				continue
			}
			if strings.Contains(file, slug) || (stem != "" && strings.Contains(slug, stem)) {
				products[i].Image = img
				used[img] = struct{}{}
				break
			}
		}
	}
}

func imageFileName(raw string) (file, stem string) {
	p := raw
	if u, err := url.Parse(raw); err == nil {
		p = u.Path
	}
	file = strings.ToLower(path.Base(p))
	if file == "." || file == "/" {
		return "", ""
	}
	stem = file
	if idx := strings.Index(stem, "."); idx >= 0 {
		stem = stem[:idx]
	}
	return file, stem
}

// assignByPosition hands unused images, in order, to products without an image.
func assignByPosition(products []brand.Product, images []string, used map[string]struct{}) {
	next := 0
	for i := range products {
		if products[i].Image != "" {
			continue
		}
		for next < len(images) {
			img := images[next]
			next++
			if _, taken := used[img]; taken || img == "" {
				continue
			}
			products[i].Image = img
			used[img] = struct{}{}
			break
		}
		if next >= len(images) {
			return
		}
	}
}
