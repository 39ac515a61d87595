package extract

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"brand-profiler/backend/internal/brand"
)

const (
	productCardSelector = `.product-card, .product-item, .grid-view-item, [class*="product-card"], [class*="product-item"], .shop-item, .collection-item, article[class*="product"], .woocommerce-LoopProduct-link`
	cardTitleSelector   = `h3, h2, h4, .product-title, .title, .name, .woocommerce-loop-product__title`
	cardPriceSelector   = `.price, .money, .amount, .current-price`

	pricingCardSelector = `.pricing-card, .pricing-table, .plan-card, [class*="pricing-card"], [class*="plan-card"], [class*="price-table"]`
	planNameSelector    = `h3, h2, h4, .plan-name, .title`
	planPriceSelector   = `.price, .amount, .plan-price`
	planDescSelector    = `.description, .features, ul`
	planLinkSelector    = `a[href*="checkout"], a[href*="buy"], a[class*="button"]`

	maxPlanDescription = 200
)

var backgroundImageURL = regexp.MustCompile(`(?i)background-image\s*:\s*url\(\s*['"]?([^'")]+)['"]?\s*\)`)

var productChain = []strategy[[]brand.Product]{
	productsFromJSONLD,
	productsFromCards,
	productsFromPricing,
}

// Products returns at most 10 products from structured data, falling back to
// common storefront cards and then to pricing plan cards.
func Products(doc *goquery.Document, base *url.URL) []brand.Product {
	found, ok := firstOf(doc, base, productChain)
	if !ok {
		return []brand.Product{}
	}
	if len(found) > brand.MaxProducts {
		found = found[:brand.MaxProducts]
	}
	return found
}

// productSet keeps products unique by URL, or by name when there is no URL.
type productSet struct {
	seen  map[string]struct{}
	items []brand.Product
}

func newProductSet() *productSet {
	return &productSet{seen: make(map[string]struct{})}
}

func (ps *productSet) add(p brand.Product) {
	if p.Name == "" {
		return
	}
	key := p.URL
	if key == "" {
		key = p.Name
	}
	if _, dup := ps.seen[key]; dup {
		return
	}
	ps.seen[key] = struct{}{}
	ps.items = append(ps.items, p)
}

func (ps *productSet) result() ([]brand.Product, bool) {
	return ps.items, len(ps.items) > 0
}

func productsFromJSONLD(doc *goquery.Document, base *url.URL) ([]brand.Product, bool) {
	set := newProductSet()
	for _, item := range ldProducts(jsonLDNodes(doc)) {
		p := brand.Product{
			Name:        item.Name,
			Description: item.Description,
			Image:       ResolveURL(item.Image, base),
			Price:       item.Price,
			Currency:    item.Currency,
			URL:         ResolveURL(item.URL, base),
		}
		set.add(p)
	}
	return set.result()
}

func productsFromCards(doc *goquery.Document, base *url.URL) ([]brand.Product, bool) {
	set := newProductSet()
	doc.Find(productCardSelector).Each(func(_ int, card *goquery.Selection) {
		name := collapseWhitespace(card.Find(cardTitleSelector).First().Text())
		if name == "" {
			return
		}
		price := collapseWhitespace(card.Find(cardPriceSelector).First().Text())
		img := card.Find("img").First()
		alt := strings.TrimSpace(img.AttrOr("alt", ""))

		visual := brand.DefaultVisualContext
		if alt != "" {
			visual = "Image shows: " + alt
		}
		set.add(brand.Product{
			Name:  name,
			Price: price,
			Image: ResolveURL(cardImage(card), base),
			URL:   ResolveURL(cardLink(card), base),
			Metadata: &brand.ProductMetadata{
				VisualContext: visual,
				Source:        brand.SourceScraped,
			},
		})
	})
	return set.result()
}

// cardImage tries the card's img attributes, <source> srcsets, an inline
// background image and finally an img in the previous sibling, unless that
// sibling is another card.
func cardImage(card *goquery.Selection) string {
	img := card.Find("img").First()
	for _, attr := range []string{"src", "data-src"} {
		if v := strings.TrimSpace(img.AttrOr(attr, "")); v != "" {
			return v
		}
	}
	for _, srcset := range []string{
		card.Find("source").First().AttrOr("srcset", ""),
		img.AttrOr("srcset", ""),
	} {
		if candidates := srcsetCandidates(srcset); len(candidates) > 0 {
			return candidates[0]
		}
	}
	if styled := card.Find(`[style*="background-image"]`).First(); styled.Length() > 0 {
		if m := backgroundImageURL.FindStringSubmatch(styled.AttrOr("style", "")); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	prev := card.Prev()
	if prev.Is(productCardSelector) {
		return ""
	}
	return strings.TrimSpace(prev.Find("img").First().AttrOr("src", ""))
}

func cardLink(card *goquery.Selection) string {
	if href := strings.TrimSpace(card.Find("a[href]").First().AttrOr("href", "")); href != "" {
		return href
	}
	if goquery.NodeName(card) == "a" {
		return strings.TrimSpace(card.AttrOr("href", ""))
	}
	return ""
}

func productsFromPricing(doc *goquery.Document, base *url.URL) ([]brand.Product, bool) {
	set := newProductSet()
	doc.Find(pricingCardSelector).Each(func(_ int, card *goquery.Selection) {
		name := collapseWhitespace(card.Find(planNameSelector).First().Text())
		price := collapseWhitespace(card.Find(planPriceSelector).First().Text())
		if name == "" || price == "" {
			return
		}
		description := truncateRunes(nodesText(card.Find(planDescSelector).First().Nodes), maxPlanDescription)
		set.add(brand.Product{
			Name:        name + " Plan",
			Description: description,
			Price:       price,
			URL:         ResolveURL(card.Find(planLinkSelector).First().AttrOr("href", ""), base),
		})
	})
	return set.result()
}
