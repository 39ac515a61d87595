package extract

import (
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ldOrganization and ldProduct are the only JSON-LD shapes the extractor trusts.
// Everything else in a block is ignored.
type ldOrganization struct {
	Name string
	Logo string
}

type ldProduct struct {
	Name        string
	Description string
	Image       string
	Price       string
	Currency    string
	URL         string
}

var organizationTypes = map[string]struct{}{
	"organization":  {},
	"corporation":   {},
	"localbusiness": {},
	"onlinestore":   {},
	"store":         {},
}

// jsonLDNodes decodes every ld+json block and flattens arrays and @graph
// containers into a list of objects in document order. Malformed blocks are skipped.
func jsonLDNodes(doc *goquery.Document) []map[string]any {
	var nodes []map[string]any
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		dec := json.NewDecoder(strings.NewReader(s.Text()))
		dec.UseNumber()
		var raw any
		if err := dec.Decode(&raw); err != nil {
			return
		}
		nodes = flattenLD(raw, nodes)
	})
	return nodes
}

func flattenLD(value any, out []map[string]any) []map[string]any {
	switch v := value.(type) {
	case []any:
		for _, item := range v {
			out = flattenLD(item, out)
		}
	case map[string]any:
		out = append(out, v)
		if graph, ok := v["@graph"]; ok {
			out = flattenLD(graph, out)
		}
	}
	return out
}

func hasLDType(node map[string]any, match func(string) bool) bool {
	switch t := node["@type"].(type) {
	case string:
		return match(t)
	case []any:
		for _, item := range t {
			if s, ok := item.(string); ok && match(s) {
				return true
			}
		}
	}
	return false
}

func isOrganizationType(t string) bool {
	_, ok := organizationTypes[strings.ToLower(strings.TrimSpace(t))]
	return ok
}

func isProductType(t string) bool {
	return strings.EqualFold(strings.TrimSpace(t), "Product")
}

func ldOrganizations(nodes []map[string]any) []ldOrganization {
	var orgs []ldOrganization
	for _, node := range nodes {
		if !hasLDType(node, isOrganizationType) {
			continue
		}
		orgs = append(orgs, ldOrganization{
			Name: ldString(node["name"]),
			Logo: ldURL(node["logo"]),
		})
	}
	return orgs
}

func ldProducts(nodes []map[string]any) []ldProduct {
	var items []ldProduct
	for _, node := range nodes {
		if !hasLDType(node, isProductType) {
			continue
		}
		p := ldProduct{
			Name:        ldString(node["name"]),
			Description: ldString(node["description"]),
			Image:       ldURL(node["image"]),
			URL:         ldString(node["url"]),
		}
		if offer := firstObject(node["offers"]); offer != nil {
			p.Price = ldString(offer["price"])
			if p.Price == "" {
				p.Price = ldString(offer["lowPrice"])
			}
			p.Currency = ldString(offer["priceCurrency"])
		}
		items = append(items, p)
	}
	return items
}

// ldString accepts strings and numbers.
func ldString(value any) string {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		return v.String()
	}
	return ""
}

// ldURL accepts a string, an {url} object or an array of either and returns the first URL.
func ldURL(value any) string {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case map[string]any:
		if u := ldString(v["url"]); u != "" {
			return u
		}
		return ldString(v["contentUrl"])
	case []any:
		for _, item := range v {
			if u := ldURL(item); u != "" {
				return u
			}
		}
	}
	return ""
}

func firstObject(value any) map[string]any {
	switch v := value.(type) {
	case map[string]any:
		return v
	case []any:
		for _, item := range v {
			if obj, ok := item.(map[string]any); ok {
				return obj
			}
		}
	}
	return nil
}
