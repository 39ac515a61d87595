package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var socialPlatforms = []string{"facebook", "instagram", "twitter", "linkedin", "youtube", "tiktok", "pinterest"}

// SocialLinks maps platform name to profile URL. When a platform is linked more
// than once the last link wins.
func SocialLinks(doc *goquery.Document) map[string]string {
	links := make(map[string]string)
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href := strings.TrimSpace(s.AttrOr("href", ""))
		for _, platform := range socialPlatforms {
			if strings.Contains(href, platform+".com") {
				links[platform] = href
			}
		}
	})
	return links
}
