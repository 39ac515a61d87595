package store

import (
	"encoding/json"
	"strings"
	"time"

	"brand-profiler/backend/internal/brand"
)

// BrandProfile is a stored scrape result. List fields are kept as JSON text.
type BrandProfile struct {
	ID                  uint           `gorm:"primaryKey"`
	SourceURL           string         `gorm:"size:2048;index"`
	Host                string         `gorm:"size:255;index"`
	Name                string         `gorm:"size:255"`
	Logo                string         `gorm:"size:2048"`
	ColorsJSON          string         `gorm:"type:text"`
	ImagesJSON          string         `gorm:"type:text"`
	SocialLinksJSON     string         `gorm:"type:text"`
	TextContent         string         `gorm:"type:text"`
	Tone                string         `gorm:"type:text"`
	Audience            string         `gorm:"type:text"`
	Industry            string         `gorm:"size:255"`
	BrandValues         string         `gorm:"type:text"`
	Story               string         `gorm:"type:text"`
	Tagline             string         `gorm:"size:512"`
	Mission             string         `gorm:"type:text"`
	Archetype           string         `gorm:"size:128"`
	USPsJSON            string         `gorm:"type:text"`
	PainPointsJSON      string         `gorm:"type:text"`
	CustomerDesiresJSON string         `gorm:"type:text"`
	AdAnglesJSON        string         `gorm:"type:text"`
	Products            []BrandProduct `gorm:"foreignKey:ProfileID;constraint:OnDelete:CASCADE"`
	CreatedAt           time.Time      `gorm:"autoCreateTime"`
	UpdatedAt           time.Time
}

// BrandProduct is one merged product belonging to a profile.
type BrandProduct struct {
	ID           uint `gorm:"primaryKey"`
	ProfileID    uint `gorm:"index"`
	Position     int
	Name         string `gorm:"size:512"`
	Description  string `gorm:"type:text"`
	Price        string `gorm:"size:64"`
	Currency     string `gorm:"size:16"`
	URL          string `gorm:"size:2048"`
	Image        string `gorm:"size:2048"`
	MetadataJSON string `gorm:"type:text"`
	CreatedAt    time.Time
}

// ProfileSummary is the listing view of a stored profile.
type ProfileSummary struct {
	ID        uint      `json:"id"`
	SourceURL string    `json:"url"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func profileFromBrand(p *brand.Profile, sourceURL, host string) *BrandProfile {
	return &BrandProfile{
		SourceURL:           sourceURL,
		Host:                host,
		Name:                p.Name,
		Logo:                p.Logo,
		ColorsJSON:          encodeJSON(p.Colors),
		ImagesJSON:          encodeJSON(p.Images),
		SocialLinksJSON:     encodeJSON(p.SocialLinks),
		TextContent:         p.TextContent,
		Tone:                p.Tone,
		Audience:            p.Audience,
		Industry:            p.Industry,
		BrandValues:         p.Values,
		Story:               p.Story,
		Tagline:             p.Tagline,
		Mission:             p.Mission,
		Archetype:           p.Archetype,
		USPsJSON:            encodeJSON(p.USPs),
		PainPointsJSON:      encodeJSON(p.PainPoints),
		CustomerDesiresJSON: encodeJSON(p.CustomerDesires),
		AdAnglesJSON:        encodeJSON(p.AdAngles),
	}
}

func productFromBrand(p brand.Product, profileID uint, position int) BrandProduct {
	row := BrandProduct{
		ProfileID:   profileID,
		Position:    position,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Currency:    p.Currency,
		URL:         p.URL,
		Image:       p.Image,
	}
	if p.Metadata != nil {
		row.MetadataJSON = encodeJSON(p.Metadata)
	}
	return row
}

// Brand converts the stored row back into the API shape.
func (r *BrandProfile) Brand() *brand.Profile {
	data := brand.BrandData{
		Name:        r.Name,
		Logo:        r.Logo,
		TextContent: r.TextContent,
	}
	decodeJSON(r.ColorsJSON, &data.Colors)
	decodeJSON(r.ImagesJSON, &data.Images)
	decodeJSON(r.SocialLinksJSON, &data.SocialLinks)

	analysis := &brand.AnalysisResult{
		Tone:      r.Tone,
		Audience:  r.Audience,
		Industry:  r.Industry,
		Values:    r.BrandValues,
		Story:     r.Story,
		Tagline:   r.Tagline,
		Mission:   r.Mission,
		Archetype: r.Archetype,
	}
	decodeJSON(r.USPsJSON, &analysis.USPs)
	decodeJSON(r.PainPointsJSON, &analysis.PainPoints)
	decodeJSON(r.CustomerDesiresJSON, &analysis.CustomerDesires)
	decodeJSON(r.AdAnglesJSON, &analysis.AdAngles)

	products := make([]brand.Product, 0, len(r.Products))
	for _, row := range r.Products {
		products = append(products, row.Brand())
	}
	return brand.NewProfile(data, analysis, products)
}

// Brand converts the stored product row back into a brand.Product.
func (r BrandProduct) Brand() brand.Product {
	p := brand.Product{
		Name:        r.Name,
		Description: r.Description,
		Price:       r.Price,
		Currency:    r.Currency,
		URL:         r.URL,
		Image:       r.Image,
	}
	if strings.TrimSpace(r.MetadataJSON) != "" {
		var meta brand.ProductMetadata
		if err := json.Unmarshal([]byte(r.MetadataJSON), &meta); err == nil {
			p.Metadata = &meta
		}
	}
	return p
}

func encodeJSON(v any) string {
	payload, _ := json.Marshal(v)
	return string(payload)
}

func decodeJSON(raw string, out any) {
	if strings.TrimSpace(raw) == "" {
		return
	}
	_ = json.Unmarshal([]byte(raw), out)
}
