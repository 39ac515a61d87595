package brand

// Limits applied to extracted brand data.
const (
	MaxColors      = 5
	MaxImages      = 15
	MaxProducts    = 10
	MaxTextContent = 15000
)

// Product sources recorded in ProductMetadata.Source.
const (
	SourceScraped    = "scraped"
	SourceAIDetected = "ai_detected"
)

// DefaultVisualContext is used when nothing better describes a product image.
const DefaultVisualContext = "Product image"

// BrandData holds the deterministic signals extracted from a single page.
type BrandData struct {
	Name        string            `json:"name,omitempty"`
	Colors      []string          `json:"colors"`
	Logo        string            `json:"logo,omitempty"`
	Images      []string          `json:"images"`
	TextContent string            `json:"textContent,omitempty"`
	Products    []Product         `json:"products"`
	SocialLinks map[string]string `json:"socialLinks"`
}

// Product is a catalog entry found on the page or inferred by the analyzer.
type Product struct {
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Price       string           `json:"price,omitempty"`
	Currency    string           `json:"currency,omitempty"`
	URL         string           `json:"url,omitempty"`
	Image       string           `json:"image,omitempty"`
	Metadata    *ProductMetadata `json:"metadata,omitempty"`
}

// ProductMetadata carries enrichment attached to a product.
type ProductMetadata struct {
	MarketingAngles []string `json:"marketing_angles,omitempty"`
	VisualContext   string   `json:"visual_context,omitempty"`
	Colors          []string `json:"colors,omitempty"`
	Source          string   `json:"source,omitempty"`
	Analyzed        bool     `json:"analyzed,omitempty"`
}

// Clone returns a deep copy of the metadata. A nil receiver yields nil.
func (m *ProductMetadata) Clone() *ProductMetadata {
	if m == nil {
		return nil
	}
	out := *m
	out.MarketingAngles = append([]string(nil), m.MarketingAngles...)
	out.Colors = append([]string(nil), m.Colors...)
	return &out
}

// Clone returns a deep copy of the product.
func (p Product) Clone() Product {
	p.Metadata = p.Metadata.Clone()
	return p
}

// DetectedProduct is a product the analyzer inferred from page text.
type DetectedProduct struct {
	Name            string   `json:"name"`
	Description     string   `json:"description,omitempty"`
	Price           string   `json:"price,omitempty"`
	Currency        string   `json:"currency,omitempty"`
	MarketingAngles []string `json:"marketing_angles,omitempty"`
	VisualContext   string   `json:"visual_context,omitempty"`
	Colors          []string `json:"colors,omitempty"`
}

// AnalysisResult is the strategic reading of a brand produced by the language model.
type AnalysisResult struct {
	Tone             string            `json:"tone"`
	Audience         string            `json:"audience"`
	Industry         string            `json:"industry"`
	Values           string            `json:"values"`
	Story            string            `json:"story"`
	Tagline          string            `json:"tagline"`
	Mission          string            `json:"mission"`
	Archetype        string            `json:"archetype"`
	USPs             []string          `json:"usps"`
	PainPoints       []string          `json:"painPoints"`
	CustomerDesires  []string          `json:"customerDesires"`
	AdAngles         []string          `json:"adAngles"`
	DetectedProducts []DetectedProduct `json:"detectedProducts,omitempty"`
}

// EmptyAnalysis returns the shape used when analysis is unavailable.
func EmptyAnalysis() AnalysisResult {
	return AnalysisResult{
		USPs:            []string{},
		PainPoints:      []string{},
		CustomerDesires: []string{},
		AdAngles:        []string{},
	}
}

// Profile is the final response: extracted brand data combined with the analysis,
// with products replaced by the merged list.
type Profile struct {
	BrandData
	AnalysisResult
}

// NewProfile combines extracted data, analysis and merged products. A nil analysis
// is replaced by EmptyAnalysis.
func NewProfile(data BrandData, analysis *AnalysisResult, products []Product) *Profile {
	result := EmptyAnalysis()
	if analysis != nil {
		result = *analysis
	}
	data.Products = products
	profile := &Profile{BrandData: data, AnalysisResult: result}
	profile.ensureCollections()
	return profile
}

// ensureCollections replaces nil slices and maps so they encode as [] and {}.
func (p *Profile) ensureCollections() {
	if p.Colors == nil {
		p.Colors = []string{}
	}
	if p.Images == nil {
		p.Images = []string{}
	}
	if p.Products == nil {
		p.Products = []Product{}
	}
	if p.SocialLinks == nil {
		p.SocialLinks = map[string]string{}
	}
	if p.USPs == nil {
		p.USPs = []string{}
	}
	if p.PainPoints == nil {
		p.PainPoints = []string{}
	}
	if p.CustomerDesires == nil {
		p.CustomerDesires = []string{}
	}
	if p.AdAngles == nil {
		p.AdAngles = []string{}
	}
}
