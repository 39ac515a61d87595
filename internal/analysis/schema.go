package analysis

// schemaName identifies the structured response in provider requests.
const schemaName = "brand_analysis"

func stringField(description string) map[string]any {
	return map[string]any{"type": "string", "description": description}
}

func stringList(description string) map[string]any {
	return map[string]any{
		"type":        "array",
		"description": description,
		"items":       map[string]any{"type": "string"},
	}
}

// analysisSchema describes brand.AnalysisResult. Every property is required and
// additional properties are rejected so it is valid for strict structured output.
func analysisSchema() map[string]any {
	product := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"name":             stringField("Product, service or plan name"),
			"description":      stringField("One or two sentence description"),
			"price":            stringField("Price as shown on the site, empty when unknown"),
			"currency":         stringField("ISO currency code, empty when unknown"),
			"marketing_angles": stringList("Two or three angles for advertising this product"),
			"visual_context":   stringField("What a product image would show"),
			"colors":           stringList("Hex colors associated with the product"),
		},
		"required":             []string{"name", "description", "price", "currency", "marketing_angles", "visual_context", "colors"},
		"additionalProperties": false,
	}

	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"tone":             stringField("Brand voice tone: professional, casual, inspiring, educational, playful, luxury, bold, or minimalist"),
			"audience":         stringField("Detailed description of target customer demographics and psychographics (at least 2 sentences)"),
			"industry":         stringField("Industry category: fashion, beauty, fitness, food, tech, travel, education, finance, real-estate, or other"),
			"values":           stringField("Core brand values as comma-separated keywords (5 keywords)"),
			"story":            stringField("A compelling 3-4 sentence brand story highlighting their mission and origin"),
			"tagline":          stringField("A catchy tagline that summarizes their value proposition"),
			"mission":          stringField("The brand's core mission statement (inferred if not explicit)"),
			"archetype":        stringField("The brand archetype: Hero, Sage, Lover, Jester, Caregiver, Ruler, Creator, Innocent, Explorer, Magician, Everyman, or Rebel"),
			"usps":             stringList("Array of 4 unique selling points (detailed, specific advantages)"),
			"painPoints":       stringList("Array of 4 customer pain points this brand addresses (detailed problems)"),
			"customerDesires":  stringList("Array of 3 key customer desires this brand fulfills (aspirations and goals)"),
			"adAngles":         stringList("Array of 3 marketing angles for ad campaigns (specific strategies with hooks)"),
			"detectedProducts": map[string]any{"type": "array", "description": "Products, services or pricing tiers found in the website text", "items": product},
		},
		"required": []string{
			"tone", "audience", "industry", "values", "story", "tagline", "mission", "archetype",
			"usps", "painPoints", "customerDesires", "adAngles", "detectedProducts",
		},
		"additionalProperties": false,
	}
}
