package analysis

import (
	"fmt"
	"strings"

	"brand-profiler/backend/internal/brand"
)

const (
	promptTextLimit     = 10000
	promptProductLimit  = 5
	unknownBrandName    = "Unknown"
	missingContentValue = "N/A"
)

const structuredSystemPrompt = "You are an expert Brand Strategist and Marketing Director. Your goal is to deeply analyze a brand to create high-converting ad campaigns. " +
	"You MUST fill every field with detailed, high-quality strategic insights. Never return empty values, always infer from available context. " +
	"Return ONLY the JSON object containing the analysis data."

const textSystemPrompt = "You are an expert Brand Strategist. Return ONLY valid JSON. Do not include markdown formatting like ```json."

const jsonShapeExample = `{
  "tone": "string",
  "audience": "string",
  "industry": "string",
  "values": "string",
  "story": "string",
  "tagline": "string",
  "mission": "string",
  "archetype": "string",
  "usps": ["string"],
  "painPoints": ["string"],
  "customerDesires": ["string"],
  "adAngles": ["string"],
  "detectedProducts": [{"name": "string", "description": "string", "price": "string", "currency": "string", "marketing_angles": ["string"], "visual_context": "string", "colors": ["string"]}]
}`

// buildPrompt renders the shared user prompt for both generation paths.
func buildPrompt(in Input) string {
	name := strings.TrimSpace(in.BrandName)
	if name == "" {
		name = unknownBrandName
	}
	text := truncate(strings.TrimSpace(in.TextContent), promptTextLimit)
	if text == "" {
		text = missingContentValue
	}

	b := &strings.Builder{}
	b.WriteString("Analyze this brand based on their website content and products.\n\n")
	fmt.Fprintf(b, "Brand Name: %s\n", name)
	fmt.Fprintf(b, "Website: %s\n", in.URL)
	fmt.Fprintf(b, "Website Content Summary: %s\n", text)

	if len(in.Products) > 0 {
		b.WriteString("Key Products (name | price | image | description):\n")
		for i, p := range in.Products {
			if i == promptProductLimit {
				break
			}
			fmt.Fprintf(b, "- %s | %s | %s | %s\n", p.Name, orNA(p.Price), orNA(altText(p)), orNA(p.Description))
		}
		b.WriteString("\nFor each listed product you may add detectedProducts entries with marketing angles and visual context, using the exact product name.\n")
	} else {
		b.WriteString("Key Products: none were found in the page markup.\n\n")
		b.WriteString("No products were extracted from the page. Read the website content carefully and identify the products, services or pricing tiers the brand sells. ")
		b.WriteString("Populate detectedProducts with each one, including name, description, price and currency when stated, two or three marketing angles and a visual context.\n")
	}

	b.WriteString("\nProvide a deep strategic analysis. You MUST fill every field with detailed, high-quality strategic insights. Do not leave any field empty. Infer information from the content if not explicitly stated.")
	return b.String()
}

// buildTextPrompt appends the expected JSON shape for providers without structured output.
func buildTextPrompt(in Input) string {
	return buildPrompt(in) + "\n\nIMPORTANT: Return the result as a valid JSON object matching this structure:\n" + jsonShapeExample
}

func altText(p brand.Product) string {
	if p.Metadata == nil || p.Metadata.VisualContext == brand.DefaultVisualContext {
		return ""
	}
	return strings.TrimPrefix(p.Metadata.VisualContext, "Image shows: ")
}

func orNA(value string) string {
	if strings.TrimSpace(value) == "" {
		return missingContentValue
	}
	return strings.TrimSpace(value)
}

func truncate(value string, limit int) string {
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit])
}
