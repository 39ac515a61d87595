package enrich

import (
	"reflect"
	"testing"

	"brand-profiler/backend/internal/brand"
)

func TestMergeAdoptsDetectedProducts(t *testing.T) {
	analysis := &brand.AnalysisResult{DetectedProducts: []brand.DetectedProduct{
		{Name: "Starter", Price: "$9", MarketingAngles: []string{"Cheap"}},
		{Name: "Pro", Description: "For teams", VisualContext: "Dashboard screenshot"},
	}}

	got := Engine{}.Merge(nil, analysis, nil)
	if len(got) != 2 {
		t.Fatalf("expected 2 products got %d", len(got))
	}
	for i, p := range got {
		if p.Metadata == nil || p.Metadata.Source != brand.SourceAIDetected {
			t.Fatalf("product %d missing ai_detected source: %+v", i, p.Metadata)
		}
		if p.Name != analysis.DetectedProducts[i].Name {
			t.Fatalf("expected name %q got %q", analysis.DetectedProducts[i].Name, p.Name)
		}
	}
	if !reflect.DeepEqual(got[0].Metadata.MarketingAngles, []string{"Cheap"}) {
		t.Fatalf("unexpected angles %v", got[0].Metadata.MarketingAngles)
	}
	if got[1].Description != "For teams" || got[1].Metadata.VisualContext != "Dashboard screenshot" {
		t.Fatalf("unexpected second product %+v", got[1])
	}
}

func TestMergeAdoptionSkipsNamelessAndCaps(t *testing.T) {
	detected := []brand.DetectedProduct{{Name: "  "}}
	for i := 0; i < 12; i++ {
		detected = append(detected, brand.DetectedProduct{Name: string(rune('A' + i))})
	}
	got := Engine{}.Merge(nil, &brand.AnalysisResult{DetectedProducts: detected}, nil)
	if len(got) != brand.MaxProducts {
		t.Fatalf("expected %d products got %d", brand.MaxProducts, len(got))
	}
	if got[0].Name != "A" {
		t.Fatalf("expected nameless record skipped, first is %q", got[0].Name)
	}
}

func TestMergeKeepsScrapedRecordThatFails(t *testing.T) {
	scraped := []brand.Product{
		{Price: "$5", URL: "https://shop.example/p/1"},
		{Name: "Trail Boot"},
	}
	analysis := &brand.AnalysisResult{DetectedProducts: []brand.DetectedProduct{
		{Name: "Boot", VisualContext: "Muddy boot"},
	}}

	got := Engine{}.Merge(scraped, analysis, nil)
	if len(got) != 2 {
		t.Fatalf("expected failed record kept, got %d products", len(got))
	}
	if !reflect.DeepEqual(got[0], scraped[0]) {
		t.Fatalf("expected nameless scraped product unchanged, got %+v", got[0])
	}
	if got[1].Metadata == nil || got[1].Metadata.VisualContext != "Muddy boot" || !got[1].Metadata.Analyzed {
		t.Fatalf("expected second product enriched, got %+v", got[1].Metadata)
	}
}

func TestMergeSubstringMatch(t *testing.T) {
	scraped := []brand.Product{
		{Name: "Acme Widget Pro", Image: "https://x.example/w.jpg"},
		{Name: "Gadget"},
		{Name: "widget pro max"},
	}
	analysis := &brand.AnalysisResult{DetectedProducts: []brand.DetectedProduct{
		{Name: ""},
		{Name: "Widget Pro", MarketingAngles: []string{"Saves time"}, Colors: []string{"#336699"}},
		{Name: "Super Gadget Deluxe", VisualContext: "Gadget on desk"},
	}}

	got := Engine{}.Merge(scraped, analysis, nil)
	if len(got) != 3 {
		t.Fatalf("expected 3 products got %d", len(got))
	}

	first := got[0].Metadata
	if !reflect.DeepEqual(first.MarketingAngles, []string{"Saves time"}) {
		t.Fatalf("expected marketing angles attached, got %+v", first)
	}
	if !reflect.DeepEqual(first.Colors, []string{"#336699"}) || !first.Analyzed {
		t.Fatalf("unexpected first metadata %+v", first)
	}
	if first.VisualContext != brand.DefaultVisualContext {
		t.Fatalf("expected default visual context got %q", first.VisualContext)
	}

	if got[1].Metadata.VisualContext != "Gadget on desk" || !got[1].Metadata.Analyzed {
		t.Fatalf("expected reverse substring match for Gadget, got %+v", got[1].Metadata)
	}

	third := got[2].Metadata
	if len(third.MarketingAngles) != 0 || !third.Analyzed || third.VisualContext != brand.DefaultVisualContext {
		t.Fatalf("expected case-sensitive miss with defaults, got %+v", third)
	}
}

func TestMergeKeepsExistingVisualContext(t *testing.T) {
	scraped := []brand.Product{{
		Name:     "Mug",
		Metadata: &brand.ProductMetadata{VisualContext: "Image shows: Blue mug", Source: brand.SourceScraped},
	}}
	got := Engine{}.Merge(scraped, nil, nil)
	if got[0].Metadata.VisualContext != "Image shows: Blue mug" {
		t.Fatalf("expected scraped visual context kept, got %q", got[0].Metadata.VisualContext)
	}
	if got[0].Metadata.Source != brand.SourceScraped || !got[0].Metadata.Analyzed {
		t.Fatalf("unexpected metadata %+v", got[0].Metadata)
	}
}

func TestMergePositionalImages(t *testing.T) {
	scraped := []brand.Product{{Name: "One"}, {Name: "Two"}, {Name: "Three"}}
	images := []string{"https://x.example/a.jpg", "https://x.example/b.jpg"}

	got := Engine{}.Merge(scraped, nil, images)
	if got[0].Image != images[0] || got[1].Image != images[1] {
		t.Fatalf("expected images in order, got %q %q", got[0].Image, got[1].Image)
	}
	if got[2].Image != "" {
		t.Fatalf("expected third product imageless, got %q", got[2].Image)
	}
}

func TestMergeSkipsImagesAlreadyUsed(t *testing.T) {
	scraped := []brand.Product{
		{Name: "One", Image: "https://x.example/a.jpg"},
		{Name: "Two"},
	}
	images := []string{"https://x.example/a.jpg", "https://x.example/b.jpg"}

	got := Engine{}.Merge(scraped, nil, images)
	if got[1].Image != "https://x.example/b.jpg" {
		t.Fatalf("expected unused image assigned, got %q", got[1].Image)
	}
}

func TestMergeMatchImageNames(t *testing.T) {
	scraped := []brand.Product{{Name: "Trail Runner"}, {Name: "Day Pack"}}
	images := []string{
		"https://x.example/hero.jpg",
		"https://x.example/products/day-pack-blue.jpg?v=2",
		"https://x.example/trail-runner.png",
	}

	positional := Engine{}.Merge(scraped, nil, images)
	if positional[0].Image != images[0] || positional[1].Image != images[1] {
		t.Fatalf("expected positional assignment by default, got %q %q", positional[0].Image, positional[1].Image)
	}

	named := Engine{MatchImageNames: true}.Merge(scraped, nil, images)
	if named[0].Image != images[2] || named[1].Image != images[1] {
		t.Fatalf("expected slug matches, got %q %q", named[0].Image, named[1].Image)
	}
}

func TestMergeDoesNotMutateInputs(t *testing.T) {
	scraped := []brand.Product{{Name: "Acme Widget Pro", Metadata: &brand.ProductMetadata{Source: brand.SourceScraped}}}
	analysis := &brand.AnalysisResult{DetectedProducts: []brand.DetectedProduct{{Name: "Widget Pro", MarketingAngles: []string{"Fast"}}}}
	images := []string{"https://x.example/a.jpg"}

	got := Engine{}.Merge(scraped, analysis, images)
	got[0].Metadata.MarketingAngles[0] = "changed"

	if scraped[0].Image != "" || scraped[0].Metadata.Analyzed || len(scraped[0].Metadata.MarketingAngles) != 0 {
		t.Fatalf("scraped input mutated: %+v %+v", scraped[0], scraped[0].Metadata)
	}
	if analysis.DetectedProducts[0].MarketingAngles[0] != "Fast" {
		t.Fatalf("analysis input mutated: %v", analysis.DetectedProducts[0].MarketingAngles)
	}
}

func TestMergeEmpty(t *testing.T) {
	got := Engine{}.Merge(nil, nil, []string{"https://x.example/a.jpg"})
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
}
