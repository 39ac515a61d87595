package urlnorm

import (
	"errors"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"uppercase www", "WWW.Example.com", "https://example.com"},
		{"http untouched", "http://x.com", "http://x.com"},
		{"https untouched", "https://shop.example.com/path?q=1", "https://shop.example.com/path?q=1"},
		{"bare domain", "example.com", "https://example.com"},
		{"whitespace", "  example.com/about  ", "https://example.com/about"},
		{"www with path", "www.example.com/Collections/All", "https://example.com/Collections/All"},
		{"mixed case scheme", "HTTPS://Example.COM/Path", "https://example.com/Path"},
		{"www after scheme kept", "https://www.example.com", "https://www.example.com"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Normalize(tc.input); got != tc.expected {
				t.Fatalf("expected %q got %q", tc.expected, got)
			}
		})
	}
}

func TestNormalizeAndParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid", "example.com", false},
		{"valid with port", "localhost:8080", false},
		{"scheme only", "http://", true},
		{"empty", "", true},
		{"spaces in host", "not a url", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, u, err := NormalizeAndParse(tc.input)
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidURL) {
					t.Fatalf("expected ErrInvalidURL got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if u.Host == "" {
				t.Fatalf("expected host for %q", tc.input)
			}
		})
	}
}

func TestHost(t *testing.T) {
	_, u, err := NormalizeAndParse("https://www.Shop.Example.com:443/x")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := Host(u); got != "shop.example.com" {
		t.Fatalf("expected shop.example.com got %q", got)
	}
}
