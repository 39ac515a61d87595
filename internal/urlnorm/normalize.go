package urlnorm

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var (
	protocolPrefix = regexp.MustCompile(`(?i)^https?://`)
	leadingWWW     = regexp.MustCompile(`(?i)^www\.`)
)

// ErrInvalidURL is returned when user input cannot be turned into a fetchable URL.
var ErrInvalidURL = errors.New("invalid url")

// Normalize turns loose user input into an absolute URL string.
//
// Whitespace is trimmed, a leading "www." is dropped and https:// is prepended when
// no http(s) scheme is present. Scheme and host are lower-cased when the result
// parses; path, query and fragment are left alone.
func Normalize(input string) string {
	value := strings.TrimSpace(input)
	value = leadingWWW.ReplaceAllString(value, "")
	if !protocolPrefix.MatchString(value) {
		value = "https://" + value
	}

	u, err := url.Parse(value)
	if err != nil || u.Host == "" {
		return value
	}
	return lowerAuthority(value)
}

// lowerAuthority lower-cases the scheme and host of an absolute URL string,
// leaving userinfo, path, query and fragment untouched.
func lowerAuthority(value string) string {
	idx := strings.Index(value, "://")
	if idx < 0 {
		return value
	}
	scheme, rest := value[:idx], value[idx+3:]
	end := strings.IndexAny(rest, "/?#")
	if end < 0 {
		end = len(rest)
	}
	authority, tail := rest[:end], rest[end:]
	userinfo := ""
	if at := strings.LastIndex(authority, "@"); at >= 0 {
		userinfo, authority = authority[:at+1], authority[at+1:]
	}
	return strings.ToLower(scheme) + "://" + userinfo + strings.ToLower(authority) + tail
}

// Parse validates a normalized URL. Only http and https URLs with a host are accepted.
func Parse(normalized string) (*url.URL, error) {
	u, err := url.Parse(normalized)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return nil, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, u.Scheme)
	}
	if strings.TrimSpace(u.Hostname()) == "" {
		return nil, fmt.Errorf("%w: missing host", ErrInvalidURL)
	}
	if strings.ContainsAny(u.Hostname(), " \t") {
		return nil, fmt.Errorf("%w: malformed host %q", ErrInvalidURL, u.Hostname())
	}
	return u, nil
}

// NormalizeAndParse runs Normalize followed by Parse.
func NormalizeAndParse(input string) (string, *url.URL, error) {
	normalized := Normalize(input)
	u, err := Parse(normalized)
	if err != nil {
		return normalized, nil, err
	}
	return normalized, u, nil
}

// Host returns the lower-cased host of u without port or leading "www.".
func Host(u *url.URL) string {
	if u == nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	return strings.TrimPrefix(host, "www.")
}
