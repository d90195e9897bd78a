package utils

import (
	"fmt"
	"net/url"
	"strings"
)

// EncodeURLWithSpaces re-encodes a URL whose path or query contains raw
// spaces, which some artwork hosts hand out.
func EncodeURLWithSpaces(rawURL string) (string, error) {
	parsedURL, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", err
	}
	encoded := parsedURL.Scheme + "://" + parsedURL.Host + parsedURL.EscapedPath()
	if parsedURL.RawQuery != "" {
		encoded += "?" + strings.ReplaceAll(parsedURL.RawQuery, " ", "%20")
	}
	return encoded, nil
}

// ValidateImageURL accepts absolute http(s) URLs only.
func ValidateImageURL(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid image url: %w", err)
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return fmt.Errorf("unsupported image url scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("image url %q has no host", raw)
	}
	return nil
}
