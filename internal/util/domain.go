package util

import (
	"fmt"
	"net/url"
	"strings"
)

// ExtractDomain returns the canonical source domain for a URL: lowercase
// host with any leading "www." and port stripped. Attempts from the same
// domain never count as independent corroboration, so this is the
// grouping key for the whole engine.
func ExtractDomain(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse URL: %w", err)
	}

	host := strings.ToLower(parsed.Hostname())
	if host == "" {
		return "", fmt.Errorf("no host in URL: %s", rawURL)
	}

	host = strings.TrimPrefix(host, "www.")
	return host, nil
}
