package util

import (
	"net/url"
	"strings"
)

// IsURL reports whether s is an absolute http(s) link.
func IsURL(s string) bool {
	if s == "" || strings.TrimSpace(s) != s {
		return false
	}
	link, err := url.ParseRequestURI(s)
	if err != nil || link.Host == "" {
		return false
	}
	switch strings.ToLower(link.Scheme) {
	case "http", "https":
		return true
	}
	return false
}
