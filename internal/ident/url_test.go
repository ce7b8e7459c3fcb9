package ident

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"https://Example.COM/a/b/", "https://example.com/a/b", true},
		{"HTTP://example.com:80/x#frag", "http://example.com/x", true},
		{"https://example.com:443", "https://example.com", true},
		{"https://example.com:8443/x", "https://example.com:8443/x", true},
		{"example.com/page", "https://example.com/page", true},
		{"  https://example.com/q?a=1  ", "https://example.com/q?a=1", true},
		{"http://localhost:3000/", "http://localhost:3000", true},
		{"", "", false},
		{"ftp://example.com", "", false},
		{"not a url", "", false},
		{"https://intranet/x", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := CleanURL(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in string
		ok bool
	}{
		{"2024-01-02", true},
		{"2024-01-02T03:04:05", true},
		{"2024-01-02T03:04:05Z", true},
		{"2024-01-02T03:04:05.123+02:00", true},
		{"10", false},
		{"2024/01/02", false},
		{"yesterday!", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			_, ok := ParseDate(tt.in)
			assert.Equal(t, tt.ok, ok)
		})
	}

	a, _ := ParseDate("2024-01-02")
	b, _ := ParseDate("2024-01-10T00:00:00Z")
	assert.True(t, a.Before(b))
}
