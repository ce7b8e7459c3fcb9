package ident

import "time"

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseDate parses s as an ISO 8601 date or date-time.
func ParseDate(s string) (time.Time, bool) {
	// Cheap rejection before trying layouts: every accepted form starts
	// with a four-digit year and a dash.
	if len(s) < 10 || s[4] != '-' {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
