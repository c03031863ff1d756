// internal/form/sentinel.go
package form

import (
	"strings"

	"github.com/xkilldash9x/quickapply-cli/internal/page"
)

var sentinelExact = []string{
	"", "select", "select an option", "select one", "choose", "choose one",
	"choose an option", "please select", "please choose", "none selected", "--", "-",
}

var sentinelPrefixes = []string{"select an option", "choose…", "choose...", "please select", "-- select"}

// IsSentinel reports whether s is a placeholder that never counts as a real
// value or selection.
func IsSentinel(s string) bool {
	t := strings.ToLower(strings.TrimSpace(s))
	t = strings.TrimRight(t, ".… ")
	for _, e := range sentinelExact {
		if t == e {
			return true
		}
	}
	raw := strings.ToLower(strings.TrimSpace(s))
	for _, p := range sentinelPrefixes {
		if strings.HasPrefix(raw, p) {
			return true
		}
	}
	return false
}

// FilterSentinels drops placeholder options. Disabled options are kept;
// the choice tiers skip them.
func FilterSentinels(options []page.Option) []page.Option {
	out := make([]page.Option, 0, len(options))
	for _, o := range options {
		if IsSentinel(o.Text) && (o.Value == "" || IsSentinel(o.Value)) {
			continue
		}
		out = append(out, o)
	}
	return out
}
