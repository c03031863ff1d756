// internal/form/overwrite.go
package form

import "strings"

// Reason explains an overwrite decision.
type Reason string

const (
	ReasonEmpty            Reason = "empty"
	ReasonSentinel         Reason = "sentinel"
	ReasonEqual            Reason = "equal"
	ReasonIdentityCritical Reason = "identity_critical"
	ReasonPreferFresh      Reason = "prefer_fresh"
)

// Decide reports whether current may be replaced by resolved in a control
// tagged tag. Non-identity values are presumed replaceable; a deliberate
// user entry is not distinguished from a stale site default.
func Decide(current string, tag Tag, resolved string) (bool, Reason) {
	cur := strings.TrimSpace(current)
	switch {
	case cur == "":
		return true, ReasonEmpty
	case IsSentinel(cur):
		return true, ReasonSentinel
	case strings.EqualFold(cur, strings.TrimSpace(resolved)):
		return false, ReasonEqual
	case tag.IdentityCritical():
		return true, ReasonIdentityCritical
	}
	return true, ReasonPreferFresh
}

// ShouldOverwrite is Decide without the reason.
func ShouldOverwrite(current string, tag Tag, resolved string) bool {
	ok, _ := Decide(current, tag, resolved)
	return ok
}
