// internal/form/choice.go
package form

import (
	"strings"
	"unicode"

	"github.com/xkilldash9x/quickapply-cli/internal/page"
)

// Query is the input to one choice resolution.
type Query struct {
	Target  string
	Context string
	// CountryMarkers and MailMarkers are consulted in order by the
	// context-special tier.
	CountryMarkers []string
	MailMarkers    []string
}

// Matcher inspects enabled, non-sentinel candidates and returns a match.
type Matcher func(candidates []page.Option, q Query) (page.Option, bool)

// Tier is one named strategy in the resolution pipeline.
type Tier struct {
	Name  string
	Match Matcher
}

// Choice is a resolved option and the tier that produced it.
type Choice struct {
	Option page.Option
	Tier   string
}

// ChoiceResolver runs its tiers in order; the first tier that matches wins.
type ChoiceResolver struct {
	tiers []Tier
}

// NewChoiceResolver builds a resolver over tiers. A nil slice selects
// DefaultTiers.
func NewChoiceResolver(tiers []Tier) *ChoiceResolver {
	if tiers == nil {
		tiers = DefaultTiers()
	}
	return &ChoiceResolver{tiers: tiers}
}

// DefaultTiers returns context-special, exact, substring, token and
// fallback matching, in that order.
func DefaultTiers() []Tier {
	return []Tier{
		{Name: "context", Match: matchContext},
		{Name: "exact", Match: matchExact},
		{Name: "substring", Match: matchSubstring},
		{Name: "token", Match: matchToken},
		{Name: "fallback", Match: matchFirst},
	}
}

// Resolve picks the best option for q.Target. Sentinel and disabled
// options are never returned.
func (r *ChoiceResolver) Resolve(options []page.Option, q Query) (Choice, bool) {
	candidates := enabled(FilterSentinels(options))
	if len(candidates) == 0 {
		return Choice{}, false
	}
	for _, t := range r.tiers {
		if opt, ok := t.Match(candidates, q); ok {
			return Choice{Option: opt, Tier: t.Name}, true
		}
	}
	return Choice{}, false
}

// ResolveRadio resolves a radio group. Without a target that one of the
// matching tiers accepts, an affirmative option is preferred, then the
// first enabled one.
func (r *ChoiceResolver) ResolveRadio(options []page.Option, q Query) (Choice, bool) {
	candidates := enabled(FilterSentinels(options))
	if len(candidates) == 0 {
		return Choice{}, false
	}
	if strings.TrimSpace(q.Target) != "" {
		for _, t := range r.tiers {
			if t.Name == "fallback" {
				continue
			}
			if opt, ok := t.Match(candidates, q); ok {
				return Choice{Option: opt, Tier: t.Name}, true
			}
		}
	}
	for _, o := range candidates {
		if hasWord(normalize(o.Text), "yes") {
			return Choice{Option: o, Tier: "affirmative"}, true
		}
	}
	return Choice{Option: candidates[0], Tier: "fallback"}, true
}

func enabled(options []page.Option) []page.Option {
	out := options[:0:0]
	for _, o := range options {
		if !o.Disabled {
			out = append(out, o)
		}
	}
	return out
}

func matchContext(candidates []page.Option, q Query) (page.Option, bool) {
	ctx := normalize(q.Context)
	var markers []string
	switch {
	case isPhoneCode(ctx):
		markers = q.CountryMarkers
	case hasWord(ctx, "email", "mail") || hasPhrase(ctx, "e mail"):
		markers = q.MailMarkers
	default:
		return page.Option{}, false
	}
	for _, m := range markers {
		for _, o := range candidates {
			if referencesMarker(o, m) {
				return o, true
			}
		}
	}
	return page.Option{}, false
}

// referencesMarker matches short alphabetic markers (ISO codes) and
// dialing codes on whole tokens; longer markers match as substrings.
func referencesMarker(o page.Option, marker string) bool {
	m := strings.ToLower(strings.TrimSpace(marker))
	if m == "" {
		return false
	}
	text := strings.ToLower(o.Text)
	value := strings.ToLower(strings.TrimSpace(o.Value))
	if strings.HasPrefix(m, "+") || (len(m) <= 3 && isAlpha(m)) {
		return value == m || hasWord(normalize(o.Text), m) || hasWord(normalize(o.Value), m)
	}
	return strings.Contains(text, m) || strings.Contains(value, m)
}

func isAlpha(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

func matchExact(candidates []page.Option, q Query) (page.Option, bool) {
	target := strings.TrimSpace(q.Target)
	if target == "" {
		return page.Option{}, false
	}
	for _, o := range candidates {
		if strings.EqualFold(strings.TrimSpace(o.Text), target) || strings.EqualFold(strings.TrimSpace(o.Value), target) {
			return o, true
		}
	}
	return page.Option{}, false
}

func matchSubstring(candidates []page.Option, q Query) (page.Option, bool) {
	target := strings.ToLower(strings.TrimSpace(q.Target))
	if target == "" {
		return page.Option{}, false
	}
	for _, o := range candidates {
		text := strings.ToLower(strings.TrimSpace(o.Text))
		if text == "" {
			continue
		}
		if strings.Contains(text, target) || strings.Contains(target, text) {
			return o, true
		}
	}
	return page.Option{}, false
}

func matchToken(candidates []page.Option, q Query) (page.Option, bool) {
	var tokens []string
	for _, tok := range strings.Fields(strings.ToLower(q.Target)) {
		if len([]rune(tok)) >= 2 {
			tokens = append(tokens, tok)
		}
	}
	if len(tokens) == 0 {
		return page.Option{}, false
	}
	for _, o := range candidates {
		text := strings.ToLower(o.Text)
		for _, tok := range tokens {
			if strings.Contains(text, tok) {
				return o, true
			}
		}
	}
	return page.Option{}, false
}

func matchFirst(candidates []page.Option, _ Query) (page.Option, bool) {
	if len(candidates) == 0 {
		return page.Option{}, false
	}
	return candidates[0], true
}
