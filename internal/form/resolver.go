// internal/form/resolver.go
package form

import (
	"fmt"
	"strings"

	"github.com/xkilldash9x/quickapply-cli/internal/profile"
)

// Source records where a resolved value came from.
type Source string

const (
	SourceProfile Source = "profile"
	SourceDerived Source = "derived"
	SourceDefault Source = "default"
	SourceNone    Source = "none"
)

// Defaults are the fixed answers used when the profile has nothing better.
type Defaults struct {
	NoticePeriod   string `mapstructure:"notice_period" yaml:"notice_period"`
	Degree         string `mapstructure:"degree" yaml:"degree"`
	ExpectedSalary string `mapstructure:"expected_salary" yaml:"expected_salary"`
	CurrentSalary  string `mapstructure:"current_salary" yaml:"current_salary"`
	Authorization  string `mapstructure:"authorization" yaml:"authorization"`
	Sponsorship    string `mapstructure:"sponsorship" yaml:"sponsorship"`
	Relocation     string `mapstructure:"relocation" yaml:"relocation"`
}

// DefaultDefaults returns the built-in fallback answers.
func DefaultDefaults() Defaults {
	return Defaults{
		NoticePeriod:   "30",
		Degree:         "Bachelor's Degree",
		ExpectedSalary: "1000000",
		CurrentSalary:  "800000",
		Authorization:  "Yes",
		Sponsorship:    "No",
		Relocation:     "Yes",
	}
}

// dialCodes maps lower-cased country names and ISO codes to dialing codes.
var dialCodes = map[string]string{
	"india": "+91", "in": "+91",
	"united states": "+1", "usa": "+1", "us": "+1", "united states of america": "+1",
	"canada": "+1", "ca": "+1",
	"united kingdom": "+44", "uk": "+44", "gb": "+44",
	"germany": "+49", "de": "+49",
	"france": "+33", "fr": "+33",
	"australia": "+61", "au": "+61",
	"singapore": "+65", "sg": "+65",
	"united arab emirates": "+971", "uae": "+971", "ae": "+971",
	"netherlands": "+31", "nl": "+31",
	"ireland": "+353", "ie": "+353",
}

// DialCode returns the dialing code for a country name or ISO code.
func DialCode(country string) (string, bool) {
	code, ok := dialCodes[strings.ToLower(strings.TrimSpace(country))]
	return code, ok
}

// Resolver maps a tag and profile to a fill value. Resolution tries a
// direct profile attribute, then a derived value, then a fixed default.
// An empty result means the control is left untouched.
type Resolver struct {
	defaults Defaults
}

// NewResolver creates a resolver. Empty default fields fall back to the
// built-in ones.
func NewResolver(d Defaults) *Resolver {
	base := DefaultDefaults()
	fill := func(dst *string, v string) {
		if strings.TrimSpace(v) != "" {
			*dst = v
		}
	}
	fill(&base.NoticePeriod, d.NoticePeriod)
	fill(&base.Degree, d.Degree)
	fill(&base.ExpectedSalary, d.ExpectedSalary)
	fill(&base.CurrentSalary, d.CurrentSalary)
	fill(&base.Authorization, d.Authorization)
	fill(&base.Sponsorship, d.Sponsorship)
	fill(&base.Relocation, d.Relocation)
	return &Resolver{defaults: base}
}

// Resolve returns the value for tag and where it came from.
func (r *Resolver) Resolve(tag Tag, p *profile.Profile) (string, Source) {
	if p == nil {
		p = &profile.Profile{}
	}
	switch tag {
	case TagFirstName:
		if p.FirstName != "" {
			return p.FirstName, SourceProfile
		}
		if first, _ := splitName(p.FullName); first != "" {
			return first, SourceDerived
		}
	case TagLastName:
		if p.LastName != "" {
			return p.LastName, SourceProfile
		}
		if _, last := splitName(p.FullName); last != "" {
			return last, SourceDerived
		}
	case TagFullName:
		if p.FullName != "" {
			return p.FullName, SourceProfile
		}
		if joined := joinNonEmpty(p.FirstName, p.MiddleName, p.LastName); joined != "" {
			return joined, SourceDerived
		}
	case TagEmail:
		return direct(p.Email)
	case TagPhone:
		return direct(p.Phone)
	case TagPhoneCountryCode:
		if p.PhoneCountryCode != "" {
			return p.PhoneCountryCode, SourceProfile
		}
		if code, ok := DialCode(p.Country); ok {
			return code, SourceDerived
		}
	case TagCity:
		return direct(p.City)
	case TagState:
		return direct(p.State)
	case TagCountry:
		return direct(p.Country)
	case TagPostalCode:
		return direct(p.PostalCode)
	case TagCurrentCompany:
		return direct(p.CurrentCompany)
	case TagTitle:
		return direct(p.Title)
	case TagYearsExperience:
		return direct(p.YearsExperience)
	case TagDegree:
		return withDefault(p.Degree, r.defaults.Degree)
	case TagInstitution:
		return direct(p.Institution)
	case TagExpectedSalary:
		return salary(p.ExpectedSalary, p.CurrentSalary, r.defaults.ExpectedSalary)
	case TagCurrentSalary:
		return salary(p.CurrentSalary, p.ExpectedSalary, r.defaults.CurrentSalary)
	case TagNoticePeriod:
		return withDefault(p.NoticePeriod, r.defaults.NoticePeriod)
	case TagAuthorization:
		return withDefault(p.WorkAuthorization, r.defaults.Authorization)
	case TagSponsorship:
		return withDefault(p.RequiresSponsorship, r.defaults.Sponsorship)
	case TagRelocation:
		return withDefault(p.WillingToRelocate, r.defaults.Relocation)
	case TagWebsite:
		return direct(p.Website)
	case TagCoverLetter:
		if p.CoverLetter != "" {
			return p.CoverLetter, SourceProfile
		}
		if p.Title != "" {
			return coverLetter(p), SourceDerived
		}
	}
	// Middle names and unclassified controls are never filled.
	return "", SourceNone
}

func direct(v string) (string, Source) {
	if v == "" {
		return "", SourceNone
	}
	return v, SourceProfile
}

func withDefault(v, def string) (string, Source) {
	if v != "" {
		return v, SourceProfile
	}
	if def == "" {
		return "", SourceNone
	}
	return def, SourceDefault
}

// salary prefers the attribute matching the sub-context, then the other one.
func salary(preferred, other, def string) (string, Source) {
	if preferred != "" {
		return preferred, SourceProfile
	}
	if other != "" {
		return other, SourceDerived
	}
	return withDefault("", def)
}

func splitName(full string) (first, last string) {
	parts := strings.Fields(full)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	}
	return parts[0], parts[len(parts)-1]
}

func joinNonEmpty(parts ...string) string {
	out := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " ")
}

func coverLetter(p *profile.Profile) string {
	var b strings.Builder
	fmt.Fprintf(&b, "I am a %s", p.Title)
	if p.YearsExperience != "" {
		fmt.Fprintf(&b, " with %s years of experience", p.YearsExperience)
	}
	if p.CurrentCompany != "" {
		fmt.Fprintf(&b, ", currently at %s", p.CurrentCompany)
	}
	b.WriteString(", and I would welcome the chance to bring that experience to this role.")
	return b.String()
}
