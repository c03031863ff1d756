// internal/profile/profile.go
package profile

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"
)

// ErrProfilePathEmpty is returned by Load when no path was configured.
var ErrProfilePathEmpty = errors.New("profile path is empty")

// Profile is the applicant record used to fill forms. It is owned by the
// caller and never mutated by the automation.
type Profile struct {
	// Identity
	FirstName  string `yaml:"first_name" json:"first_name"`
	MiddleName string `yaml:"middle_name" json:"middle_name"`
	LastName   string `yaml:"last_name" json:"last_name"`
	FullName   string `yaml:"full_name" json:"full_name"`

	// Contact
	Email            string `yaml:"email" json:"email"`
	Phone            string `yaml:"phone" json:"phone"`
	PhoneCountryCode string `yaml:"phone_country_code" json:"phone_country_code"`
	Website          string `yaml:"website" json:"website"`

	// Location
	City       string `yaml:"city" json:"city"`
	State      string `yaml:"state" json:"state"`
	Country    string `yaml:"country" json:"country"`
	PostalCode string `yaml:"postal_code" json:"postal_code"`

	// Professional
	CurrentCompany  string `yaml:"current_company" json:"current_company"`
	Title           string `yaml:"title" json:"title"`
	YearsExperience string `yaml:"years_experience" json:"years_experience"`

	// Education
	Degree      string `yaml:"degree" json:"degree"`
	Institution string `yaml:"institution" json:"institution"`

	// Compensation
	ExpectedSalary string `yaml:"expected_salary" json:"expected_salary"`
	CurrentSalary  string `yaml:"current_salary" json:"current_salary"`
	NoticePeriod   string `yaml:"notice_period" json:"notice_period"`

	// Eligibility answers ("Yes"/"No"); empty means use the default.
	WorkAuthorization   string `yaml:"work_authorization" json:"work_authorization"`
	RequiresSponsorship string `yaml:"requires_sponsorship" json:"requires_sponsorship"`
	WillingToRelocate   string `yaml:"willing_to_relocate" json:"willing_to_relocate"`

	CoverLetter string `yaml:"cover_letter" json:"cover_letter"`
}

// Load reads a YAML profile from path. A leading ~ is expanded.
func Load(path string) (*Profile, error) {
	if strings.TrimSpace(path) == "" {
		return nil, ErrProfilePathEmpty
	}
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("could not resolve profile path '%s': %w", path, err)
	}
	raw, err := os.ReadFile(expanded)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile '%s': %w", expanded, err)
	}
	return Parse(raw)
}

// Parse decodes a YAML profile document. Unknown keys are rejected so that
// typos surface instead of silently leaving fields empty.
func Parse(raw []byte) (*Profile, error) {
	var p Profile
	dec := yaml.NewDecoder(strings.NewReader(string(raw)))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("failed to decode profile: %w", err)
	}
	p.normalize()
	return &p, nil
}

func (p *Profile) normalize() {
	fields := []*string{
		&p.FirstName, &p.MiddleName, &p.LastName, &p.FullName,
		&p.Email, &p.Phone, &p.PhoneCountryCode, &p.Website,
		&p.City, &p.State, &p.Country, &p.PostalCode,
		&p.CurrentCompany, &p.Title, &p.YearsExperience,
		&p.Degree, &p.Institution,
		&p.ExpectedSalary, &p.CurrentSalary, &p.NoticePeriod,
		&p.WorkAuthorization, &p.RequiresSponsorship, &p.WillingToRelocate,
		&p.CoverLetter,
	}
	for _, f := range fields {
		*f = strings.TrimSpace(*f)
	}
}
