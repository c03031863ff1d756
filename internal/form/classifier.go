// internal/form/classifier.go
package form

import (
	"strings"

	"github.com/xkilldash9x/quickapply-cli/internal/page"
)

// Rule pairs a predicate over normalized context text with the tag it
// assigns.
type Rule struct {
	Tag   Tag
	Match func(text string) bool
}

// Classification is the result of classifying one control.
type Classification struct {
	Tag Tag
	// Context is the lower-cased, whitespace-joined label, placeholder,
	// name and id of the control.
	Context string
}

// Classifier assigns tags by evaluating an ordered rule table; the first
// matching rule wins. It never touches the page.
type Classifier struct {
	rules []Rule
}

// NewClassifier builds a classifier over rules. A nil slice selects
// DefaultRules.
func NewClassifier(rules []Rule) *Classifier {
	if rules == nil {
		rules = DefaultRules()
	}
	return &Classifier{rules: rules}
}

// CombinedContext joins the textual cues of a control.
func CombinedContext(c page.Control) string {
	parts := make([]string, 0, 4)
	for _, s := range []string{c.Label, c.Placeholder, c.Name, c.ID} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.ToLower(strings.Join(strings.Fields(strings.Join(parts, " ")), " "))
}

// Classify tags a control.
func (c *Classifier) Classify(ctrl page.Control) Classification {
	// Identifiers like "firstName" only split correctly before lower-casing.
	raw := strings.Join([]string{ctrl.Label, ctrl.Placeholder, ctrl.Name, ctrl.ID}, " ")
	return Classification{
		Tag:     c.classifyNormalized(normalize(raw)),
		Context: CombinedContext(ctrl),
	}
}

// ClassifyText tags a free-form context string.
func (c *Classifier) ClassifyText(context string) Tag {
	return c.classifyNormalized(normalize(context))
}

func (c *Classifier) classifyNormalized(text string) Tag {
	if text == "" {
		return TagUnclassified
	}
	for _, r := range c.rules {
		if r.Match(text) {
			return r.Tag
		}
	}
	return TagUnclassified
}

// DefaultRules returns the ordered rule table. Order matters: more specific
// cues sit above the generic ones they would otherwise be shadowed by.
func DefaultRules() []Rule {
	return []Rule{
		{TagFirstName, func(t string) bool {
			return hasPhrase(t, "first name", "given name", "forename") || hasWord(t, "fname", "firstname")
		}},
		// Middle names are recognised so they are never mistaken for a full
		// name, but nothing resolves them.
		{TagMiddleName, func(t string) bool {
			return hasPhrase(t, "middle name", "middle initial") || hasWord(t, "mname", "middlename")
		}},
		{TagLastName, func(t string) bool {
			return hasPhrase(t, "last name", "family name") || hasWord(t, "surname", "lname", "lastname")
		}},
		{TagFullName, isFullName},
		{TagEmail, func(t string) bool {
			return hasWord(t, "email", "mail") || hasPhrase(t, "e mail")
		}},
		{TagPhone, func(t string) bool {
			return isPhoneish(t) && !isPhoneCode(t)
		}},
		{TagPhoneCountryCode, isPhoneCode},
		{TagCity, func(t string) bool {
			return hasWord(t, "city", "town", "location") && !isEligibilityQuestion(t)
		}},
		{TagState, func(t string) bool {
			return hasWord(t, "state", "province", "region") && !isEligibilityQuestion(t)
		}},
		{TagCountry, func(t string) bool {
			return hasWord(t, "country", "nationality") && !isEligibilityQuestion(t)
		}},
		{TagPostalCode, func(t string) bool {
			return hasWord(t, "zip", "zipcode", "postal", "postcode", "pincode") || hasPhrase(t, "pin code")
		}},
		{TagCurrentCompany, func(t string) bool {
			return hasWord(t, "company", "employer", "organization", "organisation")
		}},
		{TagTitle, func(t string) bool {
			return hasWord(t, "title", "designation", "headline") || hasPhrase(t, "current role", "current position")
		}},
		{TagYearsExperience, func(t string) bool {
			return hasWord(t, "experience")
		}},
		{TagDegree, func(t string) bool {
			return hasWord(t, "degree", "qualification") || hasPhrase(t, "highest education", "education level")
		}},
		{TagInstitution, func(t string) bool {
			return hasWord(t, "school", "university", "college", "institution", "institute")
		}},
		{TagExpectedSalary, func(t string) bool {
			if !isSalaryish(t) {
				return false
			}
			// A bare salary question is treated as asking for the expectation.
			return hasWord(t, "expected", "desired", "expectation", "expectations") ||
				!hasWord(t, "current", "present", "drawn")
		}},
		{TagCurrentSalary, isSalaryish},
		{TagNoticePeriod, func(t string) bool {
			return hasWord(t, "notice")
		}},
		{TagAuthorization, func(t string) bool {
			if hasPrefixWord(t, "sponsor") {
				return false
			}
			return hasPrefixWord(t, "authori", "eligib", "legally") || hasPhrase(t, "right to work", "work permit")
		}},
		{TagSponsorship, func(t string) bool {
			return hasPrefixWord(t, "sponsor") || hasWord(t, "visa")
		}},
		{TagRelocation, func(t string) bool {
			return hasPrefixWord(t, "relocat")
		}},
		{TagWebsite, func(t string) bool {
			// "LinkedIn" and "GitHub" split into two tokens during normalization.
			return hasWord(t, "linkedin", "website", "portfolio", "github", "url") || hasPhrase(t, "linked in", "git hub")
		}},
		{TagCoverLetter, func(t string) bool {
			return hasPhrase(t, "cover letter", "why do you", "why are you", "about yourself", "tell us") ||
				hasWord(t, "motivation", "coverletter")
		}},
	}
}

func isFullName(t string) bool {
	if hasPhrase(t, "full name", "your name", "legal name") {
		return true
	}
	if !hasWord(t, "name", "fullname") {
		return false
	}
	return !hasWord(t, "company", "employer", "school", "university", "college",
		"institution", "user", "username", "file", "reference", "referrer", "manager")
}

// isEligibilityQuestion spots work-eligibility questions that mention a
// place ("... to work in this country?") without asking for one.
func isEligibilityQuestion(t string) bool {
	return hasPrefixWord(t, "sponsor", "authori", "eligib", "legally", "relocat", "permit") || hasWord(t, "visa")
}

func isPhoneish(t string) bool {
	return hasWord(t, "phone", "mobile", "telephone", "tel", "cell", "cellphone") || hasPhrase(t, "contact number")
}

func isPhoneCode(t string) bool {
	if hasPhrase(t, "country code", "dial code", "dialing code", "calling code", "country calling") {
		return true
	}
	return isPhoneish(t) && hasWord(t, "country", "code", "prefix")
}

func isSalaryish(t string) bool {
	return hasWord(t, "salary", "ctc", "compensation", "pay", "remuneration", "package")
}
