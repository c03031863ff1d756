// internal/form/tags.go
package form

// Tag is the semantic meaning assigned to a form control.
type Tag string

const (
	TagUnclassified     Tag = "unclassified"
	TagFirstName        Tag = "first_name"
	TagMiddleName       Tag = "middle_name"
	TagLastName         Tag = "last_name"
	TagFullName         Tag = "full_name"
	TagEmail            Tag = "email"
	TagPhone            Tag = "phone"
	TagPhoneCountryCode Tag = "phone_country_code"
	TagCity             Tag = "city"
	TagState            Tag = "state"
	TagCountry          Tag = "country"
	TagPostalCode       Tag = "postal_code"
	TagCurrentCompany   Tag = "current_company"
	TagTitle            Tag = "title"
	TagYearsExperience  Tag = "years_experience"
	TagDegree           Tag = "degree"
	TagInstitution      Tag = "institution"
	TagExpectedSalary   Tag = "expected_salary"
	TagCurrentSalary    Tag = "current_salary"
	TagNoticePeriod     Tag = "notice_period"
	TagAuthorization    Tag = "authorization"
	TagSponsorship      Tag = "sponsorship"
	TagRelocation       Tag = "relocation"
	TagWebsite          Tag = "website"
	TagCoverLetter      Tag = "cover_letter"
)

// IdentityCritical reports whether a stale value in a control with this tag
// must always be replaced by the profile value.
func (t Tag) IdentityCritical() bool {
	switch t {
	case TagFirstName, TagMiddleName, TagLastName, TagFullName, TagEmail, TagPhone:
		return true
	}
	return false
}
