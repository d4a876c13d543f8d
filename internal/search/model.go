package search

import "strings"

// Member is the flattened, filterable projection of a user profile.
type Member struct {
	ID           string   `json:"id"`
	FullName     string   `json:"fullName"`
	FirstName    string   `json:"firstName"`
	LastName     string   `json:"lastName"`
	Country      string   `json:"country,omitempty"`
	Institution  string   `json:"institution,omitempty"`
	FieldOfStudy string   `json:"fieldOfStudy,omitempty"`
	Skills       []string `json:"skills"`
	Internship   string   `json:"internship,omitempty"`
}

// Filters are matched case-insensitively. Empty fields match everything.
type Filters struct {
	Country      string
	Institution  string
	FieldOfStudy string
	Skill        string
	Internship   string
}

func (f Filters) match(m *Member) bool {
	eq := func(want, got string) bool { return want == "" || strings.EqualFold(want, got) }
	if !eq(f.Country, m.Country) || !eq(f.Institution, m.Institution) ||
		!eq(f.FieldOfStudy, m.FieldOfStudy) || !eq(f.Internship, m.Internship) {
		return false
	}
	if f.Skill == "" {
		return true
	}
	for _, s := range m.Skills {
		if strings.EqualFold(s, f.Skill) {
			return true
		}
	}
	return false
}

// Field names a filterable column.
type Field string

const (
	FieldCountry      Field = "countries"
	FieldInstitution  Field = "institutions"
	FieldFieldOfStudy Field = "fieldsOfStudy"
	FieldSkill        Field = "skills"
	FieldInternship   Field = "internships"
)

var allFields = []Field{FieldCountry, FieldInstitution, FieldFieldOfStudy, FieldSkill, FieldInternship}
