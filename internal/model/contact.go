package model

// Persona labels for contact searches.
const (
	PersonaExecutive  = "Founder/Executive"
	PersonaOperations = "Operations Leader"
)

// RevealStatus tracks whether a contact detail was retrieved.
type RevealStatus string

const (
	RevealNotRetrieved RevealStatus = "not_retrieved"
	RevealRetrieved    RevealStatus = "retrieved"
	RevealNotAvailable RevealStatus = "not_available"
)

// Label returns the human-readable form used in exports.
func (s RevealStatus) Label() string {
	switch s {
	case RevealRetrieved:
		return "Retrieved"
	case RevealNotAvailable:
		return "Not Available"
	default:
		return "Not Retrieved"
	}
}

// Contact is a person found at a company, plus any revealed details.
type Contact struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	FirstName   string       `json:"first_name,omitempty"`
	Title       string       `json:"title"`
	Seniority   string       `json:"seniority,omitempty"`
	Departments []string     `json:"departments,omitempty"`
	LinkedInURL string       `json:"linkedin_url,omitempty"`
	PersonaType string       `json:"persona_type"`
	Company     string       `json:"company,omitempty"`
	EmailValue  string       `json:"emailValue,omitempty"`
	PhoneValue  string       `json:"phoneValue,omitempty"`
	EmailStatus RevealStatus `json:"emailStatus,omitempty"`
	PhoneStatus RevealStatus `json:"phoneStatus,omitempty"`
}

// Reveal is the result of a contact-detail reveal.
type Reveal struct {
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	CreditsUsed  int    `json:"creditsUsed"`
	CreditsTotal int    `json:"creditsTotal"`
}
