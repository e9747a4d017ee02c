package patient

// Summary is one row of an upstream patient search, enough to bind a
// registration id and display name to a pending pharmacy bill.
type Summary struct {
	RegistrationID string `json:"registration_id"`
	Name           string `json:"name"`
	Gender         string `json:"gender,omitempty"`
	Phone          string `json:"phone,omitempty"`
}
