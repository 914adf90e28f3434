package checkout

import (
	"fmt"
	"net/mail"
	"sort"
	"strings"

	"expensecart/internal/core"
)

// Submission is the shipping/contact data collected before payment.
type Submission struct {
	FullName string       `json:"fullName"`
	Email    string       `json:"email"`
	Address  string       `json:"address"`
	City     string       `json:"city"`
	Country  core.Country `json:"country"`
}

// ValidationErrors maps a field name to its message.
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+v[f])
	}
	return fmt.Sprintf("invalid checkout form: %s", strings.Join(parts, "; "))
}

// Normalize trims surrounding whitespace from every field.
func (s Submission) Normalize() Submission {
	return Submission{
		FullName: strings.TrimSpace(s.FullName),
		Email:    strings.TrimSpace(s.Email),
		Address:  strings.TrimSpace(s.Address),
		City:     strings.TrimSpace(s.City),
		Country:  core.Country(strings.TrimSpace(string(s.Country))),
	}
}

// Validate returns ValidationErrors when any field is rejected.
func (s Submission) Validate() error {
	s = s.Normalize()
	errs := ValidationErrors{}
	if s.FullName == "" {
		errs["fullName"] = "Full name is required"
	}
	if !validEmail(s.Email) {
		errs["email"] = "Invalid email address"
	}
	if s.Address == "" {
		errs["address"] = "Address is required"
	}
	if s.City == "" {
		errs["city"] = "City is required"
	}
	if s.Country.Validate() != nil {
		errs["country"] = "Select your country"
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validEmail(s string) bool {
	if s == "" {
		return false
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return false
	}
	at := strings.LastIndex(s, "@")
	return at > 0 && strings.Contains(s[at+1:], ".")
}
