package checkout

import (
	"errors"
	"testing"

	"expensecart/internal/core"
)

func validSubmission() Submission {
	return Submission{
		FullName: "Ada Lovelace",
		Email:    "ada@example.com",
		Address:  "12 St James's Square",
		City:     "London",
		Country:  core.UnitedKingdom,
	}
}

func TestSubmissionValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Submission)
		wantField string
	}{
		{"valid", func(*Submission) {}, ""},
		{"blank name", func(s *Submission) { s.FullName = "  " }, "fullName"},
		{"missing email", func(s *Submission) { s.Email = "" }, "email"},
		{"email without at", func(s *Submission) { s.Email = "ada.example.com" }, "email"},
		{"email without domain dot", func(s *Submission) { s.Email = "ada@localhost" }, "email"},
		{"email with display name", func(s *Submission) { s.Email = "Ada <ada@example.com>" }, "email"},
		{"missing address", func(s *Submission) { s.Address = "" }, "address"},
		{"missing city", func(s *Submission) { s.City = "" }, "city"},
		{"unknown country", func(s *Submission) { s.Country = "Atlantis" }, "country"},
		{"no country", func(s *Submission) { s.Country = "" }, "country"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSubmission()
			tt.mutate(&s)
			err := s.Validate()
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var verrs ValidationErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("err = %v, want ValidationErrors", err)
			}
			if _, ok := verrs[tt.wantField]; !ok {
				t.Errorf("missing field %q in %v", tt.wantField, verrs)
			}
		})
	}
}

func TestValidationErrorsMessageIsSorted(t *testing.T) {
	err := ValidationErrors{"email": "bad", "city": "missing"}
	want := "invalid checkout form: city: missing; email: bad"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
