// Package leads captures the contact details users submit with an analysis
// and forwards them to the configured sinks without blocking the request.
package leads

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	MsgMissingName  = "Missing name."
	MsgInvalidEmail = "Invalid email."
	MsgInvalidPhone = "Invalid phone number."
)

var (
	contactEmail = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	nonDigits    = regexp.MustCompile(`\D`)

	validate = newValidator()
)

func newValidator() *validator.Validate {
	v := validator.New()
	// Looser than the built-in "email" tag; any a@b.c shape is accepted.
	_ = v.RegisterValidation("contact_email", func(fl validator.FieldLevel) bool {
		return contactEmail.MatchString(fl.Field().String())
	})
	return v
}

// Details are the user's contact fields.
type Details struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"contact_email"`
	Phone string `json:"phone" validate:"numeric,min=10,max=15"`
}

// DetailsError reports the first invalid contact field.
type DetailsError struct {
	Field   string
	Message string
}

func (e *DetailsError) Error() string {
	return e.Message
}

// Normalize trims the name, lowercases the email and strips everything but
// digits from the phone number, then validates the result.
func (d Details) Normalize() (Details, error) {
	out := Details{
		Name:  strings.TrimSpace(d.Name),
		Email: strings.ToLower(strings.TrimSpace(d.Email)),
		Phone: nonDigits.ReplaceAllString(d.Phone, ""),
	}

	err := validate.Struct(out)
	if err == nil {
		return out, nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return Details{}, err
	}
	switch fieldErrs[0].Field() {
	case "Name":
		return Details{}, &DetailsError{Field: "name", Message: MsgMissingName}
	case "Email":
		return Details{}, &DetailsError{Field: "email", Message: MsgInvalidEmail}
	default:
		return Details{}, &DetailsError{Field: "phone", Message: MsgInvalidPhone}
	}
}

// Lead is one captured submission.
type Lead struct {
	Details
	PortfolioDescription string
	Source               string
	Meta                 Meta
	Timestamp            time.Time
}

// DefaultSource tags leads captured by the stock analysis flow.
const DefaultSource = "stocksense"
