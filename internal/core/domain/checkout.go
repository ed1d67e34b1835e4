package domain

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator"
)

var formValidator = newFormValidator()

func newFormValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// CheckoutForm holds the shopper's contact and shipping details.
type CheckoutForm struct {
	FirstName  string `json:"first_name" validate:"required"`
	LastName   string `json:"last_name" validate:"required"`
	Email      string `json:"email" validate:"required"`
	Phone      string `json:"phone" validate:"required"`
	Address    string `json:"address" validate:"required"`
	City       string `json:"city" validate:"required"`
	State      string `json:"state" validate:"required"`
	Country    string `json:"country" validate:"required"`
	PostalCode string `json:"postal_code"`
}

// Set updates a single field by its JSON name. Values are trimmed.
func (f *CheckoutForm) Set(field, value string) error {
	value = strings.TrimSpace(value)
	switch field {
	case "first_name":
		f.FirstName = value
	case "last_name":
		f.LastName = value
	case "email":
		f.Email = value
	case "phone":
		f.Phone = value
	case "address":
		f.Address = value
	case "city":
		f.City = value
	case "state":
		f.State = value
	case "country":
		f.Country = value
	case "postal_code":
		f.PostalCode = value
	default:
		return fmt.Errorf("unknown checkout field %q", field)
	}
	return nil
}

// Normalize trims every field.
func (f CheckoutForm) Normalize() CheckoutForm {
	return CheckoutForm{
		FirstName:  strings.TrimSpace(f.FirstName),
		LastName:   strings.TrimSpace(f.LastName),
		Email:      strings.TrimSpace(f.Email),
		Phone:      strings.TrimSpace(f.Phone),
		Address:    strings.TrimSpace(f.Address),
		City:       strings.TrimSpace(f.City),
		State:      strings.TrimSpace(f.State),
		Country:    strings.TrimSpace(f.Country),
		PostalCode: strings.TrimSpace(f.PostalCode),
	}
}

// MissingFields lists required fields that are blank, by JSON name.
func (f CheckoutForm) MissingFields() []string {
	err := formValidator.Struct(f.Normalize())
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []string{err.Error()}
	}
	missing := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		missing = append(missing, fe.Field())
	}
	return missing
}

func (f CheckoutForm) IsValid() bool {
	return len(f.MissingFields()) == 0
}

// Validate returns a CHECKOUT_INVALID error naming the missing fields.
func (f CheckoutForm) Validate() error {
	if missing := f.MissingFields(); len(missing) > 0 {
		return NewCheckoutInvalidError(missing)
	}
	return nil
}
