// Package checkout owns the per-session checkout flow: form validation, the
// session's cart/coupon/form state and order submission.
package checkout

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"checkout-service/models"

	"github.com/go-playground/validator/v10"
)

const (
	FieldName          = "name"
	FieldEmail         = "email"
	FieldPhone         = "phone"
	FieldAddress       = "address"
	FieldCity          = "city"
	FieldState         = "state"
	FieldPincode       = "pincode"
	FieldPaymentMethod = "paymentMethod"
)

// RequiredFields are validated at submission, in display order.
var RequiredFields = []string{FieldName, FieldEmail, FieldPhone, FieldAddress, FieldCity, FieldState, FieldPincode}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type fieldRule struct {
	tag      string
	messages map[string]string
}

var fieldRules = map[string]fieldRule{
	FieldName: {"required", map[string]string{
		"required": "Name is required",
	}},
	FieldEmail: {"required,contactemail", map[string]string{
		"required":     "Email is required",
		"contactemail": "Invalid email address",
	}},
	FieldPhone: {"required,digits=10", map[string]string{
		"required": "Phone number is required",
		"digits":   "Phone must be 10 digits",
	}},
	FieldAddress: {"required", map[string]string{
		"required": "Address is required",
	}},
	FieldCity: {"required", map[string]string{
		"required": "City is required",
	}},
	FieldState: {"required", map[string]string{
		"required": "State is required",
	}},
	FieldPincode: {"required,digits=6", map[string]string{
		"required": "Pincode is required",
		"digits":   "Pincode must be 6 digits",
	}},
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("contactemail", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("digits", func(fl validator.FieldLevel) bool {
		n, err := strconv.Atoi(fl.Param())
		if err != nil {
			return false
		}
		s := fl.Field().String()
		if len(s) != n {
			return false
		}
		for _, r := range s {
			if r < '0' || r > '9' {
				return false
			}
		}
		return true
	})
	return v
}

// KnownField reports whether field is a checkout form field.
func KnownField(field string) bool {
	_, ok := fieldRules[field]
	return ok || field == FieldPaymentMethod
}

// ValidateField returns the message for field, or "" when it is valid.
func ValidateField(form models.CheckoutForm, field string) string {
	rule, ok := fieldRules[field]
	if !ok {
		return ""
	}
	value := strings.TrimSpace(fieldValue(form, field))

	err := validate.Var(value, rule.tag)
	if err == nil {
		return ""
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		if msg, ok := rule.messages[verrs[0].Tag()]; ok {
			return msg
		}
	}
	return rule.messages["required"]
}

// ValidateAll returns one message per invalid field; an empty map means the
// form can be submitted.
func ValidateAll(form models.CheckoutForm) map[string]string {
	errs := make(map[string]string)
	for _, field := range RequiredFields {
		if msg := ValidateField(form, field); msg != "" {
			errs[field] = msg
		}
	}
	return errs
}

func fieldValue(form models.CheckoutForm, field string) string {
	switch field {
	case FieldName:
		return form.Name
	case FieldEmail:
		return form.Email
	case FieldPhone:
		return form.Phone
	case FieldAddress:
		return form.Address
	case FieldCity:
		return form.City
	case FieldState:
		return form.State
	case FieldPincode:
		return form.Pincode
	case FieldPaymentMethod:
		return string(form.PaymentMethod)
	}
	return ""
}

func setFieldValue(form *models.CheckoutForm, field, value string) bool {
	switch field {
	case FieldName:
		form.Name = value
	case FieldEmail:
		form.Email = value
	case FieldPhone:
		form.Phone = value
	case FieldAddress:
		form.Address = value
	case FieldCity:
		form.City = value
	case FieldState:
		form.State = value
	case FieldPincode:
		form.Pincode = value
	case FieldPaymentMethod:
		pm, ok := models.ParsePaymentMethod(value)
		if !ok {
			return false
		}
		form.PaymentMethod = pm
	default:
		return false
	}
	return true
}

// Form is the editable checkout form with its touched/error bookkeeping.
type Form struct {
	Values  models.CheckoutForm `json:"values"`
	Errors  map[string]string   `json:"errors"`
	Touched map[string]bool     `json:"touched"`
}

// NewForm prefills the form from the customer's profile. Payment defaults to ONLINE.
func NewForm(c *models.Customer) *Form {
	f := &Form{
		Values:  models.CheckoutForm{PaymentMethod: models.PaymentOnline},
		Errors:  map[string]string{},
		Touched: map[string]bool{},
	}
	if c != nil {
		f.Values.Name = c.Name
		f.Values.Email = c.Email
		f.Values.Phone = c.Phone
		f.Values.Address = c.Address
		f.Values.City = c.City
		f.Values.State = c.State
		f.Values.Pincode = c.Pincode
	}
	return f
}

// Set updates a field and clears its error.
func (f *Form) Set(field, value string) bool {
	if !setFieldValue(&f.Values, field, value) {
		return false
	}
	delete(f.Errors, field)
	return true
}

// Blur marks field touched and validates it alone.
func (f *Form) Blur(field string) string {
	f.Touched[field] = true
	msg := ValidateField(f.Values, field)
	if msg == "" {
		delete(f.Errors, field)
	} else {
		f.Errors[field] = msg
	}
	return msg
}

// ValidateAll marks every field touched and records all errors at once.
func (f *Form) ValidateAll() map[string]string {
	for _, field := range RequiredFields {
		f.Touched[field] = true
	}
	f.Errors = ValidateAll(f.Values)
	return f.Errors
}

// Snapshot returns a deep copy.
func (f *Form) Snapshot() Form {
	out := Form{
		Values:  f.Values,
		Errors:  make(map[string]string, len(f.Errors)),
		Touched: make(map[string]bool, len(f.Touched)),
	}
	for k, v := range f.Errors {
		out.Errors[k] = v
	}
	for k, v := range f.Touched {
		out.Touched[k] = v
	}
	return out
}
