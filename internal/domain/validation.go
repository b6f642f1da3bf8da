package domain

import (
	"errors"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	entranslations "github.com/go-playground/validator/v10/translations/en"
)

const (
	DefaultCurrency = "USD"

	// Messages reported by ValidationError for rejected creates and updates
	MsgInvalidCreate = "invalid product data"
	MsgInvalidUpdate = "invalid product update"
)

// Validation checks create payloads, patches and whole products against the
// product schema and reports failures as *ValidationError.
type Validation struct {
	validator  *validator.Validate
	translator ut.Translator
}

func NewValidation() *Validation {
	v := validator.New()

	// report issues with the json field names clients send
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterValidation("finite", validateFinite)

	english := en.New()
	trans, _ := ut.New(english, english).GetTranslator("en")
	entranslations.RegisterDefaultTranslations(v, trans)
	v.RegisterTranslation("finite", trans,
		func(ut ut.Translator) error {
			return ut.Add("finite", "{0} must be a finite number", true)
		},
		func(ut ut.Translator, fe validator.FieldError) string {
			t, _ := ut.T("finite", fe.Field())
			return t
		},
	)

	return &Validation{validator: v, translator: trans}
}

func validateFinite(fl validator.FieldLevel) bool {
	f := fl.Field().Float()
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// ParseCreate validates a create payload and returns a copy with the
// defaults for description, currency and stock filled in.
func (v *Validation) ParseCreate(in ProductCreate) (ProductCreate, error) {
	if issues := v.issues(&in); len(issues) > 0 {
		return ProductCreate{}, &ValidationError{Message: MsgInvalidCreate, Issues: issues}
	}

	out := in
	if out.Description == nil {
		out.Description = ptr("")
	}
	if out.Currency == nil {
		out.Currency = ptr(DefaultCurrency)
	}
	if out.Stock == nil {
		out.Stock = ptr(0)
	}
	return out, nil
}

// ParsePatch validates the fields present in a patch. Defaults are never
// applied to a patch.
func (v *Validation) ParsePatch(in ProductPatch) (ProductPatch, error) {
	if issues := v.issues(&in); len(issues) > 0 {
		return ProductPatch{}, &ValidationError{Message: MsgInvalidUpdate, Issues: issues}
	}
	return in, nil
}

// ValidateProduct checks a complete entity against the full schema
func (v *Validation) ValidateProduct(p *Product) error {
	if issues := v.issues(p); len(issues) > 0 {
		return &ValidationError{Message: MsgInvalidUpdate, Issues: issues}
	}
	return nil
}

func (v *Validation) issues(i interface{}) []Issue {
	err := v.validator.Struct(i)
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return []Issue{{Message: err.Error()}}
	}

	issues := make([]Issue, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		issues = append(issues, Issue{
			Field:   fe.Field(),
			Message: fe.Translate(v.translator),
		})
	}
	return issues
}

func ptr[T any](v T) *T {
	return &v
}
