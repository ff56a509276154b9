package pipeline

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"merchantdir/internal/models"
)

// Rules is the vocabulary a batch is validated against.
type Rules struct {
	// AllowedCategories is the category vocabulary. A nil set disables the
	// vocabulary check.
	AllowedCategories map[string]struct{}
	// Capabilities maps capability names to their lookup entry for display
	// names.
	Capabilities map[string]models.CapabilityEntry
}

// NewRules builds Rules from the parsed vocabulary files. An empty category
// list still yields a non-nil set, so every category is rejected.
func NewRules(categories []models.CategoryEntry, capabilities []models.CapabilityEntry) Rules {
	r := Rules{
		AllowedCategories: make(map[string]struct{}, len(categories)),
		Capabilities:      make(map[string]models.CapabilityEntry, len(capabilities)),
	}
	for _, c := range categories {
		r.AllowedCategories[c.Slug] = struct{}{}
	}
	for _, c := range capabilities {
		r.Capabilities[c.Name] = c
	}
	return r
}

// newValidator registers the record rule tags on a fresh validator. The
// category tag closes over this batch's vocabulary, so every Pipeline gets
// its own instance.
func newValidator(rules Rules) *validator.Validate {
	v := validator.New()

	// Report fields by their JSON names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	// Registration only fails for empty tags or nil funcs.
	_ = v.RegisterValidation("https", func(fl validator.FieldLevel) bool {
		return strings.HasPrefix(fl.Field().String(), "https://")
	})
	_ = v.RegisterValidation("lowercased", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return s == strings.ToLower(s)
	})
	_ = v.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		if rules.AllowedCategories == nil {
			return true
		}
		_, ok := rules.AllowedCategories[fl.Field().String()]
		return ok
	})

	return v
}

// checkStruct runs the tag rules over m and renders each violation as a
// report line.
func checkStruct(v *validator.Validate, m *models.Merchant) []string {
	err := v.Struct(m)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []string{err.Error()}
	}

	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		messages = append(messages, describe(fe))
	}
	return messages
}

// fieldPath strips the root struct name from the error namespace, turning
// "Merchant.logo.url" into "logo.url".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

func describe(fe validator.FieldError) string {
	path := fieldPath(fe)

	switch fe.Tag() {
	case "required", "min":
		switch path {
		case "categories", "ucpProfile.capabilities":
			return path + " must be a non-empty array"
		case "description":
			if fe.Tag() == "min" {
				return "Description must be at least 10 characters"
			}
		}
		return missingField(path)
	case "https":
		return path + " must be HTTPS"
	case "lowercased":
		return fmt.Sprintf("%s must be lowercase: %q", path, fe.Value())
	case "category":
		return fmt.Sprintf("%s is not a valid category: %q", path, fe.Value())
	default:
		return fmt.Sprintf("%s failed %s validation", path, fe.Tag())
	}
}

func missingField(path string) string {
	return "Missing or invalid required field: " + path
}
