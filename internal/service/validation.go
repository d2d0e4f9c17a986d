package service

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	appErrors "github.com/noah-isme/sma-admin-core/pkg/errors"
)

var (
	usernameTag   = "username"
	usernameText  = "{0} must be 3 to 50 letters, digits or underscores"
	usernameRegex = regexp.MustCompile(`^[A-Za-z0-9_]{3,50}$`)

	// tags whose failure means the value is malformed rather than out of range
	formatTags = map[string]struct{}{
		usernameTag: {},
		"datetime":  {},
		"oneof":     {},
	}
)

// Validator runs struct tag validation and renders failures as typed errors
// with English messages keyed by JSON field names.
type Validator struct {
	validate   *validator.Validate
	translator ut.Translator
}

// NewValidator registers the English translations and custom tags.
func NewValidator() *Validator {
	validate := validator.New()
	english := en.New()
	uni := ut.New(english, english)
	translator, _ := uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation(usernameTag, func(fl validator.FieldLevel) bool {
		return usernameRegex.MatchString(fl.Field().String())
	})
	registerTranslation(validate, translator, usernameTag, usernameText)

	return &Validator{validate: validate, translator: translator}
}

func registerTranslation(validate *validator.Validate, translator ut.Translator, tag, text string) {
	_ = validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, true) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// Struct validates s. The first failing field decides the error code:
// REQUIRED_FIELD_MISSING, FORMAT_ERROR or VALIDATION_ERROR.
func (v *Validator) Struct(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}

	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		messages = append(messages, fe.Translate(v.translator))
	}
	message := strings.Join(messages, "; ")

	switch first := fieldErrs[0].Tag(); {
	case first == "required":
		return appErrors.Clone(appErrors.ErrRequiredField, message)
	case isFormatTag(first):
		return appErrors.Clone(appErrors.ErrFormat, message)
	default:
		return appErrors.Clone(appErrors.ErrValidation, message)
	}
}

func isFormatTag(tag string) bool {
	_, ok := formatTags[tag]
	return ok
}
