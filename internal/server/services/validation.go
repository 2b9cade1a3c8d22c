package services

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/fr"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	fr_translations "github.com/go-playground/validator/v10/translations/fr"
)

var (
	uni = ut.New(en.New(), en.New(), fr.New())

	validatorOnce sync.Once
	validate      *validator.Validate
)

// NewValidator returns the process-wide validator. It reports fields by their
// JSON name and carries English and French messages for the built-in tags.
// Translations are bound to the shared translators, so every caller gets the
// same instance.
func NewValidator() *validator.Validate {
	validatorOnce.Do(func() {
		v, err := buildValidator()
		if err != nil {
			panic(err)
		}
		validate = v
	})
	return validate
}

func buildValidator() (*validator.Validate, error) {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	enT, _ := uni.GetTranslator("en")
	if err := en_translations.RegisterDefaultTranslations(v, enT); err != nil {
		return nil, fmt.Errorf("register en translations: %w", err)
	}
	frT, _ := uni.GetTranslator("fr")
	if err := fr_translations.RegisterDefaultTranslations(v, frT); err != nil {
		return nil, fmt.Errorf("register fr translations: %w", err)
	}
	return v, nil
}

// Translator returns the message translator for locale, English when the
// locale is unknown.
func Translator(locale string) ut.Translator {
	t, _ := uni.GetTranslator(locale)
	return t
}
