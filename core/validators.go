package core

import (
	"math"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var (
	// custom validation tags & texts
	academicYearTag   = "academicyear"
	academicYearText  = "academic year must be of form YYYY/YYYY with consecutive years"
	academicYearRegex = regexp.MustCompile(`^(\d{4})/(\d{4})$`)

	requiredTag     = "required"
	requiredWithTag = "required_with"
	requiredText    = "this field is required"

	gtTag  = "gt"
	gtText = "{0} must be greater than {1}"

	moneyTag  = "money"
	moneyText = "{0} must have at most 2 decimal places and be less than 10000000000"
)

// MaxAmount is the largest amount storage keeps (NUMERIC(12,2)).
const MaxAmount = 9999999999.99

// NewTranslator returns the english translator used for validation messages.
func NewTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

// InitValidators instantiates the validator for use.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// register custom validators
	_ = validate.RegisterValidation(academicYearTag, academicYearValidation)
	RegisterCustomTranslation(validate, translator, academicYearTag, academicYearText)

	_ = validate.RegisterValidation(moneyTag, moneyValidation)
	RegisterCustomTranslation(validate, translator, moneyTag, moneyText)

	RegisterCustomTranslation(validate, translator, requiredTag, requiredText, true)
	RegisterCustomTranslation(validate, translator, requiredWithTag, requiredText, true)
	_ = validate.RegisterTranslation(
		gtTag, translator,
		func(t ut.Translator) error { return t.Add(gtTag, gtText, true) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(gtTag, fe.Field(), fe.Param())
			return s
		},
	)
}

// RegisterCustomTranslation registers a custom translation for the specified validation tag.
func RegisterCustomTranslation(validate *validator.Validate, translator ut.Translator, tag, text string, override ...bool) {
	var ovrd bool
	if len(override) > 0 {
		ovrd = override[0]
	}
	_ = validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, ovrd) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// IsAcademicYear checks the YYYY/YYYY form where the second year follows the first.
func IsAcademicYear(s string) bool {
	m := academicYearRegex.FindStringSubmatch(s)
	if m == nil {
		return false
	}
	start, _ := strconv.Atoi(m[1])
	end, _ := strconv.Atoi(m[2])
	return end == start+1
}

// IsMoney checks that v fits the stored amount: at most 2 decimals, not above MaxAmount.
func IsMoney(v float64) bool {
	if math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) > MaxAmount {
		return false
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if i := strings.IndexByte(s, '.'); i >= 0 {
		return len(s)-i-1 <= 2
	}
	return true
}

// Custom Global Validators

func academicYearValidation(fl validator.FieldLevel) bool {
	return IsAcademicYear(fl.Field().String())
}

func moneyValidation(fl validator.FieldLevel) bool {
	return IsMoney(fl.Field().Float())
}
