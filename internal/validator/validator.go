package validator

import (
	"errors"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	govalidator "github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"github.com/hirelens/hirelens-backend/internal/model"
)

// trans is the singleton English translator for validation errors.
var trans ut.Translator

// Setup registers the validator with English translations and the custom
// domain rules on Gin's binding engine. Call once during application startup.
func Setup() {
	if v, ok := binding.Validator.Engine().(*govalidator.Validate); ok {
		// Use JSON tag name for field names in error messages.
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})

		v.RegisterValidation("question_type", validQuestionType)
		v.RegisterValidation("integrity_policy", validIntegrityPolicy)

		enLocale := en.New()
		uni := ut.New(enLocale, enLocale)
		trans, _ = uni.GetTranslator("en")
		en_translations.RegisterDefaultTranslations(v, trans)

		v.RegisterTranslation("question_type", trans,
			func(ut ut.Translator) error {
				return ut.Add("question_type", "{0} must be one of mcq, coding, video or open_ended", true)
			},
			func(ut ut.Translator, fe govalidator.FieldError) string {
				t, _ := ut.T("question_type", fe.Field())
				return t
			})
		v.RegisterTranslation("integrity_policy", trans,
			func(ut ut.Translator) error {
				return ut.Add("integrity_policy", "{0} must be either review or autosubmit", true)
			},
			func(ut ut.Translator, fe govalidator.FieldError) string {
				t, _ := ut.T("integrity_policy", fe.Field())
				return t
			})
	}
}

func validQuestionType(fl govalidator.FieldLevel) bool {
	switch model.QuestionType(fl.Field().String()) {
	case model.QuestionTypeMcq, model.QuestionTypeCoding, model.QuestionTypeVideo, model.QuestionTypeOpenEnded:
		return true
	}
	return false
}

func validIntegrityPolicy(fl govalidator.FieldLevel) bool {
	switch model.IntegrityPolicy(fl.Field().String()) {
	case model.IntegrityReview, model.IntegrityAutosubmit:
		return true
	}
	return false
}

// TranslateErrors takes a binding/validation error and returns a map of
// field name to human-readable error message. If the error is not a
// validation error, it returns a single-key map with "detail".
func TranslateErrors(err error) map[string]string {
	fields := make(map[string]string)

	var ve govalidator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			fields[fe.Field()] = fe.Translate(trans)
		}
		return fields
	}

	// Not a validation error (e.g., JSON syntax error).
	fields["detail"] = err.Error()
	return fields
}

// Bind binds and validates the request body into dst.
// Returns nil on success or a translated field error map on failure.
func Bind(c *gin.Context, dst interface{}) map[string]string {
	if err := c.ShouldBindJSON(dst); err != nil {
		return TranslateErrors(err)
	}
	return nil
}
