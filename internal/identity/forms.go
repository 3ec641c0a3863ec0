package identity

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// LoginInput is the login form.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterInput is the registration form.
type RegisterInput struct {
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirm_password,omitempty" validate:"omitempty,eqfield=Password"`
	FullName        string `json:"full_name" validate:"required,max=100"`
	BirthDate       string `json:"birth_date" validate:"required,datetime=2006-01-02"`
	SchoolOrigin    string `json:"school_origin" validate:"required"`
	DreamMajor      string `json:"dream_major" validate:"required"`
}

// UpdateProfileInput is the profile edit form.
type UpdateProfileInput struct {
	FullName     string `json:"full_name" validate:"required,max=100"`
	BirthDate    string `json:"birth_date" validate:"omitempty,datetime=2006-01-02"`
	SchoolOrigin string `json:"school_origin" validate:"max=100"`
	DreamMajor   string `json:"dream_major" validate:"required,max=100"`
	PhoneNumber  string `json:"phone_number,omitempty" validate:"omitempty,e164"`
	AvatarURL    string `json:"avatar_url,omitempty" validate:"omitempty,url"`
}

// ProfileInputFrom prefills the edit form with u's current values.
func ProfileInputFrom(u User) UpdateProfileInput {
	return UpdateProfileInput{
		FullName:     u.FullName,
		BirthDate:    u.BirthDate,
		SchoolOrigin: u.SchoolOrigin,
		DreamMajor:   u.DreamMajor,
		PhoneNumber:  u.PhoneNumber,
		AvatarURL:    u.AvatarURL,
	}
}

// FormError carries per-field validation messages keyed by JSON field name.
type FormError struct {
	Fields map[string]string
}

func (e *FormError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

var (
	validate *validator.Validate
	trans    ut.Translator
)

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)
	trans, _ = uni.GetTranslator("en")
	if err := en_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		panic(fmt.Sprintf("register validator translations: %v", err))
	}
}

// Normalize trims surrounding whitespace and lowercases the email.
func (in *LoginInput) Normalize() {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
}

func (in *LoginInput) Validate() error {
	in.Normalize()
	return validateStruct(in)
}

func (in *RegisterInput) Normalize() {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.FullName = strings.TrimSpace(in.FullName)
	in.BirthDate = strings.TrimSpace(in.BirthDate)
	in.SchoolOrigin = strings.TrimSpace(in.SchoolOrigin)
	in.DreamMajor = strings.TrimSpace(in.DreamMajor)
}

func (in *RegisterInput) Validate() error {
	in.Normalize()
	return validateStruct(in)
}

func (in *UpdateProfileInput) Normalize() {
	in.FullName = strings.TrimSpace(in.FullName)
	in.BirthDate = strings.TrimSpace(in.BirthDate)
	in.SchoolOrigin = strings.TrimSpace(in.SchoolOrigin)
	in.DreamMajor = strings.TrimSpace(in.DreamMajor)
	// Spaces and dashes are common in typed phone numbers.
	in.PhoneNumber = strings.NewReplacer(" ", "", "-", "").Replace(strings.TrimSpace(in.PhoneNumber))
	in.AvatarURL = strings.TrimSpace(in.AvatarURL)
}

func (in *UpdateProfileInput) Validate() error {
	in.Normalize()
	return validateStruct(in)
}

// Apply copies the form onto u.
func (in UpdateProfileInput) Apply(u *User) {
	u.FullName = in.FullName
	u.BirthDate = in.BirthDate
	u.SchoolOrigin = in.SchoolOrigin
	u.DreamMajor = in.DreamMajor
	u.PhoneNumber = in.PhoneNumber
	u.AvatarURL = in.AvatarURL
}

func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	return &FormError{Fields: TranslateErrors(err)}
}

// TranslateErrors maps a validation error to field → message. Errors that
// are not validation errors land under "detail".
func TranslateErrors(err error) map[string]string {
	fields := make(map[string]string)

	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			fields[fe.Field()] = fe.Translate(trans)
		}
		return fields
	}

	fields["detail"] = err.Error()
	return fields
}
