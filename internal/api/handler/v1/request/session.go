package request

import (
	"errors"

	"github.com/dlclark/regexp2"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// Phones are free-form; matching ignores separators, so only require a digit.
const phoneRegexPattern = `^(?=\D*\d).+$`

var (
	phoneExp = regexp2.MustCompile(phoneRegexPattern, regexp2.Singleline)

	errInvalidPhone = errors.New("the phone number must contain at least one digit")
)

// phoneRule accepts empty values so it can be combined with validation.Required.
var phoneRule = validation.By(func(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	ok, err := phoneExp.MatchString(s)
	if err != nil || !ok {
		return errInvalidPhone
	}

	return nil
})

type AttendeeLoginRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

func (req *AttendeeLoginRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Name, validation.Required, validation.RuneLength(1, 50)),
		validation.Field(&req.Phone, validation.Required, phoneRule),
	)
}

type AdminLoginRequest struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

func (req *AdminLoginRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Name, validation.Required, validation.RuneLength(1, 50)),
		validation.Field(&req.Code, validation.Required, validation.Length(4, 4), is.Digit),
	)
}

type NicknameRequest struct {
	Nickname string `json:"nickname"`
}

func (req *NicknameRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Nickname, validation.Required, validation.RuneLength(1, 20)),
	)
}

type AdminCodeRequest struct {
	Code string `json:"code"`
}

func (req *AdminCodeRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Code, validation.Required, validation.Length(4, 4), is.Digit),
	)
}
