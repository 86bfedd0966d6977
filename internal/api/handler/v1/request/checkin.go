package request

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

type CheckInCodeRequest struct {
	Code string `json:"code"`
}

func (req *CheckInCodeRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Code, validation.Required, validation.Length(4, 4), is.Digit),
	)
}

// GuestRequest identifies a roster record; used by manual check-in and walk-in registration.
type GuestRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

func (req *GuestRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Name, validation.Required, validation.RuneLength(1, 50)),
		validation.Field(&req.Phone, validation.Required, phoneRule),
	)
}

type PaymentRequest struct {
	Confirmed *bool `json:"confirmed"`
}

func (req *PaymentRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Confirmed, validation.NotNil),
	)
}
