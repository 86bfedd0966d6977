package request

import (
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation"
)

var colorExp = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

type CreateMemoRequest struct {
	Content string `json:"content"`
	Color   string `json:"color"`
}

func (req *CreateMemoRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Content, validation.Required, validation.RuneLength(1, 200)),
		validation.Field(&req.Color, validation.Match(colorExp)),
	)
}

type RouletteRequest struct {
	Options []string `json:"options"`
}

func (req *RouletteRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Options, validation.Required, validation.Length(1, 50)),
	)
}

type MarqueeRequest struct {
	Text  string `json:"text"`
	Speed int    `json:"speed"`
	Color string `json:"color"`
}

func (req *MarqueeRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Text, validation.Required, validation.RuneLength(1, 100)),
		validation.Field(&req.Speed, validation.Min(0), validation.Max(10)),
		validation.Field(&req.Color, validation.Match(colorExp)),
	)
}
