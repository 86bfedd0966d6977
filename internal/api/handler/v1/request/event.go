package request

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/vietanh2810/encore-api/internal/domain"
)

type UpdateEventRequest struct {
	Title             string     `json:"title"`
	Venue             string     `json:"venue"`
	StartsAt          *time.Time `json:"startsAt"`
	Notice            string     `json:"notice"`
	TicketPrice       int        `json:"ticketPrice"`
	TicketAccount     string     `json:"ticketAccount"`
	TicketDescription string     `json:"ticketDescription"`
}

func (req *UpdateEventRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Title, validation.Required, validation.RuneLength(1, 100)),
		validation.Field(&req.Venue, validation.RuneLength(0, 100)),
		validation.Field(&req.Notice, validation.RuneLength(0, 1000)),
		validation.Field(&req.TicketPrice, validation.Min(0)),
		validation.Field(&req.TicketAccount, validation.RuneLength(0, 100)),
		validation.Field(&req.TicketDescription, validation.RuneLength(0, 500)),
	)
}

func (req *UpdateEventRequest) ToDomain() (domain.EventInfo, domain.TicketInfo) {
	info := domain.EventInfo{
		Title:    req.Title,
		Venue:    req.Venue,
		StartsAt: req.StartsAt,
		Notice:   req.Notice,
	}
	ticket := domain.TicketInfo{
		Price:       req.TicketPrice,
		Account:     req.TicketAccount,
		Description: req.TicketDescription,
	}

	return info, ticket
}
