package beta

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/darasahq/darasa/core"
)

// Application statuses
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Application is a user's request for beta access, pending admin review.
type Application struct {
	ID         string     `json:"id"`
	UserID     string     `json:"user_id"`
	Email      string     `json:"email"`
	Motivation string     `json:"motivation"`
	Status     string     `json:"status"`
	DecidedBy  *string    `json:"decided_by"`
	DecidedAt  *time.Time `json:"decided_at"` // UTC
	CreatedAt  time.Time  `json:"created_at"` // UTC
}

func (a Application) Decided() bool {
	return a.Status != StatusPending
}

// NewApplication contains information needed to apply for beta access.
type NewApplication struct {
	Motivation string `json:"motivation" validate:"required,min=20"`
}

func (na *NewApplication) Validate(validate *validator.Validate) error {
	na.Motivation = core.CleanString(na.Motivation)
	return validate.Struct(na)
}

type QueryFilter struct {
	Status string `query:"status"`
	UserID string `query:"user_id"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Status == "" && qf.UserID == ""
}

func (qf *QueryFilter) Clean() {
	qf.Status = core.CleanString(qf.Status, true /* lower */)
}
