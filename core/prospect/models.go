package prospect

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/darasahq/darasa/core"
)

// Prospect is an email address collected before full registration, later
// reconciled against real user accounts.
type Prospect struct {
	ID              string     `json:"id"`
	Email           string     `json:"email"`
	Source          string     `json:"source"`
	Converted       bool       `json:"converted"`
	ConvertedUserID *string    `json:"converted_user_id"`
	ConvertedAt     *time.Time `json:"converted_at"` // UTC
	CreatedAt       time.Time  `json:"created_at"`   // UTC
}

// NewProspect contains information needed to capture a new Prospect.
type NewProspect struct {
	Email  string `json:"email" validate:"required,email"`
	Source string `json:"source" validate:"omitempty,max=64"`
}

func (np *NewProspect) Validate(validate *validator.Validate) error {
	np.Email = core.CleanString(np.Email, true /* lower */)
	np.Source = core.CleanString(np.Source, true /* lower */)
	return validate.Struct(np)
}

type QueryFilter struct {
	Search    string `query:"search"`
	Source    string `query:"source"`
	Converted *bool  `query:"converted"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Source == "" && qf.Converted == nil
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Source = core.CleanString(qf.Source, true /* lower */)
}
