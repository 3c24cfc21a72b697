package analytics

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/darasahq/darasa/core"
)

// PageView is a single recorded page hit.
type PageView struct {
	ID        string    `json:"id"`
	Path      string    `json:"path"`
	Referrer  string    `json:"referrer,omitempty"`
	UserAgent string    `json:"user_agent,omitempty"`
	UserID    *string   `json:"user_id,omitempty"`
	CreatedAt time.Time `json:"created_at"` // UTC
}

// NewPageView contains information needed to record a PageView.
type NewPageView struct {
	Path     string `json:"path" validate:"required,startswith=/,max=512"`
	Referrer string `json:"referrer" validate:"omitempty,max=512"`
}

func (npv *NewPageView) Validate(validate *validator.Validate) error {
	npv.Path = core.CleanString(npv.Path)
	npv.Referrer = core.CleanString(npv.Referrer)
	return validate.Struct(npv)
}

// PathCount is the number of views a path received over a window.
type PathCount struct {
	Path  string `json:"path"`
	Count int    `json:"count"`
}

// Summary aggregates page views over a window.
type Summary struct {
	From  *time.Time  `json:"from,omitempty"`
	To    *time.Time  `json:"to,omitempty"`
	Total int         `json:"total"`
	Paths []PathCount `json:"paths"`
}

// SummaryFilter bounds the summary window; zero bounds are open.
type SummaryFilter struct {
	From time.Time `query:"from"`
	To   time.Time `query:"to"`
}
