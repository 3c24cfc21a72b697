package course

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/darasahq/darasa/core"
)

// Module is a course unit made of sequential days of exercises.
type Module struct {
	ID                   string    `json:"id"`
	Slug                 string    `json:"slug"`
	Name                 string    `json:"name"`
	Description          string    `json:"description"`
	IsPaid               bool      `json:"is_paid"`
	IsPublished          bool      `json:"is_published"`
	Position             int       `json:"position"`
	BetaDayLimit         int       `json:"beta_day_limit"`
	PrerequisiteModuleID *string   `json:"prerequisite_module_id"`
	PrerequisiteMinScore int       `json:"prerequisite_min_score"`
	CreatedAt            time.Time `json:"created_at"` // UTC
	UpdatedAt            time.Time `json:"updated_at"` // UTC
}

// Day is a single unit of module content.
type Day struct {
	ID        string    `json:"id"`
	ModuleID  string    `json:"module_id"`
	Number    int       `json:"number"`
	Title     string    `json:"title"`
	Summary   string    `json:"summary"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// NewModule contains information needed to create a new Module.
type NewModule struct {
	Slug                 string  `json:"slug" validate:"required,slug"`
	Name                 string  `json:"name" validate:"required"`
	Description          string  `json:"description"`
	IsPaid               bool    `json:"is_paid"`
	IsPublished          bool    `json:"is_published"`
	Position             int     `json:"position" validate:"min=0"`
	BetaDayLimit         int     `json:"beta_day_limit" validate:"min=0"`
	PrerequisiteModuleID *string `json:"prerequisite_module_id" validate:"omitempty,uuid4"`
	PrerequisiteMinScore int     `json:"prerequisite_min_score" validate:"min=0,max=100"`
}

func (nm *NewModule) Validate(validate *validator.Validate, svc *Service) error {
	nm.Slug = core.CleanString(nm.Slug, true /* lower */)
	nm.Name = core.CleanString(nm.Name)

	if err := validate.Struct(nm); err != nil {
		return err
	}
	return svc.CheckSlugUniqueness(nm.Slug)
}

// UpdateModule defines what information may be provided to modify an existing Module.
type UpdateModule struct {
	Slug                 string  `json:"slug" validate:"omitempty,slug"`
	Name                 string  `json:"name"`
	Description          *string `json:"description"`
	IsPaid               *bool   `json:"is_paid"`
	IsPublished          *bool   `json:"is_published"`
	Position             *int    `json:"position" validate:"omitempty,min=0"`
	BetaDayLimit         *int    `json:"beta_day_limit" validate:"omitempty,min=0"`
	PrerequisiteModuleID *string `json:"prerequisite_module_id" validate:"omitempty,uuid4"`
	PrerequisiteMinScore *int    `json:"prerequisite_min_score" validate:"omitempty,min=0,max=100"`
}

func (um *UpdateModule) Validate(orig Module, validate *validator.Validate, svc *Service) error {
	slug := core.CleanString(um.Slug, true /* lower */)
	if slug != "" {
		um.Slug = slug
	} else {
		um.Slug = orig.Slug
	}

	if err := validate.Struct(um); err != nil {
		return err
	}
	return svc.CheckSlugUniqueness(um.Slug, orig)
}

// NewDay contains information needed to create a new Day.
type NewDay struct {
	Number  int    `json:"number" validate:"required,min=1"`
	Title   string `json:"title" validate:"required"`
	Summary string `json:"summary"`
	Content string `json:"content"`
}

func (nd *NewDay) Validate(validate *validator.Validate) error {
	nd.Title = core.CleanString(nd.Title)
	return validate.Struct(nd)
}

// UpdateDay defines what information may be provided to modify an existing Day.
type UpdateDay struct {
	Number  *int    `json:"number" validate:"omitempty,min=1"`
	Title   string  `json:"title"`
	Summary *string `json:"summary"`
	Content *string `json:"content"`
}

func (ud *UpdateDay) Validate(validate *validator.Validate) error {
	ud.Title = core.CleanString(ud.Title)
	return validate.Struct(ud)
}

type QueryFilter struct {
	Search      string `query:"search"`
	IsPaid      *bool  `query:"is_paid"`
	IsPublished *bool  `query:"is_published"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.IsPaid == nil && qf.IsPublished == nil
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}

// GetFilter selects a single Module; the first non-empty field wins.
type GetFilter struct {
	ID   string
	Slug string
}
