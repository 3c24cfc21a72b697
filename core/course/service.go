package course

import (
	"context"
	"errors"
	"time"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/user"
)

var (
	// errors
	ErrNotFound      = errors.New("module not found")
	ErrDayNotFound   = errors.New("day not found")
	ErrSlugExists    = errors.New("a module with this slug already exists")
	ErrDayNumberUsed = errors.New("a day with this number already exists in this module")
)

type (
	Repository interface {
		CheckSlugUniqueness(ctx context.Context, slug string, excludedModules ...Module) error
		CreateModule(ctx context.Context, mod Module) (Module, error)
		// QueryModules applies AND operation on available QueryFilter fields,
		// ordered by Position unless overridden.
		QueryModules(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Module, error)
		GetModule(ctx context.Context, filter GetFilter) (Module, error)
		UpdateModule(ctx context.Context, mod Module) (Module, error)
		DeleteModulesByID(ctx context.Context, ids []string) (int, error)

		CreateDay(ctx context.Context, day Day) (Day, error)
		// QueryDays returns a module's days ordered by Number.
		QueryDays(ctx context.Context, moduleID string) ([]Day, error)
		GetDay(ctx context.Context, id string) (Day, error)
		UpdateDay(ctx context.Context, day Day) (Day, error)
		DeleteDay(ctx context.Context, id string) error
	}

	// ScoreReader provides the best test score percentage per module slug
	// for a user. Implemented by the quiz service.
	ScoreReader interface {
		BestScoresBySlug(ctx context.Context, userID string) (map[string]int, error)
	}

	Service struct {
		repo   Repository
		scores ScoreReader
	}
)

func NewService(repo Repository, scores ScoreReader) *Service {
	return &Service{repo: repo, scores: scores}
}

func (svc *Service) CheckSlugUniqueness(slug string, exclModules ...Module) error {
	if err := svc.repo.CheckSlugUniqueness(context.Background(), slug, exclModules...); err != nil {
		if err == ErrSlugExists {
			return core.NewValidationError(err, core.FieldError{Field: "slug", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, nm NewModule) (Module, error) {
	now := time.Now().UTC()
	mod := Module{
		Slug:                 nm.Slug,
		Name:                 nm.Name,
		Description:          nm.Description,
		IsPaid:               nm.IsPaid,
		IsPublished:          nm.IsPublished,
		Position:             nm.Position,
		BetaDayLimit:         nm.BetaDayLimit,
		PrerequisiteModuleID: nm.PrerequisiteModuleID,
		PrerequisiteMinScore: nm.PrerequisiteMinScore,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	return svc.repo.CreateModule(ctx, mod)
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Module, error) {
	return svc.repo.QueryModules(ctx, filter, ordering)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Module, error) {
	return svc.repo.GetModule(ctx, GetFilter{ID: id})
}

func (svc *Service) GetBySlug(ctx context.Context, slug string) (Module, error) {
	return svc.repo.GetModule(ctx, GetFilter{Slug: core.CleanString(slug, true /* lower */)})
}

func (svc *Service) Update(ctx context.Context, id string, um UpdateModule) (Module, error) {
	mod, err := svc.repo.GetModule(ctx, GetFilter{ID: id})
	if err != nil {
		return Module{}, err
	}
	mod.Slug = um.Slug
	if name := core.CleanString(um.Name); name != "" {
		mod.Name = name
	}
	if um.Description != nil {
		mod.Description = *um.Description
	}
	if um.IsPaid != nil {
		mod.IsPaid = *um.IsPaid
	}
	if um.IsPublished != nil {
		mod.IsPublished = *um.IsPublished
	}
	if um.Position != nil {
		mod.Position = *um.Position
	}
	if um.BetaDayLimit != nil {
		mod.BetaDayLimit = *um.BetaDayLimit
	}
	if um.PrerequisiteModuleID != nil {
		mod.PrerequisiteModuleID = um.PrerequisiteModuleID
	}
	if um.PrerequisiteMinScore != nil {
		mod.PrerequisiteMinScore = *um.PrerequisiteMinScore
	}
	mod.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateModule(ctx, mod)
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	_, err := svc.repo.DeleteModulesByID(ctx, ids)
	return err
}

// Access evaluates the access decision for a user on a module.
func (svc *Service) Access(ctx context.Context, usr user.User, mod Module) (Access, error) {
	in := AccessInput{
		IsAdmin:       usr.IsAdmin(),
		IsBeta:        usr.IsBeta(),
		HasPaidAccess: usr.HasPaidAccess(),
		ModuleSlug:    mod.Slug,
		IsPaid:        mod.IsPaid,
	}

	if mod.PrerequisiteModuleID != nil {
		prereq, err := svc.repo.GetModule(ctx, GetFilter{ID: *mod.PrerequisiteModuleID})
		if err != nil {
			if err != ErrNotFound {
				return AccessLocked, err
			}
			// dangling prerequisite counts as an unmet one (score 0)
		} else {
			in.PrereqSlug = prereq.Slug
			in.PrereqMinScore = mod.PrerequisiteMinScore
		}
	}

	if !in.IsAdmin {
		scores, err := svc.scores.BestScoresBySlug(ctx, usr.ID)
		if err != nil {
			return AccessLocked, err
		}
		in.BestScores = scores
	}

	return Evaluate(in), nil
}

// Days returns a module's days, applying the beta day limit: non-admin beta
// testers only see the first BetaDayLimit days of a limited module.
func (svc *Service) Days(ctx context.Context, usr user.User, mod Module) ([]Day, error) {
	days, err := svc.repo.QueryDays(ctx, mod.ID)
	if err != nil {
		return nil, err
	}
	if mod.BetaDayLimit > 0 && usr.IsBeta() && !usr.IsAdmin() && len(days) > mod.BetaDayLimit {
		days = days[:mod.BetaDayLimit]
	}
	return days, nil
}

func (svc *Service) CreateDay(ctx context.Context, mod Module, nd NewDay) (Day, error) {
	days, err := svc.repo.QueryDays(ctx, mod.ID)
	if err != nil {
		return Day{}, err
	}
	for _, d := range days {
		if d.Number == nd.Number {
			return Day{}, core.NewValidationError(ErrDayNumberUsed, core.FieldError{Field: "number", Error: ErrDayNumberUsed.Error()})
		}
	}

	now := time.Now().UTC()
	day := Day{
		ModuleID:  mod.ID,
		Number:    nd.Number,
		Title:     nd.Title,
		Summary:   nd.Summary,
		Content:   nd.Content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return svc.repo.CreateDay(ctx, day)
}

func (svc *Service) UpdateDay(ctx context.Context, id string, ud UpdateDay) (Day, error) {
	day, err := svc.repo.GetDay(ctx, id)
	if err != nil {
		return Day{}, err
	}
	if ud.Number != nil {
		day.Number = *ud.Number
	}
	if ud.Title != "" {
		day.Title = ud.Title
	}
	if ud.Summary != nil {
		day.Summary = *ud.Summary
	}
	if ud.Content != nil {
		day.Content = *ud.Content
	}
	day.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateDay(ctx, day)
}

func (svc *Service) DeleteDay(ctx context.Context, id string) error {
	return svc.repo.DeleteDay(ctx, id)
}
