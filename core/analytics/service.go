package analytics

import (
	"context"
	"time"
)

type (
	Repository interface {
		CreatePageView(ctx context.Context, pv PageView) (PageView, error)
		// CountByPath returns per-path view counts within the window,
		// ordered by count descending, and the window total.
		CountByPath(ctx context.Context, from, to time.Time) ([]PathCount, int, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Record(ctx context.Context, npv NewPageView, userID, userAgent string) (PageView, error) {
	pv := PageView{
		Path:      npv.Path,
		Referrer:  npv.Referrer,
		UserAgent: userAgent,
		CreatedAt: time.Now().UTC(),
	}
	if userID != "" {
		pv.UserID = &userID
	}
	return svc.repo.CreatePageView(ctx, pv)
}

func (svc *Service) Summarize(ctx context.Context, filter SummaryFilter) (Summary, error) {
	paths, total, err := svc.repo.CountByPath(ctx, filter.From.UTC(), filter.To.UTC())
	if err != nil {
		return Summary{}, err
	}

	sum := Summary{Total: total, Paths: paths}
	if !filter.From.IsZero() {
		from := filter.From.UTC()
		sum.From = &from
	}
	if !filter.To.IsZero() {
		to := filter.To.UTC()
		sum.To = &to
	}
	return sum, nil
}
