package prospect

import (
	"context"
	"errors"
	"time"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/user"
)

var (
	// errors
	ErrNotFound = errors.New("prospect not found")
)

type (
	Repository interface {
		// CreateProspect is idempotent per email: capturing a known email
		// returns the existing record.
		CreateProspect(ctx context.Context, p Prospect) (Prospect, error)
		// QueryProspects applies AND operation on available QueryFilter
		// fields, ordered by CreatedAt descending.
		QueryProspects(ctx context.Context, filter *QueryFilter) ([]Prospect, error)
		GetProspectByEmail(ctx context.Context, email string) (Prospect, error)
		UpdateProspect(ctx context.Context, p Prospect) (Prospect, error)
	}

	Service struct {
		repo    Repository
		usrRepo user.Repository
	}
)

func NewService(repo Repository, usrRepo user.Repository) *Service {
	return &Service{repo: repo, usrRepo: usrRepo}
}

func (svc *Service) Capture(ctx context.Context, np NewProspect) (Prospect, error) {
	return svc.repo.CreateProspect(ctx, Prospect{
		Email:     np.Email,
		Source:    np.Source,
		CreatedAt: time.Now().UTC(),
	})
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter) ([]Prospect, error) {
	return svc.repo.QueryProspects(ctx, filter)
}

// MarkConverted records that a prospect became the given user. Unknown
// emails and already-converted prospects are left alone.
func (svc *Service) MarkConverted(ctx context.Context, email string, usr user.User) error {
	p, err := svc.repo.GetProspectByEmail(ctx, core.CleanString(email, true /* lower */))
	if err != nil {
		if err == ErrNotFound {
			return nil
		}
		return err
	}
	if p.Converted {
		return nil
	}

	now := time.Now().UTC()
	p.Converted = true
	p.ConvertedUserID = &usr.ID
	p.ConvertedAt = &now
	_, err = svc.repo.UpdateProspect(ctx, p)
	return err
}

// Reconcile sweeps unconverted prospects against existing user accounts and
// returns how many were converted. It never un-converts.
func (svc *Service) Reconcile(ctx context.Context) (int, error) {
	converted := false
	prospects, err := svc.repo.QueryProspects(ctx, &QueryFilter{Converted: &converted})
	if err != nil {
		return 0, err
	}

	var count int
	for _, p := range prospects {
		usr, err := svc.usrRepo.GetUser(ctx, user.GetFilter{Email: p.Email})
		if err != nil {
			if err == user.ErrNotFound {
				continue
			}
			return count, err
		}
		if err := svc.MarkConverted(ctx, p.Email, usr); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}
