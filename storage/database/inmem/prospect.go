package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/darasahq/darasa/core/prospect"
)

type prospectRepository struct {
	db *prospectTable
}

var _ prospect.Repository = (*prospectRepository)(nil)

func NewProspectRepository(db *DB) *prospectRepository {
	return &prospectRepository{db: db.prospect}
}

func (repo *prospectRepository) CreateProspect(_ context.Context, p prospect.Prospect) (prospect.Prospect, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, existing := range repo.db.table {
		if existing.Email == p.Email {
			return *existing, nil
		}
	}

	p.ID = uuid.New().String()
	repo.db.table[p.ID] = &p
	return p, nil
}

func (repo *prospectRepository) QueryProspects(_ context.Context, filter *prospect.QueryFilter) ([]prospect.Prospect, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	prospects := make([]prospect.Prospect, 0)
	for _, p := range repo.db.table {
		if filter != nil {
			if filter.Search != "" && !strings.Contains(strings.ToLower(p.Email), strings.ToLower(filter.Search)) {
				continue
			}
			if filter.Source != "" && p.Source != filter.Source {
				continue
			}
			if filter.Converted != nil && p.Converted != *filter.Converted {
				continue
			}
		}
		prospects = append(prospects, *p)
	}
	sort.Slice(prospects, func(i, j int) bool { return prospects[i].CreatedAt.After(prospects[j].CreatedAt) })
	return prospects, nil
}

func (repo *prospectRepository) GetProspectByEmail(_ context.Context, email string) (prospect.Prospect, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, p := range repo.db.table {
		if p.Email == email {
			return *p, nil
		}
	}
	return prospect.Prospect{}, prospect.ErrNotFound
}

func (repo *prospectRepository) UpdateProspect(_ context.Context, p prospect.Prospect) (prospect.Prospect, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[p.ID]; !ok {
		return prospect.Prospect{}, prospect.ErrNotFound
	}
	repo.db.table[p.ID] = &p
	return p, nil
}
