package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/darasahq/darasa/core/beta"
)

type betaRepository struct {
	db *betaApplicationTable
}

var _ beta.Repository = (*betaRepository)(nil)

func NewBetaRepository(db *DB) *betaRepository {
	return &betaRepository{db: db.betaApp}
}

func (repo *betaRepository) CreateApplication(_ context.Context, app beta.Application) (beta.Application, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	app.ID = uuid.New().String()
	repo.db.table[app.ID] = &app
	return app, nil
}

func (repo *betaRepository) QueryApplications(_ context.Context, filter *beta.QueryFilter) ([]beta.Application, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	apps := make([]beta.Application, 0)
	for _, app := range repo.db.table {
		if filter != nil {
			if filter.Status != "" && app.Status != filter.Status {
				continue
			}
			if filter.UserID != "" && app.UserID != filter.UserID {
				continue
			}
		}
		apps = append(apps, *app)
	}
	sort.Slice(apps, func(i, j int) bool { return apps[i].CreatedAt.Before(apps[j].CreatedAt) })
	return apps, nil
}

func (repo *betaRepository) GetApplication(_ context.Context, id string) (beta.Application, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if app, ok := repo.db.table[id]; ok {
		return *app, nil
	}
	return beta.Application{}, beta.ErrNotFound
}

func (repo *betaRepository) UpdateApplication(_ context.Context, app beta.Application) (beta.Application, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[app.ID]; !ok {
		return beta.Application{}, beta.ErrNotFound
	}
	repo.db.table[app.ID] = &app
	return app, nil
}
