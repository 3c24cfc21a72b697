package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/darasahq/darasa/core/analytics"
)

type analyticsRepository struct {
	db *pageViewTable
}

var _ analytics.Repository = (*analyticsRepository)(nil)

func NewAnalyticsRepository(db *DB) *analyticsRepository {
	return &analyticsRepository{db: db.pageView}
}

func (repo *analyticsRepository) CreatePageView(_ context.Context, pv analytics.PageView) (analytics.PageView, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	pv.ID = uuid.New().String()
	repo.db.table[pv.ID] = &pv
	return pv, nil
}

func (repo *analyticsRepository) CountByPath(_ context.Context, from, to time.Time) ([]analytics.PathCount, int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	counts := make(map[string]int)
	var total int
	for _, pv := range repo.db.table {
		if !from.IsZero() && pv.CreatedAt.Before(from) {
			continue
		}
		if !to.IsZero() && pv.CreatedAt.After(to) {
			continue
		}
		counts[pv.Path]++
		total++
	}

	paths := make([]analytics.PathCount, 0, len(counts))
	for path, count := range counts {
		paths = append(paths, analytics.PathCount{Path: path, Count: count})
	}
	sort.Slice(paths, func(i, j int) bool {
		if paths[i].Count != paths[j].Count {
			return paths[i].Count > paths[j].Count
		}
		return paths[i].Path < paths[j].Path
	})
	return paths, total, nil
}
