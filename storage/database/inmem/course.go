package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/course"
)

type courseRepository struct {
	modules *moduleTable
	days    *dayTable
}

var _ course.Repository = (*courseRepository)(nil)

func NewCourseRepository(db *DB) *courseRepository {
	return &courseRepository{modules: db.module, days: db.day}
}

func (repo *courseRepository) queryModules() []course.Module {
	modules := make([]course.Module, 0, len(repo.modules.table))
	for _, m := range repo.modules.table {
		modules = append(modules, *m)
	}
	sort.Slice(modules, func(i, j int) bool { return modules[i].Position < modules[j].Position })
	return modules
}

func (repo *courseRepository) CheckSlugUniqueness(_ context.Context, slug string, excludedModules ...course.Module) error {
	repo.modules.RLock()
	defer repo.modules.RUnlock()

	for _, mod := range repo.queryModules() {
		if mod.Slug != slug {
			continue
		}
		var excluded bool
		for _, excl := range excludedModules {
			if excl.ID == mod.ID {
				excluded = true
				break
			}
		}
		if !excluded {
			return course.ErrSlugExists
		}
	}
	return nil
}

func (repo *courseRepository) CreateModule(_ context.Context, mod course.Module) (course.Module, error) {
	repo.modules.Lock()
	defer repo.modules.Unlock()

	mod.ID = uuid.New().String()
	repo.modules.table[mod.ID] = &mod
	return mod, nil
}

func (repo *courseRepository) QueryModules(_ context.Context, filter *course.QueryFilter, _ []core.DBOrdering) ([]course.Module, error) {
	repo.modules.RLock()
	defer repo.modules.RUnlock()

	modules := repo.queryModules()
	if filter == nil || filter.IsEmpty() {
		return modules, nil
	}

	matches := make([]course.Module, 0, len(modules))
	for _, mod := range modules {
		if filter.Search != "" {
			search := strings.ToLower(filter.Search)
			if !strings.Contains(strings.ToLower(mod.Slug), search) &&
				!strings.Contains(strings.ToLower(mod.Name), search) &&
				!strings.Contains(strings.ToLower(mod.Description), search) {
				continue
			}
		}
		if filter.IsPaid != nil && mod.IsPaid != *filter.IsPaid {
			continue
		}
		if filter.IsPublished != nil && mod.IsPublished != *filter.IsPublished {
			continue
		}
		matches = append(matches, mod)
	}
	return matches, nil
}

func (repo *courseRepository) GetModule(_ context.Context, filter course.GetFilter) (course.Module, error) {
	repo.modules.RLock()
	defer repo.modules.RUnlock()

	if filter.ID != "" {
		if mod, ok := repo.modules.table[filter.ID]; ok {
			return *mod, nil
		}
		return course.Module{}, course.ErrNotFound
	}
	if filter.Slug != "" {
		for _, mod := range repo.modules.table {
			if mod.Slug == filter.Slug {
				return *mod, nil
			}
		}
	}
	return course.Module{}, course.ErrNotFound
}

func (repo *courseRepository) UpdateModule(_ context.Context, mod course.Module) (course.Module, error) {
	repo.modules.Lock()
	defer repo.modules.Unlock()

	if _, ok := repo.modules.table[mod.ID]; !ok {
		return course.Module{}, course.ErrNotFound
	}
	repo.modules.table[mod.ID] = &mod
	return mod, nil
}

func (repo *courseRepository) DeleteModulesByID(_ context.Context, ids []string) (int, error) {
	repo.modules.Lock()
	defer repo.modules.Unlock()

	var cnt int
	for _, id := range ids {
		if _, ok := repo.modules.table[id]; ok {
			delete(repo.modules.table, id)
			cnt++
		}
	}
	return cnt, nil
}

func (repo *courseRepository) CreateDay(_ context.Context, day course.Day) (course.Day, error) {
	repo.days.Lock()
	defer repo.days.Unlock()

	day.ID = uuid.New().String()
	repo.days.table[day.ID] = &day
	return day, nil
}

func (repo *courseRepository) QueryDays(_ context.Context, moduleID string) ([]course.Day, error) {
	repo.days.RLock()
	defer repo.days.RUnlock()

	days := make([]course.Day, 0)
	for _, d := range repo.days.table {
		if d.ModuleID == moduleID {
			days = append(days, *d)
		}
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Number < days[j].Number })
	return days, nil
}

func (repo *courseRepository) GetDay(_ context.Context, id string) (course.Day, error) {
	repo.days.RLock()
	defer repo.days.RUnlock()

	if day, ok := repo.days.table[id]; ok {
		return *day, nil
	}
	return course.Day{}, course.ErrDayNotFound
}

func (repo *courseRepository) UpdateDay(_ context.Context, day course.Day) (course.Day, error) {
	repo.days.Lock()
	defer repo.days.Unlock()

	if _, ok := repo.days.table[day.ID]; !ok {
		return course.Day{}, course.ErrDayNotFound
	}
	repo.days.table[day.ID] = &day
	return day, nil
}

func (repo *courseRepository) DeleteDay(_ context.Context, id string) error {
	repo.days.Lock()
	defer repo.days.Unlock()

	if _, ok := repo.days.table[id]; !ok {
		return course.ErrDayNotFound
	}
	delete(repo.days.table, id)
	return nil
}
