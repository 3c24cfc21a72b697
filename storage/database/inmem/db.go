package inmemdb

import (
	"sync"

	"github.com/darasahq/darasa/core/analytics"
	"github.com/darasahq/darasa/core/beta"
	"github.com/darasahq/darasa/core/course"
	"github.com/darasahq/darasa/core/prospect"
	"github.com/darasahq/darasa/core/quiz"
	"github.com/darasahq/darasa/core/user"
)

type (
	DB struct {
		user       *userTable
		module     *moduleTable
		day        *dayTable
		test       *testTable
		submission *submissionTable
		betaApp    *betaApplicationTable
		prospect   *prospectTable
		pageView   *pageViewTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	moduleTable struct {
		sync.RWMutex
		table map[string]*course.Module
	}

	dayTable struct {
		sync.RWMutex
		table map[string]*course.Day
	}

	testTable struct {
		sync.RWMutex
		table map[string]*quiz.Test
	}

	submissionTable struct {
		sync.RWMutex
		table map[string]*quiz.Submission
	}

	betaApplicationTable struct {
		sync.RWMutex
		table map[string]*beta.Application
	}

	prospectTable struct {
		sync.RWMutex
		table map[string]*prospect.Prospect
	}

	pageViewTable struct {
		sync.RWMutex
		table map[string]*analytics.PageView
	}
)

func Open() (*DB, error) {
	db := &DB{
		user:       &userTable{table: make(map[string]*user.User)},
		module:     &moduleTable{table: make(map[string]*course.Module)},
		day:        &dayTable{table: make(map[string]*course.Day)},
		test:       &testTable{table: make(map[string]*quiz.Test)},
		submission: &submissionTable{table: make(map[string]*quiz.Submission)},
		betaApp:    &betaApplicationTable{table: make(map[string]*beta.Application)},
		prospect:   &prospectTable{table: make(map[string]*prospect.Prospect)},
		pageView:   &pageViewTable{table: make(map[string]*analytics.PageView)},
	}
	return db, nil
}
