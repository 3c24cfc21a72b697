package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/darasahq/darasa/core/course"
	"github.com/darasahq/darasa/core/quiz"
	"github.com/darasahq/darasa/core/user"
)

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, uname, email, pwd string,
	roles []string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Name:      name,
		Username:  uname,
		Email:     email,
		Roles:     roles,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	usr.SetActive(isActive)
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateModule(t *testing.T, repo course.Repository, mod course.Module) course.Module {
	t.Helper()

	now := time.Now().UTC()
	if mod.CreatedAt.IsZero() {
		mod.CreatedAt = now
		mod.UpdatedAt = now
	}
	mod, err := repo.CreateModule(context.Background(), mod)
	if err != nil {
		t.Fatalf("CreateModule() failed: %v", err)
	}
	return mod
}

func CreateDay(t *testing.T, repo course.Repository, moduleID string, number int, title string) course.Day {
	t.Helper()

	now := time.Now().UTC()
	day, err := repo.CreateDay(context.Background(), course.Day{
		ModuleID:  moduleID,
		Number:    number,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateDay() failed: %v", err)
	}
	return day
}

func CreateTest(t *testing.T, repo quiz.Repository, test quiz.Test) quiz.Test {
	t.Helper()

	now := time.Now().UTC()
	if test.CreatedAt.IsZero() {
		test.CreatedAt = now
		test.UpdatedAt = now
	}
	test, err := repo.CreateTest(context.Background(), test)
	if err != nil {
		t.Fatalf("CreateTest() failed: %v", err)
	}
	return test
}

func CreateSubmission(t *testing.T, repo quiz.Repository, testID, userID string, score int, passed bool) quiz.Submission {
	t.Helper()

	sub, err := repo.CreateSubmission(context.Background(), quiz.Submission{
		TestID:    testID,
		UserID:    userID,
		Answers:   map[string]string{},
		Score:     score,
		Passed:    passed,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateSubmission() failed: %v", err)
	}
	return sub
}
