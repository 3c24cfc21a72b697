package quiz

import (
	"context"
	"errors"
	"time"

	"github.com/darasahq/darasa/core"
)

var (
	// errors
	ErrNotFound         = errors.New("test not found")
	ErrTestExists       = errors.New("this module already has a test")
	ErrOneCorrectChoice = errors.New("each question needs exactly one correct choice")
)

type (
	Repository interface {
		CreateTest(ctx context.Context, test Test) (Test, error)
		// GetTest loads a test with its questions and choices.
		GetTest(ctx context.Context, filter GetFilter) (Test, error)
		UpdateTest(ctx context.Context, test Test, replaceQuestions bool) (Test, error)
		DeleteTest(ctx context.Context, id string) error

		CreateSubmission(ctx context.Context, sub Submission) (Submission, error)
		// QuerySubmissions returns submissions ordered by CreatedAt descending.
		QuerySubmissions(ctx context.Context, filter SubmissionFilter) ([]Submission, error)
		// BestScoresBySlug returns a user's best score percentage keyed by the
		// slug of the module whose test was taken.
		BestScoresBySlug(ctx context.Context, userID string) (map[string]int, error)
	}

	Service struct {
		repo Repository
	}
)

// GetFilter selects a single Test; the first non-empty field wins.
type GetFilter struct {
	ID       string
	ModuleID string
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, moduleID string, nt NewTest) (Test, error) {
	if _, err := svc.repo.GetTest(ctx, GetFilter{ModuleID: moduleID}); err == nil {
		return Test{}, core.NewValidationError(ErrTestExists)
	} else if err != ErrNotFound {
		return Test{}, err
	}

	now := time.Now().UTC()
	test := Test{
		ModuleID:     moduleID,
		Name:         nt.Name,
		PassingScore: nt.PassingScore,
		Questions:    buildQuestions(nt.Questions),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	return svc.repo.CreateTest(ctx, test)
}

func (svc *Service) GetByModuleID(ctx context.Context, moduleID string) (Test, error) {
	return svc.repo.GetTest(ctx, GetFilter{ModuleID: moduleID})
}

func (svc *Service) Update(ctx context.Context, id string, ut UpdateTest) (Test, error) {
	test, err := svc.repo.GetTest(ctx, GetFilter{ID: id})
	if err != nil {
		return Test{}, err
	}
	if ut.Name != "" {
		test.Name = ut.Name
	}
	if ut.PassingScore != nil {
		test.PassingScore = *ut.PassingScore
	}
	replace := ut.Questions != nil
	if replace {
		test.Questions = buildQuestions(ut.Questions)
	}
	test.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateTest(ctx, test, replace)
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	return svc.repo.DeleteTest(ctx, id)
}

// Submit grades an answer sheet against the module's test and persists the
// attempt.
func (svc *Service) Submit(ctx context.Context, userID string, test Test, ns NewSubmission) (Submission, error) {
	score, passed := test.Grade(ns.Answers)
	sub := Submission{
		TestID:    test.ID,
		UserID:    userID,
		Answers:   ns.Answers,
		Score:     score,
		Passed:    passed,
		CreatedAt: time.Now().UTC(),
	}
	return svc.repo.CreateSubmission(ctx, sub)
}

func (svc *Service) Submissions(ctx context.Context, filter SubmissionFilter) ([]Submission, error) {
	return svc.repo.QuerySubmissions(ctx, filter)
}

func (svc *Service) BestScoresBySlug(ctx context.Context, userID string) (map[string]int, error) {
	return svc.repo.BestScoresBySlug(ctx, userID)
}

func buildQuestions(nqs []NewQuestion) []Question {
	questions := make([]Question, 0, len(nqs))
	for i, nq := range nqs {
		q := Question{
			Position: i + 1,
			Prompt:   nq.Prompt,
			Points:   nq.Points,
			Choices:  make([]Choice, 0, len(nq.Choices)),
		}
		for _, nc := range nq.Choices {
			q.Choices = append(q.Choices, Choice{Label: nc.Label, Correct: nc.Correct})
		}
		questions = append(questions, q)
	}
	return questions
}
