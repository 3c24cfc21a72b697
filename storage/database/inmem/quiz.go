package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/darasahq/darasa/core/quiz"
)

type quizRepository struct {
	tests       *testTable
	submissions *submissionTable
	modules     *moduleTable
}

var _ quiz.Repository = (*quizRepository)(nil)

func NewQuizRepository(db *DB) *quizRepository {
	return &quizRepository{tests: db.test, submissions: db.submission, modules: db.module}
}

func assignQuestionIDs(questions []quiz.Question, testID string) {
	for i := range questions {
		questions[i].ID = uuid.New().String()
		questions[i].TestID = testID
		for j := range questions[i].Choices {
			questions[i].Choices[j].ID = uuid.New().String()
		}
	}
}

func (repo *quizRepository) CreateTest(_ context.Context, test quiz.Test) (quiz.Test, error) {
	repo.tests.Lock()
	defer repo.tests.Unlock()

	test.ID = uuid.New().String()
	assignQuestionIDs(test.Questions, test.ID)
	repo.tests.table[test.ID] = &test
	return test, nil
}

func (repo *quizRepository) GetTest(_ context.Context, filter quiz.GetFilter) (quiz.Test, error) {
	repo.tests.RLock()
	defer repo.tests.RUnlock()

	if filter.ID != "" {
		if test, ok := repo.tests.table[filter.ID]; ok {
			return *test, nil
		}
		return quiz.Test{}, quiz.ErrNotFound
	}
	if filter.ModuleID != "" {
		for _, test := range repo.tests.table {
			if test.ModuleID == filter.ModuleID {
				return *test, nil
			}
		}
	}
	return quiz.Test{}, quiz.ErrNotFound
}

func (repo *quizRepository) UpdateTest(_ context.Context, test quiz.Test, replaceQuestions bool) (quiz.Test, error) {
	repo.tests.Lock()
	defer repo.tests.Unlock()

	orig, ok := repo.tests.table[test.ID]
	if !ok {
		return quiz.Test{}, quiz.ErrNotFound
	}
	if replaceQuestions {
		assignQuestionIDs(test.Questions, test.ID)
	} else {
		test.Questions = orig.Questions
	}
	repo.tests.table[test.ID] = &test
	return test, nil
}

func (repo *quizRepository) DeleteTest(_ context.Context, id string) error {
	repo.tests.Lock()
	defer repo.tests.Unlock()
	delete(repo.tests.table, id)
	return nil
}

func (repo *quizRepository) CreateSubmission(_ context.Context, sub quiz.Submission) (quiz.Submission, error) {
	repo.submissions.Lock()
	defer repo.submissions.Unlock()

	sub.ID = uuid.New().String()
	repo.submissions.table[sub.ID] = &sub
	return sub, nil
}

func (repo *quizRepository) QuerySubmissions(_ context.Context, filter quiz.SubmissionFilter) ([]quiz.Submission, error) {
	repo.submissions.RLock()
	defer repo.submissions.RUnlock()

	subs := make([]quiz.Submission, 0)
	for _, sub := range repo.submissions.table {
		if filter.TestID != "" && sub.TestID != filter.TestID {
			continue
		}
		if filter.UserID != "" && sub.UserID != filter.UserID {
			continue
		}
		subs = append(subs, *sub)
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].CreatedAt.After(subs[j].CreatedAt) })
	return subs, nil
}

func (repo *quizRepository) BestScoresBySlug(_ context.Context, userID string) (map[string]int, error) {
	repo.submissions.RLock()
	defer repo.submissions.RUnlock()
	repo.tests.RLock()
	defer repo.tests.RUnlock()
	repo.modules.RLock()
	defer repo.modules.RUnlock()

	scores := make(map[string]int)
	for _, sub := range repo.submissions.table {
		if sub.UserID != userID {
			continue
		}
		test, ok := repo.tests.table[sub.TestID]
		if !ok {
			continue
		}
		mod, ok := repo.modules.table[test.ModuleID]
		if !ok {
			continue
		}
		if best, ok := scores[mod.Slug]; !ok || sub.Score > best {
			scores[mod.Slug] = sub.Score
		}
	}
	return scores, nil
}
