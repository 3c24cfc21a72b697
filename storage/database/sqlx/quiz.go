package sqlxrepos

import (
	"context"
	"encoding/json"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/darasahq/darasa/core/quiz"
)

const (
	testTable       = "test"
	questionTable   = "question"
	choiceTable     = "choice"
	submissionTable = "submission"
)

type testRow struct {
	ID           string    `db:"id"`
	ModuleID     string    `db:"module_id"`
	Name         string    `db:"name"`
	PassingScore int       `db:"passing_score"`
	CreatedAt    null.Time `db:"created_at"`
	UpdatedAt    null.Time `db:"updated_at"`
}

type questionRow struct {
	ID       string `db:"id"`
	TestID   string `db:"test_id"`
	Position int    `db:"position"`
	Prompt   string `db:"prompt"`
	Points   int    `db:"points"`
}

type choiceRow struct {
	ID         string `db:"id"`
	QuestionID string `db:"question_id"`
	Label      string `db:"label"`
	Correct    bool   `db:"correct"`
}

type submissionRow struct {
	ID        string         `db:"id"`
	TestID    string         `db:"test_id"`
	UserID    string         `db:"user_id"`
	Answers   types.JSONText `db:"answers"`
	Score     int            `db:"score"`
	Passed    bool           `db:"passed"`
	CreatedAt null.Time      `db:"created_at"`
}

var (
	testColumns       = []string{"id", "module_id", "name", "passing_score", "created_at", "updated_at"}
	questionColumns   = []string{"id", "test_id", "position", "prompt", "points"}
	choiceColumns     = []string{"id", "question_id", "label", "correct"}
	submissionColumns = []string{"id", "test_id", "user_id", "answers", "score", "passed", "created_at"}
)

type quizRepository struct {
	db *sqlx.DB
}

var _ quiz.Repository = (*quizRepository)(nil) // interface compliance check

func NewQuizRepository(db *sqlx.DB) *quizRepository {
	return &quizRepository{db: db}
}

func (repo quizRepository) insertQuestions(ctx context.Context, tx *sqlx.Tx, testID string, questions []quiz.Question) ([]quiz.Question, error) {
	if len(questions) == 0 {
		return questions, nil
	}

	qIns := psql.Insert(questionTable).Columns(questionColumns...)
	cIns := psql.Insert(choiceTable).Columns(choiceColumns...)
	var hasChoices bool

	for i := range questions {
		questions[i].ID = uuid.New().String()
		questions[i].TestID = testID
		qIns = qIns.Values(questions[i].ID, testID, questions[i].Position, questions[i].Prompt, questions[i].Points)

		for j := range questions[i].Choices {
			questions[i].Choices[j].ID = uuid.New().String()
			cIns = cIns.Values(questions[i].Choices[j].ID, questions[i].ID, questions[i].Choices[j].Label, questions[i].Choices[j].Correct)
			hasChoices = true
		}
	}

	query, args, err := qIns.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building questions insert")
	}
	if _, err = tx.ExecContext(ctx, query, args...); err != nil {
		return nil, errors.Wrap(err, "inserting questions")
	}

	if hasChoices {
		if query, args, err = cIns.ToSql(); err != nil {
			return nil, errors.Wrap(err, "building choices insert")
		}
		if _, err = tx.ExecContext(ctx, query, args...); err != nil {
			return nil, errors.Wrap(err, "inserting choices")
		}
	}
	return questions, nil
}

func (repo quizRepository) loadQuestions(ctx context.Context, testID string) ([]quiz.Question, error) {
	query, args, err := psql.Select(questionColumns...).
		From(questionTable).
		Where(sq.Eq{"test_id": testID}).
		OrderBy("position ASC").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building questions query")
	}
	var qRows []questionRow
	if err = repo.db.SelectContext(ctx, &qRows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying questions")
	}
	if len(qRows) == 0 {
		return []quiz.Question{}, nil
	}

	qIDs := make([]string, 0, len(qRows))
	for _, q := range qRows {
		qIDs = append(qIDs, q.ID)
	}
	query, args, err = psql.Select(choiceColumns...).
		From(choiceTable).
		Where(sq.Eq{"question_id": qIDs}).
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building choices query")
	}
	var cRows []choiceRow
	if err = repo.db.SelectContext(ctx, &cRows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying choices")
	}

	choicesByQ := make(map[string][]quiz.Choice, len(qRows))
	for _, c := range cRows {
		choicesByQ[c.QuestionID] = append(choicesByQ[c.QuestionID], quiz.Choice{ID: c.ID, Label: c.Label, Correct: c.Correct})
	}

	questions := make([]quiz.Question, 0, len(qRows))
	for _, q := range qRows {
		questions = append(questions, quiz.Question{
			ID:       q.ID,
			TestID:   q.TestID,
			Position: q.Position,
			Prompt:   q.Prompt,
			Points:   q.Points,
			Choices:  choicesByQ[q.ID],
		})
	}
	return questions, nil
}

func (repo quizRepository) CreateTest(ctx context.Context, test quiz.Test) (quiz.Test, error) {
	test.ID = uuid.New().String()

	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return quiz.Test{}, errors.Wrap(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	query, args, err := psql.Insert(testTable).
		Columns(testColumns...).
		Values(
			test.ID, test.ModuleID, test.Name, test.PassingScore,
			null.TimeFrom(test.CreatedAt.UTC()), null.TimeFrom(test.UpdatedAt.UTC()),
		).
		ToSql()
	if err != nil {
		return quiz.Test{}, errors.Wrap(err, "building test insert")
	}
	if _, err = tx.ExecContext(ctx, query, args...); err != nil {
		return quiz.Test{}, errors.Wrap(err, "inserting test")
	}

	if test.Questions, err = repo.insertQuestions(ctx, tx, test.ID, test.Questions); err != nil {
		return quiz.Test{}, err
	}
	if err = tx.Commit(); err != nil {
		return quiz.Test{}, errors.Wrap(err, "committing transaction")
	}
	return test, nil
}

func (repo quizRepository) GetTest(ctx context.Context, filter quiz.GetFilter) (quiz.Test, error) {
	var pred interface{}

	switch {
	case filter.ID != "":
		if _, err := uuid.Parse(filter.ID); err != nil {
			return quiz.Test{}, quiz.ErrNotFound
		}
		pred = sq.Eq{"id": filter.ID}
	case filter.ModuleID != "":
		pred = sq.Eq{"module_id": filter.ModuleID}
	default:
		return quiz.Test{}, quiz.ErrNotFound
	}

	query, args, err := psql.Select(testColumns...).From(testTable).Where(pred).Limit(1).ToSql()
	if err != nil {
		return quiz.Test{}, errors.Wrap(err, "building test query")
	}
	var row testRow
	if err = repo.db.GetContext(ctx, &row, query, args...); err != nil {
		return quiz.Test{}, trapNoRowsErr(err, quiz.ErrNotFound, "finding test")
	}

	questions, err := repo.loadQuestions(ctx, row.ID)
	if err != nil {
		return quiz.Test{}, err
	}
	return quiz.Test{
		ID:           row.ID,
		ModuleID:     row.ModuleID,
		Name:         row.Name,
		PassingScore: row.PassingScore,
		Questions:    questions,
		CreatedAt:    row.CreatedAt.Time,
		UpdatedAt:    row.UpdatedAt.Time,
	}, nil
}

func (repo quizRepository) UpdateTest(ctx context.Context, test quiz.Test, replaceQuestions bool) (quiz.Test, error) {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return quiz.Test{}, errors.Wrap(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	query, args, err := psql.Update(testTable).
		Set("name", test.Name).
		Set("passing_score", test.PassingScore).
		Set("updated_at", null.TimeFrom(test.UpdatedAt.UTC())).
		Where(sq.Eq{"id": test.ID}).
		ToSql()
	if err != nil {
		return quiz.Test{}, errors.Wrap(err, "building test update")
	}
	if _, err = tx.ExecContext(ctx, query, args...); err != nil {
		return quiz.Test{}, errors.Wrap(err, "updating test")
	}

	if replaceQuestions {
		// choices go with their questions (ON DELETE CASCADE)
		if query, args, err = psql.Delete(questionTable).Where(sq.Eq{"test_id": test.ID}).ToSql(); err != nil {
			return quiz.Test{}, errors.Wrap(err, "building questions delete")
		}
		if _, err = tx.ExecContext(ctx, query, args...); err != nil {
			return quiz.Test{}, errors.Wrap(err, "deleting questions")
		}
		if test.Questions, err = repo.insertQuestions(ctx, tx, test.ID, test.Questions); err != nil {
			return quiz.Test{}, err
		}
	}

	if err = tx.Commit(); err != nil {
		return quiz.Test{}, errors.Wrap(err, "committing transaction")
	}
	return test, nil
}

func (repo quizRepository) DeleteTest(ctx context.Context, id string) error {
	query, args, err := psql.Delete(testTable).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return errors.Wrap(err, "building test delete")
	}
	if _, err = repo.db.ExecContext(ctx, query, args...); err != nil {
		return errors.Wrap(err, "deleting test")
	}
	return nil
}

func (repo quizRepository) CreateSubmission(ctx context.Context, sub quiz.Submission) (quiz.Submission, error) {
	sub.ID = uuid.New().String()

	answers, err := json.Marshal(sub.Answers)
	if err != nil {
		return quiz.Submission{}, errors.Wrap(err, "marshalling answers")
	}

	query, args, err := psql.Insert(submissionTable).
		Columns(submissionColumns...).
		Values(
			sub.ID, sub.TestID, sub.UserID, types.JSONText(answers),
			sub.Score, sub.Passed, null.TimeFrom(sub.CreatedAt.UTC()),
		).
		ToSql()
	if err != nil {
		return quiz.Submission{}, errors.Wrap(err, "building submission insert")
	}
	if _, err = repo.db.ExecContext(ctx, query, args...); err != nil {
		return quiz.Submission{}, errors.Wrap(err, "inserting submission")
	}
	return sub, nil
}

func (repo quizRepository) QuerySubmissions(ctx context.Context, filter quiz.SubmissionFilter) ([]quiz.Submission, error) {
	q := psql.Select(submissionColumns...).From(submissionTable)
	if filter.TestID != "" {
		q = q.Where(sq.Eq{"test_id": filter.TestID})
	}
	if filter.UserID != "" {
		q = q.Where(sq.Eq{"user_id": filter.UserID})
	}

	query, args, err := q.OrderBy("created_at DESC").ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building submissions query")
	}
	var rows []submissionRow
	if err = repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying submissions")
	}

	subs := make([]quiz.Submission, 0, len(rows))
	for _, row := range rows {
		var answers map[string]string
		if len(row.Answers) > 0 {
			if err = json.Unmarshal(row.Answers, &answers); err != nil {
				return nil, errors.Wrap(err, "unmarshalling answers")
			}
		}
		subs = append(subs, quiz.Submission{
			ID:        row.ID,
			TestID:    row.TestID,
			UserID:    row.UserID,
			Answers:   answers,
			Score:     row.Score,
			Passed:    row.Passed,
			CreatedAt: row.CreatedAt.Time,
		})
	}
	return subs, nil
}

func (repo quizRepository) BestScoresBySlug(ctx context.Context, userID string) (map[string]int, error) {
	query, args, err := psql.Select("m.slug", "MAX(s.score) AS score").
		From(submissionTable+" s").
		Join(testTable+" t ON t.id = s.test_id").
		Join(moduleTable+" m ON m.id = t.module_id").
		Where(sq.Eq{"s.user_id": userID}).
		GroupBy("m.slug").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building best scores query")
	}

	var rows []struct {
		Slug  string `db:"slug"`
		Score int    `db:"score"`
	}
	if err = repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying best scores")
	}

	scores := make(map[string]int, len(rows))
	for _, row := range rows {
		scores[row.Slug] = row.Score
	}
	return scores, nil
}
