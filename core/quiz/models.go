package quiz

import (
	"math"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/darasahq/darasa/core"
)

// Test is a module's multiple-choice test.
type Test struct {
	ID           string     `json:"id"`
	ModuleID     string     `json:"module_id"`
	Name         string     `json:"name"`
	PassingScore int        `json:"passing_score"`
	Questions    []Question `json:"questions"`
	CreatedAt    time.Time  `json:"created_at"` // UTC
	UpdatedAt    time.Time  `json:"updated_at"` // UTC
}

type Question struct {
	ID       string   `json:"id"`
	TestID   string   `json:"-"`
	Position int      `json:"position"`
	Prompt   string   `json:"prompt"`
	Points   int      `json:"points"`
	Choices  []Choice `json:"choices"`
}

type Choice struct {
	ID      string `json:"id"`
	Label   string `json:"label"`
	Correct bool   `json:"correct,omitempty"`
}

// correctChoiceID returns the ID of the question's correct choice.
func (q Question) correctChoiceID() string {
	for _, c := range q.Choices {
		if c.Correct {
			return c.ID
		}
	}
	return ""
}

// Public returns a copy of the test safe to hand to takers: the correct
// flags are stripped.
func (t Test) Public() Test {
	pub := t
	pub.Questions = make([]Question, len(t.Questions))
	for i, q := range t.Questions {
		pq := q
		pq.Choices = make([]Choice, len(q.Choices))
		for j, c := range q.Choices {
			c.Correct = false
			pq.Choices[j] = c
		}
		pub.Questions[i] = pq
	}
	return pub
}

// Grade scores a set of answers (question ID -> chosen choice ID):
// score = round(100 * earned points / total points); a test with no points
// grades to 0, failed.
func (t Test) Grade(answers map[string]string) (score int, passed bool) {
	var total, earned int
	for _, q := range t.Questions {
		total += q.Points
		if chosen, ok := answers[q.ID]; ok && chosen != "" && chosen == q.correctChoiceID() {
			earned += q.Points
		}
	}
	if total == 0 {
		return 0, false
	}
	score = int(math.Round(100 * float64(earned) / float64(total)))
	return score, score >= t.PassingScore
}

// Submission is a graded test attempt.
type Submission struct {
	ID        string            `json:"id"`
	TestID    string            `json:"test_id"`
	UserID    string            `json:"user_id"`
	Answers   map[string]string `json:"answers"`
	Score     int               `json:"score"`
	Passed    bool              `json:"passed"`
	CreatedAt time.Time         `json:"created_at"` // UTC
}

// NewTest contains information needed to create a new Test.
type NewTest struct {
	Name         string        `json:"name" validate:"required"`
	PassingScore int           `json:"passing_score" validate:"min=0,max=100"`
	Questions    []NewQuestion `json:"questions" validate:"omitempty,dive"`
}

type NewQuestion struct {
	Prompt  string      `json:"prompt" validate:"required"`
	Points  int         `json:"points" validate:"min=1"`
	Choices []NewChoice `json:"choices" validate:"min=2,dive"`
}

type NewChoice struct {
	Label   string `json:"label" validate:"required"`
	Correct bool   `json:"correct"`
}

func (nt *NewTest) Validate(validate *validator.Validate) error {
	nt.Name = core.CleanString(nt.Name)
	if err := validate.Struct(nt); err != nil {
		return err
	}
	for i, q := range nt.Questions {
		var correct int
		for _, c := range q.Choices {
			if c.Correct {
				correct++
			}
		}
		if correct != 1 {
			return core.NewValidationError(ErrOneCorrectChoice, core.FieldError{
				Field: "questions", Error: ErrOneCorrectChoice.Error(),
			})
		}
		nt.Questions[i].Prompt = core.CleanString(q.Prompt)
	}
	return nil
}

// UpdateTest defines what information may be provided to modify an existing
// Test. Providing Questions replaces the whole question set.
type UpdateTest struct {
	Name         string        `json:"name"`
	PassingScore *int          `json:"passing_score" validate:"omitempty,min=0,max=100"`
	Questions    []NewQuestion `json:"questions" validate:"omitempty,dive"`
}

func (ut *UpdateTest) Validate(validate *validator.Validate) error {
	ut.Name = core.CleanString(ut.Name)
	if err := validate.Struct(ut); err != nil {
		return err
	}
	for i, q := range ut.Questions {
		var correct int
		for _, c := range q.Choices {
			if c.Correct {
				correct++
			}
		}
		if correct != 1 {
			return core.NewValidationError(ErrOneCorrectChoice, core.FieldError{
				Field: "questions", Error: ErrOneCorrectChoice.Error(),
			})
		}
		ut.Questions[i].Prompt = core.CleanString(q.Prompt)
	}
	return nil
}

// NewSubmission is a test taker's answer sheet.
type NewSubmission struct {
	Answers map[string]string `json:"answers" validate:"required"`
}

func (ns *NewSubmission) Validate(validate *validator.Validate) error {
	return validate.Struct(ns)
}

// SubmissionFilter selects submissions; empty fields are ignored.
type SubmissionFilter struct {
	TestID string
	UserID string
}
