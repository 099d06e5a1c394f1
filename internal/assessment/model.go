package assessment

import (
	"time"
)

const (
	QuestionTypeMultipleChoice = "multiple_choice"
	QuestionTypeTrueFalse      = "true_false"

	DefaultTitle            = "Assessment"
	DefaultDescription      = "Test your knowledge with this AI-generated assessment."
	DefaultTimeLimitMinutes = 15
	DefaultPassingScore     = 70.0
)

type Question struct {
	ID          string
	Text        string
	Type        string
	Options     []string
	Explanation string
	Points      float64
}

func (q Question) IsTrueFalse() bool {
	return q.Type == QuestionTypeTrueFalse
}

func (q Question) HasOption(text string) bool {
	for _, option := range q.Options {
		if option == text {
			return true
		}
	}
	return false
}

// Quiz is immutable once handed to a Session.
type Quiz struct {
	ID               string
	CourseID         string
	Title            string
	Description      string
	TimeLimitMinutes int
	PassingScore     float64
	QuestionCount    int
	Questions        []Question
}

func (q Quiz) DisplayTitle() string {
	if q.Title == "" {
		return DefaultTitle
	}
	return q.Title
}

func (q Quiz) DisplayDescription() string {
	if q.Description == "" {
		return DefaultDescription
	}
	return q.Description
}

func (q Quiz) TimeLimit() time.Duration {
	minutes := q.TimeLimitMinutes
	if minutes <= 0 {
		minutes = DefaultTimeLimitMinutes
	}
	return time.Duration(minutes) * time.Minute
}

func (q Quiz) Passing() float64 {
	if q.PassingScore <= 0 {
		return DefaultPassingScore
	}
	return q.PassingScore
}

func (q Quiz) QuestionByID(id string) (Question, bool) {
	for _, question := range q.Questions {
		if question.ID == id {
			return question, true
		}
	}
	return Question{}, false
}

// AnswerSet maps question id to the selected option text.
type AnswerSet map[string]string

func (a AnswerSet) Clone() AnswerSet {
	out := make(AnswerSet, len(a))
	for questionID, option := range a {
		out[questionID] = option
	}
	return out
}

type Submission struct {
	UserID           string
	QuizID           string
	Answers          AnswerSet
	TimeSpentSeconds int
}

type QuestionResult struct {
	QuestionID    string
	UserAnswer    string
	CorrectAnswer string
	IsCorrect     bool
	Explanation   string
	Points        float64
}

type Certificate struct {
	CertificateID string
	CourseTitle   string
	Score         float64
	IssuedAt      time.Time
}

type GradeResult struct {
	AttemptID        string
	Score            float64
	TotalPoints      float64
	Percentage       float64
	PassingScore     float64
	Passed           bool
	TimeSpentSeconds int
	Results          []QuestionResult
	Certificate      *Certificate
}

func (r GradeResult) IncorrectCount() int {
	count := 0
	for _, item := range r.Results {
		if !item.IsCorrect {
			count++
		}
	}
	return count
}
