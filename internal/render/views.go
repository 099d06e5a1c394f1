package render

import (
	"fmt"
	"strconv"

	"edu-assist/internal/assessment"
)

type StartView struct {
	Title         string
	Description   string
	QuestionCount int
	TimeLimit     int
	PassingScore  string
	BackLink      string
}

func BuildStart(snapshot assessment.Snapshot) StartView {
	quiz := snapshot.Quiz
	return StartView{
		Title:         quiz.DisplayTitle(),
		Description:   quiz.DisplayDescription(),
		QuestionCount: len(quiz.Questions),
		TimeLimit:     int(quiz.TimeLimit().Minutes()),
		PassingScore:  FormatPoints(quiz.Passing()),
		BackLink:      "course.html?id=" + snapshot.CourseID,
	}
}

type OptionView struct {
	Letter   string
	Text     string
	Selected bool
}

type NavMarker struct {
	Number   int
	Current  bool
	Answered bool
}

type QuestionView struct {
	Number          int
	Total           int
	ProgressPercent int
	TypeBadge       string
	Text            string
	Options         []OptionView
	Nav             []NavMarker
	ShowPrev        bool
	ShowNext        bool
	ShowSubmit      bool
}

func BuildQuestion(snapshot assessment.Snapshot) (QuestionView, bool) {
	question, ok := snapshot.CurrentQuestion()
	if !ok {
		return QuestionView{}, false
	}

	total := len(snapshot.Quiz.Questions)
	view := QuestionView{
		Number:          snapshot.Current + 1,
		Total:           total,
		ProgressPercent: (snapshot.Current + 1) * 100 / total,
		TypeBadge:       "Multiple Choice",
		Text:            question.Text,
		ShowPrev:        snapshot.Current > 0,
		ShowNext:        !snapshot.IsLast(),
		ShowSubmit:      snapshot.IsLast(),
	}
	if question.IsTrueFalse() {
		view.TypeBadge = "True / False"
	}

	selected, answered := snapshot.Answers[question.ID]
	for idx, option := range question.Options {
		view.Options = append(view.Options, OptionView{
			Letter:   OptionLetter(idx),
			Text:     option,
			Selected: answered && selected == option,
		})
	}

	for idx := range snapshot.Quiz.Questions {
		current := idx == snapshot.Current
		view.Nav = append(view.Nav, NavMarker{
			Number:   idx + 1,
			Current:  current,
			Answered: !current && snapshot.IsAnswered(idx),
		})
	}
	return view, true
}

type ReviewItem struct {
	Number        int
	Question      string
	UserAnswer    string
	Correct       bool
	CorrectAnswer string
	Explanation   string
}

type ResultsView struct {
	Icon            string
	Title           string
	Subtitle        string
	Ring            ScoreRing
	ScoreText       string
	Score           string
	Passing         string
	Time            string
	Status          string
	ShowCertificate bool
	CertificateFor  string
	Review          []ReviewItem
}

func BuildResults(quiz assessment.Quiz, result assessment.GradeResult) ResultsView {
	passing := result.PassingScore
	if passing <= 0 {
		passing = quiz.Passing()
	}

	view := ResultsView{
		Icon:      "📝",
		Title:     "Assessment Complete",
		Subtitle:  "Keep studying and try again.",
		Ring:      NewScoreRing(result.Percentage, result.Passed),
		ScoreText: FormatPercent(result.Percentage),
		Score:     FormatPoints(result.Score) + "/" + FormatPoints(result.TotalPoints),
		Passing:   FormatPoints(passing) + "%",
		Time:      FormatClock(result.TimeSpentSeconds),
		Status:    "❌ Failed",
	}
	if result.Passed {
		view.Icon = "🎉"
		view.Title = "Congratulations!"
		view.Subtitle = "You passed the assessment!"
		view.Status = "✅ Passed"
	}

	if result.Certificate != nil {
		view.ShowCertificate = true
		view.CertificateFor = result.Certificate.CourseTitle
		if view.CertificateFor == "" {
			view.CertificateFor = quiz.DisplayTitle()
		}
	}

	for idx, item := range result.Results {
		questionText := "Question"
		if question, ok := quiz.QuestionByID(item.QuestionID); ok && question.Text != "" {
			questionText = question.Text
		}
		userAnswer := item.UserAnswer
		if userAnswer == "" {
			userAnswer = "(not answered)"
		}

		review := ReviewItem{
			Number:     idx + 1,
			Question:   questionText,
			UserAnswer: userAnswer,
			Correct:    item.IsCorrect,
		}
		if !item.IsCorrect {
			review.CorrectAnswer = item.CorrectAnswer
			review.Explanation = item.Explanation
		}
		view.Review = append(view.Review, review)
	}
	return view
}

type CertificateView struct {
	UserName   string
	CourseName string
	Score      string
	Date       string
	ID         string
}

func BuildCertificate(userName string, quiz assessment.Quiz, result assessment.GradeResult) (CertificateView, error) {
	if result.Certificate == nil {
		return CertificateView{}, assessment.ErrNoCertificate
	}
	certificate := result.Certificate

	courseName := certificate.CourseTitle
	if courseName == "" {
		courseName = quiz.DisplayTitle()
	}
	if userName == "" {
		userName = "User"
	}
	return CertificateView{
		UserName:   userName,
		CourseName: courseName,
		Score:      FormatPercent(result.Percentage),
		Date:       FormatIssuedDate(certificate.IssuedAt),
		ID:         fmt.Sprintf("Certificate ID: %s", certificate.CertificateID),
	}, nil
}

func (v StartView) TimeLimitText() string {
	return strconv.Itoa(v.TimeLimit) + " min"
}
