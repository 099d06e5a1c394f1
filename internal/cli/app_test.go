package cli

import (
	"bytes"
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"edu-assist/internal/assessment"
	"edu-assist/internal/eduapi"
)

type stubProvider struct {
	quiz      assessment.Quiz
	err       error
	generated int
}

func (p *stubProvider) FetchQuiz(ctx context.Context, courseID string) (assessment.Quiz, error) {
	if p.err != nil {
		return assessment.Quiz{}, p.err
	}
	return p.quiz, nil
}

func (p *stubProvider) GenerateQuiz(ctx context.Context, courseID string) (assessment.Quiz, error) {
	p.generated++
	return p.quiz, nil
}

type recordingGrader struct {
	mu          sync.Mutex
	submissions []assessment.Submission
	result      assessment.GradeResult
	err         error
}

func (g *recordingGrader) SubmitQuiz(ctx context.Context, submission assessment.Submission) (assessment.GradeResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.submissions = append(g.submissions, submission)
	return g.result, g.err
}

type idleScheduler struct{}

func (idleScheduler) Every(time.Duration, func()) func() {
	return func() {}
}

type stubAuth struct {
	err  error
	name string
}

func (a stubAuth) RequireAuth(ctx context.Context) error { return a.err }

func (a stubAuth) DisplayName(ctx context.Context) string { return a.name }

type memoryPrefs map[string]string

func (p memoryPrefs) GetItem(ctx context.Context, key string) (string, error) {
	value, ok := p[key]
	if !ok {
		return "", errors.New("not found")
	}
	return value, nil
}

func (p memoryPrefs) SetItem(ctx context.Context, key, value string) error {
	p[key] = value
	return nil
}

func demoQuiz() assessment.Quiz {
	return assessment.Quiz{
		ID:               "quiz-1",
		Title:            "Fire Safety",
		TimeLimitMinutes: 5,
		PassingScore:     70,
		Questions: []assessment.Question{
			{ID: "q1", Text: "Smoke rises?", Type: assessment.QuestionTypeTrueFalse, Options: []string{"True", "False"}},
			{ID: "q2", Text: "Which extinguisher for oil?", Options: []string{"Water", "Foam", "Sand"}},
		},
	}
}

func newTestConfig(provider *stubProvider, grader *recordingGrader) Config {
	session := assessment.NewSession(assessment.Config{
		Provider:  provider,
		Grader:    grader,
		Scheduler: idleScheduler{},
	})
	return Config{
		Query:     url.Values{"course_id": {"course-1"}},
		Session:   session,
		Auth:      stubAuth{name: "Ada"},
		Prefs:     memoryPrefs{},
		Redirects: &Redirector{},
		ServerURL: "http://edu.test",
	}
}

func TestRunFullAttempt(t *testing.T) {
	provider := &stubProvider{quiz: demoQuiz()}
	grader := &recordingGrader{result: assessment.GradeResult{
		Score: 2, TotalPoints: 2, Percentage: 100, PassingScore: 70, Passed: true, TimeSpentSeconds: 42,
		Results: []assessment.QuestionResult{
			{QuestionID: "q1", UserAnswer: "True", CorrectAnswer: "True", IsCorrect: true},
			{QuestionID: "q2", UserAnswer: "Foam", CorrectAnswer: "Foam", IsCorrect: true},
		},
		Certificate: &assessment.Certificate{CertificateID: "cert-7", IssuedAt: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)},
	}}

	input := strings.Join([]string{
		"start",
		"a",
		"next",
		"answer b",
		"submit",
		"yes",
		"cert",
		"exit",
	}, "\n") + "\n"

	var out bytes.Buffer
	if err := Run(context.Background(), strings.NewReader(input), &out, newTestConfig(provider, grader)); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if len(grader.submissions) != 1 {
		t.Fatalf("expected one submission, got %d", len(grader.submissions))
	}
	submitted := grader.submissions[0]
	if submitted.QuizID != "quiz-1" || submitted.Answers["q1"] != "True" || submitted.Answers["q2"] != "Foam" {
		t.Fatalf("unexpected submission: %+v", submitted)
	}

	rendered := out.String()
	for _, want := range []string{
		"Fire Safety",
		"Question 1 of 2",
		"Question 2 of 2",
		"Submit your assessment? (yes/no): ",
		"Congratulations!",
		"Certificate earned for Fire Safety",
		"Ada",
		"February 1, 2026",
		"Certificate ID: cert-7",
	} {
		if !strings.Contains(rendered, want) {
			t.Fatalf("output missing %q:\n%s", want, rendered)
		}
	}
}

func TestRunSubmitAsksForConfirmationWhenUnanswered(t *testing.T) {
	provider := &stubProvider{quiz: demoQuiz()}
	grader := &recordingGrader{}

	input := "start\nsubmit\nno\nexit\n"
	var out bytes.Buffer
	if err := Run(context.Background(), strings.NewReader(input), &out, newTestConfig(provider, grader)); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if len(grader.submissions) != 0 {
		t.Fatalf("declined submit must not reach the grader")
	}
	want := "You've answered 0 of 2 questions. Unanswered questions will be marked incorrect. Submit now? (yes/no): "
	if !strings.Contains(out.String(), want) {
		t.Fatalf("expected confirmation prompt, got:\n%s", out.String())
	}
}

func TestRunMissingCourseRedirects(t *testing.T) {
	cfg := newTestConfig(&stubProvider{quiz: demoQuiz()}, &recordingGrader{})
	cfg.Query = url.Values{}

	var out bytes.Buffer
	err := Run(context.Background(), strings.NewReader(""), &out, cfg)

	var redirect *assessment.RedirectError
	if !errors.As(err, &redirect) || redirect.Target != assessment.CourseListPage {
		t.Fatalf("expected courses redirect, got %v", err)
	}
	if !strings.Contains(out.String(), "Redirecting to courses.html") {
		t.Fatalf("expected redirect notice, got %q", out.String())
	}
}

func TestRunRequiresAuth(t *testing.T) {
	provider := &stubProvider{quiz: demoQuiz()}
	cfg := newTestConfig(provider, &recordingGrader{})
	cfg.Auth = stubAuth{err: &assessment.RedirectError{Target: assessment.LoginPage, Reason: "not signed in"}}

	err := Run(context.Background(), strings.NewReader("start\n"), &bytes.Buffer{}, cfg)

	var redirect *assessment.RedirectError
	if !errors.As(err, &redirect) || redirect.Target != assessment.LoginPage {
		t.Fatalf("expected login redirect, got %v", err)
	}
}

func TestRunStopsAfterAuthRedirect(t *testing.T) {
	provider := &stubProvider{quiz: demoQuiz()}
	grader := &recordingGrader{err: &eduapi.APIError{StatusCode: 401}}
	cfg := newTestConfig(provider, grader)
	redirects := cfg.Redirects
	rejecting := graderFunc(func(ctx context.Context, s assessment.Submission) (assessment.GradeResult, error) {
		redirects.Redirect(assessment.LoginPage)
		return grader.SubmitQuiz(ctx, s)
	})
	cfg.Session = assessment.NewSession(assessment.Config{
		Provider:  provider,
		Grader:    rejecting,
		Scheduler: idleScheduler{},
	})

	var out bytes.Buffer
	err := Run(context.Background(), strings.NewReader("start\nsubmit\nyes\nstatus\n"), &out, cfg)

	var redirect *assessment.RedirectError
	if !errors.As(err, &redirect) || redirect.Target != assessment.LoginPage {
		t.Fatalf("expected login redirect, got %v", err)
	}
	if !strings.Contains(out.String(), "Submission Failed") {
		t.Fatalf("expected failure screen, got:\n%s", out.String())
	}
	if strings.Contains(out.String(), "state=") {
		t.Fatalf("loop should stop before the next command")
	}
}

type graderFunc func(ctx context.Context, submission assessment.Submission) (assessment.GradeResult, error)

func (f graderFunc) SubmitQuiz(ctx context.Context, submission assessment.Submission) (assessment.GradeResult, error) {
	return f(ctx, submission)
}

func TestRunServiceUnavailableHint(t *testing.T) {
	provider := &stubProvider{err: eduapi.ErrServiceUnavailable}
	cfg := newTestConfig(provider, &recordingGrader{})

	var out bytes.Buffer
	if err := Run(context.Background(), strings.NewReader("exit\n"), &out, cfg); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	rendered := out.String()
	if !strings.Contains(rendered, "Unable to Load Assessment") {
		t.Fatalf("expected load failure screen, got:\n%s", rendered)
	}
	if !strings.Contains(rendered, "assessment service unavailable at http://edu.test") {
		t.Fatalf("expected service hint, got:\n%s", rendered)
	}
}

func TestRunNavigationAndInvalidInput(t *testing.T) {
	provider := &stubProvider{quiz: demoQuiz()}
	input := "a\nstart\nprev\ngoto 9\ngoto 2\nz\nstatus\nbogus\nexit\n"

	var out bytes.Buffer
	if err := Run(context.Background(), strings.NewReader(input), &out, newTestConfig(provider, &recordingGrader{})); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	rendered := out.String()
	for _, want := range []string{
		"error: attempt is not active",
		"No previous question.",
		"No question 9.",
		"Invalid input. Please enter a letter A-C.",
		"state=active course=course-1",
		"question 2 of 2, answered 0, time remaining 5:00",
		"unknown command.",
	} {
		if !strings.Contains(rendered, want) {
			t.Fatalf("output missing %q:\n%s", want, rendered)
		}
	}
}

func TestRunThemeTogglePersists(t *testing.T) {
	cfg := newTestConfig(&stubProvider{quiz: demoQuiz()}, &recordingGrader{})
	prefs := memoryPrefs{"theme": "dark"}
	cfg.Prefs = prefs

	var out bytes.Buffer
	if err := Run(context.Background(), strings.NewReader("theme\nexit\n"), &out, cfg); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if prefs["theme"] != "light" {
		t.Fatalf("expected theme to toggle to light, got %q", prefs["theme"])
	}
	if !strings.Contains(out.String(), "Theme: light") {
		t.Fatalf("expected theme notice, got:\n%s", out.String())
	}
}
