package assessment

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
)

const (
	DefaultUserID           = "default_user"
	DefaultLowTimeThreshold = 60 * time.Second
)

type State int

const (
	StateIdle State = iota
	StateStart
	StateActive
	StateGrading
	StateResults
	StateFailed
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStart:
		return "start"
	case StateActive:
		return "active"
	case StateGrading:
		return "grading"
	case StateResults:
		return "results"
	case StateFailed:
		return "failed"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

type Event int

const (
	EventGenerating Event = iota + 1
	EventLoaded
	EventLoadFailed
	EventStarted
	EventTick
	EventNavigated
	EventAnswered
	EventGrading
	EventGraded
	EventSubmitFailed
)

type QuizProvider interface {
	FetchQuiz(ctx context.Context, courseID string) (Quiz, error)
	GenerateQuiz(ctx context.Context, courseID string) (Quiz, error)
}

type Grader interface {
	SubmitQuiz(ctx context.Context, submission Submission) (GradeResult, error)
}

type Identity interface {
	UserID() string
}

// Observer receives a snapshot after every state change. Notify runs while
// the session is locked, so implementations must not call back into it.
type Observer interface {
	Notify(snapshot Snapshot)
}

type ObserverFunc func(snapshot Snapshot)

func (f ObserverFunc) Notify(snapshot Snapshot) {
	f(snapshot)
}

type Config struct {
	Provider         QuizProvider
	Grader           Grader
	Identity         Identity
	Scheduler        Scheduler
	Clock            func() time.Time
	LowTimeThreshold time.Duration
}

// Session drives a single quiz attempt. All methods are safe for concurrent
// use; countdown ticks and user operations are serialized on one mutex.
type Session struct {
	provider  QuizProvider
	grader    Grader
	identity  Identity
	scheduler Scheduler
	now       func() time.Time
	lowTime   int

	mu        sync.Mutex
	observers []Observer
	attempt   uint64
	closed    bool
	userID    string

	query         url.Values
	state         State
	courseID      string
	quiz          Quiz
	answers       AnswerSet
	current       int
	remaining     int
	startedAt     time.Time
	attemptCtx    context.Context
	timer         countdown
	submitted     bool
	autoSubmitted bool
	result        *GradeResult
	failure       error
}

func NewSession(cfg Config) *Session {
	scheduler := cfg.Scheduler
	if scheduler == nil {
		scheduler = TickerScheduler{}
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	lowTime := cfg.LowTimeThreshold
	if lowTime <= 0 {
		lowTime = DefaultLowTimeThreshold
	}

	return &Session{
		provider:  cfg.Provider,
		grader:    cfg.Grader,
		identity:  cfg.Identity,
		scheduler: scheduler,
		now:       clock,
		lowTime:   int(lowTime / time.Second),
	}
}

func (s *Session) Subscribe(observer Observer) {
	if observer == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, observer)
}

// Load resolves course_id from the page query, fetches the course quiz and
// falls back to generating one when the provider reports it missing.
func (s *Session) Load(ctx context.Context, query url.Values) error {
	courseID := strings.TrimSpace(query.Get("course_id"))
	if courseID == "" {
		return &RedirectError{Target: CourseListPage, Reason: "missing course_id parameter"}
	}
	if s.provider == nil {
		return errors.New("quiz provider is not configured")
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.resetLocked()
	s.query = cloneQuery(query)
	s.courseID = courseID
	attempt := s.attempt
	s.mu.Unlock()

	quiz, err := s.provider.FetchQuiz(ctx, courseID)
	if errors.Is(err, ErrQuizNotFound) {
		s.mu.Lock()
		if s.attempt == attempt {
			s.emitLocked(EventGenerating)
		}
		s.mu.Unlock()
		quiz, err = s.provider.GenerateQuiz(ctx, courseID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.attempt != attempt {
		return ErrNotLoaded
	}
	if err != nil {
		s.state = StateFailed
		s.failure = err
		s.emitLocked(EventLoadFailed)
		return err
	}

	if quiz.CourseID == "" {
		quiz.CourseID = courseID
	}
	s.quiz = quiz
	s.state = StateStart
	s.emitLocked(EventLoaded)
	return nil
}

// Start begins the timed attempt. ctx is kept for the automatic submission
// fired by the countdown.
func (s *Session) Start(ctx context.Context) error {
	// The identity may hit storage, so it is resolved before taking the lock.
	userID := s.resolveUserID()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrNotActive
	}
	if s.state != StateStart {
		return ErrNotLoaded
	}
	if len(s.quiz.Questions) == 0 {
		return ErrNoQuestions
	}

	s.answers = AnswerSet{}
	s.userID = userID
	s.current = 0
	s.remaining = int(s.quiz.TimeLimit() / time.Second)
	s.startedAt = s.now()
	s.attemptCtx = ctx
	s.submitted = false
	s.autoSubmitted = false
	s.state = StateActive
	s.emitLocked(EventStarted)

	s.timer.stop = s.scheduler.Every(tickInterval, s.tick)
	return nil
}

func (s *Session) tick() {
	s.mu.Lock()
	if s.state != StateActive {
		s.mu.Unlock()
		return
	}

	if s.remaining > 0 {
		s.remaining--
	}
	s.emitLocked(EventTick)
	if s.remaining > 0 {
		s.mu.Unlock()
		return
	}

	ctx := s.attemptCtx
	attempt := s.attempt
	submission, err := s.beginSubmitLocked(true)
	s.mu.Unlock()
	if err != nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	_ = s.finishSubmit(ctx, attempt, submission)
}

// Navigate moves the question pointer; out-of-range indexes are ignored.
func (s *Session) Navigate(index int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.navigateLocked(index)
}

func (s *Session) Next() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.navigateLocked(s.current + 1)
}

func (s *Session) Prev() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.navigateLocked(s.current - 1)
}

func (s *Session) navigateLocked(index int) bool {
	if s.closed || s.state != StateActive {
		return false
	}
	if index < 0 || index >= len(s.quiz.Questions) {
		return false
	}
	s.current = index
	s.emitLocked(EventNavigated)
	return true
}

// Select records the answer for questionID, replacing any earlier choice.
func (s *Session) Select(questionID, optionText string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.state != StateActive {
		return ErrNotActive
	}
	question, ok := s.quiz.QuestionByID(questionID)
	if !ok {
		return ErrUnknownQuestion
	}
	if !question.HasOption(optionText) {
		return ErrUnknownOption
	}

	s.answers[questionID] = optionText
	s.emitLocked(EventAnswered)
	return nil
}

type SubmitPrompt struct {
	Answered int
	Total    int
}

func (p SubmitPrompt) Unanswered() int {
	if p.Answered >= p.Total {
		return 0
	}
	return p.Total - p.Answered
}

func (p SubmitPrompt) RequiresConfirmation() bool {
	return p.Unanswered() > 0
}

func (p SubmitPrompt) Message() string {
	if p.RequiresConfirmation() {
		return fmt.Sprintf("You've answered %d of %d questions. Unanswered questions will be marked incorrect. Submit now?", p.Answered, p.Total)
	}
	return "Submit your assessment?"
}

// PrepareSubmit reports what a manual submission would send so the caller
// can ask for confirmation before calling Submit.
func (s *Session) PrepareSubmit() (SubmitPrompt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.submitted {
		return SubmitPrompt{}, ErrAlreadySubmitted
	}
	if s.state != StateActive {
		return SubmitPrompt{}, ErrNotActive
	}
	return SubmitPrompt{Answered: len(s.answers), Total: len(s.quiz.Questions)}, nil
}

// Submit sends the attempt to the grader. Only the first call of an attempt,
// manual or automatic, reaches the grader.
func (s *Session) Submit(ctx context.Context) error {
	s.mu.Lock()
	attempt := s.attempt
	submission, err := s.beginSubmitLocked(false)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.finishSubmit(ctx, attempt, submission)
}

func (s *Session) beginSubmitLocked(auto bool) (Submission, error) {
	if s.closed {
		return Submission{}, ErrNotActive
	}
	if s.submitted {
		return Submission{}, ErrAlreadySubmitted
	}
	if s.state != StateActive {
		return Submission{}, ErrNotActive
	}

	s.timer.cancel()
	s.submitted = true
	s.autoSubmitted = auto

	elapsed := int(math.Round(s.now().Sub(s.startedAt).Seconds()))
	if elapsed < 0 {
		elapsed = 0
	}
	submission := Submission{
		UserID:           s.userID,
		QuizID:           s.quiz.ID,
		Answers:          s.answers.Clone(),
		TimeSpentSeconds: elapsed,
	}

	s.answers = nil
	s.state = StateGrading
	s.emitLocked(EventGrading)
	return submission, nil
}

func (s *Session) finishSubmit(ctx context.Context, attempt uint64, submission Submission) error {
	var (
		result GradeResult
		err    error
	)
	if s.grader == nil {
		err = errors.New("grading service is not configured")
	} else {
		result, err = s.grader.SubmitQuiz(ctx, submission)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.attempt != attempt {
		// The session was reloaded or closed while grading.
		return err
	}
	if err != nil {
		s.state = StateFailed
		s.failure = err
		s.emitLocked(EventSubmitFailed)
		return err
	}

	s.result = &result
	s.state = StateResults
	s.emitLocked(EventGraded)
	return nil
}

// Retake discards the finished attempt and loads the course quiz again.
func (s *Session) Retake(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.state != StateResults && s.state != StateFailed {
		s.mu.Unlock()
		return ErrNotFinished
	}
	query := cloneQuery(s.query)
	s.mu.Unlock()

	return s.Load(ctx, query)
}

func (s *Session) Result() (GradeResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result == nil {
		return GradeResult{}, false
	}
	return *s.result, true
}

func (s *Session) Certificate() (Certificate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result == nil {
		return Certificate{}, ErrNotFinished
	}
	if s.result.Certificate == nil {
		return Certificate{}, ErrNoCertificate
	}
	return *s.result.Certificate, nil
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked(0)
}

// Close stops the countdown, detaches observers and moves the session to
// StateClosed, from which no operation succeeds. A grading response that
// arrives afterwards is dropped.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timer.cancel()
	s.attempt++
	s.closed = true
	s.state = StateClosed
	s.answers = nil
	s.observers = nil
}

func (s *Session) resetLocked() {
	s.timer.cancel()
	s.attempt++
	s.state = StateIdle
	s.courseID = ""
	s.quiz = Quiz{}
	s.answers = nil
	s.current = 0
	s.remaining = 0
	s.startedAt = time.Time{}
	s.attemptCtx = nil
	s.userID = ""
	s.submitted = false
	s.autoSubmitted = false
	s.result = nil
	s.failure = nil
}

func (s *Session) resolveUserID() string {
	if s.identity == nil {
		return DefaultUserID
	}
	if id := strings.TrimSpace(s.identity.UserID()); id != "" {
		return id
	}
	return DefaultUserID
}

func (s *Session) emitLocked(event Event) {
	if s.closed || len(s.observers) == 0 {
		return
	}
	snapshot := s.snapshotLocked(event)
	for _, observer := range s.observers {
		observer.Notify(snapshot)
	}
}

func (s *Session) snapshotLocked(event Event) Snapshot {
	snapshot := Snapshot{
		Event:            event,
		State:            s.state,
		CourseID:         s.courseID,
		Quiz:             s.quiz,
		Current:          s.current,
		RemainingSeconds: s.remaining,
		LowTime:          s.state == StateActive && s.remaining <= s.lowTime,
		AutoSubmitted:    s.autoSubmitted,
		Err:              s.failure,
	}
	if s.answers != nil {
		snapshot.Answers = s.answers.Clone()
	}
	if s.result != nil {
		result := *s.result
		snapshot.Result = &result
	}
	return snapshot
}

func cloneQuery(query url.Values) url.Values {
	out := make(url.Values, len(query))
	for key, values := range query {
		out[key] = append([]string(nil), values...)
	}
	return out
}
