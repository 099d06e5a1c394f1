package assessment

import (
	"fmt"

	"github.com/pkg/errors"
)

const (
	CourseListPage = "courses.html"
	LoginPage      = "login.html"
)

var (
	ErrQuizNotFound     = errors.New("quiz not found")
	ErrNotLoaded        = errors.New("quiz is not loaded")
	ErrNoQuestions      = errors.New("quiz has no questions")
	ErrNotActive        = errors.New("attempt is not active")
	ErrAlreadySubmitted = errors.New("attempt already submitted")
	ErrUnknownQuestion  = errors.New("unknown question")
	ErrUnknownOption    = errors.New("option is not offered by question")
	ErrNotFinished      = errors.New("attempt has not finished")
	ErrNoCertificate    = errors.New("no certificate issued")
	ErrClosed           = errors.New("session is closed")
)

// RedirectError reports a precondition that cannot be recovered in place;
// the caller is expected to move the user to Target.
type RedirectError struct {
	Target string
	Reason string
}

func (e *RedirectError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("redirect to %s", e.Target)
	}
	return fmt.Sprintf("%s (redirect to %s)", e.Reason, e.Target)
}
