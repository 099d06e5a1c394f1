package cli

import (
	"bufio"
	"context"
	"io"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"edu-assist/internal/assessment"
	"edu-assist/internal/eduapi"
	"edu-assist/internal/render"
)

const themeKey = "theme"

type Authenticator interface {
	RequireAuth(ctx context.Context) error
	DisplayName(ctx context.Context) string
}

type Preferences interface {
	GetItem(ctx context.Context, key string) (string, error)
	SetItem(ctx context.Context, key, value string) error
}

type Config struct {
	Query     url.Values
	Session   *assessment.Session
	Auth      Authenticator
	Prefs     Preferences
	Redirects *Redirector
	ServerURL string
	Color     bool
	Theme     string
}

// Redirector records the last page the user was sent to by the auth layer,
// so the command loop can stop at the next prompt.
type Redirector struct {
	mu     sync.Mutex
	target string
}

func (r *Redirector) Redirect(target string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.target = target
}

func (r *Redirector) Pending() (string, bool) {
	if r == nil {
		return "", false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.target, r.target != ""
}

type app struct {
	cfg    Config
	reader *bufio.Reader
	text   *render.Text
}

// Run loads the course quiz named by cfg.Query and drives the attempt from
// commands read on in. It returns a *assessment.RedirectError when the user
// has to leave the assessment page.
func Run(ctx context.Context, in io.Reader, out io.Writer, cfg Config) error {
	if cfg.Session == nil {
		return errors.New("session is required")
	}
	defer cfg.Session.Close()

	a := &app{
		cfg:    cfg,
		reader: bufio.NewReader(in),
		text:   render.NewText(out, render.TextOptions{Color: cfg.Color, Theme: loadTheme(ctx, cfg)}),
	}

	if cfg.Auth != nil {
		if err := cfg.Auth.RequireAuth(ctx); err != nil {
			return a.redirect(err)
		}
	}

	cfg.Session.Subscribe(a.text)
	if err := cfg.Session.Load(ctx, cfg.Query); err != nil {
		var redirect *assessment.RedirectError
		if errors.As(err, &redirect) {
			return a.redirect(err)
		}
		a.reportAsync(err)
	}
	if err := a.checkRedirect(); err != nil {
		return err
	}

	for {
		a.text.Printf("\n> ")
		line, err := a.reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				a.text.Printf("\n")
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		args := strings.Fields(line)
		command := strings.ToLower(args[0])

		switch command {
		case "help":
			a.printHelp()
		case "exit", "quit":
			return nil
		case "start":
			a.reportSync(cfg.Session.Start(ctx))
		case "next":
			if !cfg.Session.Next() {
				a.text.Printf("No next question.\n")
			}
		case "prev":
			if !cfg.Session.Prev() {
				a.text.Printf("No previous question.\n")
			}
		case "goto":
			a.gotoQuestion(args)
		case "answer":
			if len(args) != 2 {
				a.text.Printf("usage: answer <letter>\n")
				continue
			}
			a.answer(args[1])
		case "submit":
			if err := a.submit(ctx); err != nil {
				return err
			}
		case "cert", "certificate":
			a.certificate(ctx)
		case "retake":
			a.reportAsync(cfg.Session.Retake(ctx))
		case "theme":
			a.toggleTheme(ctx)
		case "status":
			a.status()
		default:
			if len(args) == 1 && len(command) == 1 {
				a.answer(command)
				continue
			}
			a.text.Printf("unknown command. type 'help' for usage.\n")
		}

		if err := a.checkRedirect(); err != nil {
			return err
		}
	}
}

func (a *app) gotoQuestion(args []string) {
	if len(args) != 2 {
		a.text.Printf("usage: goto <n>\n")
		return
	}
	number, err := strconv.Atoi(args[1])
	if err != nil {
		a.text.Printf("invalid question number: %s\n", args[1])
		return
	}
	if !a.cfg.Session.Navigate(number - 1) {
		a.text.Printf("No question %d.\n", number)
	}
}

func (a *app) answer(letter string) {
	snapshot := a.cfg.Session.Snapshot()
	if snapshot.State != assessment.StateActive {
		a.reportSync(assessment.ErrNotActive)
		return
	}
	question, ok := snapshot.CurrentQuestion()
	if !ok {
		return
	}

	index, ok := render.LetterIndex(letter, len(question.Options))
	if !ok {
		a.text.Printf("Invalid input. Please enter a letter A-%s.\n", render.OptionLetter(len(question.Options)-1))
		return
	}
	a.reportSync(a.cfg.Session.Select(question.ID, question.Options[index]))
}

func (a *app) submit(ctx context.Context) error {
	prompt, err := a.cfg.Session.PrepareSubmit()
	if err != nil {
		a.reportSync(err)
		return nil
	}

	confirmed, err := a.promptYesNo(prompt.Message() + " (yes/no): ")
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	if !confirmed {
		return nil
	}

	a.reportAsync(a.cfg.Session.Submit(ctx))
	return nil
}

func (a *app) certificate(ctx context.Context) {
	result, ok := a.cfg.Session.Result()
	if !ok {
		a.reportSync(assessment.ErrNotFinished)
		return
	}

	userName := ""
	if a.cfg.Auth != nil {
		userName = a.cfg.Auth.DisplayName(ctx)
	}
	view, err := render.BuildCertificate(userName, a.cfg.Session.Snapshot().Quiz, result)
	if err != nil {
		a.reportSync(err)
		return
	}
	a.text.Certificate(view)
}

func (a *app) toggleTheme(ctx context.Context) {
	theme := a.text.Theme().Toggle()
	a.text.SetTheme(theme)
	if a.cfg.Prefs != nil {
		if err := a.cfg.Prefs.SetItem(ctx, themeKey, string(theme)); err != nil {
			log.Warn().Err(err).Msg("Failed to save theme")
		}
	}
	a.text.Printf("Theme: %s\n", theme)
}

func (a *app) status() {
	snapshot := a.cfg.Session.Snapshot()
	a.text.Printf("state=%s course=%s\n", snapshot.State, snapshot.CourseID)
	if snapshot.State == assessment.StateActive {
		a.text.Printf("question %d of %d, answered %d, time remaining %s\n",
			snapshot.Current+1,
			len(snapshot.Quiz.Questions),
			snapshot.AnsweredCount(),
			render.FormatClock(snapshot.RemainingSeconds),
		)
	}
	if snapshot.Result != nil {
		a.text.Printf("score %s, passed=%t\n", render.FormatPercent(snapshot.Result.Percentage), snapshot.Result.Passed)
	}
}

func (a *app) printHelp() {
	a.text.Printf("Commands:\n" +
		"  help\n" +
		"  start\n" +
		"  next | prev | goto <n>\n" +
		"  answer <letter>   (or just the letter)\n" +
		"  submit\n" +
		"  cert\n" +
		"  retake\n" +
		"  theme\n" +
		"  status\n" +
		"  exit\n")
}

func (a *app) promptYesNo(prompt string) (bool, error) {
	for {
		a.text.Printf("%s", prompt)
		line, err := a.reader.ReadString('\n')
		if err != nil {
			return false, err
		}
		answer := strings.ToLower(strings.TrimSpace(line))
		switch answer {
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		default:
			a.text.Printf("Please answer yes or no.\n")
		}
	}
}

// reportSync prints errors of operations that render nothing on failure.
func (a *app) reportSync(err error) {
	if err == nil {
		return
	}
	a.text.Printf("error: %v\n", err)
}

// reportAsync handles errors of Load, Submit and Retake. Service failures are
// already shown on the failure screen; only misuse and outages are added.
func (a *app) reportAsync(err error) {
	switch {
	case err == nil:
	case errors.Is(err, eduapi.ErrServiceUnavailable):
		a.text.Printf("%v\n", describeClientError(err, a.cfg.ServerURL))
	case errors.Is(err, assessment.ErrAlreadySubmitted),
		errors.Is(err, assessment.ErrNotActive),
		errors.Is(err, assessment.ErrNotFinished),
		errors.Is(err, assessment.ErrNotLoaded):
		a.reportSync(err)
	}
}

func (a *app) checkRedirect() error {
	target, ok := a.cfg.Redirects.Pending()
	if !ok {
		return nil
	}
	return a.redirect(&assessment.RedirectError{Target: target, Reason: "session ended"})
}

func (a *app) redirect(err error) error {
	var redirect *assessment.RedirectError
	if errors.As(err, &redirect) {
		a.text.Printf("Redirecting to %s: %s\n", redirect.Target, redirect.Reason)
	}
	return err
}

func loadTheme(ctx context.Context, cfg Config) render.Theme {
	if cfg.Prefs != nil {
		if saved, err := cfg.Prefs.GetItem(ctx, themeKey); err == nil && saved != "" {
			return render.ParseTheme(saved)
		}
	}
	return render.ParseTheme(cfg.Theme)
}

func describeClientError(err error, serverURL string) error {
	if errors.Is(err, eduapi.ErrServiceUnavailable) {
		return errors.Errorf("assessment service unavailable at %s", serverURL)
	}
	return err
}
