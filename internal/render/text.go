package render

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"edu-assist/internal/assessment"
)

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// ParseTheme falls back to light for anything it does not recognise.
func ParseTheme(value string) Theme {
	if Theme(strings.ToLower(strings.TrimSpace(value))) == ThemeDark {
		return ThemeDark
	}
	return ThemeLight
}

func (t Theme) Toggle() Theme {
	if t == ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}

type palette struct {
	heading string
	success string
	failure string
	warning string
	muted   string
}

var palettes = map[Theme]palette{
	ThemeLight: {heading: "1;34", success: "32", failure: "31", warning: "33", muted: "2"},
	ThemeDark:  {heading: "1;96", success: "92", failure: "91", warning: "93", muted: "90"},
}

type TextOptions struct {
	Color bool
	Theme Theme
}

// Text renders session snapshots as plain terminal output. Writes from the
// countdown goroutine and the command loop are serialized on one mutex.
type Text struct {
	mu      sync.Mutex
	out     io.Writer
	color   bool
	theme   Theme
	lowSeen bool
}

func NewText(out io.Writer, opts TextOptions) *Text {
	theme := opts.Theme
	if theme != ThemeDark {
		theme = ThemeLight
	}
	return &Text{out: out, color: opts.Color, theme: theme}
}

func (t *Text) Theme() Theme {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.theme
}

func (t *Text) SetTheme(theme Theme) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.theme = ParseTheme(string(theme))
}

func (t *Text) Printf(format string, args ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.out, format, args...)
}

func (t *Text) Notify(snapshot assessment.Snapshot) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch snapshot.Event {
	case assessment.EventGenerating:
		t.lowSeen = false
		fmt.Fprintln(t.out, t.paint(t.palette().muted, "Generating Assessment..."))
	case assessment.EventLoaded:
		t.lowSeen = false
		t.writeStart(BuildStart(snapshot))
	case assessment.EventLoadFailed:
		t.writeFailure("Unable to Load Assessment", snapshot.Err)
	case assessment.EventStarted, assessment.EventNavigated, assessment.EventAnswered:
		if view, ok := BuildQuestion(snapshot); ok {
			t.writeQuestion(view)
		}
		t.writeTimer(snapshot.RemainingSeconds, snapshot.LowTime)
	case assessment.EventTick:
		if timerCheckpoint(snapshot.RemainingSeconds, snapshot.LowTime, t.lowSeen) {
			t.writeTimer(snapshot.RemainingSeconds, snapshot.LowTime)
		}
		t.lowSeen = snapshot.LowTime
	case assessment.EventGrading:
		t.lowSeen = false
		fmt.Fprintln(t.out)
		if snapshot.AutoSubmitted {
			fmt.Fprintln(t.out, t.paint(t.palette().warning, "Time is up. Your answers were submitted automatically."))
		}
		fmt.Fprintln(t.out, t.paint(t.palette().heading, "Grading..."))
		fmt.Fprintln(t.out, "Please wait while we grade your assessment.")
	case assessment.EventGraded:
		if snapshot.Result != nil {
			t.writeResults(BuildResults(snapshot.Quiz, *snapshot.Result))
		}
	case assessment.EventSubmitFailed:
		t.writeFailure("Submission Failed", snapshot.Err)
	}
}

// Certificate prints the certificate modal.
func (t *Text) Certificate(view CertificateView) {
	t.mu.Lock()
	defer t.mu.Unlock()

	p := t.palette()
	rule := strings.Repeat("=", 44)
	fmt.Fprintln(t.out)
	fmt.Fprintln(t.out, rule)
	fmt.Fprintln(t.out, t.paint(p.heading, "  Certificate of Completion"))
	fmt.Fprintln(t.out, "  This certifies that")
	fmt.Fprintf(t.out, "  %s\n", t.paint(p.heading, view.UserName))
	fmt.Fprintln(t.out, "  has successfully completed")
	fmt.Fprintf(t.out, "  %s\n", view.CourseName)
	fmt.Fprintf(t.out, "  with a score of %s\n", t.paint(p.success, view.Score))
	if view.Date != "" {
		fmt.Fprintf(t.out, "  %s\n", view.Date)
	}
	fmt.Fprintf(t.out, "  %s\n", t.paint(p.muted, view.ID))
	fmt.Fprintln(t.out, rule)
}

// timerCheckpoint limits the countdown to whole minutes, the moment time
// runs low, every ten seconds after that and the last five seconds.
func timerCheckpoint(remaining int, low, wasLow bool) bool {
	if remaining%60 == 0 {
		return true
	}
	if !low {
		return false
	}
	return !wasLow || remaining%10 == 0 || remaining <= 5
}

func (t *Text) writeStart(view StartView) {
	p := t.palette()
	fmt.Fprintln(t.out)
	fmt.Fprintln(t.out, t.paint(p.heading, view.Title))
	fmt.Fprintln(t.out, view.Description)
	fmt.Fprintf(t.out, "Questions: %d\n", view.QuestionCount)
	fmt.Fprintf(t.out, "Time limit: %s\n", view.TimeLimitText())
	fmt.Fprintf(t.out, "Passing score: %s%%\n", view.PassingScore)
	fmt.Fprintf(t.out, "Back to course: %s\n", t.paint(p.muted, view.BackLink))
	fmt.Fprintln(t.out, "Type 'start' to begin.")
}

func (t *Text) writeQuestion(view QuestionView) {
	p := t.palette()
	fmt.Fprintln(t.out)
	fmt.Fprintf(t.out, "%s  %s  %s\n",
		t.paint(p.heading, fmt.Sprintf("Question %d of %d", view.Number, view.Total)),
		t.paint(p.muted, fmt.Sprintf("%d%%", view.ProgressPercent)),
		t.paint(p.muted, "["+view.TypeBadge+"]"),
	)
	fmt.Fprintln(t.out, view.Text)
	fmt.Fprintln(t.out)
	for _, option := range view.Options {
		line := fmt.Sprintf("  %s. %s", option.Letter, option.Text)
		if option.Selected {
			line = t.paint(p.success, fmt.Sprintf("> %s. %s", option.Letter, option.Text))
		}
		fmt.Fprintln(t.out, line)
	}
	fmt.Fprintln(t.out)

	markers := make([]string, 0, len(view.Nav))
	for _, marker := range view.Nav {
		switch {
		case marker.Current:
			markers = append(markers, t.paint(p.heading, fmt.Sprintf("[%d]", marker.Number)))
		case marker.Answered:
			markers = append(markers, t.paint(p.success, fmt.Sprintf("%d*", marker.Number)))
		default:
			markers = append(markers, fmt.Sprintf("%d", marker.Number))
		}
	}
	fmt.Fprintln(t.out, strings.Join(markers, " "))

	var actions []string
	if view.ShowPrev {
		actions = append(actions, "prev")
	}
	if view.ShowNext {
		actions = append(actions, "next")
	}
	if view.ShowSubmit {
		actions = append(actions, "submit")
	}
	fmt.Fprintln(t.out, t.paint(p.muted, strings.Join(actions, " | ")))
}

func (t *Text) writeTimer(remaining int, low bool) {
	line := "Time remaining: " + FormatClock(remaining)
	if low {
		line = t.paint(t.palette().failure, line+" !")
	}
	fmt.Fprintln(t.out, line)
}

func (t *Text) writeResults(view ResultsView) {
	p := t.palette()
	statusColor := p.failure
	if view.Ring.Passed {
		statusColor = p.success
	}

	fmt.Fprintln(t.out)
	fmt.Fprintf(t.out, "%s %s\n", view.Icon, t.paint(p.heading, view.Title))
	fmt.Fprintln(t.out, view.Subtitle)
	fmt.Fprintln(t.out)
	fmt.Fprintf(t.out, "%s %s\n", t.paint(statusColor, view.Ring.Gauge(20)), t.paint(p.heading, view.ScoreText))
	fmt.Fprintf(t.out, "Score: %s\n", view.Score)
	fmt.Fprintf(t.out, "Passing: %s\n", view.Passing)
	fmt.Fprintf(t.out, "Time: %s\n", view.Time)
	fmt.Fprintf(t.out, "Status: %s\n", t.paint(statusColor, view.Status))

	if view.ShowCertificate {
		fmt.Fprintln(t.out)
		fmt.Fprintf(t.out, "%s\n", t.paint(p.success, "🏆 Certificate earned for "+view.CertificateFor))
		fmt.Fprintln(t.out, "Type 'cert' to view your certificate.")
	}

	if len(view.Review) > 0 {
		fmt.Fprintln(t.out)
		fmt.Fprintln(t.out, t.paint(p.heading, "Review"))
	}
	for _, item := range view.Review {
		mark := t.paint(p.success, "✓")
		if !item.Correct {
			mark = t.paint(p.failure, "✗")
		}
		fmt.Fprintf(t.out, "%s %d. %s\n", mark, item.Number, item.Question)
		fmt.Fprintf(t.out, "    Your answer: %s\n", item.UserAnswer)
		if item.Correct {
			continue
		}
		fmt.Fprintf(t.out, "    Correct answer: %s\n", item.CorrectAnswer)
		if item.Explanation != "" {
			fmt.Fprintf(t.out, "    %s\n", t.paint(p.muted, item.Explanation))
		}
	}
	fmt.Fprintln(t.out)
	fmt.Fprintln(t.out, "Type 'retake' to try again or 'exit' to leave.")
}

func (t *Text) writeFailure(heading string, err error) {
	message := "Unknown error"
	if err != nil {
		message = err.Error()
	}
	fmt.Fprintln(t.out)
	fmt.Fprintln(t.out, t.paint(t.palette().failure, heading))
	fmt.Fprintln(t.out, message)
}

func (t *Text) palette() palette {
	return palettes[t.theme]
}

func (t *Text) paint(code, text string) string {
	if !t.color || code == "" {
		return text
	}
	return "\x1b[" + code + "m" + text + "\x1b[0m"
}
