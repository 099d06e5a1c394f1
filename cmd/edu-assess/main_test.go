package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"edu-assist/internal/assessment"
)

func TestPageQuery(t *testing.T) {
	tests := []struct {
		name    string
		pageURL string
		course  string
		want    string
	}{
		{name: "page url", pageURL: "assessment.html?course_id=c-1", want: "c-1"},
		{name: "absolute url", pageURL: "https://lms.example.com/assessment.html?course_id=c-2&x=1", want: "c-2"},
		{name: "bare query", pageURL: "course_id=c-3", want: "c-3"},
		{name: "flag overrides", pageURL: "assessment.html?course_id=c-1", course: "c-9", want: "c-9"},
		{name: "page without query", pageURL: "assessment.html", want: ""},
		{name: "nothing", want: ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			query, err := pageQuery(tc.pageURL, tc.course)
			if err != nil {
				t.Fatalf("pageQuery returned error: %v", err)
			}
			if got := query.Get("course_id"); got != tc.want {
				t.Fatalf("course_id = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestRunEndToEnd(t *testing.T) {
	var submitted map[string]any
	var authHeaders []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeaders = append(authHeaders, r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/quiz/c-1":
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"detail":"Quiz not found"}`))
		case r.Method == http.MethodPost && r.URL.Path == "/api/quiz/generate/c-1":
			_, _ = w.Write([]byte(`{"id":"quiz-9","course_id":"c-1","title":"Generated Quiz","time_limit_minutes":3,"passing_score":50,
				"questions":[{"id":"q1","question_text":"2+2?","question_type":"multiple_choice","options":["3","4"]}]}`))
		case r.Method == http.MethodPost && r.URL.Path == "/api/quiz/submit":
			_ = json.NewDecoder(r.Body).Decode(&submitted)
			_, _ = w.Write([]byte(`{"attempt_id":"a-1","score":1,"total_points":1,"percentage":100,"passed":true,"passing_score":50,
				"time_spent_seconds":1,"results":[{"question_id":"q1","user_answer":"4","correct_answer":"4","is_correct":true}]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	dir := t.TempDir()
	common := []string{
		"-env", filepath.Join(dir, "missing.env"),
		"-store", filepath.Join(dir, "session.db"),
		"-server", server.URL,
		"-log-level", "error",
	}
	ctx := context.Background()

	var out bytes.Buffer
	login := append(append([]string{}, common...), "login-token", "tok-1", `{"id":"u-7","name":"Grace"}`)
	if err := run(ctx, login, strings.NewReader(""), &out); err != nil {
		t.Fatalf("login-token failed: %v", err)
	}
	if !strings.Contains(out.String(), "Signed in as Grace.") {
		t.Fatalf("unexpected login output %q", out.String())
	}

	out.Reset()
	attempt := append(append([]string{}, common...), "assessment.html?course_id=c-1")
	if err := run(ctx, attempt, strings.NewReader("start\nb\nsubmit\nyes\nexit\n"), &out); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	rendered := out.String()
	for _, want := range []string{"Generating Assessment...", "Generated Quiz", "Congratulations!"} {
		if !strings.Contains(rendered, want) {
			t.Fatalf("output missing %q:\n%s", want, rendered)
		}
	}
	if submitted["user_id"] != "u-7" || submitted["quiz_id"] != "quiz-9" {
		t.Fatalf("unexpected submission %v", submitted)
	}
	answers, _ := submitted["answers"].(map[string]any)
	if answers["q1"] != "4" {
		t.Fatalf("unexpected answers %v", submitted["answers"])
	}
	for _, header := range authHeaders {
		if header != "Bearer tok-1" {
			t.Fatalf("expected bearer token on every request, got %q", header)
		}
	}

	out.Reset()
	logout := append(append([]string{}, common...), "logout")
	if err := run(ctx, logout, strings.NewReader(""), &out); err != nil {
		t.Fatalf("logout failed: %v", err)
	}

	err := run(ctx, attempt, strings.NewReader("exit\n"), &out)
	var redirect *assessment.RedirectError
	if !errors.As(err, &redirect) || redirect.Target != assessment.LoginPage {
		t.Fatalf("expected login redirect after logout, got %v", err)
	}
}

func TestInputErrorsKeepCause(t *testing.T) {
	_, err := pageQuery("assessment.html?course_id=%zz", "")
	if err == nil || !strings.HasPrefix(err.Error(), `invalid page url "assessment.html?course_id=%zz": `) {
		t.Fatalf("unexpected page url error: %v", err)
	}

	dir := t.TempDir()
	args := []string{
		"-env", filepath.Join(dir, "missing.env"),
		"-store", filepath.Join(dir, "session.db"),
		"-log-level", "error",
		"login-token", "tok-1", "{not json",
	}
	err = run(context.Background(), args, strings.NewReader(""), &bytes.Buffer{})
	var syntaxErr *json.SyntaxError
	if !errors.As(err, &syntaxErr) || !strings.HasPrefix(err.Error(), "invalid user json: ") {
		t.Fatalf("expected wrapped JSON syntax error, got %v", err)
	}
}
