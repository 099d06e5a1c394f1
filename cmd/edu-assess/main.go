package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"edu-assist/internal/assessment"
	"edu-assist/internal/auth"
	"edu-assist/internal/cli"
	"edu-assist/internal/config"
	"edu-assist/internal/eduapi"
	"edu-assist/internal/localstore"
	"edu-assist/internal/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := run(ctx, os.Args[1:], os.Stdin, os.Stdout)
	stop()

	if err == nil {
		return
	}
	var redirect *assessment.RedirectError
	if errors.As(err, &redirect) {
		os.Exit(2)
	}
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}

func run(ctx context.Context, args []string, in io.Reader, out io.Writer) error {
	flags := flag.NewFlagSet("edu-assess", flag.ContinueOnError)
	envFile := flags.String("env", ".env", "dotenv file to load before reading EDU_* variables")
	course := flags.String("course", "", "course id (overrides course_id in the page URL)")
	server := flags.String("server", "", "assessment service base URL")
	storePath := flags.String("store", "", "local session database")
	timeout := flags.Duration("timeout", 0, "HTTP timeout")
	logLevel := flags.String("log-level", "", "log level (debug, info, warn, error)")
	flags.Usage = func() {
		fmt.Fprintln(flags.Output(), "usage: edu-assess [flags] [page-url]")
		fmt.Fprintln(flags.Output(), "       edu-assess [flags] login-token <token> [user-json]")
		fmt.Fprintln(flags.Output(), "       edu-assess [flags] logout")
		flags.PrintDefaults()
	}
	if err := flags.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*envFile)
	if err != nil {
		return err
	}
	if *server != "" {
		cfg.APIBaseURL = *server
	}
	if *storePath != "" {
		cfg.StorePath = *storePath
	}
	if *timeout > 0 {
		cfg.HTTPTimeout = *timeout
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	logger.Init(cfg.LogLevel, cfg.LogPretty)

	store, err := localstore.NewSQLiteStore(cfg.StorePath)
	if err != nil {
		return err
	}
	defer store.Close()

	redirects := &cli.Redirector{}
	gateway := auth.NewGateway(store, redirects.Redirect)

	rest := flags.Args()
	if len(rest) > 0 {
		switch rest[0] {
		case "login-token":
			return loginToken(ctx, out, gateway, rest[1:])
		case "logout":
			if err := gateway.Logout(ctx); err != nil {
				return err
			}
			fmt.Fprintln(out, "Signed out.")
			return nil
		}
	}

	pageURL := ""
	if len(rest) > 0 {
		pageURL = rest[0]
	}
	query, err := pageQuery(pageURL, *course)
	if err != nil {
		return err
	}

	httpClient := &http.Client{
		Timeout:   cfg.HTTPTimeout,
		Transport: gateway.Transport(nil),
	}
	api := eduapi.NewHTTPClient(cfg.APIBaseURL, httpClient)
	session := assessment.NewSession(assessment.Config{
		Provider:         api,
		Grader:           api,
		Identity:         gateway,
		LowTimeThreshold: cfg.LowTimeThreshold(),
	})

	log.Info().Str("server", api.BaseURL()).Str("courseId", query.Get("course_id")).Msg("Starting assessment")
	return cli.Run(ctx, in, out, cli.Config{
		Query:     query,
		Session:   session,
		Auth:      gateway,
		Prefs:     store,
		Redirects: redirects,
		ServerURL: api.BaseURL(),
		Color:     isTerminal(out),
		Theme:     cfg.Theme,
	})
}

func loginToken(ctx context.Context, out io.Writer, gateway *auth.Gateway, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return errors.New("usage: login-token <token> [user-json]")
	}

	var user auth.User
	if len(args) == 2 {
		if err := json.Unmarshal([]byte(args[1]), &user); err != nil {
			return errors.Wrap(err, "invalid user json")
		}
	}
	if err := gateway.SetSession(ctx, args[0], user); err != nil {
		return err
	}
	fmt.Fprintf(out, "Signed in as %s.\n", user.DisplayName())
	return nil
}

// pageQuery extracts the query of a page URL such as
// assessment.html?course_id=c-1. A bare query string is accepted too.
func pageQuery(pageURL, course string) (url.Values, error) {
	query := url.Values{}
	pageURL = strings.TrimSpace(pageURL)
	if pageURL != "" {
		raw := pageURL
		if idx := strings.Index(pageURL, "?"); idx >= 0 {
			raw = pageURL[idx+1:]
		} else if !strings.Contains(pageURL, "=") {
			raw = ""
		}
		parsed, err := url.ParseQuery(raw)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid page url %q", pageURL)
		}
		query = parsed
	}
	if course = strings.TrimSpace(course); course != "" {
		query.Set("course_id", course)
	}
	return query, nil
}

func isTerminal(out io.Writer) bool {
	file, ok := out.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())
}
