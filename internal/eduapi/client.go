package eduapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"edu-assist/internal/assessment"
)

const defaultBaseURL = "http://127.0.0.1:8000"

var ErrServiceUnavailable = errors.New("edu assist service unavailable")

type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if strings.TrimSpace(e.Message) == "" {
		return fmt.Sprintf("Server error %d", e.StatusCode)
	}
	return e.Message
}

// HTTPClient talks to the quiz and grading endpoints. Authentication is the
// job of the transport inside httpClient.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	validate   *validator.Validate
}

func NewHTTPClient(baseURL string, httpClient *http.Client) *HTTPClient {
	baseURL = strings.TrimSpace(baseURL)
	baseURL = strings.TrimRight(baseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &HTTPClient{
		baseURL:    baseURL,
		httpClient: httpClient,
		validate:   newValidator(),
	}
}

func (c *HTTPClient) BaseURL() string {
	return c.baseURL
}

// FetchQuiz returns the latest quiz of a course, or assessment.ErrQuizNotFound.
func (c *HTTPClient) FetchQuiz(ctx context.Context, courseID string) (assessment.Quiz, error) {
	if strings.TrimSpace(courseID) == "" {
		return assessment.Quiz{}, errors.New("course_id is required")
	}

	var payload quizDocument
	err := c.doJSON(ctx, http.MethodGet, "/api/quiz/"+url.PathEscape(courseID), nil, &payload)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return assessment.Quiz{}, errors.Wrapf(assessment.ErrQuizNotFound, "course %s", courseID)
		}
		return assessment.Quiz{}, err
	}
	return c.toQuiz(payload)
}

func (c *HTTPClient) GenerateQuiz(ctx context.Context, courseID string) (assessment.Quiz, error) {
	if strings.TrimSpace(courseID) == "" {
		return assessment.Quiz{}, errors.New("course_id is required")
	}

	log.Info().Str("courseId", courseID).Msg("Requesting quiz generation")

	var payload quizDocument
	if err := c.doJSON(ctx, http.MethodPost, "/api/quiz/generate/"+url.PathEscape(courseID), nil, &payload); err != nil {
		return assessment.Quiz{}, err
	}
	return c.toQuiz(payload)
}

func (c *HTTPClient) SubmitQuiz(ctx context.Context, submission assessment.Submission) (assessment.GradeResult, error) {
	answers := make(map[string]string, len(submission.Answers))
	for questionID, option := range submission.Answers {
		answers[questionID] = option
	}
	request := submitRequest{
		UserID:           submission.UserID,
		QuizID:           submission.QuizID,
		Answers:          answers,
		TimeSpentSeconds: submission.TimeSpentSeconds,
	}

	var payload gradeDocument
	if err := c.doJSON(ctx, http.MethodPost, "/api/quiz/submit", request, &payload); err != nil {
		return assessment.GradeResult{}, err
	}
	if strings.TrimSpace(payload.Error) != "" {
		return assessment.GradeResult{}, errors.New(payload.Error)
	}
	return c.toGradeResult(payload)
}

func (c *HTTPClient) toQuiz(payload quizDocument) (assessment.Quiz, error) {
	if err := c.validate.Struct(payload); err != nil {
		return assessment.Quiz{}, errors.Wrap(err, "invalid quiz document")
	}

	// Questions are copied element by element by field name.
	var quiz assessment.Quiz
	if err := copier.Copy(&quiz, &payload); err != nil {
		return assessment.Quiz{}, errors.Wrap(err, "map quiz")
	}
	for idx := range quiz.Questions {
		if quiz.Questions[idx].Type == "" || quiz.Questions[idx].Type == "mcq" {
			quiz.Questions[idx].Type = assessment.QuestionTypeMultipleChoice
		}
	}
	if quiz.QuestionCount == 0 {
		quiz.QuestionCount = len(quiz.Questions)
	}
	return quiz, nil
}

func (c *HTTPClient) toGradeResult(payload gradeDocument) (assessment.GradeResult, error) {
	if err := c.validate.Struct(payload); err != nil {
		return assessment.GradeResult{}, errors.Wrap(err, "invalid grade document")
	}

	var result assessment.GradeResult
	if err := copier.Copy(&result, &payload); err != nil {
		return assessment.GradeResult{}, errors.Wrap(err, "map grade result")
	}

	if payload.Cert != nil {
		issuedAt, err := parseTime(payload.Cert.IssuedAt)
		if err != nil {
			return assessment.GradeResult{}, err
		}
		result.Certificate = &assessment.Certificate{
			CertificateID: payload.Cert.CertificateID,
			CourseTitle:   payload.Cert.CourseTitle,
			Score:         payload.Cert.Score,
			IssuedAt:      issuedAt,
		}
	}
	return result, nil
}

func (c *HTTPClient) doJSON(ctx context.Context, method, path string, requestBody any, responseBody any) error {
	fullURL := c.baseURL + path

	var body io.Reader
	if requestBody != nil {
		encoded, err := json.Marshal(requestBody)
		if err != nil {
			return err
		}
		body = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return err
	}
	requestID := uuid.NewString()
	request.Header.Set("Accept", "application/json")
	request.Header.Set("X-Request-ID", requestID)
	if requestBody != nil {
		request.Header.Set("Content-Type", "application/json")
	}

	started := time.Now()
	response, err := c.httpClient.Do(request)
	if err != nil {
		log.Error().Err(err).Str("requestId", requestID).Str("method", method).Str("path", path).Msg("Request failed")
		return errors.Wrap(ErrServiceUnavailable, err.Error())
	}
	defer response.Body.Close()

	log.Debug().
		Str("requestId", requestID).
		Str("method", method).
		Str("path", path).
		Int("status", response.StatusCode).
		Dur("elapsed", time.Since(started)).
		Msg("Request completed")

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		apiErr := APIError{StatusCode: response.StatusCode}
		var payload errorResponse
		if err := json.NewDecoder(response.Body).Decode(&payload); err == nil {
			apiErr.Message = payload.message()
		}
		return &apiErr
	}

	if responseBody == nil {
		return nil
	}
	if err := json.NewDecoder(response.Body).Decode(responseBody); err != nil {
		return errors.Wrapf(err, "decode %s %s", method, path)
	}
	return nil
}

func (e errorResponse) message() string {
	if detail, ok := e.Detail.(string); ok && strings.TrimSpace(detail) != "" {
		return detail
	}
	return strings.TrimSpace(e.Error)
}

func newValidator() *validator.Validate {
	validate := validator.New()
	// Report wire names in validation errors.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return validate
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
}

func parseTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	for _, layout := range timeLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, errors.Errorf("unrecognized timestamp %q", value)
}
