package eduapi

// Wire documents as served by the Edu Assist backend. Field names match the
// assessment model so they can be copied across; JSON tags carry the wire
// names. Cert is named apart from the model field because its timestamp needs
// parsing.

type questionDocument struct {
	ID          string   `json:"id" validate:"required"`
	Text        string   `json:"question_text" validate:"required"`
	Type        string   `json:"question_type" validate:"omitempty,oneof=multiple_choice true_false mcq"`
	Options     []string `json:"options" validate:"min=2,max=6,dive,required"`
	Explanation string   `json:"explanation"`
	Points      float64  `json:"points" validate:"gte=0"`
}

type quizDocument struct {
	ID               string             `json:"id" validate:"required"`
	CourseID         string             `json:"course_id"`
	Title            string             `json:"title"`
	Description      string             `json:"description"`
	TimeLimitMinutes int                `json:"time_limit_minutes" validate:"gte=0"`
	PassingScore     float64            `json:"passing_score" validate:"gte=0,lte=100"`
	QuestionCount    int                `json:"question_count" validate:"gte=0"`
	Questions        []questionDocument `json:"questions" validate:"dive"`
}

type submitRequest struct {
	UserID           string            `json:"user_id"`
	QuizID           string            `json:"quiz_id"`
	Answers          map[string]string `json:"answers"`
	TimeSpentSeconds int               `json:"time_spent_seconds"`
}

type questionResultDocument struct {
	QuestionID    string  `json:"question_id" validate:"required"`
	UserAnswer    string  `json:"user_answer"`
	CorrectAnswer string  `json:"correct_answer"`
	IsCorrect     bool    `json:"is_correct"`
	Explanation   string  `json:"explanation"`
	Points        float64 `json:"points"`
}

type certificateDocument struct {
	CertificateID string  `json:"certificate_id" validate:"required"`
	CourseTitle   string  `json:"course_title"`
	Score         float64 `json:"score"`
	IssuedAt      string  `json:"issued_at"`
}

type gradeDocument struct {
	Error            string                   `json:"error"`
	AttemptID        string                   `json:"attempt_id"`
	Score            float64                  `json:"score" validate:"gte=0"`
	TotalPoints      float64                  `json:"total_points" validate:"gte=0"`
	Percentage       float64                  `json:"percentage" validate:"gte=0,lte=100"`
	PassingScore     float64                  `json:"passing_score"`
	Passed           bool                     `json:"passed"`
	TimeSpentSeconds int                      `json:"time_spent_seconds" validate:"gte=0"`
	Results          []questionResultDocument `json:"results" validate:"dive"`
	Cert             *certificateDocument     `json:"certificate" validate:"omitempty"`
}

type errorResponse struct {
	Error  string `json:"error"`
	Detail any    `json:"detail"`
}
