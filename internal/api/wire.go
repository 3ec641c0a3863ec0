package api

import (
	"encoding/json"
	"time"

	"github.com/prodiplan/essaygrader/internal/identity"
)

// Endpoint paths of the prodiplan backend.
const (
	PathLogin         = "/v1/auth/login"
	PathRegister      = "/v1/auth/register"
	PathMe            = "/v1/auth/me"
	PathRefresh       = "/v1/auth/refresh"
	PathLogout        = "/v1/auth/logout"
	PathSubmissions   = "/v1/essays/submissions"
	PathResults       = "/v1/essays/results"
	PathHealth        = "/v1/token/health"
	PathClientRelease = "/v1/client/release"
)

// ErrCode identifies an API failure.
type ErrCode string

const (
	CodeInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	CodeEmailTaken         ErrCode = "EMAIL_TAKEN"
	CodeTokenRequired      ErrCode = "TOKEN_REQUIRED"
	CodeTokenInvalid       ErrCode = "TOKEN_INVALID"
	CodeValidation         ErrCode = "VALIDATION_ERROR"
	CodeInvalidPayload     ErrCode = "INVALID_PAYLOAD"
	CodeNotFound           ErrCode = "NOT_FOUND"
	CodeAnalyzing          ErrCode = "ANALYSIS_PENDING"
	CodeUnavailable        ErrCode = "SERVICE_UNAVAILABLE"
	CodeInternal           ErrCode = "INTERNAL_ERROR"
)

// Envelope wraps every response body.
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   *ErrorBody      `json:"error,omitempty"`
}

// ErrorBody is the error half of an Envelope.
type ErrorBody struct {
	Code    ErrCode           `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// AuthData is returned by login and register.
type AuthData struct {
	User         identity.User `json:"user"`
	Token        string        `json:"token"`
	RefreshToken string        `json:"refresh_token"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type RefreshData struct {
	Token string `json:"token"`
}

// AnswerItem is one answered question in a submission.
type AnswerItem struct {
	QuestionID int    `json:"question_id"`
	Answer     string `json:"answer"`
}

// SubmissionRequest is the body of POST /v1/essays/submissions.
type SubmissionRequest struct {
	AttemptID      string       `json:"attempt_id"`
	Attempt        int          `json:"attempt"`
	Trigger        string       `json:"trigger"`
	TargetMajor    string       `json:"target_major,omitempty"`
	Answers        []AnswerItem `json:"answers"`
	TotalQuestions int          `json:"total_questions"`
	StartedAt      time.Time    `json:"started_at"`
	SubmittedAt    time.Time    `json:"submitted_at"`
	ElapsedSeconds int          `json:"elapsed_seconds"`
}

// SubmissionData acknowledges a stored submission.
type SubmissionData struct {
	ID         string    `json:"id"`
	AttemptID  string    `json:"attempt_id"`
	Status     string    `json:"status"`
	ReceivedAt time.Time `json:"received_at"`
}

type HealthData struct {
	Status string `json:"status"`
}
