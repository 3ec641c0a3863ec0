// Package mockapi serves the prodiplan backend contract from memory, for
// local development and tests.
package mockapi

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/prodiplan/essaygrader/internal/api"
	"github.com/prodiplan/essaygrader/internal/identity"
	"github.com/prodiplan/essaygrader/internal/report"
	"github.com/prodiplan/essaygrader/internal/selfupdate"
	"github.com/prodiplan/essaygrader/internal/store"
)

// StoredSubmission is a submission as the mock backend keeps it.
type StoredSubmission struct {
	api.SubmissionData
	UserID  string
	Request api.SubmissionRequest
}

// Server implements the backend contract on top of a DemoProvider.
type Server struct {
	provider *identity.DemoProvider
	log      zerolog.Logger
	latency  time.Duration
	now      func() time.Time
	release  *selfupdate.Release
	analysis time.Duration

	mu          sync.Mutex
	failSubmits bool
	submissions []StoredSubmission
}

// Option configures a Server.
type Option func(*Server)

func WithLogger(l zerolog.Logger) Option {
	return func(s *Server) { s.log = l }
}

// WithLatency delays every response, mimicking a slow grading backend.
func WithLatency(d time.Duration) Option {
	return func(s *Server) { s.latency = d }
}

// WithFailSubmissions makes submission calls fail with 503 from the start.
func WithFailSubmissions(fail bool) Option {
	return func(s *Server) { s.failSubmits = fail }
}

// WithAnalysisDelay keeps a submission's result pending for d after it
// was received.
func WithAnalysisDelay(d time.Duration) Option {
	return func(s *Server) { s.analysis = d }
}

func withClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// WithRelease advertises rel on GET /v1/client/release.
func WithRelease(rel *selfupdate.Release) Option {
	return func(s *Server) { s.release = rel }
}

func New(p *identity.DemoProvider, opts ...Option) *Server {
	s := &Server{
		provider: p,
		log:      zerolog.Nop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With().Str("component", "mockapi").Logger()
	return s
}

// SetFailSubmissions toggles failure injection at runtime.
func (s *Server) SetFailSubmissions(fail bool) {
	s.mu.Lock()
	s.failSubmits = fail
	s.mu.Unlock()
}

// Submissions returns every accepted submission, oldest first.
func (s *Server) Submissions() []StoredSubmission {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]StoredSubmission, len(s.submissions))
	copy(out, s.submissions)
	return out
}

// Handler builds the chi router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.Recoverer)
	r.Use(s.requestLog)
	if s.latency > 0 {
		r.Use(s.delay)
	}

	r.Route("/v1", func(r chi.Router) {
		r.Get("/token/health", s.health)
		r.Get("/client/release", s.clientRelease)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", s.login)
			r.Post("/register", s.register)
			r.Post("/refresh", s.refresh)

			r.Group(func(r chi.Router) {
				r.Use(s.requireAuth)
				r.Get("/me", s.me)
				r.Put("/me", s.updateMe)
				r.Post("/logout", s.logout)
			})
		})

		r.Route("/essays", func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Post("/submissions", s.createSubmission)
			r.Get("/submissions", s.listSubmissions)
			r.Get("/results/{attemptID}", s.result)
		})
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		fail(w, http.StatusNotFound, api.CodeNotFound)
	})
	return r
}

type ctxKey struct{}

type authInfo struct {
	token  string
	claims *identity.Claims
}

func authFrom(ctx context.Context) authInfo {
	info, _ := ctx.Value(ctxKey{}).(authInfo)
	return info
}

func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			fail(w, http.StatusUnauthorized, api.CodeTokenRequired)
			return
		}
		claims, err := s.provider.ValidateToken(token, identity.TokenTypeAccess)
		if err != nil {
			fail(w, http.StatusUnauthorized, api.CodeTokenInvalid)
			return
		}
		ctx := context.WithValue(r.Context(), ctxKey{}, authInfo{token: token, claims: claims})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("latency", time.Since(start)).
			Str("request_id", chiMiddleware.GetReqID(r.Context())).
			Msg("request")
	})
}

func (s *Server) delay(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t := time.NewTimer(s.latency)
		defer t.Stop()
		select {
		case <-r.Context().Done():
			return
		case <-t.C:
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	success(w, http.StatusOK, api.HealthData{Status: "ok"})
}

func (s *Server) clientRelease(w http.ResponseWriter, _ *http.Request) {
	if s.release == nil {
		fail(w, http.StatusNotFound, api.CodeNotFound)
		return
	}
	success(w, http.StatusOK, api.ReleaseDataFrom(s.release))
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var in identity.LoginInput
	if err := decode(w, r, &in); err != nil {
		fail(w, http.StatusBadRequest, api.CodeInvalidPayload)
		return
	}
	sess, err := s.provider.Login(r.Context(), in)
	if err != nil {
		s.authFailure(w, err)
		return
	}
	success(w, http.StatusOK, api.AuthData{User: sess.User, Token: sess.Token, RefreshToken: sess.RefreshToken})
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var in identity.RegisterInput
	if err := decode(w, r, &in); err != nil {
		fail(w, http.StatusBadRequest, api.CodeInvalidPayload)
		return
	}
	sess, err := s.provider.Register(r.Context(), in)
	if err != nil {
		s.authFailure(w, err)
		return
	}
	success(w, http.StatusCreated, api.AuthData{User: sess.User, Token: sess.Token, RefreshToken: sess.RefreshToken})
}

func (s *Server) refresh(w http.ResponseWriter, r *http.Request) {
	var in api.RefreshRequest
	if err := decode(w, r, &in); err != nil || in.RefreshToken == "" {
		fail(w, http.StatusBadRequest, api.CodeInvalidPayload)
		return
	}
	token, err := s.provider.Refresh(r.Context(), in.RefreshToken)
	if err != nil {
		s.authFailure(w, err)
		return
	}
	success(w, http.StatusOK, api.RefreshData{Token: token})
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	u, err := s.provider.Me(r.Context(), authFrom(r.Context()).token)
	if err != nil {
		s.authFailure(w, err)
		return
	}
	success(w, http.StatusOK, u)
}

func (s *Server) updateMe(w http.ResponseWriter, r *http.Request) {
	var in identity.UpdateProfileInput
	if err := decode(w, r, &in); err != nil {
		fail(w, http.StatusBadRequest, api.CodeInvalidPayload)
		return
	}
	u, err := s.provider.UpdateProfile(r.Context(), authFrom(r.Context()).token, in)
	if err != nil {
		s.authFailure(w, err)
		return
	}
	success(w, http.StatusOK, u)
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	if err := s.provider.Logout(r.Context(), authFrom(r.Context()).token); err != nil {
		s.authFailure(w, err)
		return
	}
	success(w, http.StatusOK, nil)
}

func (s *Server) authFailure(w http.ResponseWriter, err error) {
	var fe *identity.FormError
	switch {
	case errors.As(err, &fe):
		failWithFields(w, http.StatusUnprocessableEntity, api.CodeValidation, fe.Fields)
	case errors.Is(err, identity.ErrInvalidCredentials):
		fail(w, http.StatusUnauthorized, api.CodeInvalidCredentials)
	case errors.Is(err, identity.ErrEmailTaken):
		fail(w, http.StatusConflict, api.CodeEmailTaken)
	case errors.Is(err, identity.ErrInvalidToken):
		fail(w, http.StatusUnauthorized, api.CodeTokenInvalid)
	default:
		s.log.Error().Err(err).Msg("auth handler failed")
		fail(w, http.StatusInternalServerError, api.CodeInternal)
	}
}

func (s *Server) createSubmission(w http.ResponseWriter, r *http.Request) {
	var req api.SubmissionRequest
	if err := decode(w, r, &req); err != nil {
		fail(w, http.StatusBadRequest, api.CodeInvalidPayload)
		return
	}
	if req.AttemptID == "" {
		failWithFields(w, http.StatusUnprocessableEntity, api.CodeValidation, map[string]string{
			"attempt_id": "attempt_id is a required field",
		})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSubmits {
		fail(w, http.StatusServiceUnavailable, api.CodeUnavailable)
		return
	}

	stored := StoredSubmission{
		SubmissionData: api.SubmissionData{
			ID:         "sub-" + uuid.NewString(),
			AttemptID:  req.AttemptID,
			Status:     string(store.StatusAnalyzing),
			ReceivedAt: s.now().UTC(),
		},
		UserID:  authFrom(r.Context()).claims.UserID,
		Request: req,
	}
	s.submissions = append(s.submissions, stored)
	success(w, http.StatusCreated, stored.SubmissionData)
}

func (s *Server) listSubmissions(w http.ResponseWriter, r *http.Request) {
	userID := authFrom(r.Context()).claims.UserID

	s.mu.Lock()
	var out []api.SubmissionData
	for _, sub := range s.submissions {
		if sub.UserID != userID {
			continue
		}
		d := sub.SubmissionData
		if !s.now().Before(d.ReceivedAt.Add(s.analysis)) {
			d.Status = string(store.StatusCompleted)
		}
		out = append(out, d)
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ReceivedAt.After(out[j].ReceivedAt) })
	if out == nil {
		out = []api.SubmissionData{}
	}
	success(w, http.StatusOK, out)
}

func (s *Server) result(w http.ResponseWriter, r *http.Request) {
	userID := authFrom(r.Context()).claims.UserID
	attemptID := chi.URLParam(r, "attemptID")

	s.mu.Lock()
	var found *StoredSubmission
	for i := len(s.submissions) - 1; i >= 0; i-- {
		sub := &s.submissions[i]
		if sub.UserID == userID && sub.AttemptID == attemptID {
			found = sub
			break
		}
	}
	var stored StoredSubmission
	if found != nil {
		stored = *found
	}
	s.mu.Unlock()

	if found == nil {
		fail(w, http.StatusNotFound, api.CodeNotFound)
		return
	}
	ready := stored.ReceivedAt.Add(s.analysis)
	if s.now().Before(ready) {
		fail(w, http.StatusConflict, api.CodeAnalyzing)
		return
	}

	var answered []int
	for _, a := range stored.Request.Answers {
		if strings.TrimSpace(a.Answer) != "" {
			answered = append(answered, a.QuestionID)
		}
	}
	success(w, http.StatusOK, report.Generate(report.Input{
		AttemptID:   attemptID,
		TargetMajor: stored.Request.TargetMajor,
		AnsweredIDs: answered,
		Total:       stored.Request.TotalQuestions,
		CompletedAt: ready.UTC(),
	}))
}
