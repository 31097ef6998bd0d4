package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/catprep/mocktest-service/internal/analysis"
	"github.com/catprep/mocktest-service/internal/content"
	"github.com/catprep/mocktest-service/internal/services"
	"github.com/catprep/mocktest-service/internal/session"
	"github.com/catprep/mocktest-service/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ===== STUB SERVICES =====

// stubUserService issues real tokens so the auth middleware path is
// exercised end to end.
type stubUserService struct {
	tokens *services.TokenIssuer
	taken  map[string]bool
}

func newStubUserService() *stubUserService {
	return &stubUserService{
		tokens: services.NewTokenIssuer("handler-test-secret"),
		taken:  map[string]bool{"aswathi": true},
	}
}

func (s *stubUserService) Signup(ctx context.Context, req *services.SignupRequest) (*services.UserResponse, error) {
	if s.taken[req.Username] {
		return nil, services.ErrUsernameTaken
	}
	return &services.UserResponse{Username: req.Username, Name: req.Name}, nil
}

func (s *stubUserService) Login(ctx context.Context, req *services.LoginRequest) (*services.LoginResponse, error) {
	if !s.taken[req.Username] {
		return nil, services.ErrUserNotFound
	}
	token, err := s.tokens.Issue(req.Username, "Aswathi")
	if err != nil {
		return nil, err
	}
	return &services.LoginResponse{
		Message:  "Login successful",
		Username: req.Username,
		Name:     "Aswathi",
		Token:    token,
	}, nil
}

func (s *stubUserService) Authenticate(token string) (*services.Claims, error) {
	return s.tokens.Parse(token)
}

// stubExamService overrides only the methods a test calls; the embedded
// nil interface panics loudly if a test hits an unstubbed route.
type stubExamService struct {
	services.ExamService
	listTestsFn func() []services.TestSummary
	startFn     func(ctx context.Context, username, testName string) (*services.SessionView, error)
	viewFn      func(ctx context.Context, sessionID, username string) (*services.SessionView, error)
	submitFn    func(ctx context.Context, sessionID, username string) (*services.SubmitResult, error)
	pauseFn     func(ctx context.Context, sessionID, username string) error
}

func (s *stubExamService) ListTests() []services.TestSummary { return s.listTestsFn() }

func (s *stubExamService) Start(ctx context.Context, username, testName string) (*services.SessionView, error) {
	return s.startFn(ctx, username, testName)
}

func (s *stubExamService) View(ctx context.Context, sessionID, username string) (*services.SessionView, error) {
	return s.viewFn(ctx, sessionID, username)
}

func (s *stubExamService) Submit(ctx context.Context, sessionID, username string) (*services.SubmitResult, error) {
	return s.submitFn(ctx, sessionID, username)
}

func (s *stubExamService) Pause(ctx context.Context, sessionID, username string) error {
	return s.pauseFn(ctx, sessionID, username)
}

type stubStatsService struct {
	services.StatsService
	reportFn func(ctx context.Context, username string) ([]byte, error)
}

func (s *stubStatsService) Report(ctx context.Context, username string) ([]byte, error) {
	return s.reportFn(ctx, username)
}

type stubAnalysisService struct {
	services.AnalysisService
	analyzeFn  func(ctx context.Context, username string) (*analysis.Result, error)
	followupFn func(ctx context.Context, username, question string) (string, error)
}

func (s *stubAnalysisService) Analyze(ctx context.Context, username string) (*analysis.Result, error) {
	return s.analyzeFn(ctx, username)
}

func (s *stubAnalysisService) Followup(ctx context.Context, username, question string) (string, error) {
	return s.followupFn(ctx, username, question)
}

// ===== FIXTURE =====

type routerFixture struct {
	router   *gin.Engine
	users    *stubUserService
	exam     *stubExamService
	stats    *stubStatsService
	analysis *stubAnalysisService
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		utils.RegisterCustomValidators(v)
	}

	f := &routerFixture{
		users:    newStubUserService(),
		exam:     &stubExamService{},
		stats:    &stubStatsService{},
		analysis: &stubAnalysisService{},
	}

	logger := utils.NewDevelopmentLogger()
	hm := NewHandlerManager(f.users, f.exam, f.stats, f.analysis, logger)

	f.router = gin.New()
	hm.SetupRoutes(f.router)
	return f
}

func (f *routerFixture) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func (f *routerFixture) login(t *testing.T) string {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{"username": "aswathi"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp services.LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

// ===== TESTS =====

func TestHealthEndpoint(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
}

func TestSignupValidation(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(t, http.MethodPost, "/api/v1/auth/signup", "", gin.H{"username": "ab", "name": "Too Short"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/v1/auth/signup", "", gin.H{"username": "aswathi", "name": "Duplicate"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/v1/auth/signup", "", gin.H{"username": "rahul123", "name": "Rahul"})
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), "User registered successfully")
}

func TestLoginUnknownUserReturns404(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{"username": "nobody"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	f := newRouterFixture(t)
	f.exam.listTestsFn = func() []services.TestSummary { return nil }

	rec := f.do(t, http.MethodGet, "/api/v1/tests", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/v1/tests", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/v1/tests", f.login(t), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestListTestsPayload(t *testing.T) {
	f := newRouterFixture(t)
	f.exam.listTestsFn = func() []services.TestSummary {
		return []services.TestSummary{{
			Name:           "CAT-2024-Slot-1",
			Sections:       map[string]int{"VARC": 24, "DILR": 22, "QA": 22},
			TotalQuestions: 68,
			MaxMarks:       204,
		}}
	}

	rec := f.do(t, http.MethodGet, "/api/v1/tests", f.login(t), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Tests []services.TestSummary `json:"tests"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Tests, 1)
	assert.Equal(t, "CAT-2024-Slot-1", resp.Tests[0].Name)
	assert.Equal(t, 204, resp.Tests[0].MaxMarks)
}

func TestStartTestUsesTokenIdentity(t *testing.T) {
	f := newRouterFixture(t)

	var gotUser, gotTest string
	f.exam.startFn = func(ctx context.Context, username, testName string) (*services.SessionView, error) {
		gotUser, gotTest = username, testName
		return &services.SessionView{
			State:           &session.State{SessionID: "sess-1", Username: username, TestName: testName},
			CurrentQuestion: &content.Question{ID: "VARC_1"},
		}, nil
	}

	rec := f.do(t, http.MethodPost, "/api/v1/sessions", f.login(t), gin.H{"test_name": "CAT-2024-Slot-1"})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "aswathi", gotUser)
	assert.Equal(t, "CAT-2024-Slot-1", gotTest)
	assert.Contains(t, rec.Body.String(), "VARC_1")
}

func TestStartTestRejectsEmptyBody(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(t, http.MethodPost, "/api/v1/sessions", f.login(t), gin.H{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServiceErrorMapping(t *testing.T) {
	f := newRouterFixture(t)
	token := f.login(t)

	f.exam.viewFn = func(ctx context.Context, sessionID, username string) (*services.SessionView, error) {
		return nil, services.ErrSessionNotFound
	}
	rec := f.do(t, http.MethodGet, "/api/v1/sessions/unknown", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	f.exam.viewFn = func(ctx context.Context, sessionID, username string) (*services.SessionView, error) {
		return nil, services.ErrSessionNotOwned
	}
	rec = f.do(t, http.MethodGet, "/api/v1/sessions/sess-1", token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	f.exam.submitFn = func(ctx context.Context, sessionID, username string) (*services.SubmitResult, error) {
		return nil, session.ErrAlreadySubmitted
	}
	rec = f.do(t, http.MethodPost, "/api/v1/sessions/sess-1/submit", token, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	f.exam.pauseFn = func(ctx context.Context, sessionID, username string) error {
		return session.ErrSessionPaused
	}
	rec = f.do(t, http.MethodPost, "/api/v1/sessions/sess-1/pause", token, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestFlagColorValidatedAtBinding(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(t, http.MethodPost, "/api/v1/sessions/sess-1/flag", f.login(t),
		gin.H{"question_id": "VARC_1", "color": "purple"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDownloadReportHeaders(t *testing.T) {
	f := newRouterFixture(t)
	f.stats.reportFn = func(ctx context.Context, username string) ([]byte, error) {
		return []byte("workbook-bytes"), nil
	}

	rec := f.do(t, http.MethodGet, "/api/v1/me/report", f.login(t), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "aswathi_report.xlsx")
}

func TestReportWithoutAttempts(t *testing.T) {
	f := newRouterFixture(t)
	f.stats.reportFn = func(ctx context.Context, username string) ([]byte, error) {
		return nil, services.ErrNoAttempts
	}

	rec := f.do(t, http.MethodGet, "/api/v1/me/report", f.login(t), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAnalysisEndpoints(t *testing.T) {
	f := newRouterFixture(t)
	token := f.login(t)

	f.analysis.analyzeFn = func(ctx context.Context, username string) (*analysis.Result, error) {
		return &analysis.Result{Status: "success", Analysis: "Focus on DILR sets.", Source: "programmatic"}, nil
	}
	rec := f.do(t, http.MethodGet, "/api/v1/me/analysis", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Focus on DILR sets.")

	rec = f.do(t, http.MethodPost, "/api/v1/me/analysis/followup", token, gin.H{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	f.analysis.followupFn = func(ctx context.Context, username, question string) (string, error) {
		return "", analysis.ErrAnalyzerUnavailable
	}
	rec = f.do(t, http.MethodPost, "/api/v1/me/analysis/followup", token, gin.H{"question": "How do I improve QA?"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	f.analysis.followupFn = func(ctx context.Context, username, question string) (string, error) {
		return "Drill arithmetic first.", nil
	}
	rec = f.do(t, http.MethodPost, "/api/v1/me/analysis/followup", token, gin.H{"question": "How do I improve QA?"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Drill arithmetic first.")
}
