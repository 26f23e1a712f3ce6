package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/ideabank-backend/internal/domain/content"
	httpH "github.com/yungbote/ideabank-backend/internal/http/handlers"
	httpMW "github.com/yungbote/ideabank-backend/internal/http/middleware"
	"github.com/yungbote/ideabank-backend/internal/http/response"
	"github.com/yungbote/ideabank-backend/internal/modules/lineage"
	"github.com/yungbote/ideabank-backend/internal/modules/plan"
	pkgerrors "github.com/yungbote/ideabank-backend/internal/pkg/errors"
	"github.com/yungbote/ideabank-backend/internal/pkg/logger"
	"github.com/yungbote/ideabank-backend/internal/services"
)

type fakeSuggestions struct{ got services.SuggestRequest }

func (f *fakeSuggestions) Suggest(ctx context.Context, req services.SuggestRequest) ([]content.AgentSuggestion, error) {
	f.got = req
	return []content.AgentSuggestion{{ID: "s1", Type: content.SuggestionSinglePost, Title: "Mug", Confidence: 120}}, nil
}

type fakeGenerations struct{}

func (fakeGenerations) List(ctx context.Context, userID uuid.UUID, limit int) ([]lineage.View, error) {
	return []lineage.View{}, nil
}

func (fakeGenerations) Get(ctx context.Context, userID, id uuid.UUID) (*lineage.View, error) {
	return nil, pkgerrors.ErrNotFound
}

func (fakeGenerations) Edit(ctx context.Context, userID, id uuid.UUID, editPrompt string) (*lineage.View, error) {
	return nil, &lineage.IntegrityError{Reason: lineage.ReasonNoContinuation, ParentID: id}
}

type fakePlans struct{ userID uuid.UUID }

func (f *fakePlans) Create(ctx context.Context, userID uuid.UUID, s content.AgentSuggestion) (*services.PlanView, error) {
	f.userID = userID
	return &services.PlanView{ID: uuid.NewString(), Suggestion: s, Status: content.PlanQueued, IsQueued: true}, nil
}

func (f *fakePlans) Get(ctx context.Context, userID, id uuid.UUID) (*services.PlanView, error) {
	return nil, pkgerrors.ErrNotFound
}

func (f *fakePlans) List(ctx context.Context, userID uuid.UUID, limit int) ([]*services.PlanView, error) {
	return []*services.PlanView{{ID: uuid.NewString(), Status: content.PlanComplete, Progress: 1, IsComplete: true}}, nil
}

func (f *fakePlans) Retry(ctx context.Context, userID, id uuid.UUID) (*services.PlanView, error) {
	return nil, plan.ErrPlanCancelled
}

func (f *fakePlans) Cancel(ctx context.Context, userID, id uuid.UUID) (*services.PlanView, error) {
	return &services.PlanView{ID: id.String(), Status: content.PlanCancelled, CancelRequested: true}, nil
}

func (f *fakePlans) Wait() {}

type testServer struct {
	handler http.Handler
	bearer  string
	csrf    string
	sugg    *fakeSuggestions
	plans   *fakePlans
	userID  uuid.UUID
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := logger.Nop()
	auth := services.NewAuthService(log, "jwt-secret")
	csrf := services.NewCSRFService("csrf-secret")
	sugg := &fakeSuggestions{}
	plans := &fakePlans{}

	srv := NewServer(RouterConfig{
		Log:               log,
		AuthMiddleware:    httpMW.NewAuthMiddleware(log, auth),
		CSRF:              csrf,
		CSRFEnforce:       true,
		HealthHandler:     httpH.NewHealthHandler(),
		CSRFHandler:       httpH.NewCSRFHandler(csrf),
		SuggestionHandler: httpH.NewSuggestionHandler(sugg),
		GenerationHandler: httpH.NewGenerationHandler(fakeGenerations{}),
		PlanHandler:       httpH.NewPlanHandler(plans),
	})

	userID := uuid.New()
	bearer, err := auth.IssueAccessToken(userID, time.Hour)
	require.NoError(t, err)
	token, _, err := csrf.Issue()
	require.NoError(t, err)
	return &testServer{handler: srv.Handler(), bearer: bearer, csrf: token, sugg: sugg, plans: plans, userID: userID}
}

func (ts *testServer) do(t *testing.T, method, path string, body any, withCSRF bool) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+ts.bearer)
	if withCSRF {
		req.Header.Set(httpMW.HeaderCSRFToken, ts.csrf)
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) response.ErrorEnvelope {
	t.Helper()
	var env response.ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestRouterPublicRoutes(t *testing.T) {
	ts := newTestServer(t)

	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthcheck", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/csrf-token", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var out struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.NotEmpty(t, out.Token)
}

func TestRouterSuggestRequiresAuthAndCSRF(t *testing.T) {
	ts := newTestServer(t)
	body := map[string]any{"productIds": []string{"p1"}, "maxSuggestions": 3, "mode": "fast"}

	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/idea-bank/suggest", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/idea-bank/suggest", body, false)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, "csrf_invalid", decodeEnvelope(t, rec).Error.Code)

	rec = ts.do(t, http.MethodPost, "/api/v1/idea-bank/suggest", body, true)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, []string{"p1"}, ts.sugg.got.ProductIDs)
	require.Equal(t, 3, ts.sugg.got.MaxSuggestions)
	require.Equal(t, "fast", ts.sugg.got.Mode)

	var out struct {
		Suggestions []content.AgentSuggestion `json:"suggestions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out.Suggestions, 1)
	require.Equal(t, 120, out.Suggestions[0].Confidence)
}

func TestRouterGenerationErrors(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/generations/"+uuid.NewString()+"/edit", map[string]string{"editPrompt": "blue"}, true)
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, "no_continuation", decodeEnvelope(t, rec).Error.Code)

	rec = ts.do(t, http.MethodGet, "/api/generations/"+uuid.NewString(), nil, false)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/generations/not-a-uuid", nil, false)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "invalid_generation_id", decodeEnvelope(t, rec).Error.Code)
}

func TestRouterPlans(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/plans", map[string]any{
		"suggestion": map[string]any{"id": "s1", "type": "campaign", "title": "Launch"},
	}, true)
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Equal(t, ts.userID, ts.plans.userID)

	rec = ts.do(t, http.MethodPost, "/api/plans", map[string]any{}, true)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	id := uuid.NewString()
	rec = ts.do(t, http.MethodPost, "/api/plans/"+id+"/retry", nil, true)
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, "plan_cancelled", decodeEnvelope(t, rec).Error.Code)

	rec = ts.do(t, http.MethodPost, "/api/plans/"+id+"/cancel", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	var view services.PlanView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.Equal(t, content.PlanCancelled, view.Status)

	rec = ts.do(t, http.MethodGet, "/api/plans/"+id, nil, false)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/plans?limit=5", nil, false)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []services.PlanView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	require.True(t, list[0].IsComplete)
}
