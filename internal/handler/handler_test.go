package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Dan9191/finance-insights/internal/middleware"
	"github.com/Dan9191/finance-insights/internal/models"
	"github.com/Dan9191/finance-insights/internal/service"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeService struct {
	forecastMonths int
	err            error
	rateErr        error
}

func (f *fakeService) Register(_ context.Context, username, email, _ string) (*models.User, error) {
	return &models.User{ID: 7, Username: username, Email: email, PasswordHash: "hash"}, f.err
}

func (f *fakeService) Login(context.Context, string, string) (string, error) {
	return "token-7", f.err
}

func (f *fakeService) Insights(context.Context, int64) (models.InsightReport, error) {
	return models.InsightReport{
		Insights:      []models.Insight{{Type: models.InsightWarning, Title: "Budget", Priority: models.PriorityHigh}},
		Notifications: []models.Notification{},
	}, f.err
}

func (f *fakeService) HealthScore(context.Context, int64) (models.HealthScoreResult, error) {
	return models.HealthScoreResult{Score: 82, Grade: "Very Good", SavingsRate: 15}, f.err
}

func (f *fakeService) Forecast(_ context.Context, _ int64, months int) (models.ForecastResult, error) {
	f.forecastMonths = months
	return models.ForecastResult{Predictions: []models.MonthlyProjection{}}, f.err
}

func (f *fakeService) Anomalies(context.Context, int64) ([]models.Anomaly, error) {
	return []models.Anomaly{}, f.err
}

func (f *fakeService) Opportunities(context.Context, int64) ([]models.Opportunity, error) {
	return []models.Opportunity{}, f.err
}

func (f *fakeService) ReferenceRate(context.Context) (float64, error) {
	return 21, f.rateErr
}

func (f *fakeService) ReferenceSource() string {
	return "Bank of Russia key rate"
}

// asUser stands in for the JWT middleware
func asUser(id int64) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(middleware.WithUserID(r.Context(), id)))
		})
	}
}

func newRouter(svc InsightService) *mux.Router {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	r := mux.NewRouter()
	NewHandler(svc, logger).Routes(r, asUser(7))
	return r
}

func serve(r http.Handler, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestRegister(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"created", `{"username":"ann","email":"ann@example.com","password":"pw"}`, http.StatusCreated},
		{"malformed body", `{`, http.StatusBadRequest},
		{"missing password", `{"username":"ann","email":"ann@example.com"}`, http.StatusBadRequest},
		{"bad email", `{"username":"ann","email":"nope","password":"pw"}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(newRouter(&fakeService{}), http.MethodPost, "/api/v1/register", tt.body)
			assert.Equal(t, tt.status, rec.Code)
		})
	}

	t.Run("password hash is not exposed", func(t *testing.T) {
		rec := serve(newRouter(&fakeService{}), http.MethodPost, "/api/v1/register",
			`{"username":"ann","email":"ann@example.com","password":"pw"}`)
		assert.NotContains(t, rec.Body.String(), "hash")
	})
}

func TestLogin(t *testing.T) {
	rec := serve(newRouter(&fakeService{}), http.MethodPost, "/api/v1/login", `{"email":"a@b.c","password":"pw"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"token":"token-7"}`, rec.Body.String())

	rec = serve(newRouter(&fakeService{err: service.ErrInvalidCredentials}), http.MethodPost, "/api/v1/login", `{"email":"a@b.c","password":"x"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestForecastMonths(t *testing.T) {
	tests := []struct {
		query  string
		status int
		months int
	}{
		{"", http.StatusOK, 0},
		{"?months=12", http.StatusOK, 12},
		{"?months=24", http.StatusOK, 24},
		{"?months=0", http.StatusBadRequest, 0},
		{"?months=25", http.StatusBadRequest, 0},
		{"?months=six", http.StatusBadRequest, 0},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("query %q", tt.query), func(t *testing.T) {
			svc := &fakeService{}
			rec := serve(newRouter(svc), http.MethodGet, "/api/v1/forecast"+tt.query, "")
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.months, svc.forecastMonths)
		})
	}
}

func TestAnalyticsEndpoints(t *testing.T) {
	for _, path := range []string{"/insights", "/health-score", "/anomalies", "/opportunities"} {
		t.Run(path, func(t *testing.T) {
			rec := serve(newRouter(&fakeService{}), http.MethodGet, "/api/v1"+path, "")
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.True(t, json.Valid(rec.Body.Bytes()))
		})
	}

	t.Run("health score body", func(t *testing.T) {
		rec := serve(newRouter(&fakeService{}), http.MethodGet, "/api/v1/health-score", "")
		var body models.HealthScoreResult
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, 82, body.Score)
		assert.Equal(t, "Very Good", body.Grade)
		assert.Contains(t, rec.Body.String(), `"savings_rate":"15.0"`)
	})

	t.Run("service failure", func(t *testing.T) {
		rec := serve(newRouter(&fakeService{err: errors.New("db down")}), http.MethodGet, "/api/v1/insights", "")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "db down")
	})
}

func TestProtectedRoutesRequireUser(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	h := NewHandler(&fakeService{}, logger)

	rec := httptest.NewRecorder()
	h.Insights(rec, httptest.NewRequest(http.MethodGet, "/api/v1/insights", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestKeyRate(t *testing.T) {
	rec := serve(newRouter(&fakeService{}), http.MethodGet, "/api/v1/key-rate", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"key_rate":21,"source":"Bank of Russia key rate"}`, rec.Body.String())

	rec = serve(newRouter(&fakeService{rateErr: service.ErrRateUnavailable}), http.MethodGet, "/api/v1/key-rate", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}
