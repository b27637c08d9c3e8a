package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"strconv"

	"github.com/Dan9191/finance-insights/internal/middleware"
	"github.com/Dan9191/finance-insights/internal/models"
	"github.com/Dan9191/finance-insights/internal/service"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

const (
	minForecastMonths = 1
	maxForecastMonths = 24
)

// InsightService is the part of the service layer exposed over HTTP
type InsightService interface {
	Register(ctx context.Context, username, email, password string) (*models.User, error)
	Login(ctx context.Context, email, password string) (string, error)
	Insights(ctx context.Context, userID int64) (models.InsightReport, error)
	HealthScore(ctx context.Context, userID int64) (models.HealthScoreResult, error)
	Forecast(ctx context.Context, userID int64, months int) (models.ForecastResult, error)
	Anomalies(ctx context.Context, userID int64) ([]models.Anomaly, error)
	Opportunities(ctx context.Context, userID int64) ([]models.Opportunity, error)
	ReferenceRate(ctx context.Context) (float64, error)
	ReferenceSource() string
}

type Handler struct {
	svc InsightService
	log *logrus.Logger
}

func NewHandler(svc InsightService, log *logrus.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// Routes registers the API on r; analytics routes go through auth
func (h *Handler) Routes(r *mux.Router, auth mux.MiddlewareFunc) {
	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/register", h.Register).Methods(http.MethodPost)
	api.HandleFunc("/login", h.Login).Methods(http.MethodPost)
	api.HandleFunc("/key-rate", h.KeyRate).Methods(http.MethodGet)

	protected := api.NewRoute().Subrouter()
	protected.Use(auth)
	protected.HandleFunc("/insights", h.Insights).Methods(http.MethodGet)
	protected.HandleFunc("/health-score", h.HealthScore).Methods(http.MethodGet)
	protected.HandleFunc("/forecast", h.Forecast).Methods(http.MethodGet)
	protected.HandleFunc("/anomalies", h.Anomalies).Methods(http.MethodGet)
	protected.HandleFunc("/opportunities", h.Opportunities).Methods(http.MethodGet)
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register handles user registration
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Username == "" || req.Password == "" {
		http.Error(w, "Username and password are required", http.StatusBadRequest)
		return
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		http.Error(w, "Invalid email", http.StatusBadRequest)
		return
	}

	user, err := h.svc.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, user)
}

// Login handles user authentication
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	token, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

// Insights returns the ranked insight feed
func (h *Handler) Insights(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	report, err := h.svc.Insights(r.Context(), userID)
	h.respond(w, report, err)
}

// HealthScore returns the financial health score
func (h *Handler) HealthScore(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	result, err := h.svc.HealthScore(r.Context(), userID)
	h.respond(w, result, err)
}

// Forecast returns the balance projection; months defaults to the configured horizon
func (h *Handler) Forecast(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	months := 0
	if raw := r.URL.Query().Get("months"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < minForecastMonths || n > maxForecastMonths {
			http.Error(w, "months must be between 1 and 24", http.StatusBadRequest)
			return
		}
		months = n
	}

	result, err := h.svc.Forecast(r.Context(), userID, months)
	h.respond(w, result, err)
}

// Anomalies returns unusual expenses of the current month
func (h *Handler) Anomalies(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	anomalies, err := h.svc.Anomalies(r.Context(), userID)
	h.respond(w, anomalies, err)
}

// Opportunities returns the ranked savings opportunities
func (h *Handler) Opportunities(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	opportunities, err := h.svc.Opportunities(r.Context(), userID)
	h.respond(w, opportunities, err)
}

// KeyRate returns the reference lending rate and its source
func (h *Handler) KeyRate(w http.ResponseWriter, r *http.Request) {
	rate, err := h.svc.ReferenceRate(r.Context())
	h.respond(w, map[string]any{"key_rate": rate, "source": h.svc.ReferenceSource()}, err)
}

func (h *Handler) userID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
	}
	return userID, ok
}

func (h *Handler) respond(w http.ResponseWriter, body any, err error) {
	if err != nil {
		h.fail(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, body)
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
	case errors.Is(err, service.ErrUserNotFound):
		http.Error(w, "User not found", http.StatusNotFound)
	case errors.Is(err, service.ErrRateUnavailable):
		h.log.Warnf("Reference rate request failed: %v", err)
		http.Error(w, "Key rate unavailable", http.StatusBadGateway)
	default:
		h.log.Errorf("Request failed: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.log.Errorf("Failed to encode response: %v", err)
	}
}
