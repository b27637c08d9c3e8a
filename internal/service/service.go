package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Dan9191/finance-insights/internal/config"
	"github.com/Dan9191/finance-insights/internal/models"
	"github.com/Dan9191/finance-insights/internal/repository"
	"github.com/dgraph-io/ristretto"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

const (
	notificationDedupWindow = 30 * 24 * time.Hour
	referenceRateTTL        = time.Hour
	referenceRateKey        = "reference-rate"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrRateUnavailable    = errors.New("reference rate unavailable")
)

// Store is the data store the service reads snapshots from
type Store interface {
	CreateUser(ctx context.Context, user *models.User) error
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUserByID(ctx context.Context, id int64) (*models.User, error)
	SnapshotVersion(ctx context.Context, userID int64) (string, error)
	LoadSnapshot(ctx context.Context, userID int64, asOf time.Time) (*models.FinancialSnapshot, error)
	LatestPortfolioMark(ctx context.Context, userID int64) (*models.PortfolioMark, error)
	SavePortfolioMark(ctx context.Context, userID int64, mark models.PortfolioMark) error
	HasNotification(ctx context.Context, userID int64, reference string, since time.Time) (bool, error)
	SaveNotification(ctx context.Context, userID int64, n models.Notification) error
}

// Notifier is the notification sink
type Notifier interface {
	Notify(ctx context.Context, user *models.User, n models.Notification) error
}

// RateProvider supplies the reference lending rate and names its source
type RateProvider interface {
	GetKeyRate(ctx context.Context) (float64, error)
	Source() string
}

// Service handles business logic
type Service struct {
	repo     Store
	log      *logrus.Logger
	config   *config.Config
	cache    *ristretto.Cache
	notifier Notifier
	rates    RateProvider
	now      func() time.Time
}

// NewService initializes a new service. rates may be nil when no market data source is configured.
func NewService(repo Store, log *logrus.Logger, cfg *config.Config, cache *ristretto.Cache, notifier Notifier, rates RateProvider) *Service {
	return &Service{
		repo:     repo,
		log:      log,
		config:   cfg,
		cache:    cache,
		notifier: notifier,
		rates:    rates,
		now:      time.Now,
	}
}

// NewCache creates the result cache; every entry costs 1, so maxCost is the entry budget
func NewCache(maxCost int64) (*ristretto.Cache, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: maxCost * 10,
		MaxCost:     maxCost,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create cache: %w", err)
	}
	return cache, nil
}

// Register creates a new user with hashed password
func (s *Service) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hashedPassword),
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.log.Infof("User registered: %s", user.Email)
	return user, nil
}

// Login authenticates a user and returns a JWT token
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.repo.FindUserByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return "", err
		}
		return "", ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(user.ID, 10),
		ExpiresAt: jwt.NewNumericDate(s.now().Add(24 * time.Hour)),
	})
	tokenString, err := token.SignedString([]byte(s.config.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	s.log.Infof("User logged in: %s", user.Email)
	return tokenString, nil
}
