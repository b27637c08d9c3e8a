package service

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/Dan9191/finance-insights/internal/config"
	"github.com/Dan9191/finance-insights/internal/models"
	"github.com/Dan9191/finance-insights/internal/repository"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC)

type fakeStore struct {
	users         map[string]*models.User
	snapshot      *models.FinancialSnapshot
	version       string
	loads         int
	mark          *models.PortfolioMark
	savedMarks    []models.PortfolioMark
	sentRefs      map[string]bool
	saved         []models.Notification
	snapshotErr   error
	notifCheckErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:    map[string]*models.User{},
		snapshot: &models.FinancialSnapshot{},
		version:  "v1",
		sentRefs: map[string]bool{},
	}
}

func (f *fakeStore) CreateUser(_ context.Context, user *models.User) error {
	user.ID = int64(len(f.users) + 1)
	f.users[user.Email] = user
	return nil
}

func (f *fakeStore) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	if u, ok := f.users[email]; ok {
		return u, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeStore) FindUserByID(_ context.Context, id int64) (*models.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeStore) SnapshotVersion(context.Context, int64) (string, error) {
	if f.snapshotErr != nil {
		return "", f.snapshotErr
	}
	return f.version, nil
}

func (f *fakeStore) LoadSnapshot(_ context.Context, userID int64, asOf time.Time) (*models.FinancialSnapshot, error) {
	f.loads++
	snap := *f.snapshot
	snap.UserID = userID
	snap.AsOf = asOf
	return &snap, nil
}

func (f *fakeStore) LatestPortfolioMark(context.Context, int64) (*models.PortfolioMark, error) {
	return f.mark, nil
}

func (f *fakeStore) SavePortfolioMark(_ context.Context, _ int64, mark models.PortfolioMark) error {
	f.savedMarks = append(f.savedMarks, mark)
	return nil
}

func (f *fakeStore) HasNotification(_ context.Context, _ int64, reference string, _ time.Time) (bool, error) {
	if f.notifCheckErr != nil {
		return false, f.notifCheckErr
	}
	return f.sentRefs[reference], nil
}

func (f *fakeStore) SaveNotification(_ context.Context, _ int64, n models.Notification) error {
	f.sentRefs[n.Reference] = true
	f.saved = append(f.saved, n)
	return nil
}

type fakeNotifier struct {
	sent []models.Notification
	fail bool
}

func (f *fakeNotifier) Notify(_ context.Context, _ *models.User, n models.Notification) error {
	if f.fail {
		return errors.New("smtp down")
	}
	f.sent = append(f.sent, n)
	return nil
}

type fakeRates struct {
	rate  float64
	err   error
	calls int
}

func (f *fakeRates) GetKeyRate(context.Context) (float64, error) {
	f.calls++
	return f.rate, f.err
}

func (f *fakeRates) Source() string {
	return "Test key rate"
}

func newTestService(t *testing.T, store *fakeStore, notifier Notifier, rates RateProvider) *Service {
	t.Helper()
	cache, err := NewCache(1000)
	require.NoError(t, err)
	t.Cleanup(cache.Close)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	svc := NewService(store, logger, &config.Config{JWTSecret: "test-secret", ForecastMonths: 6}, cache, notifier, rates)
	svc.now = func() time.Time { return testNow }
	return svc
}
