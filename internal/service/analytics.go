package service

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/Dan9191/finance-insights/internal/analytics"
	"github.com/Dan9191/finance-insights/internal/models"
	"github.com/Dan9191/finance-insights/internal/repository"
	"github.com/sirupsen/logrus"
)

// withSnapshot returns compute's result for the user's current snapshot. Results
// are memoized per snapshot version and calendar month, so repeated requests
// skip both the snapshot load and the computation. Cached values are shared;
// the exported methods hand out copies.
func withSnapshot[T any](ctx context.Context, s *Service, userID int64, kind string, compute func(*models.FinancialSnapshot) T) (T, error) {
	var zero T

	version, err := s.repo.SnapshotVersion(ctx, userID)
	if err != nil {
		return zero, err
	}
	now := s.now()
	key := fmt.Sprintf("%d|%s|%s|%s", userID, models.MonthKey(now), version, kind)
	if cached, ok := s.cache.Get(key); ok {
		if result, ok := cached.(T); ok {
			return result, nil
		}
	}

	snap, err := s.repo.LoadSnapshot(ctx, userID, now)
	if err != nil {
		return zero, err
	}
	result := compute(snap)
	s.cache.Set(key, result, 1)
	return result, nil
}

// Anomalies returns unusual expenses of the current month
func (s *Service) Anomalies(ctx context.Context, userID int64) ([]models.Anomaly, error) {
	anomalies, err := withSnapshot(ctx, s, userID, "anomalies", func(snap *models.FinancialSnapshot) []models.Anomaly {
		return analytics.DetectAnomalies(snap.Expenses())
	})
	return slices.Clone(anomalies), err
}

// HealthScore returns the financial health score of the current month
func (s *Service) HealthScore(ctx context.Context, userID int64) (models.HealthScoreResult, error) {
	result, err := withSnapshot(ctx, s, userID, "health", analytics.ScoreHealth)
	return result.Clone(), err
}

// Forecast projects the balance for the given number of months
func (s *Service) Forecast(ctx context.Context, userID int64, months int) (models.ForecastResult, error) {
	if months <= 0 {
		months = s.config.ForecastMonths
	}
	result, err := withSnapshot(ctx, s, userID, fmt.Sprintf("forecast:%d", months), func(snap *models.FinancialSnapshot) models.ForecastResult {
		return analytics.ForecastBalance(snap.Transactions, months)
	})
	return result.Clone(), err
}

// Opportunities returns the ranked savings opportunities
func (s *Service) Opportunities(ctx context.Context, userID int64) ([]models.Opportunity, error) {
	opts := s.analyticsOptions(ctx)
	opportunities, err := withSnapshot(ctx, s, userID, fmt.Sprintf("opportunities:%.2f", opts.ReferenceRate), func(snap *models.FinancialSnapshot) []models.Opportunity {
		return analytics.DetectOpportunities(snap, opts)
	})
	return slices.Clone(opportunities), err
}

// Insights returns the ranked insights and pending notifications for the user
func (s *Service) Insights(ctx context.Context, userID int64) (models.InsightReport, error) {
	previous, err := s.repo.LatestPortfolioMark(ctx, userID)
	if err != nil {
		return models.InsightReport{}, err
	}
	opts := s.analyticsOptions(ctx)

	kind := fmt.Sprintf("insights:%.2f", opts.ReferenceRate)
	if previous != nil {
		kind += fmt.Sprintf(":%d", previous.RecordedAt.Unix())
	}
	report, err := withSnapshot(ctx, s, userID, kind, func(snap *models.FinancialSnapshot) models.InsightReport {
		return analytics.GenerateInsights(snap, previous, opts)
	})
	return report.Clone(), err
}

// ReferenceSource names the reference rate's source, empty without a provider
func (s *Service) ReferenceSource() string {
	if s.rates == nil {
		return ""
	}
	return s.rates.Source()
}

// ReferenceRate returns the reference lending rate, cached for an hour
func (s *Service) ReferenceRate(ctx context.Context) (float64, error) {
	if s.rates == nil {
		return 0, ErrRateUnavailable
	}
	if cached, ok := s.cache.Get(referenceRateKey); ok {
		if rate, ok := cached.(float64); ok {
			return rate, nil
		}
	}
	rate, err := s.rates.GetKeyRate(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRateUnavailable, err)
	}
	s.cache.SetWithTTL(referenceRateKey, rate, 1, referenceRateTTL)
	return rate, nil
}

// analyticsOptions carries the reference rate into the analyzers when it is available
func (s *Service) analyticsOptions(ctx context.Context) analytics.Options {
	if s.rates == nil {
		return analytics.Options{}
	}
	rate, err := s.ReferenceRate(ctx)
	if err != nil {
		s.log.Warnf("Continuing without reference rate: %v", err)
		return analytics.Options{}
	}
	return analytics.Options{ReferenceRate: rate, ReferenceSource: s.rates.Source()}
}

// DispatchNotifications sends each notification unless the same reference was
// sent within the last 30 days. Delivery failures are logged and skipped.
func (s *Service) DispatchNotifications(ctx context.Context, user *models.User, notifications []models.Notification) int {
	since := s.now().Add(-notificationDedupWindow)
	sent := 0
	for _, n := range notifications {
		entry := s.log.WithFields(logrus.Fields{"user_id": user.ID, "reference": n.Reference})

		exists, err := s.repo.HasNotification(ctx, user.ID, n.Reference, since)
		if err != nil {
			entry.Errorf("Failed to check for existing notification: %v", err)
			continue
		}
		if exists {
			entry.Debug("Notification already sent")
			continue
		}
		if err := s.notifier.Notify(ctx, user, n); err != nil {
			entry.Errorf("Failed to deliver notification: %v", err)
			continue
		}
		if err := s.repo.SaveNotification(ctx, user.ID, n); err != nil {
			entry.Errorf("Failed to record notification: %v", err)
		}
		sent++
	}
	return sent
}

// RunDigest generates the user's insights, delivers new notifications and
// records the current portfolio value for the next run. It returns the number of
// notifications sent.
func (s *Service) RunDigest(ctx context.Context, userID int64) (int, error) {
	user, err := s.repo.FindUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, ErrUserNotFound
		}
		return 0, err
	}

	report, err := s.Insights(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to generate insights: %w", err)
	}
	sent := s.DispatchNotifications(ctx, user, report.Notifications)

	value, err := withSnapshot(ctx, s, userID, "portfolio", func(snap *models.FinancialSnapshot) float64 {
		return snap.PortfolioValue().InexactFloat64()
	})
	if err != nil {
		return sent, fmt.Errorf("failed to value portfolio: %w", err)
	}
	if err := s.repo.SavePortfolioMark(ctx, userID, models.PortfolioMark{Value: value, RecordedAt: s.now()}); err != nil {
		return sent, err
	}

	s.log.WithFields(logrus.Fields{
		"user_id":       userID,
		"insights":      len(report.Insights),
		"notifications": sent,
	}).Info("Digest completed")
	return sent, nil
}
