package services

import (
	"context"
	"fmt"
	"time"

	"centsible/internal/cache"
	"centsible/internal/core"
	"centsible/internal/storage"
)

const (
	reportingCacheSize = 1024
	reportingCacheTTL  = 5 * time.Minute
	activityLimit      = 50
)

// ReportingService serves the derived read models: dashboard balance, group
// breakdowns, and the activity feed. Dashboard and breakdown views are
// cached per user and invalidated on every ledger write.
type ReportingService struct {
	storage    *storage.SQLiteRepository
	dashboards *cache.LRUCache[core.DashboardBalance]
	breakdowns *cache.LRUCache[core.Breakdown]
}

func NewReportingService(storage *storage.SQLiteRepository) *ReportingService {
	return &ReportingService{
		storage:    storage,
		dashboards: cache.NewLRUCache[core.DashboardBalance](reportingCacheSize, reportingCacheTTL),
		breakdowns: cache.NewLRUCache[core.Breakdown](reportingCacheSize, reportingCacheTTL),
	}
}

// RegisterCaches attaches the reporting caches to a cleanup manager.
func (s *ReportingService) RegisterCaches(m *cache.Manager) {
	m.Register(s.dashboards)
	m.Register(s.breakdowns)
}

// InvalidateUsers drops every cached view belonging to the given users.
func (s *ReportingService) InvalidateUsers(userIDs ...int64) {
	for _, id := range userIDs {
		s.dashboards.DeletePrefix(dashboardKey(id))
		s.breakdowns.DeletePrefix(fmt.Sprintf("breakdown:%d:", id))
	}
}

// Dashboard folds the user's balance rows into the overall net view.
func (s *ReportingService) Dashboard(ctx context.Context, userID int64) (core.DashboardBalance, error) {
	key := dashboardKey(userID)
	if cached, ok := s.dashboards.Get(key); ok {
		return cached, nil
	}

	balances, err := s.storage.ListBalancesForUser(ctx, userID)
	if err != nil {
		return core.DashboardBalance{}, fmt.Errorf("list balances: %w", err)
	}

	dashboard := core.DashboardFromBalances(userID, balances)
	s.dashboards.Set(key, dashboard)
	return dashboard, nil
}

// GroupBreakdown partitions the user's balances within one group by
// direction. Members only.
func (s *ReportingService) GroupBreakdown(ctx context.Context, userID, groupID int64) (core.Breakdown, error) {
	ok, err := s.storage.IsMember(ctx, groupID, userID)
	if err != nil {
		return core.Breakdown{}, err
	}
	if !ok {
		return core.Breakdown{}, ErrNotMember
	}

	key := fmt.Sprintf("breakdown:%d:%d", userID, groupID)
	if cached, ok := s.breakdowns.Get(key); ok {
		return cached, nil
	}

	balances, err := s.storage.ListGroupBalances(ctx, groupID)
	if err != nil {
		return core.Breakdown{}, fmt.Errorf("list group balances: %w", err)
	}

	breakdown := core.BreakdownFromBalances(userID, groupID, balances)
	s.breakdowns.Set(key, breakdown)
	return breakdown, nil
}

// Activity returns the user's merged expense and payment feed, newest
// first. Always read fresh; the feed changes on every write and is cheap to
// assemble.
func (s *ReportingService) Activity(ctx context.Context, userID int64) ([]core.ActivityEntry, error) {
	expenses, err := s.storage.ListExpensesInvolvingUser(ctx, userID, activityLimit)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	payments, err := s.storage.ListPaymentsInvolvingUser(ctx, userID, activityLimit)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return core.MergeActivity(userID, expenses, payments), nil
}

// The trailing colon keeps user 1's key from prefix-matching user 10's.
func dashboardKey(userID int64) string {
	return fmt.Sprintf("balance:%d:", userID)
}
