package usecase_test

import (
	"context"
	"sync"

	"github.com/vitos/fx_margin_trader/internal/domain"
)

// mockBroker is a hand-rolled broker double. Fields left nil fall back
// to benign defaults so each test only sets what it asserts on.
type mockBroker struct {
	account     *domain.AccountState
	accountErr  error
	snapshot    *domain.MarketSnapshot
	snapshotErr error
	positions   []domain.PositionSummary
	spec        *domain.SymbolSpec
	specErr     error

	placeResult *domain.ExecutionOutcome
	placeErr    error
	closeResult *domain.ExecutionOutcome
	closeErr    error

	placed []domain.TradeAction
	closed []string
}

func (m *mockBroker) Quote(ctx context.Context, symbol string) (*domain.MarketSnapshot, error) {
	if m.snapshotErr != nil {
		return nil, m.snapshotErr
	}
	if m.snapshot != nil {
		return m.snapshot, nil
	}
	return &domain.MarketSnapshot{Symbol: symbol, Bid: 150.00, Ask: 150.05}, nil
}

func (m *mockBroker) Positions(ctx context.Context) ([]domain.PositionSummary, error) {
	return m.positions, nil
}

func (m *mockBroker) AccountState(ctx context.Context) (*domain.AccountState, error) {
	if m.accountErr != nil {
		return nil, m.accountErr
	}
	if m.account != nil {
		return m.account, nil
	}
	return &domain.AccountState{Balance: 1000000, MaxLeverage: 25, MarginMaintenancePct: 9.99}, nil
}

func (m *mockBroker) Place(ctx context.Context, action domain.TradeAction) (*domain.ExecutionOutcome, error) {
	m.placed = append(m.placed, action)
	if m.placeResult != nil || m.placeErr != nil {
		return m.placeResult, m.placeErr
	}
	return &domain.ExecutionOutcome{
		Status:    domain.StatusExecuted,
		OrderID:   "order-1",
		RequestID: action.RequestID,
	}, nil
}

func (m *mockBroker) Close(ctx context.Context, symbol string, amount float64) (*domain.ExecutionOutcome, error) {
	m.closed = append(m.closed, symbol)
	if m.closeResult != nil || m.closeErr != nil {
		return m.closeResult, m.closeErr
	}
	return domain.NewOutcome(domain.StatusClosedAll, "", nil), nil
}

func (m *mockBroker) SymbolSpec(ctx context.Context, symbol string) (*domain.SymbolSpec, error) {
	if m.specErr != nil {
		return nil, m.specErr
	}
	if m.spec != nil {
		return m.spec, nil
	}
	return &domain.SymbolSpec{Symbol: symbol, MinOrderSize: 1000, SizeStep: 1000}, nil
}

// mockAudit collects appended records in memory.
type mockAudit struct {
	mu      sync.Mutex
	records []*domain.AuditRecord
	err     error
}

func (m *mockAudit) Append(rec *domain.AuditRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.records = append(m.records, rec)
	return nil
}

func (m *mockAudit) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

func (m *mockAudit) last() *domain.AuditRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.records) == 0 {
		return nil
	}
	return m.records[len(m.records)-1]
}

// mockArming reports fixed interlock flags.
type mockArming struct {
	configured bool
	signal     bool
}

func (m *mockArming) LiveConfigured() bool { return m.configured }
func (m *mockArming) ArmedSignal() bool    { return m.signal }

// fixedVix always returns the same value.
type fixedVix struct {
	name  string
	value float64
	err   error
}

func (f *fixedVix) Name() string { return f.name }
func (f *fixedVix) FetchVix(ctx context.Context) (float64, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.value, nil
}

// fixedSwap always returns the same points.
type fixedSwap struct {
	name   string
	points *domain.SwapPoints
	err    error
}

func (f *fixedSwap) Name() string { return f.name }
func (f *fixedSwap) SwapPoints(ctx context.Context, symbol string) (*domain.SwapPoints, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.points, nil
}

// mockNews returns canned headlines.
type mockNews struct {
	items []domain.NewsItem
	err   error
}

func (m *mockNews) RecentNews(ctx context.Context, symbol string, limit int) ([]domain.NewsItem, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.items, nil
}

// mockDecider replays a scripted action and captures the request.
type mockDecider struct {
	action  *domain.TradeAction
	err     error
	calls   int
	lastReq *domain.DecisionRequest
}

func (m *mockDecider) Decide(ctx context.Context, req *domain.DecisionRequest) (*domain.TradeAction, error) {
	m.calls++
	m.lastReq = req
	if m.err != nil {
		return nil, m.err
	}
	copied := *m.action
	return &copied, nil
}
