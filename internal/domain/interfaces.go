package domain

import "context"

// Broker abstracts one margin-trading broker connection. Place and
// Close always return an outcome; the error, when non-nil, carries the
// typed failure (NetworkError, APIError, SafetyBlockedError,
// PartialFailureError) so callers can branch on kind.
type Broker interface {
	Quote(ctx context.Context, symbol string) (*MarketSnapshot, error)
	Positions(ctx context.Context) ([]PositionSummary, error)
	AccountState(ctx context.Context) (*AccountState, error)
	Place(ctx context.Context, action TradeAction) (*ExecutionOutcome, error)
	Close(ctx context.Context, symbol string, amount float64) (*ExecutionOutcome, error)
	SymbolSpec(ctx context.Context, symbol string) (*SymbolSpec, error)
}

// VixSource yields a volatility index value, or ErrUnavailable.
type VixSource interface {
	Name() string
	FetchVix(ctx context.Context) (float64, error)
}

// SwapSource yields daily swap points for a symbol, or ErrUnavailable.
type SwapSource interface {
	Name() string
	SwapPoints(ctx context.Context, symbol string) (*SwapPoints, error)
}

// NewsSource supplies recent headlines for the decision payload.
type NewsSource interface {
	RecentNews(ctx context.Context, symbol string, limit int) ([]NewsItem, error)
}

// DecisionClient is the opaque external decision generator.
type DecisionClient interface {
	Decide(ctx context.Context, req *DecisionRequest) (*TradeAction, error)
}

// AuditWriter appends one record per decision. Implementations must
// only ever append, never truncate or rewrite.
type AuditWriter interface {
	Append(rec *AuditRecord) error
}

// ExecutionStore persists execution history for post-hoc analysis.
type ExecutionStore interface {
	SaveExecution(ctx context.Context, rec *AuditRecord) error
	ListExecutions(ctx context.Context, limit int) ([]*AuditRecord, error)
}
