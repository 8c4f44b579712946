package usecase

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/vitos/fx_margin_trader/internal/domain"
	"go.uber.org/zap"
)

// ArmingStatus reports the live-trading interlock flags recorded on
// every audit line.
type ArmingStatus interface {
	LiveConfigured() bool
	ArmedSignal() bool
}

// SizingConfig is the fallback order-size granularity used when the
// broker's symbol spec cannot be fetched.
type SizingConfig struct {
	MinOrderSize float64
	SizeStep     float64
}

// ExecutionService turns a proposed action into a broker call and an
// audit record. Every call to Execute produces exactly one outcome and
// exactly one audit line, on every branch; it never propagates an
// error to the caller.
type ExecutionService struct {
	broker domain.Broker
	audit  domain.AuditWriter
	store  domain.ExecutionStore
	arming ArmingStatus
	sizing SizingConfig
	log    *zap.Logger
}

// NewExecutionService wires the service. store may be nil when no
// history persistence is configured.
func NewExecutionService(broker domain.Broker, audit domain.AuditWriter, store domain.ExecutionStore, arming ArmingStatus, sizing SizingConfig, log *zap.Logger) *ExecutionService {
	if sizing.MinOrderSize <= 0 {
		sizing.MinOrderSize = 1000
	}
	if sizing.SizeStep <= 0 {
		sizing.SizeStep = 1000
	}
	return &ExecutionService{
		broker: broker,
		audit:  audit,
		store:  store,
		arming: arming,
		sizing: sizing,
		log:    log,
	}
}

// Execute dispatches one action. The deferred audit write runs on every
// return path so no decision is ever silent.
func (s *ExecutionService) Execute(ctx context.Context, action domain.TradeAction) (outcome *domain.ExecutionOutcome) {
	if action.RequestID == "" {
		action.RequestID = uuid.NewString()
	}

	defer func() {
		if outcome == nil {
			outcome = domain.NewOutcome(domain.StatusError, action.RequestID, map[string]any{
				"error": "no outcome produced",
			})
		}
		if outcome.RequestID == "" {
			outcome.RequestID = action.RequestID
		}
		s.record(ctx, action, outcome)
	}()

	s.log.Info("executing action",
		zap.String("action", string(action.Action)),
		zap.String("symbol", action.Symbol),
		zap.String("request_id", action.RequestID))

	switch action.Action {
	case domain.ActionBuy, domain.ActionSell:
		units, reason, err := s.resolveUnits(ctx, action)
		if err != nil {
			s.log.Error("sizing failed", zap.Error(err))
			return domain.NewOutcome(domain.StatusError, action.RequestID, map[string]any{
				"error": err.Error(),
			})
		}
		if units <= 0 {
			s.log.Warn("calculated lot size is zero, skipping order", zap.String("reason", reason))
			return domain.NewOutcome(domain.StatusHold, action.RequestID, map[string]any{
				"reason": reason,
			})
		}
		action.Units = units

		out, err := s.broker.Place(ctx, action)
		if err != nil {
			s.log.Error("order execution failed", zap.Error(err))
		}
		return out

	case domain.ActionExit:
		out, err := s.broker.Close(ctx, action.Symbol, action.Units)
		if err != nil {
			s.log.Error("close execution failed", zap.Error(err))
		}
		return out

	case domain.ActionHold:
		s.log.Info("holding", zap.String("rationale", action.Rationale))
		return domain.NewOutcome(domain.StatusHold, action.RequestID, map[string]any{
			"rationale": action.Rationale,
		})

	default:
		return domain.NewOutcome(domain.StatusError, action.RequestID, map[string]any{
			"error": "unknown action type: " + string(action.Action),
		})
	}
}

// resolveUnits decides the order size. An explicitly positive size from
// the caller is honored after step/minimum validation, not recomputed;
// otherwise units = balance * min(suggested, max) leverage / reference
// price, floored to the step. Sizing is against total balance rather
// than free margin; see DESIGN.md.
func (s *ExecutionService) resolveUnits(ctx context.Context, action domain.TradeAction) (float64, string, error) {
	spec := s.symbolSpec(ctx, action.Symbol)

	if action.Units > 0 {
		units := math.Floor(action.Units/spec.SizeStep) * spec.SizeStep
		if units < spec.MinOrderSize {
			return 0, "requested units below minimum order size", nil
		}
		return units, "", nil
	}

	account, err := s.broker.AccountState(ctx)
	if err != nil {
		return 0, "", err
	}
	snapshot, err := s.broker.Quote(ctx, action.Symbol)
	if err != nil {
		return 0, "", err
	}

	price := snapshot.Bid
	if action.Action == domain.ActionBuy {
		price = snapshot.Ask
	}
	if price <= 0 {
		return 0, "no usable reference price", nil
	}

	leverage := action.SuggestedLeverage
	if account.MaxLeverage > 0 && leverage > account.MaxLeverage {
		leverage = account.MaxLeverage
	}

	rawUnits := account.Balance * leverage / price
	units := math.Floor(rawUnits/spec.SizeStep) * spec.SizeStep
	if units < spec.MinOrderSize {
		return 0, "zero lots", nil
	}

	s.log.Info("calculated lot size",
		zap.Float64("units", units),
		zap.Float64("leverage", leverage),
		zap.Float64("price", price))
	return units, "", nil
}

func (s *ExecutionService) symbolSpec(ctx context.Context, symbol string) *domain.SymbolSpec {
	spec, err := s.broker.SymbolSpec(ctx, symbol)
	if err != nil || spec == nil {
		s.log.Warn("symbol spec unavailable, using configured fallback",
			zap.String("symbol", symbol), zap.Error(err))
		return &domain.SymbolSpec{
			Symbol:       symbol,
			MinOrderSize: s.sizing.MinOrderSize,
			SizeStep:     s.sizing.SizeStep,
		}
	}
	if spec.SizeStep <= 0 {
		spec.SizeStep = s.sizing.SizeStep
	}
	if spec.MinOrderSize <= 0 {
		spec.MinOrderSize = s.sizing.MinOrderSize
	}
	return spec
}

func (s *ExecutionService) record(ctx context.Context, action domain.TradeAction, outcome *domain.ExecutionOutcome) {
	rec := &domain.AuditRecord{
		Timestamp:      time.Now().UTC(),
		RequestID:      outcome.RequestID,
		OrderID:        outcome.OrderID,
		Symbol:         action.Symbol,
		Action:         action.Action,
		Status:         outcome.Status,
		Units:          action.Units,
		LiveConfigured: s.arming.LiveConfigured(),
		LiveArmed:      s.arming.ArmedSignal(),
		Details:        outcome.Details,
	}

	if err := s.audit.Append(rec); err != nil {
		s.log.Error("audit append failed", zap.Error(err), zap.String("request_id", rec.RequestID))
	}
	if s.store != nil {
		if err := s.store.SaveExecution(ctx, rec); err != nil {
			s.log.Error("execution history save failed", zap.Error(err))
		}
	}

	s.log.Info("action settled",
		zap.String("request_id", rec.RequestID),
		zap.String("status", string(rec.Status)),
		zap.String("order_id", rec.OrderID))
}
