package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/vitos/fx_margin_trader/internal/domain"
	"go.uber.org/zap"
)

const (
	GMOPublicURL  = "https://forex-api.coin.z.com/public"
	GMOPrivateURL = "https://forex-api.coin.z.com/private"

	// GMO FX accounts trade at a fixed leverage.
	gmoFixedLeverage = 25.0
)

// sender is the transport surface the adapter needs. Tests substitute
// a counting fake to assert that disarmed calls never reach it.
type sender interface {
	Send(ctx context.Context, method, path string, query url.Values, body any, private bool) (json.RawMessage, error)
}

// GMOAdapter implements domain.Broker against the GMO Coin FX API.
// State-changing calls pass the two-factor arming interlock before any
// network I/O; disarmed calls short-circuit into DRY_RUN outcomes.
type GMOAdapter struct {
	transport sender
	guard     *ArmingGuard
	symbols   []string
	log       *zap.Logger
}

func NewGMOAdapter(transport sender, guard *ArmingGuard, symbols []string, log *zap.Logger) *GMOAdapter {
	guard.LogState(log)
	return &GMOAdapter{
		transport: transport,
		guard:     guard,
		symbols:   symbols,
		log:       log,
	}
}

// Guard exposes the interlock for audit-record fields.
func (a *GMOAdapter) Guard() *ArmingGuard { return a.guard }

func (a *GMOAdapter) Quote(ctx context.Context, symbol string) (*domain.MarketSnapshot, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	data, err := a.transport.Send(ctx, http.MethodGet, "/v1/ticker", q, nil, false)
	if err != nil {
		return nil, err
	}

	var items []struct {
		Symbol string `json:"symbol"`
		Bid    string `json:"bid"`
		Ask    string `json:"ask"`
	}
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode ticker: %w", err)
	}

	for _, item := range items {
		if item.Symbol != symbol {
			continue
		}
		bid, _ := strconv.ParseFloat(item.Bid, 64)
		ask, _ := strconv.ParseFloat(item.Ask, 64)
		return &domain.MarketSnapshot{
			Symbol:    item.Symbol,
			Timestamp: time.Now().UTC(),
			Bid:       bid,
			Ask:       ask,
		}, nil
	}

	return nil, &domain.ValidationError{Msg: "ticker data for symbol '" + symbol + "' not found in API response"}
}

// Positions iterates the configured symbols. A failure on one symbol
// is logged and skipped; partial results are acceptable.
func (a *GMOAdapter) Positions(ctx context.Context) ([]domain.PositionSummary, error) {
	all := make([]domain.PositionSummary, 0)

	for _, symbol := range a.symbols {
		q := url.Values{}
		q.Set("symbol", symbol)
		data, err := a.transport.Send(ctx, http.MethodGet, "/v1/positionSummary", q, nil, true)
		if err != nil {
			a.log.Error("failed to fetch positions", zap.String("symbol", symbol), zap.Error(err))
			continue
		}

		var result struct {
			List []struct {
				Symbol              string `json:"symbol"`
				Side                string `json:"side"`
				SumOpenSize         string `json:"sumOpenSize"`
				AveragePositionRate string `json:"averagePositionRate"`
				LossGain            string `json:"lossGain"`
				TotalSwap           string `json:"totalSwap"`
			} `json:"list"`
		}
		if err := json.Unmarshal(data, &result); err != nil {
			a.log.Error("failed to decode positions", zap.String("symbol", symbol), zap.Error(err))
			continue
		}

		for _, item := range result.List {
			amount, _ := strconv.ParseFloat(item.SumOpenSize, 64)
			if amount <= 0 {
				continue
			}
			entry, _ := strconv.ParseFloat(item.AveragePositionRate, 64)
			lossGain, _ := strconv.ParseFloat(item.LossGain, 64)
			totalSwap, _ := strconv.ParseFloat(item.TotalSwap, 64)

			side := domain.SideShort
			if item.Side == "BUY" {
				side = domain.SideLong
			}

			all = append(all, domain.PositionSummary{
				Symbol:        item.Symbol,
				Side:          side,
				Amount:        amount,
				AvgEntryPrice: entry,
				UnrealizedPnL: lossGain + totalSwap,
				Leverage:      gmoFixedLeverage,
			})
		}
	}

	return all, nil
}

func (a *GMOAdapter) AccountState(ctx context.Context) (*domain.AccountState, error) {
	data, err := a.transport.Send(ctx, http.MethodGet, "/v1/account/assets", nil, nil, true)
	if err != nil {
		return nil, err
	}

	var assets struct {
		Equity      string `json:"equity"`
		NetAssets   string `json:"netAssets"`
		Margin      string `json:"margin"`
		MarginRatio string `json:"marginRatio"`
	}
	if err := json.Unmarshal(data, &assets); err != nil {
		return nil, fmt.Errorf("decode account assets: %w", err)
	}

	balance, err := strconv.ParseFloat(assets.Equity, 64)
	if err != nil {
		balance, _ = strconv.ParseFloat(assets.NetAssets, 64)
	}
	marginUsed, _ := strconv.ParseFloat(assets.Margin, 64)

	// marginRatio is a percentage; an unparsable value maps to a high
	// sentinel so the kill switch does not trip on bad data.
	maintenance := 9.99
	if ratio, err := strconv.ParseFloat(assets.MarginRatio, 64); err == nil {
		maintenance = ratio / 100.0
	}

	return &domain.AccountState{
		Balance:              balance,
		MarginUsed:           marginUsed,
		MaxLeverage:          gmoFixedLeverage,
		MarginMaintenancePct: maintenance,
	}, nil
}

func (a *GMOAdapter) Place(ctx context.Context, action domain.TradeAction) (*domain.ExecutionOutcome, error) {
	if action.Units <= 0 {
		return domain.NewOutcome(domain.StatusHold, action.RequestID, map[string]any{
			"reason": "invalid units",
		}), nil
	}

	if !a.guard.Armed() {
		return domain.NewOutcome(domain.StatusDryRunNotSent, action.RequestID, map[string]any{
			"symbol": action.Symbol,
			"action": action.Action,
			"units":  action.Units,
			"msg":    "order skipped due to dry-run mode",
		}), nil
	}

	side := "SELL"
	if action.Action == domain.ActionBuy {
		side = "BUY"
	}
	params := map[string]string{
		"symbol":        action.Symbol,
		"side":          side,
		"executionType": "MARKET",
		"size":          strconv.FormatInt(int64(action.Units), 10),
	}

	a.log.Info("sending order",
		zap.String("symbol", action.Symbol),
		zap.String("side", side),
		zap.String("size", params["size"]),
		zap.String("request_id", action.RequestID))

	data, err := a.transport.Send(ctx, http.MethodPost, "/v1/order", nil, params, true)
	if err != nil {
		a.log.Error("place order failed", zap.Error(err))
		return domain.NewOutcome(domain.StatusError, action.RequestID, map[string]any{
			"error": err.Error(),
		}), err
	}

	orderID, err := parseOrderID(data)
	if err != nil {
		// A write with an unverifiable outcome must never be reported
		// as success.
		a.log.Error("order response unusable", zap.Error(err), zap.ByteString("raw", data))
		return domain.NewOutcome(domain.StatusError, action.RequestID, map[string]any{
			"error": err.Error(),
			"raw":   string(data),
		}), err
	}

	return &domain.ExecutionOutcome{
		Status:    domain.StatusExecuted,
		OrderID:   orderID,
		RequestID: action.RequestID,
		Details:   map[string]any{"raw": string(data)},
		Timestamp: time.Now().UTC(),
	}, nil
}

// parseOrderID extracts the order identifier from the order response.
// Some endpoints return a single-element list instead of an object; the
// first element is unwrapped defensively.
func parseOrderID(data json.RawMessage) (string, error) {
	raw := data
	trimmed := string(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var list []json.RawMessage
		if err := json.Unmarshal(data, &list); err != nil || len(list) == 0 {
			return "", &domain.ValidationError{Msg: "unexpected list response"}
		}
		raw = list[0]
	}

	var obj struct {
		OrderID json.RawMessage `json:"orderId"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return "", fmt.Errorf("decode order response: %w", err)
	}
	if len(obj.OrderID) == 0 || string(obj.OrderID) == "null" {
		return "", &domain.ValidationError{Msg: "missing orderId in order response"}
	}

	var asString string
	if err := json.Unmarshal(obj.OrderID, &asString); err == nil {
		if asString == "" {
			return "", &domain.ValidationError{Msg: "missing orderId in order response"}
		}
		return asString, nil
	}
	var asNumber int64
	if err := json.Unmarshal(obj.OrderID, &asNumber); err == nil {
		return strconv.FormatInt(asNumber, 10), nil
	}
	return "", &domain.ValidationError{Msg: "missing orderId in order response"}
}

type openPosition struct {
	PositionID json.Number `json:"positionId"`
	Side       string      `json:"side"`
	Size       string      `json:"size"`
}

func (a *GMOAdapter) openPositions(ctx context.Context, symbol string) ([]openPosition, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	data, err := a.transport.Send(ctx, http.MethodGet, "/v1/openPositions", q, nil, true)
	if err != nil {
		return nil, err
	}

	var result struct {
		List []openPosition `json:"list"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("decode open positions: %w", err)
	}
	return result.List, nil
}

// Close settles every open position on the symbol. Closes are issued
// sequentially through the pacing gate, failures are collected rather
// than aborting, and a reconciliation re-read decides the final status:
// if any position remains, the outcome is PARTIAL_FAILURE no matter
// what the individual close responses said.
func (a *GMOAdapter) Close(ctx context.Context, symbol string, amount float64) (*domain.ExecutionOutcome, error) {
	requestID := ""

	positions, err := a.openPositions(ctx, symbol)
	if err != nil {
		return domain.NewOutcome(domain.StatusError, requestID, map[string]any{
			"error": fmt.Sprintf("fetch positions failed: %v", err),
		}), err
	}

	if len(positions) == 0 {
		return domain.NewOutcome(domain.StatusClosedAll, requestID, map[string]any{
			"msg": "no positions to close",
		}), nil
	}

	if !a.guard.Armed() {
		// Never report CLOSED_ALL while real positions are known to
		// exist.
		return domain.NewOutcome(domain.StatusDryRunNotClosed, requestID, map[string]any{
			"remaining_count": len(positions),
			"msg":             fmt.Sprintf("found %d positions but cannot close in dry-run mode", len(positions)),
		}), nil
	}

	results := make([]map[string]any, 0, len(positions))
	partialError := false

	for _, pos := range positions {
		closeSide := "BUY"
		if pos.Side == "BUY" {
			closeSide = "SELL"
		}
		params := map[string]any{
			"executionType": "MARKET",
			"symbol":        symbol,
			"side":          closeSide,
			"settlePosition": []map[string]any{
				{"positionId": pos.PositionID, "size": pos.Size},
			},
		}

		data, err := a.transport.Send(ctx, http.MethodPost, "/v1/closeOrder", nil, params, true)
		if err != nil {
			a.log.Error("close failed",
				zap.String("position_id", pos.PositionID.String()),
				zap.Error(err))
			results = append(results, map[string]any{
				"position_id": pos.PositionID.String(),
				"error":       err.Error(),
			})
			partialError = true
			continue
		}
		results = append(results, map[string]any{
			"position_id": pos.PositionID.String(),
			"raw":         string(data),
		})
	}

	// Reconciliation read: authoritative over the write responses.
	remaining, err := a.openPositions(ctx, symbol)
	if err == nil && len(remaining) > 0 {
		a.log.Error("partial failure: positions remain after close",
			zap.String("symbol", symbol),
			zap.Int("remaining", len(remaining)))
		return domain.NewOutcome(domain.StatusPartialFailure, requestID, map[string]any{
			"results":         results,
			"remaining_count": len(remaining),
		}), &domain.PartialFailureError{Remaining: len(remaining)}
	}

	if partialError {
		return domain.NewOutcome(domain.StatusPartialFailure, requestID, map[string]any{
			"results": results,
		}), &domain.PartialFailureError{Remaining: 0}
	}

	return domain.NewOutcome(domain.StatusClosedAll, requestID, map[string]any{
		"results": results,
	}), nil
}

// SymbolSpec is best-effort: callers fall back to configured defaults
// when it fails.
func (a *GMOAdapter) SymbolSpec(ctx context.Context, symbol string) (*domain.SymbolSpec, error) {
	data, err := a.transport.Send(ctx, http.MethodGet, "/v1/symbols", nil, nil, false)
	if err != nil {
		return nil, err
	}

	var items []struct {
		Symbol           string `json:"symbol"`
		MinOpenOrderSize string `json:"minOpenOrderSize"`
		SizeStep         string `json:"sizeStep"`
	}
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode symbols: %w", err)
	}

	for _, item := range items {
		if item.Symbol != symbol {
			continue
		}
		minSize, _ := strconv.ParseFloat(item.MinOpenOrderSize, 64)
		step, _ := strconv.ParseFloat(item.SizeStep, 64)
		return &domain.SymbolSpec{Symbol: symbol, MinOrderSize: minSize, SizeStep: step}, nil
	}

	return nil, &domain.ValidationError{Msg: "symbol '" + symbol + "' not found in symbol list"}
}
