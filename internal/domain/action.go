package domain

import "time"

type ActionType string

const (
	ActionBuy  ActionType = "BUY"
	ActionSell ActionType = "SELL"
	ActionHold ActionType = "HOLD"
	ActionExit ActionType = "EXIT"
)

// RiskOverride records that the risk manager rewrote an action. The
// original action type is preserved so the audit trail shows what the
// decision generator actually proposed.
type RiskOverride struct {
	Reason   string     `json:"reason"`
	Original ActionType `json:"original"`
}

// TradeAction is a single proposed action for one symbol. Units == 0
// means "compute from account state"; an explicitly positive value is
// honored after step/minimum validation.
type TradeAction struct {
	Action            ActionType    `json:"action"`
	Symbol            string        `json:"symbol"`
	Units             float64       `json:"units,omitempty"`
	SuggestedLeverage float64       `json:"suggested_leverage"`
	RequestID         string        `json:"request_id,omitempty"`
	Confidence        float64       `json:"confidence"`
	RiskLevel         int           `json:"risk_level"`
	Rationale         string        `json:"rationale"`
	Override          *RiskOverride `json:"override,omitempty"`
}

type OutcomeStatus string

const (
	StatusExecuted        OutcomeStatus = "EXECUTED"
	StatusClosedAll       OutcomeStatus = "CLOSED_ALL"
	StatusPartialFailure  OutcomeStatus = "PARTIAL_FAILURE"
	StatusHold            OutcomeStatus = "HOLD"
	StatusBlockedBySafety OutcomeStatus = "BLOCKED_BY_SAFETY"
	StatusDryRunNotSent   OutcomeStatus = "DRY_RUN_NOT_SENT"
	StatusDryRunNotClosed OutcomeStatus = "DRY_RUN_NOT_CLOSED"
	StatusError           OutcomeStatus = "ERROR"
)

// ExecutionOutcome is the single structured result of one TradeAction.
// Exactly one is produced per action that reaches the execution service,
// and it is the unit written to the audit log.
type ExecutionOutcome struct {
	Status    OutcomeStatus  `json:"status"`
	OrderID   string         `json:"order_id,omitempty"`
	RequestID string         `json:"request_id"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

func NewOutcome(status OutcomeStatus, requestID string, details map[string]any) *ExecutionOutcome {
	return &ExecutionOutcome{
		Status:    status,
		RequestID: requestID,
		Details:   details,
		Timestamp: time.Now().UTC(),
	}
}

// AuditRecord is one append-only audit-log line. One record is written
// per decision regardless of which branch execution took.
type AuditRecord struct {
	Timestamp      time.Time      `json:"timestamp"`
	RequestID      string         `json:"request_id"`
	OrderID        string         `json:"order_id,omitempty"`
	Symbol         string         `json:"symbol"`
	Action         ActionType     `json:"action"`
	Status         OutcomeStatus  `json:"status"`
	Units          float64        `json:"units"`
	LiveConfigured bool           `json:"live_configured"`
	LiveArmed      bool           `json:"live_armed"`
	Details        map[string]any `json:"details,omitempty"`
}
