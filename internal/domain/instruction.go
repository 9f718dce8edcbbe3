package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TradingInstruction is a single typed trading command decoded from the
// model's free-text response. Optional numeric fields are nil when the
// model did not state them; the validation layer decides whether their
// absence blocks execution.
type TradingInstruction struct {
	Action      Action           `json:"action"`
	Symbol      string           `json:"symbol"`
	Quantity    *decimal.Decimal `json:"quantity,omitempty"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	Leverage    *int             `json:"leverage,omitempty"`
	StopLoss    *decimal.Decimal `json:"stop_loss,omitempty"`
	TakeProfit  *decimal.Decimal `json:"take_profit,omitempty"`
	Reason      string           `json:"reason"`
	Confidence  int              `json:"confidence"`
	Priority    Priority         `json:"priority"`
	RiskReward  string           `json:"risk_reward,omitempty"`
	MaxHoldTime string           `json:"max_hold_time,omitempty"`
	Timestamp   time.Time        `json:"timestamp"`
}

// IsHold reports whether the instruction is a no-op recommendation.
func (i TradingInstruction) IsHold() bool {
	return i.Action == ActionHold
}

// ValidationResult holds the outcome of validating a single instruction.
// Errors block execution of that instruction, warnings are advisory only.
type ValidationResult struct {
	IsValid  bool     `json:"is_valid"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// RiskAssessment is the risk manager's verdict on a candidate trade.
type RiskAssessment struct {
	CanExecute bool     `json:"can_execute"`
	Reasons    []string `json:"reasons,omitempty"`
}
