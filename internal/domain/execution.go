package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExecutionResult records one attempted execution of a non-HOLD
// instruction. A rejected or failed attempt still produces a result with
// Success=false and a populated Error; the cycle continues regardless.
type ExecutionResult struct {
	Success          bool               `json:"success"`
	Instruction      TradingInstruction `json:"instruction"`
	BinanceOrderID   int64              `json:"binance_order_id,omitempty"`
	ExecutedPrice    *decimal.Decimal   `json:"executed_price,omitempty"`
	ExecutedQuantity *decimal.Decimal   `json:"executed_quantity,omitempty"`
	Error            string             `json:"error,omitempty"`
	Timestamp        time.Time          `json:"timestamp"`
}
