package executor

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/dkoval/tradeloop/internal/domain"
)

// DryRunExecutor pretends to execute instructions without touching the
// exchange. Fills happen instantly at the instruction's price, or at the
// last gathered market price for market orders.
type DryRunExecutor struct {
	logger  *zap.Logger
	orderID atomic.Int64
}

// NewDryRunExecutor creates a simulated executor.
func NewDryRunExecutor(logger *zap.Logger) *DryRunExecutor {
	return &DryRunExecutor{logger: logger}
}

// Execute simulates the instruction and always reports a filled order,
// except for actions that require an open position when none exists.
func (e *DryRunExecutor) Execute(_ context.Context, instr domain.TradingInstruction, md *domain.MarketData) domain.ExecutionResult {
	result := domain.ExecutionResult{
		Instruction: instr,
		Timestamp:   time.Now(),
	}

	switch instr.Action {
	case domain.ActionClose, domain.ActionSetStopLoss, domain.ActionSetTakeProfit:
		if findPosition(md, instr.Symbol) == nil {
			result.Error = "no open position for " + instr.Symbol
			e.logger.Warn("dry run rejected instruction",
				zap.String("action", string(instr.Action)),
				zap.String("symbol", instr.Symbol))
			return result
		}
	}

	result.Success = true
	result.BinanceOrderID = e.orderID.Add(1)
	result.ExecutedQuantity = instr.Quantity

	if instr.Price != nil {
		result.ExecutedPrice = instr.Price
	} else if md != nil {
		if snap, ok := md.Snapshot(instr.Symbol); ok {
			price := snap.Price
			result.ExecutedPrice = &price
		}
	}

	e.logger.Info("dry run execution",
		zap.String("action", string(instr.Action)),
		zap.String("symbol", instr.Symbol),
		zap.Int64("order_id", result.BinanceOrderID))

	return result
}
