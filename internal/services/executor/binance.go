// Package executor turns approved trading instructions into Binance
// futures orders.
package executor

import (
	"context"
	"time"

	"github.com/adshao/go-binance/v2/futures"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/dkoval/tradeloop/internal/domain"
)

const quantityPrecision = 4

// BinanceExecutor places real orders on Binance USDT-M futures.
type BinanceExecutor struct {
	client *futures.Client
	logger *zap.Logger
}

// NewBinanceExecutor creates an executor backed by the given futures client.
func NewBinanceExecutor(client *futures.Client, logger *zap.Logger) *BinanceExecutor {
	return &BinanceExecutor{client: client, logger: logger}
}

// Execute places the order(s) an instruction describes and reports the
// outcome. Failures are captured in the result, never propagated as a
// panic or returned error, so one bad order cannot abort the cycle.
func (e *BinanceExecutor) Execute(ctx context.Context, instr domain.TradingInstruction, md *domain.MarketData) domain.ExecutionResult {
	result := domain.ExecutionResult{
		Instruction: instr,
		Timestamp:   time.Now(),
	}

	var err error
	switch instr.Action {
	case domain.ActionBuy:
		err = e.openPosition(ctx, instr, futures.SideTypeBuy, &result)
	case domain.ActionSell:
		err = e.openPosition(ctx, instr, futures.SideTypeSell, &result)
	case domain.ActionClose:
		err = e.closePosition(ctx, instr, md, &result)
	case domain.ActionSetStopLoss:
		err = e.placeProtectiveOrder(ctx, instr, md, futures.OrderTypeStopMarket, instr.StopLoss, &result)
	case domain.ActionSetTakeProfit:
		err = e.placeProtectiveOrder(ctx, instr, md, futures.OrderTypeTakeProfitMarket, instr.TakeProfit, &result)
	default:
		err = errors.Errorf("action %s is not executable", instr.Action)
	}

	if err != nil {
		result.Success = false
		result.Error = err.Error()
		e.logger.Error("order execution failed",
			zap.String("action", string(instr.Action)),
			zap.String("symbol", instr.Symbol),
			zap.Error(err))
		return result
	}

	result.Success = true
	e.logger.Info("order executed",
		zap.String("action", string(instr.Action)),
		zap.String("symbol", instr.Symbol),
		zap.Int64("order_id", result.BinanceOrderID))
	return result
}

func (e *BinanceExecutor) openPosition(ctx context.Context, instr domain.TradingInstruction, side futures.SideType, result *domain.ExecutionResult) error {
	if instr.Quantity == nil {
		return errors.New("quantity is required to open a position")
	}
	quantity := instr.Quantity.RoundFloor(quantityPrecision)

	if instr.Leverage != nil {
		_, err := e.client.NewChangeLeverageService().
			Symbol(instr.Symbol).
			Leverage(*instr.Leverage).
			Do(ctx)
		if err != nil {
			return errors.Wrapf(err, "failed to set leverage %dx for %s", *instr.Leverage, instr.Symbol)
		}
	}

	svc := e.client.NewCreateOrderService().
		Symbol(instr.Symbol).
		Side(side).
		Quantity(quantity.String())
	if instr.Price != nil {
		svc = svc.Type(futures.OrderTypeLimit).
			Price(instr.Price.String()).
			TimeInForce(futures.TimeInForceTypeGTC)
	} else {
		svc = svc.Type(futures.OrderTypeMarket)
	}

	order, err := svc.Do(ctx)
	if err != nil {
		return errors.Wrapf(err, "failed to place %s order for %s", side, instr.Symbol)
	}
	recordOrder(result, order)

	// protective orders are best effort: the position is already open, so
	// a failure here is logged on the result but does not undo the entry
	closeSide := futures.SideTypeSell
	if side == futures.SideTypeSell {
		closeSide = futures.SideTypeBuy
	}
	if instr.StopLoss != nil {
		if err := e.placeStop(ctx, instr.Symbol, closeSide, futures.OrderTypeStopMarket, *instr.StopLoss); err != nil {
			e.logger.Warn("failed to place stop loss", zap.String("symbol", instr.Symbol), zap.Error(err))
		}
	}
	if instr.TakeProfit != nil {
		if err := e.placeStop(ctx, instr.Symbol, closeSide, futures.OrderTypeTakeProfitMarket, *instr.TakeProfit); err != nil {
			e.logger.Warn("failed to place take profit", zap.String("symbol", instr.Symbol), zap.Error(err))
		}
	}

	return nil
}

func (e *BinanceExecutor) closePosition(ctx context.Context, instr domain.TradingInstruction, md *domain.MarketData, result *domain.ExecutionResult) error {
	pos := findPosition(md, instr.Symbol)
	if pos == nil {
		return errors.Errorf("no open position for %s", instr.Symbol)
	}

	side := futures.SideTypeSell
	if pos.Side == "SHORT" {
		side = futures.SideTypeBuy
	}

	quantity := pos.Quantity
	if instr.Quantity != nil && instr.Quantity.LessThan(quantity) {
		quantity = *instr.Quantity
	}

	order, err := e.client.NewCreateOrderService().
		Symbol(instr.Symbol).
		Side(side).
		Type(futures.OrderTypeMarket).
		Quantity(quantity.RoundFloor(quantityPrecision).String()).
		ReduceOnly(true).
		Do(ctx)
	if err != nil {
		return errors.Wrapf(err, "failed to close position for %s", instr.Symbol)
	}
	recordOrder(result, order)
	return nil
}

func (e *BinanceExecutor) placeProtectiveOrder(ctx context.Context, instr domain.TradingInstruction, md *domain.MarketData, orderType futures.OrderType, stopPrice *decimal.Decimal, result *domain.ExecutionResult) error {
	if stopPrice == nil {
		stopPrice = instr.Price
	}
	if stopPrice == nil {
		return errors.Errorf("no trigger price given for %s", instr.Action)
	}

	pos := findPosition(md, instr.Symbol)
	if pos == nil {
		return errors.Errorf("no open position for %s", instr.Symbol)
	}

	side := futures.SideTypeSell
	if pos.Side == "SHORT" {
		side = futures.SideTypeBuy
	}

	order, err := e.client.NewCreateOrderService().
		Symbol(instr.Symbol).
		Side(side).
		Type(orderType).
		StopPrice(stopPrice.String()).
		ClosePosition(true).
		Do(ctx)
	if err != nil {
		return errors.Wrapf(err, "failed to place %s order for %s", orderType, instr.Symbol)
	}
	recordOrder(result, order)
	return nil
}

func (e *BinanceExecutor) placeStop(ctx context.Context, symbol string, side futures.SideType, orderType futures.OrderType, price decimal.Decimal) error {
	_, err := e.client.NewCreateOrderService().
		Symbol(symbol).
		Side(side).
		Type(orderType).
		StopPrice(price.String()).
		ClosePosition(true).
		Do(ctx)
	return err
}

func recordOrder(result *domain.ExecutionResult, order *futures.CreateOrderResponse) {
	result.BinanceOrderID = order.OrderID

	if qty, err := decimal.NewFromString(order.ExecutedQuantity); err == nil && qty.GreaterThan(decimal.Zero) {
		result.ExecutedQuantity = &qty
	}
	if price, err := decimal.NewFromString(order.AvgPrice); err == nil && price.GreaterThan(decimal.Zero) {
		result.ExecutedPrice = &price
	}
}

func findPosition(md *domain.MarketData, symbol string) *domain.OpenPosition {
	if md == nil {
		return nil
	}
	for i := range md.Positions {
		if md.Positions[i].Symbol == symbol {
			return &md.Positions[i]
		}
	}
	return nil
}
