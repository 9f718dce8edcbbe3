// Package risk implements the pre-execution risk check. The manager is
// owned by the orchestrator and is only ever called from its cycle
// goroutine, so it carries no locking.
package risk

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/dkoval/tradeloop/internal/domain"
)

const (
	minLeverage = 1
	maxLeverage = 50
)

// Manager enforces the portfolio exposure budget. Exposure reserved by an
// approved instruction stays reserved for the rest of the cycle, so a
// later instruction in the same cycle sees the reduced headroom. This is
// why the orchestrator executes instructions sequentially.
type Manager struct {
	maxPortfolioExposure decimal.Decimal
	maxSymbolExposure    decimal.Decimal // zero disables the per-symbol cap
	committed            decimal.Decimal
	committedPerSymbol   map[string]decimal.Decimal
	prices               map[string]decimal.Decimal
	logger               *zap.Logger
}

// Option tunes the manager.
type Option func(*Manager)

// WithMaxSymbolExposure caps the notional committed to any single symbol.
func WithMaxSymbolExposure(limit decimal.Decimal) Option {
	return func(m *Manager) {
		m.maxSymbolExposure = limit
	}
}

// NewManager creates a risk manager with the given exposure budget in
// quote currency.
func NewManager(maxPortfolioExposure decimal.Decimal, logger *zap.Logger, opts ...Option) *Manager {
	m := &Manager{
		maxPortfolioExposure: maxPortfolioExposure,
		committedPerSymbol:   make(map[string]decimal.Decimal),
		prices:               make(map[string]decimal.Decimal),
		logger:               logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// BeginCycle resets the per-cycle view: reserved exposure starts at the
// notional of positions already open on the exchange, and the price table
// is refreshed from the gathered snapshot.
func (m *Manager) BeginCycle(md *domain.MarketData) {
	m.prices = make(map[string]decimal.Decimal, len(md.Symbols))
	for _, snap := range md.Symbols {
		m.prices[snap.Symbol] = snap.Price
	}

	m.committed = decimal.Zero
	m.committedPerSymbol = make(map[string]decimal.Decimal, len(md.Positions))
	for _, pos := range md.Positions {
		notional := pos.Quantity.Mul(pos.EntryPrice)
		m.committed = m.committed.Add(notional)
		m.committedPerSymbol[pos.Symbol] = m.committedPerSymbol[pos.Symbol].Add(notional)
	}
}

// AssessRisk decides whether a candidate trade may execute. Approval
// reserves the trade's notional against the budget immediately; the
// reservation is intentionally kept even if the execution later fails,
// erring on the conservative side for the remainder of the cycle.
func (m *Manager) AssessRisk(_ context.Context, instr domain.TradingInstruction) domain.RiskAssessment {
	switch instr.Action {
	case domain.ActionHold:
		return domain.RiskAssessment{CanExecute: true}
	case domain.ActionClose, domain.ActionSetStopLoss, domain.ActionSetTakeProfit:
		// risk-reducing actions never consume budget
		return domain.RiskAssessment{CanExecute: true}
	}

	var reasons []string

	if instr.Leverage != nil && (*instr.Leverage < minLeverage || *instr.Leverage > maxLeverage) {
		reasons = append(reasons, fmt.Sprintf("leverage %dx is outside [%d, %d]",
			*instr.Leverage, minLeverage, maxLeverage))
	}

	// a non-positive quantity or price would subtract from the committed
	// budget instead of consuming it
	if instr.Quantity == nil {
		reasons = append(reasons, "cannot size position: quantity is missing")
	} else if !instr.Quantity.IsPositive() {
		reasons = append(reasons, fmt.Sprintf("quantity %s is not positive", instr.Quantity.String()))
	}

	price, ok := m.effectivePrice(instr)
	if !ok {
		reasons = append(reasons, fmt.Sprintf("no price available for %s", instr.Symbol))
	} else if !price.IsPositive() {
		reasons = append(reasons, fmt.Sprintf("price %s is not positive", price.String()))
	}

	if len(reasons) > 0 {
		return domain.RiskAssessment{CanExecute: false, Reasons: reasons}
	}

	notional := instr.Quantity.Mul(price)

	projected := m.committed.Add(notional)
	if projected.GreaterThan(m.maxPortfolioExposure) {
		reasons = append(reasons, fmt.Sprintf(
			"portfolio exposure %s would exceed the limit %s (already committed %s)",
			projected.StringFixed(2), m.maxPortfolioExposure.StringFixed(2), m.committed.StringFixed(2)))
		return domain.RiskAssessment{CanExecute: false, Reasons: reasons}
	}

	projectedSymbol := m.committedPerSymbol[instr.Symbol].Add(notional)
	if m.maxSymbolExposure.GreaterThan(decimal.Zero) && projectedSymbol.GreaterThan(m.maxSymbolExposure) {
		reasons = append(reasons, fmt.Sprintf(
			"%s exposure %s would exceed the per-symbol limit %s",
			instr.Symbol, projectedSymbol.StringFixed(2), m.maxSymbolExposure.StringFixed(2)))
		return domain.RiskAssessment{CanExecute: false, Reasons: reasons}
	}

	m.committed = projected
	m.committedPerSymbol[instr.Symbol] = projectedSymbol
	m.logger.Debug("risk budget reserved",
		zap.String("symbol", instr.Symbol),
		zap.String("notional", notional.StringFixed(2)),
		zap.String("committed", m.committed.StringFixed(2)))

	return domain.RiskAssessment{CanExecute: true}
}

// effectivePrice is the instruction's stated price, or the last gathered
// market price for market orders.
func (m *Manager) effectivePrice(instr domain.TradingInstruction) (decimal.Decimal, bool) {
	if instr.Price != nil {
		return *instr.Price, true
	}
	price, ok := m.prices[instr.Symbol]
	return price, ok
}
