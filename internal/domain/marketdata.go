package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// IndicatorSnapshot holds the derived technical context for one symbol.
// When indicator computation fails or there is not enough history, the
// snapshot carries neutral defaults instead of aborting the cycle.
type IndicatorSnapshot struct {
	RSI14      decimal.Decimal `json:"rsi14"`
	EMA20      decimal.Decimal `json:"ema20"`
	EMA50      decimal.Decimal `json:"ema50"`
	MACD       decimal.Decimal `json:"macd"`
	IsDegraded bool            `json:"is_degraded,omitempty"`
}

// SymbolSnapshot is the per-symbol slice of a market data gather.
type SymbolSnapshot struct {
	Symbol     string            `json:"symbol"`
	Price      decimal.Decimal   `json:"price"`
	Indicators IndicatorSnapshot `json:"indicators"`
}

// AssetBalance is one asset line of the account.
type AssetBalance struct {
	Asset  string          `json:"asset"`
	Free   decimal.Decimal `json:"free"`
	Locked decimal.Decimal `json:"locked"`
}

// OpenPosition describes a position currently held on the exchange.
type OpenPosition struct {
	Symbol        string          `json:"symbol"`
	Side          string          `json:"side"`
	Quantity      decimal.Decimal `json:"quantity"`
	EntryPrice    decimal.Decimal `json:"entry_price"`
	UnrealizedPnL decimal.Decimal `json:"unrealized_pnl"`
	Leverage      int             `json:"leverage"`
}

// MarketData is the joined snapshot produced by the gather phase of a
// cycle: account balances, open positions and one SymbolSnapshot per
// configured trading pair.
type MarketData struct {
	Timestamp time.Time        `json:"timestamp"`
	Balances  []AssetBalance   `json:"balances"`
	Positions []OpenPosition   `json:"positions"`
	Symbols   []SymbolSnapshot `json:"symbols"`
}

// Snapshot returns the snapshot for a symbol, if gathered.
func (m *MarketData) Snapshot(symbol string) (SymbolSnapshot, bool) {
	for _, s := range m.Symbols {
		if s.Symbol == symbol {
			return s, true
		}
	}
	return SymbolSnapshot{}, false
}

// ModelResponse is the raw outcome of one model invocation.
type ModelResponse struct {
	Content          string    `json:"content"`
	Model            string    `json:"model"`
	PromptTokens     int       `json:"prompt_tokens,omitempty"`
	CompletionTokens int       `json:"completion_tokens,omitempty"`
	Timestamp        time.Time `json:"timestamp"`
}
