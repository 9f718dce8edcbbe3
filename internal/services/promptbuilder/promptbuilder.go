// Package promptbuilder renders the user prompt sent to the model: a
// fixed template merged with the market/account snapshot gathered at the
// start of a cycle. It only formats, it makes no decisions.
package promptbuilder

import (
	"fmt"
	"strings"

	"github.com/dkoval/tradeloop/internal/domain"
)

// Builder renders market data into the user prompt.
type Builder struct {
	tradingPairs []string
}

// NewBuilder creates a prompt builder for the configured trading pairs.
func NewBuilder(tradingPairs []string) *Builder {
	return &Builder{tradingPairs: tradingPairs}
}

// BuildUserPrompt merges the gathered market data into the prompt text.
func (b *Builder) BuildUserPrompt(md *domain.MarketData) string {
	var sb strings.Builder

	sb.WriteString("# MARKET SNAPSHOT\n")
	sb.WriteString(fmt.Sprintf("Time: %s\n\n", md.Timestamp.UTC().Format("2006-01-02 15:04:05 UTC")))

	sb.WriteString("## Account Balances\n")
	if len(md.Balances) == 0 {
		sb.WriteString("(no balances)\n")
	}
	for _, bal := range md.Balances {
		sb.WriteString(fmt.Sprintf("- %s: free=%s locked=%s\n",
			bal.Asset, bal.Free.String(), bal.Locked.String()))
	}
	sb.WriteString("\n")

	sb.WriteString("## Open Positions\n")
	if len(md.Positions) == 0 {
		sb.WriteString("(no open positions)\n")
	}
	for _, pos := range md.Positions {
		sb.WriteString(fmt.Sprintf("- %s %s qty=%s entry=%s leverage=%dx unrealized_pnl=%s\n",
			pos.Symbol, pos.Side, pos.Quantity.String(), pos.EntryPrice.String(),
			pos.Leverage, pos.UnrealizedPnL.String()))
	}
	sb.WriteString("\n")

	sb.WriteString("## Symbols\n")
	for _, snap := range md.Symbols {
		sb.WriteString(fmt.Sprintf("### %s\n", snap.Symbol))
		sb.WriteString(fmt.Sprintf("Price: %s\n", snap.Price.String()))
		if snap.Indicators.IsDegraded {
			sb.WriteString("Indicators: unavailable (neutral defaults)\n")
		}
		sb.WriteString(fmt.Sprintf("RSI14: %s | EMA20: %s | EMA50: %s | MACD: %s\n\n",
			snap.Indicators.RSI14.String(),
			snap.Indicators.EMA20.String(),
			snap.Indicators.EMA50.String(),
			snap.Indicators.MACD.String()))
	}

	sb.WriteString(fmt.Sprintf("Tradable symbols: %s\n", strings.Join(b.tradingPairs, ", ")))
	sb.WriteString("\nAnalyze the snapshot and respond with TRADE_DECISION blocks.\n")

	return sb.String()
}
