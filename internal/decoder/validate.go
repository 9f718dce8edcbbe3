package decoder

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dkoval/tradeloop/internal/domain"
)

// minRiskRewardRatio is the reward-to-risk ratio below which a parsed
// Risk Reward field produces an advisory warning (1:1.5).
const minRiskRewardRatio = 1.5

// supportedPairs is the fixed allow-list of symbols the agent is willing
// to consider at all. The orchestrator applies its own, typically
// narrower, configured trading-pairs filter on top of this.
var supportedPairs = map[string]struct{}{
	"BTCUSDT":  {},
	"ETHUSDT":  {},
	"BNBUSDT":  {},
	"SOLUSDT":  {},
	"XRPUSDT":  {},
	"ADAUSDT":  {},
	"DOGEUSDT": {},
	"DOTUSDT":  {},
	"LINKUSDT": {},
	"AVAXUSDT": {},
	"LTCUSDT":  {},
	"BTCBUSD":  {},
	"ETHBUSD":  {},
}

// Validate checks a decoded instruction against the execution rules.
// Errors block the instruction, warnings are advisory and never stop it.
// Validation never mutates the instruction.
func Validate(instr domain.TradingInstruction) domain.ValidationResult {
	var errs, warns []string

	if instr.Action == "" {
		errs = append(errs, "action is missing or unrecognized")
	}
	if instr.Symbol == "" {
		errs = append(errs, "symbol is missing")
	}

	if instr.Action != "" && instr.Action != domain.ActionHold && instr.Action != domain.ActionClose {
		if instr.Quantity == nil && instr.Price == nil {
			errs = append(errs, fmt.Sprintf("%s requires a quantity or a price", instr.Action))
		}
	}

	if instr.Quantity != nil && !instr.Quantity.IsPositive() {
		errs = append(errs, fmt.Sprintf("quantity %s must be positive", instr.Quantity.String()))
	}
	if instr.Price != nil && !instr.Price.IsPositive() {
		errs = append(errs, fmt.Sprintf("price %s must be positive", instr.Price.String()))
	}

	if instr.Leverage != nil && (*instr.Leverage < 1 || *instr.Leverage > 50) {
		errs = append(errs, fmt.Sprintf("leverage %d is outside the allowed range [1, 50]", *instr.Leverage))
	}

	if instr.Confidence < 0 || instr.Confidence > 100 {
		errs = append(errs, fmt.Sprintf("confidence %d is outside the allowed range [0, 100]", instr.Confidence))
	}

	if instr.Symbol != "" {
		if _, ok := supportedPairs[instr.Symbol]; !ok {
			errs = append(errs, fmt.Sprintf("symbol %s is not in the supported pairs list", instr.Symbol))
		}
	}

	if instr.Reason == "" {
		warns = append(warns, "no reason provided")
	}

	if instr.Action == domain.ActionBuy || instr.Action == domain.ActionSell {
		if instr.StopLoss == nil {
			warns = append(warns, fmt.Sprintf("%s without a stop loss", instr.Action))
		}
		if instr.TakeProfit == nil {
			warns = append(warns, fmt.Sprintf("%s without a take profit", instr.Action))
		}
	}

	if instr.Confidence < 50 {
		warns = append(warns, fmt.Sprintf("low confidence (%d)", instr.Confidence))
	}

	if ratio, ok := parseRiskReward(instr.RiskReward); ok && ratio < minRiskRewardRatio {
		warns = append(warns, fmt.Sprintf("risk/reward ratio 1:%.2f is below 1:%.1f", ratio, minRiskRewardRatio))
	}

	return domain.ValidationResult{
		IsValid:  len(errs) == 0,
		Errors:   errs,
		Warnings: warns,
	}
}

// parseRiskReward parses a "risk:reward" string such as "1:2.5" and
// returns the reward expressed in units of risk. Unparseable input is
// simply ignored (no warning).
func parseRiskReward(raw string) (float64, bool) {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	if len(parts) != 2 {
		return 0, false
	}

	risk, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil || risk <= 0 {
		return 0, false
	}
	reward, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, false
	}

	return reward / risk, true
}
