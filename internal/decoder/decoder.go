// Package decoder turns the model's loosely structured text output into
// typed, validated trading instructions. Decoding is a pure function over
// the raw response: it performs no I/O and never fails outright. Every
// malformed input degrades to a partial or empty ParseResult with
// descriptive parse errors.
//
// Known limitation: when no TRADE_DECISION block is present the decoder
// falls back to a keyword scan, which can misread prose that merely
// mentions "buy" or "sell" as an actionable instruction. The fallback
// instruction carries a low confidence (30) so the orchestrator's
// confidence filter is the effective guard.
package decoder

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dkoval/tradeloop/internal/domain"
)

const (
	blockMarker     = "TRADE_DECISION:"
	blockTerminator = "---"

	// confidence assigned to instructions recovered by the keyword
	// fallback; deliberately below the usual filtering threshold ballpark
	fallbackConfidence = 30

	holdDefaultConfidence = 50
	holdDefaultReason     = "model recommended holding, no explicit reason stated"
)

var fallbackSymbolPattern = regexp.MustCompile(`[A-Z]{2,10}(USDT|BUSD)`)

// Decode parses a raw model response into a ParseResult. The input text is
// normalized once (markdown noise stripped, one-way), scanned for
// TRADE_DECISION blocks, and each block is parsed and validated. When no
// blocks are found the keyword fallback runs instead.
func Decode(raw string) *domain.ParseResult {
	result := &domain.ParseResult{RawResponse: raw}

	normalized := Normalize(raw)

	blocks := extractBlocks(normalized)
	if len(blocks) == 0 {
		result.ParseErrors = append(result.ParseErrors, "no TRADE_DECISION blocks found")
		if instr, ok := fallbackParse(normalized); ok {
			result.Instructions = append(result.Instructions, instr)
		}
	} else {
		for _, block := range blocks {
			instr, ok := parseBlock(block)
			if !ok {
				// block without action or symbol: dropped silently
				continue
			}
			result.Instructions = append(result.Instructions, instr)
		}
	}

	for _, instr := range result.Instructions {
		vr := Validate(instr)
		if vr.IsValid {
			result.ValidInstructions = append(result.ValidInstructions, instr)
		} else {
			result.InvalidInstructions = append(result.InvalidInstructions, domain.InvalidInstruction{
				Instruction: instr,
				Errors:      vr.Errors,
			})
		}
	}

	return result
}

// Normalize strips markdown formatting noise from the model response:
// code fences, bold/italic markers and heading markers. The transform is
// one-way and lossy; the original text survives only in
// ParseResult.RawResponse.
func Normalize(raw string) string {
	lines := strings.Split(raw, "\n")
	out := make([]string, 0, len(lines))

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			continue
		}

		line = strings.TrimLeft(line, " \t")
		for strings.HasPrefix(line, "#") {
			line = strings.TrimPrefix(line, "#")
		}
		line = strings.TrimLeft(line, " ")

		line = strings.ReplaceAll(line, "**", "")
		line = strings.ReplaceAll(line, "__", "")
		line = strings.ReplaceAll(line, "*", "")

		out = append(out, line)
	}

	return strings.Join(out, "\n")
}

// extractBlocks scans the normalized text line by line and accumulates
// the content of every TRADE_DECISION block. A block ends at the next
// marker, a standalone "---" line, or end of input. A deliberate state
// machine instead of a multi-line regex: model output is untrusted and
// loosely anchored patterns over it invite pathological matching.
func extractBlocks(text string) [][]string {
	var (
		blocks  [][]string
		current []string
		inBlock bool
	)

	flush := func() {
		if inBlock {
			blocks = append(blocks, current)
		}
		current = nil
	}

	for _, line := range strings.Split(text, "\n") {
		if idx := strings.Index(line, blockMarker); idx >= 0 {
			flush()
			inBlock = true
			if rest := strings.TrimSpace(line[idx+len(blockMarker):]); rest != "" {
				current = append(current, rest)
			}
			continue
		}

		if !inBlock {
			continue
		}

		if strings.TrimSpace(line) == blockTerminator {
			flush()
			inBlock = false
			continue
		}

		current = append(current, line)
	}
	flush()

	return blocks
}

// parseBlock turns the lines of one block into an instruction. Lines are
// "key: value" pairs split at the first colon; keys are case-insensitive
// and a later duplicate overwrites an earlier one. The boolean result is
// false when the block yields no instruction (missing action or symbol
// for anything but HOLD).
func parseBlock(lines []string) (domain.TradingInstruction, bool) {
	fields := make(map[string]string)
	for _, line := range lines {
		idx := strings.Index(line, ":")
		if idx <= 0 {
			continue
		}
		key := canonicalKey(line[:idx])
		if key == "" {
			continue
		}
		fields[key] = strings.TrimSpace(line[idx+1:])
	}

	instr := domain.TradingInstruction{
		Priority:  domain.ParsePriority(fields["priority"]),
		Reason:    fields["reason"],
		Timestamp: time.Now(),
	}

	if raw, ok := fields["action"]; ok {
		action, recognized := domain.ParseAction(raw)
		if recognized {
			instr.Action = action
		}
	}

	if raw, ok := fields["symbol"]; ok {
		instr.Symbol = NormalizeSymbol(raw)
	}

	instr.Quantity = parseDecimalField(fields, "quantity")
	instr.Leverage = parseIntField(fields, "leverage")
	instr.StopLoss = parseDecimalField(fields, "stoploss")
	instr.TakeProfit = parseDecimalField(fields, "takeprofit")
	instr.RiskReward = fields["riskreward"]
	instr.MaxHoldTime = fields["maxholdtime"]

	// "MARKET" entry price means "use current market price": field absent
	if raw, ok := fields["price"]; ok && !strings.Contains(strings.ToUpper(raw), "MARKET") {
		instr.Price = parseNumber(raw)
	}

	confidenceStated := false
	if raw, ok := fields["confidence"]; ok {
		if d := parseNumber(raw); d != nil {
			instr.Confidence = int(d.IntPart())
			confidenceStated = true
		}
	}

	// a HOLD block always materializes, whatever else was (not) parsed
	if instr.Action == domain.ActionHold {
		if !confidenceStated {
			instr.Confidence = holdDefaultConfidence
		}
		if instr.Reason == "" {
			instr.Reason = holdDefaultReason
		}
		return instr, true
	}

	if instr.Action == "" || instr.Symbol == "" {
		return domain.TradingInstruction{}, false
	}

	return instr, true
}

// canonicalKey maps an input key (case-insensitive, spaces ignored) to
// its canonical field name, or "" for unknown keys.
func canonicalKey(raw string) string {
	key := strings.ToLower(strings.TrimSpace(raw))
	key = strings.ReplaceAll(key, " ", "")

	switch key {
	case "action", "symbol", "quantity", "leverage", "price",
		"stoploss", "takeprofit", "confidence", "priority",
		"reason", "riskreward", "maxholdtime":
		return key
	case "entryprice":
		return "price"
	default:
		return ""
	}
}

// NormalizeSymbol uppercases and trims the symbol, strips a leading
// FUTURES/SPOT prefix, and appends the USDT quote suffix when neither
// USDT nor BUSD is present. "btc" becomes "BTCUSDT",
// "FUTURES_ETHUSDT" becomes "ETHUSDT".
func NormalizeSymbol(raw string) string {
	symbol := strings.ToUpper(strings.TrimSpace(raw))

	for _, prefix := range []string{"FUTURES", "SPOT"} {
		if strings.HasPrefix(symbol, prefix) {
			symbol = strings.TrimPrefix(symbol, prefix)
			symbol = strings.TrimLeft(symbol, "_-: ")
			break
		}
	}

	if symbol == "" {
		return ""
	}

	if !strings.HasSuffix(symbol, "USDT") && !strings.HasSuffix(symbol, "BUSD") {
		symbol += "USDT"
	}

	return symbol
}

// parseNumber strips everything except digits, dots and minus signs and
// parses the remainder. Unparseable input yields nil, never an error.
func parseNumber(raw string) *decimal.Decimal {
	var b strings.Builder
	for _, r := range raw {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}

	cleaned := b.String()
	if cleaned == "" {
		return nil
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return nil
	}

	return &d
}

func parseDecimalField(fields map[string]string, key string) *decimal.Decimal {
	raw, ok := fields[key]
	if !ok {
		return nil
	}
	return parseNumber(raw)
}

func parseIntField(fields map[string]string, key string) *int {
	d := parseDecimalField(fields, key)
	if d == nil {
		return nil
	}
	v := int(d.IntPart())
	return &v
}

// fallbackParse is the coarse keyword scan used only when no blocks were
// found. Hold intent wins over directional keywords; a directional
// keyword needs a symbol-shaped token next to it to count.
func fallbackParse(normalized string) (domain.TradingInstruction, bool) {
	lower := strings.ToLower(normalized)

	for _, keyword := range []string{"hold", "wait", "no trade"} {
		if strings.Contains(lower, keyword) {
			return domain.TradingInstruction{
				Action:     domain.ActionHold,
				Reason:     "fallback parse: response indicates holding (" + keyword + ")",
				Confidence: holdDefaultConfidence,
				Priority:   domain.PriorityLow,
				Timestamp:  time.Now(),
			}, true
		}
	}

	var action domain.Action
	switch {
	case strings.Contains(lower, "buy"), strings.Contains(lower, "long"):
		action = domain.ActionBuy
	case strings.Contains(lower, "sell"), strings.Contains(lower, "short"):
		action = domain.ActionSell
	default:
		return domain.TradingInstruction{}, false
	}

	symbol := fallbackSymbolPattern.FindString(normalized)
	if symbol == "" {
		return domain.TradingInstruction{}, false
	}

	return domain.TradingInstruction{
		Action:     action,
		Symbol:     symbol,
		Reason:     "fallback parse: directional keyword found outside a TRADE_DECISION block",
		Confidence: fallbackConfidence,
		Priority:   domain.PriorityLow,
		Timestamp:  time.Now(),
	}, true
}
