package domain

import "strings"

// Action represents the type of trading action recommended by the model.
type Action string

const (
	ActionBuy           Action = "BUY"
	ActionSell          Action = "SELL"
	ActionClose         Action = "CLOSE"
	ActionHold          Action = "HOLD"
	ActionSetStopLoss   Action = "SET_STOP_LOSS"
	ActionSetTakeProfit Action = "SET_TAKE_PROFIT"
)

// actionSynonyms maps alternative spellings the model tends to produce
// onto canonical actions.
var actionSynonyms = map[string]Action{
	"LONG":  ActionBuy,
	"SHORT": ActionSell,
	"EXIT":  ActionClose,
	"WAIT":  ActionHold,
}

// ParseAction canonicalizes a raw action string. The second return value
// reports whether the input was recognized; unrecognized input yields an
// empty Action.
func ParseAction(raw string) (Action, bool) {
	upper := strings.ToUpper(strings.TrimSpace(raw))
	if upper == "" {
		return "", false
	}

	switch Action(upper) {
	case ActionBuy, ActionSell, ActionClose, ActionHold, ActionSetStopLoss, ActionSetTakeProfit:
		return Action(upper), true
	}

	if canonical, ok := actionSynonyms[upper]; ok {
		return canonical, true
	}

	return "", false
}

// String returns the string representation of the action.
func (a Action) String() string {
	return string(a)
}
