package domain

import "time"

// TradingCycleResult is the append-only record of one orchestrator
// iteration. A skipped cycle (daily cap already reached) is recorded as
// successful with Skipped=true and no instructions.
type TradingCycleResult struct {
	CycleID          string               `json:"cycle_id"`
	Timestamp        time.Time            `json:"timestamp"`
	AIProvider       string               `json:"ai_provider"`
	AIResponse       string               `json:"ai_response,omitempty"`
	Instructions     []TradingInstruction `json:"instructions,omitempty"`
	ExecutionResults []ExecutionResult    `json:"execution_results,omitempty"`
	Success          bool                 `json:"success"`
	Skipped          bool                 `json:"skipped,omitempty"`
	Error            string               `json:"error,omitempty"`
	Duration         time.Duration        `json:"duration"`
}
