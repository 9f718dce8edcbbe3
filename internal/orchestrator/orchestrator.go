// Package orchestrator drives the trading loop: gather market data, ask
// the model for decisions, decode them, and execute what survives
// validation, filtering and the risk check. Cycles repeat with a fixed
// delay between the end of one and the start of the next.
package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/dkoval/tradeloop/internal/decoder"
	"github.com/dkoval/tradeloop/internal/domain"
)

// MarketCollector gathers the account and market snapshot for a cycle.
type MarketCollector interface {
	Gather(ctx context.Context) (*domain.MarketData, error)
}

// ModelProvider invokes the language model.
type ModelProvider interface {
	Invoke(ctx context.Context, prompt string) (*domain.ModelResponse, error)
	Name() string
}

// PromptBuilder renders market data into the user prompt.
type PromptBuilder interface {
	BuildUserPrompt(md *domain.MarketData) string
}

// RiskManager approves or rejects instructions against the exposure budget.
type RiskManager interface {
	BeginCycle(md *domain.MarketData)
	AssessRisk(ctx context.Context, instr domain.TradingInstruction) domain.RiskAssessment
}

// Executor places orders for approved instructions.
type Executor interface {
	Execute(ctx context.Context, instr domain.TradingInstruction, md *domain.MarketData) domain.ExecutionResult
}

// CycleStore persists finished cycle results.
type CycleStore interface {
	Save(result domain.TradingCycleResult) error
}

// Notifier pushes cycle summaries to an external channel.
type Notifier interface {
	NotifyCycleResult(result *domain.TradingCycleResult)
}

// Config holds the orchestrator's runtime parameters.
type Config struct {
	Interval       time.Duration
	MaxDailyTrades int
	MinConfidence  int
	TradingPairs   []string
}

// Deps bundles the orchestrator's collaborators. Store and Notifier are
// optional; the rest are required.
type Deps struct {
	Collector MarketCollector
	Provider  ModelProvider
	Prompt    PromptBuilder
	Risk      RiskManager
	Executor  Executor
	Store     CycleStore
	Notifier  Notifier
}

// state is the orchestrator's mutable counters, owned by the cycle
// goroutine and touched nowhere else.
type state struct {
	cycleCount  int
	totalTrades int
	tradesToday int
	currentDay  string
}

// Orchestrator runs trading cycles until stopped.
type Orchestrator struct {
	cfg    Config
	deps   Deps
	pairs  map[string]struct{}
	logger *zap.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	done    chan struct{}
	state   state

	// test seams for the clock
	now   func() time.Time
	after func(d time.Duration) <-chan time.Time
}

// New creates an orchestrator.
func New(cfg Config, deps Deps, logger *zap.Logger) *Orchestrator {
	pairs := make(map[string]struct{}, len(cfg.TradingPairs))
	for _, p := range cfg.TradingPairs {
		pairs[p] = struct{}{}
	}

	return &Orchestrator{
		cfg:    cfg,
		deps:   deps,
		pairs:  pairs,
		logger: logger,
		now:    time.Now,
		after:  time.After,
	}
}

// Start launches the cycle loop in a background goroutine. Calling Start
// on a running orchestrator is an error.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.running {
		return errors.New("orchestrator is already running")
	}

	o.running = true
	o.stopCh = make(chan struct{})
	o.done = make(chan struct{})

	go o.run(ctx)

	o.logger.Info("orchestrator started",
		zap.Duration("interval", o.cfg.Interval),
		zap.Int("max_daily_trades", o.cfg.MaxDailyTrades),
		zap.Strings("pairs", o.cfg.TradingPairs))

	return nil
}

// Stop signals the loop to finish and waits for the in-flight cycle to
// complete. Stopping an idle orchestrator is a no-op.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	if !o.running {
		o.mu.Unlock()
		return
	}
	close(o.stopCh)
	done := o.done
	o.mu.Unlock()

	<-done

	o.mu.Lock()
	o.running = false
	o.mu.Unlock()

	o.logger.Info("orchestrator stopped")
}

func (o *Orchestrator) run(ctx context.Context) {
	defer close(o.done)

	for {
		o.RunCycle(ctx)

		select {
		case <-o.stopCh:
			return
		case <-ctx.Done():
			return
		case <-o.after(o.cfg.Interval):
		}
	}
}

// RunCycle executes a single trading cycle and records the result. It
// never panics: anything thrown inside a cycle is captured in the result,
// so a bad cycle cannot take the loop down.
func (o *Orchestrator) RunCycle(ctx context.Context) (result *domain.TradingCycleResult) {
	started := o.now()
	result = &domain.TradingCycleResult{
		CycleID:    uuid.NewString(),
		Timestamp:  started,
		AIProvider: o.deps.Provider.Name(),
	}

	defer func() {
		if r := recover(); r != nil {
			result.Success = false
			result.Error = fmt.Sprintf("cycle panicked: %v", r)
			o.logger.Error("trading cycle panicked",
				zap.String("cycle_id", result.CycleID),
				zap.Any("panic", r))
		}
		result.Duration = o.now().Sub(started)
		o.record(result)
	}()

	o.resetDailyCounter(started)

	if o.state.tradesToday >= o.cfg.MaxDailyTrades {
		result.Skipped = true
		result.Success = true
		o.logger.Info("daily trade cap reached, skipping cycle",
			zap.Int("trades_today", o.state.tradesToday))
		return result
	}

	md, err := o.deps.Collector.Gather(ctx)
	if err != nil {
		result.Error = errors.Wrap(err, "failed to gather market data").Error()
		return result
	}

	o.deps.Risk.BeginCycle(md)

	prompt := o.deps.Prompt.BuildUserPrompt(md)
	resp, err := o.deps.Provider.Invoke(ctx, prompt)
	if err != nil {
		result.Error = errors.Wrap(err, "model invocation failed").Error()
		return result
	}
	result.AIResponse = resp.Content

	parsed := decoder.Decode(resp.Content)
	result.Instructions = parsed.Instructions
	for _, parseErr := range parsed.ParseErrors {
		o.logger.Warn("decoder reported a parse error",
			zap.String("cycle_id", result.CycleID),
			zap.String("error", parseErr))
	}
	for _, invalid := range parsed.InvalidInstructions {
		o.logger.Warn("instruction failed validation",
			zap.String("symbol", invalid.Instruction.Symbol),
			zap.Strings("errors", invalid.Errors))
	}

	for _, instr := range o.filter(parsed.ValidInstructions) {
		if o.state.tradesToday >= o.cfg.MaxDailyTrades {
			o.logger.Info("daily trade cap reached mid-cycle",
				zap.Int("trades_today", o.state.tradesToday))
			break
		}

		execResult := o.executeOne(ctx, instr, md)
		result.ExecutionResults = append(result.ExecutionResults, execResult)
		if execResult.Success {
			o.state.tradesToday++
			o.state.totalTrades++
		}
	}

	result.Success = true
	return result
}

// executeOne risk-checks and executes a single instruction. A panic in
// the executor is contained here, so the remaining instructions of the
// cycle still run.
func (o *Orchestrator) executeOne(ctx context.Context, instr domain.TradingInstruction, md *domain.MarketData) (res domain.ExecutionResult) {
	defer func() {
		if r := recover(); r != nil {
			res = domain.ExecutionResult{
				Instruction: instr,
				Error:       fmt.Sprintf("execution panicked: %v", r),
				Timestamp:   o.now(),
			}
			o.logger.Error("instruction execution panicked",
				zap.String("symbol", instr.Symbol),
				zap.Any("panic", r))
		}
	}()

	assessment := o.deps.Risk.AssessRisk(ctx, instr)
	if !assessment.CanExecute {
		o.logger.Warn("instruction rejected by risk check",
			zap.String("symbol", instr.Symbol),
			zap.Strings("reasons", assessment.Reasons))
		return domain.ExecutionResult{
			Instruction: instr,
			Error:       "risk check rejected: " + strings.Join(assessment.Reasons, "; "),
			Timestamp:   o.now(),
		}
	}

	return o.deps.Executor.Execute(ctx, instr, md)
}

// filter drops instructions that are valid but not actionable: HOLDs,
// confidence below the configured floor, and symbols outside the
// configured trading pairs.
func (o *Orchestrator) filter(instructions []domain.TradingInstruction) []domain.TradingInstruction {
	actionable := make([]domain.TradingInstruction, 0, len(instructions))
	for _, instr := range instructions {
		if instr.IsHold() {
			o.logger.Info("model decided to hold",
				zap.String("symbol", instr.Symbol),
				zap.String("reason", instr.Reason))
			continue
		}
		if instr.Confidence < o.cfg.MinConfidence {
			o.logger.Info("instruction below confidence floor",
				zap.String("symbol", instr.Symbol),
				zap.Int("confidence", instr.Confidence),
				zap.Int("floor", o.cfg.MinConfidence))
			continue
		}
		if _, ok := o.pairs[instr.Symbol]; !ok {
			o.logger.Warn("instruction for unconfigured pair",
				zap.String("symbol", instr.Symbol))
			continue
		}
		actionable = append(actionable, instr)
	}
	return actionable
}

// resetDailyCounter zeroes the trade counter when the local calendar day
// changes between cycles.
func (o *Orchestrator) resetDailyCounter(now time.Time) {
	day := now.Format("2006-01-02")
	if day != o.state.currentDay {
		if o.state.currentDay != "" {
			o.logger.Info("new trading day, resetting daily counter",
				zap.String("day", day))
		}
		o.state.currentDay = day
		o.state.tradesToday = 0
	}
}

func (o *Orchestrator) record(result *domain.TradingCycleResult) {
	o.state.cycleCount++

	if o.deps.Store != nil {
		if err := o.deps.Store.Save(*result); err != nil {
			o.logger.Error("failed to persist cycle result",
				zap.String("cycle_id", result.CycleID),
				zap.Error(err))
		}
	}
	if o.deps.Notifier != nil {
		o.deps.Notifier.NotifyCycleResult(result)
	}

	o.logger.Info("trading cycle finished",
		zap.String("cycle_id", result.CycleID),
		zap.Bool("success", result.Success),
		zap.Bool("skipped", result.Skipped),
		zap.Int("executions", len(result.ExecutionResults)),
		zap.Int("cycle_count", o.state.cycleCount),
		zap.Int("total_trades", o.state.totalTrades),
		zap.Duration("duration", result.Duration))
}
