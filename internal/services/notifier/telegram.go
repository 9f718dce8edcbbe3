// Package notifier pushes cycle summaries to Telegram. Delivery is best
// effort: a failed notification is logged and forgotten, it never affects
// the trading cycle.
package notifier

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/dkoval/tradeloop/internal/domain"
)

const telegramAPIBase = "https://api.telegram.org"

// TelegramNotifier sends messages through the Telegram bot API.
type TelegramNotifier struct {
	apiBase  string
	botToken string
	chatID   string
	client   *http.Client
	logger   *zap.Logger
}

// NewTelegramNotifier creates a notifier. An empty token or chat ID
// disables it, sends become no-ops.
func NewTelegramNotifier(botToken, chatID string, logger *zap.Logger) *TelegramNotifier {
	return &TelegramNotifier{
		apiBase:  telegramAPIBase,
		botToken: botToken,
		chatID:   chatID,
		client:   &http.Client{Timeout: 10 * time.Second},
		logger:   logger,
	}
}

func (n *TelegramNotifier) enabled() bool {
	return n.botToken != "" && n.chatID != ""
}

// NotifyStart announces that the agent began running.
func (n *TelegramNotifier) NotifyStart(provider string, pairs []string) {
	msg := "<b>Trading agent started</b>\n"
	msg += fmt.Sprintf("Model provider: %s\n", provider)
	msg += fmt.Sprintf("Pairs: %s", strings.Join(pairs, ", "))
	n.send(msg)
}

// NotifyCycleResult summarizes a finished trading cycle.
func (n *TelegramNotifier) NotifyCycleResult(result *domain.TradingCycleResult) {
	if result.Skipped {
		return
	}

	var sb strings.Builder
	if result.Success {
		sb.WriteString("<b>Trading cycle completed</b>\n")
	} else {
		sb.WriteString("<b>Trading cycle failed</b>\n")
		if result.Error != "" {
			sb.WriteString(fmt.Sprintf("Error: %s\n", result.Error))
		}
	}
	sb.WriteString(fmt.Sprintf("Cycle: %s\n", result.CycleID))
	sb.WriteString(fmt.Sprintf("Duration: %s\n", result.Duration.Round(time.Millisecond)))

	if len(result.ExecutionResults) == 0 {
		sb.WriteString("No trades executed")
	}
	for _, exec := range result.ExecutionResults {
		status := "ok"
		if !exec.Success {
			status = "failed: " + exec.Error
		}
		sb.WriteString(fmt.Sprintf("%s %s qty=%s [%s]\n",
			exec.Instruction.Action, exec.Instruction.Symbol,
			quantityOrDash(exec), status))
	}

	n.send(sb.String())
}

// NotifyError reports a cycle-level failure.
func (n *TelegramNotifier) NotifyError(errMsg string) {
	n.send(fmt.Sprintf("<b>Error</b>\n%s", errMsg))
}

func quantityOrDash(exec domain.ExecutionResult) string {
	if exec.Instruction.Quantity == nil {
		return "-"
	}
	return exec.Instruction.Quantity.String()
}

func (n *TelegramNotifier) send(message string) {
	if !n.enabled() {
		return
	}

	if err := n.post(message); err != nil {
		n.logger.Warn("telegram notification failed", zap.Error(err))
	}
}

func (n *TelegramNotifier) post(message string) error {
	apiURL := fmt.Sprintf("%s/bot%s/sendMessage", n.apiBase, n.botToken)

	data := url.Values{}
	data.Set("chat_id", n.chatID)
	data.Set("text", message)
	data.Set("parse_mode", "HTML")
	data.Set("disable_web_page_preview", "true")

	resp, err := n.client.PostForm(apiURL, data)
	if err != nil {
		return errors.Wrap(err, "failed to call telegram API")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return errors.Errorf("telegram API returned %d: %s", resp.StatusCode, string(body))
	}

	return nil
}
