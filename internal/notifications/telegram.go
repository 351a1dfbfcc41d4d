package notifications

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const telegramAPIBase = "https://api.telegram.org"

// Alert levels understood by SendAlert. Unknown levels render as info.
const (
	LevelCritical = "critical"
	LevelWarning  = "warning"
	LevelInfo     = "info"
)

// levelHeadline maps an alert level to the Markdown headline rendered
// above the message body.
func levelHeadline(level string) string {
	switch level {
	case LevelCritical, "error":
		return "🚨 *CRITICAL COMPLIANCE ALERT*"
	case LevelWarning:
		return "⚠️ *Compliance Warning*"
	default:
		return "ℹ️ *Compliance Notice*"
	}
}

// TelegramNotifier delivers compliance alerts to a Telegram chat over
// the Bot API. Failures are returned to the caller, who logs and
// continues; alerting is never load-bearing.
type TelegramNotifier struct {
	token   string
	chatID  string
	apiBase string
	client  *http.Client
}

func NewTelegramNotifier(token, chatID string) *TelegramNotifier {
	return &TelegramNotifier{
		token:   token,
		chatID:  chatID,
		apiBase: telegramAPIBase,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// SendAlert posts one Markdown alert: the level headline, the message
// body verbatim, and a UTC timestamp line.
func (t *TelegramNotifier) SendAlert(level, message string) error {
	text := fmt.Sprintf("%s\n\n%s\n\n_%s_",
		levelHeadline(level), message, time.Now().UTC().Format(time.RFC3339))

	data := url.Values{}
	data.Set("chat_id", t.chatID)
	data.Set("text", text)
	data.Set("parse_mode", "Markdown")

	resp, err := t.client.Post(
		fmt.Sprintf("%s/bot%s/sendMessage", t.apiBase, t.token),
		"application/x-www-form-urlencoded",
		strings.NewReader(data.Encode()))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram API returned status %d", resp.StatusCode)
	}
	return nil
}
