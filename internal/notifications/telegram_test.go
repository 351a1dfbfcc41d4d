package notifications

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestNotifier(t *testing.T, handler http.HandlerFunc) *TelegramNotifier {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	n := NewTelegramNotifier("test-token", "chat-42")
	n.apiBase = srv.URL
	return n
}

func TestSendAlert_PostsToBotEndpoint(t *testing.T) {
	var gotPath string
	var gotForm url.Values

	n := newTestNotifier(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, r.ParseForm())
		gotForm = r.PostForm
		w.WriteHeader(http.StatusOK)
	})

	require.NoError(t, n.SendAlert(LevelCritical, FormatStopAlert("flash crash", "pm_jane", 3)))

	assert.Equal(t, "/bottest-token/sendMessage", gotPath)
	assert.Equal(t, "chat-42", gotForm.Get("chat_id"))
	assert.Equal(t, "Markdown", gotForm.Get("parse_mode"))
	assert.Contains(t, gotForm.Get("text"), "CRITICAL COMPLIANCE ALERT")
	assert.Contains(t, gotForm.Get("text"), "EMERGENCY STOP ACTIVE")
	assert.Contains(t, gotForm.Get("text"), "Positions flagged for manual close: 3")
}

func TestSendAlert_NonOKStatusIsAnError(t *testing.T) {
	n := newTestNotifier(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	err := n.SendAlert(LevelInfo, "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestLevelHeadline(t *testing.T) {
	tests := []struct {
		level string
		want  string
	}{
		{LevelCritical, "🚨 *CRITICAL COMPLIANCE ALERT*"},
		{"error", "🚨 *CRITICAL COMPLIANCE ALERT*"},
		{LevelWarning, "⚠️ *Compliance Warning*"},
		{LevelInfo, "ℹ️ *Compliance Notice*"},
		{"nonsense", "ℹ️ *Compliance Notice*"},
	}

	for _, tt := range tests {
		if got := levelHeadline(tt.level); got != tt.want {
			t.Errorf("levelHeadline(%q) = %q, want %q", tt.level, got, tt.want)
		}
	}
}

func TestFormatBreachAlert(t *testing.T) {
	msg := FormatBreachAlert("max_gross_leverage", 4.5, 4.0, 112.5)
	assert.Contains(t, msg, "RISK LIMIT BREACH: max_gross_leverage")
	assert.Contains(t, msg, "112.5%")
}
