package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bsiwatch/internal/model"
)

func newTestSender(apiBase string, client *http.Client) *Sender {
	return &Sender{
		token:   "test-token",
		chat:    "42",
		apiBase: apiBase,
		client:  client,
		queue:   make(chan string, 16),
		done:    make(chan struct{}),
	}
}

func TestFormatMessage(t *testing.T) {
	group := model.StoredGroup{
		Source:    model.SourceCrime,
		Name:      "LockBit",
		Aliases:   []string{"ABCD", "Bitwise Spider"},
		FirstSeen: time.Date(2026, time.August, 2, 0, 3, 0, 0, time.UTC),
	}

	message := formatMessage(group, "https://example.test/crime")

	assert.Contains(t, message, "New Crime group tracked by BSI: LockBit")
	assert.Contains(t, message, "ABCD, Bitwise Spider")
	assert.Contains(t, message, "2026-08-02 00:03")
	assert.Contains(t, message, "https://example.test/crime")
}

func TestFormatMessageMinimal(t *testing.T) {
	group := model.StoredGroup{Source: model.SourceAPT, Name: "Snake"}

	message := formatMessage(group, "")

	assert.Contains(t, message, "New APT group tracked by BSI: Snake")
	assert.NotContains(t, message, "Aliases")
	assert.NotContains(t, message, "First seen")
	assert.False(t, strings.HasSuffix(message, "\n"))
}

func TestSourceLabel(t *testing.T) {
	assert.Equal(t, "APT", sourceLabel(model.SourceAPT))
	assert.Equal(t, "Crime", sourceLabel(model.SourceCrime))
	assert.Equal(t, "other", sourceLabel("other"))
}

func TestSplitMessage(t *testing.T) {
	assert.Equal(t, []string{"short"}, splitMessage("short", 4096))

	long := strings.Repeat("ü", 5000)
	parts := splitMessage(long, 4096)
	assert.Len(t, parts, 2)
	assert.Equal(t, 4096, len([]rune(parts[0])))
	assert.Equal(t, 904, len([]rune(parts[1])))
	assert.Equal(t, long, strings.Join(parts, ""))
}

func TestSendRetriesAfterRateLimit(t *testing.T) {
	var attempts int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		assert.Equal(t, "/bottest-token/sendMessage", r.URL.Path)
		if attempts == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"ok":false,"error_code":429,"parameters":{"retry_after":1}}`))
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	sender := newTestSender(server.URL, server.Client())

	start := time.Now()
	sender.sendWithRateLimit("hello")

	assert.Equal(t, 2, attempts)
	assert.GreaterOrEqual(t, time.Since(start), time.Second)
	assert.False(t, sender.lastSentTime.IsZero())
}

func TestCloseDrainsQueuedAlerts(t *testing.T) {
	var received []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Text string `json:"text"`
		}
		_ = json.NewDecoder(r.Body).Decode(&payload)
		received = append(received, payload.Text)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	sender := newTestSender(server.URL, server.Client())
	go sender.worker()

	sender.SendAlert(model.StoredGroup{Source: model.SourceAPT, Name: "Snake"}, "https://example.test/apt")

	require.NoError(t, sender.Close(context.Background()))

	require.Len(t, received, 1)
	assert.Contains(t, received[0], "Snake")

	// Alerts after Close are dropped instead of hitting the closed queue.
	sender.SendAlert(model.StoredGroup{Source: model.SourceAPT, Name: "Turla"}, "")
	assert.Len(t, received, 1)
}

func TestCloseIsIdempotent(t *testing.T) {
	sender := newTestSender("http://unused.invalid", http.DefaultClient)
	go sender.worker()

	require.NoError(t, sender.Close(context.Background()))
	require.NoError(t, sender.Close(context.Background()))
}
