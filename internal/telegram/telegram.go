package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"bsiwatch/internal/model"
)

const defaultAPIBase = "https://api.telegram.org"

type Sender struct {
	token    string
	chat     string
	threadID *int
	apiBase  string

	client       *http.Client
	queue        chan string
	done         chan struct{}
	minInterval  time.Duration
	lastSentTime time.Time

	mu     sync.Mutex
	closed bool
}

func NewSender(token, chat string, threadID *int) *Sender {
	s := &Sender{
		token:       token,
		chat:        chat,
		threadID:    threadID,
		apiBase:     defaultAPIBase,
		client:      &http.Client{Timeout: 15 * time.Second},
		queue:       make(chan string, 100),
		done:        make(chan struct{}),
		minInterval: 1200 * time.Millisecond,
	}

	go s.worker()
	return s
}

// SendAlert queues a message about a newly observed threat group. Alerts
// arriving after Close are dropped.
func (s *Sender) SendAlert(group model.StoredGroup, link string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	message := formatMessage(group, link)
	for _, part := range splitMessage(message, 4096) {
		s.queue <- part
	}
}

// Close stops accepting alerts and waits until the queue is drained, so
// alerts enqueued before shutdown still go out.
func (s *Sender) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	close(s.queue)
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Sender) worker() {
	for msg := range s.queue {
		s.sendWithRateLimit(msg)
	}
	close(s.done)
}

func (s *Sender) sendWithRateLimit(text string) {
	wait := time.Until(s.lastSentTime.Add(s.minInterval))
	if wait > 0 {
		time.Sleep(wait)
	}

	retryAfter, err := s.postMessage(text)
	if err != nil {
		if retryAfter > 0 {
			log.Printf("Telegram rate limit hit. Retrying after %s", retryAfter)
			time.Sleep(retryAfter)
			if _, retryErr := s.postMessage(text); retryErr != nil {
				log.Printf("Telegram retry failed: %v", retryErr)
				return
			}
			s.lastSentTime = time.Now()
			return
		}

		log.Printf("Telegram send error: %v", err)
		return
	}

	s.lastSentTime = time.Now()
}

func (s *Sender) postMessage(text string) (time.Duration, error) {
	payload := map[string]any{
		"chat_id":    s.chat,
		"text":       text,
		"parse_mode": "HTML",
	}
	if s.threadID != nil {
		payload["message_thread_id"] = *s.threadID
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequest(http.MethodPost, fmt.Sprintf("%s/bot%s/sendMessage", s.apiBase, s.token), bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	var parsed telegramResponse
	_ = json.NewDecoder(resp.Body).Decode(&parsed)

	if resp.StatusCode == http.StatusTooManyRequests && parsed.Parameters.RetryAfter > 0 {
		return time.Duration(parsed.Parameters.RetryAfter) * time.Second, fmt.Errorf("rate limited")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, fmt.Errorf("telegram error: %d %s", resp.StatusCode, parsed.Description)
	}

	return 0, nil
}

type telegramResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code"`
	Description string `json:"description"`
	Parameters  struct {
		RetryAfter int `json:"retry_after"`
	} `json:"parameters"`
}

func sourceLabel(source string) string {
	switch source {
	case model.SourceAPT:
		return "APT"
	case model.SourceCrime:
		return "Crime"
	}
	return source
}

func formatMessage(group model.StoredGroup, link string) string {
	message := fmt.Sprintf("🚨 New %s group tracked by BSI: %s\n", sourceLabel(group.Source), group.Name)
	if len(group.Aliases) > 0 {
		message += fmt.Sprintf("🔖 Aliases: %s\n", strings.Join(group.Aliases, ", "))
	}
	if !group.FirstSeen.IsZero() {
		message += fmt.Sprintf("🕑 First seen: %s\n", group.FirstSeen.Format("2006-01-02 15:04"))
	}
	if link != "" {
		message += fmt.Sprintf("🔗 %s", link)
	}
	return strings.TrimRight(message, "\n")
}

func splitMessage(message string, limit int) []string {
	runes := []rune(message)
	if len(runes) <= limit {
		return []string{message}
	}

	parts := []string{}
	for start := 0; start < len(runes); start += limit {
		end := start + limit
		if end > len(runes) {
			end = len(runes)
		}
		parts = append(parts, string(runes[start:end]))
	}
	return parts
}
