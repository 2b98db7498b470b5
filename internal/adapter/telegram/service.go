package telegram

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog"

	"pipaura/internal/domain"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	defaultAPIURL = "https://api.telegram.org"

	// maxListedFailures caps the per-user lines in one message
	maxListedFailures = 10
)

// NotificationService posts sweep summaries to a Telegram chat
type NotificationService struct {
	apiURL     string
	botToken   string
	chatID     string
	enabled    bool
	location   *time.Location
	httpClient *http.Client
	now        domain.Clock
	log        zerolog.Logger
}

type telegramMessage struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// NewNotificationService creates a notifier. It is a no-op unless both token and chat id are set.
func NewNotificationService(botToken, chatID string, location *time.Location, log zerolog.Logger) *NotificationService {
	if location == nil {
		location = time.UTC
	}

	return &NotificationService{
		apiURL:   defaultAPIURL,
		botToken: botToken,
		chatID:   chatID,
		enabled:  botToken != "" && chatID != "",
		location: location,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		now: time.Now,
		log: log.With().Str("component", "telegram").Logger(),
	}
}

// Enabled reports whether messages are actually sent
func (s *NotificationService) Enabled() bool {
	return s.enabled
}

// NotifySweep sends a summary of a sweep that had failing users
func (s *NotificationService) NotifySweep(ctx context.Context, result *domain.SweepResult) error {
	if !s.enabled {
		return nil
	}

	return s.sendMessage(ctx, s.formatSweep(result))
}

func (s *NotificationService) formatSweep(result *domain.SweepResult) string {
	failed := result.FailedUsers()

	var b strings.Builder
	fmt.Fprintf(&b, "⚠️ *MyFxBook sync: %d of %d users failed*\n", failed, result.UsersSynced)
	b.WriteString("━━━━━━━━━━━━━━━━━\n")
	fmt.Fprintf(&b, "📥 Imported: `%d` trades\n", result.TotalImported)
	fmt.Fprintf(&b, "🕒 Time: `%s`\n", s.now().In(s.location).Format("2006-01-02 15:04:05"))

	listed := 0
	for _, r := range result.Results {
		if r.Error == "" {
			continue
		}
		if listed == maxListedFailures {
			fmt.Fprintf(&b, "…and %d more\n", failed-listed)
			break
		}
		if listed == 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "❌ `%s`: %s\n", r.UserID, escapeMarkdown(r.Error))
		listed++
	}

	return b.String()
}

// sendMessage sends a message to Telegram using the Bot API
func (s *NotificationService) sendMessage(ctx context.Context, text string) error {
	url := fmt.Sprintf("%s/bot%s/sendMessage", s.apiURL, s.botToken)

	payload := telegramMessage{
		ChatID:    s.chatID,
		Text:      text,
		ParseMode: "Markdown",
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal telegram message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("telegram API error (status %d): %s", resp.StatusCode, string(body))
	}

	s.log.Debug().Msg("Sweep summary sent")
	return nil
}

var markdownEscaper = strings.NewReplacer("_", "\\_", "*", "\\*", "`", "\\`", "[", "\\[")

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
