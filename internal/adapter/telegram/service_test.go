package telegram

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pipaura/internal/domain"
)

func newTestService(t *testing.T, handler http.HandlerFunc) *NotificationService {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	s := NewNotificationService("TOKEN", "42", time.UTC, zerolog.Nop())
	s.apiURL = server.URL
	s.now = func() time.Time { return time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC) }
	return s
}

func TestNotifySweep_SendsSummary(t *testing.T) {
	failedUser := uuid.New()
	var received telegramMessage
	var path string

	s := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &received)
		w.WriteHeader(http.StatusOK)
	})

	err := s.NotifySweep(context.Background(), &domain.SweepResult{
		TotalImported: 12,
		UsersSynced:   2,
		Results: []domain.SyncResult{
			{UserID: uuid.New(), Imported: 12, Accounts: 2},
			{UserID: failedUser, Error: "failed_to decrypt"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "/botTOKEN/sendMessage", path)
	assert.Equal(t, "42", received.ChatID)
	assert.Equal(t, "Markdown", received.ParseMode)
	assert.Contains(t, received.Text, "1 of 2 users failed")
	assert.Contains(t, received.Text, "Imported: `12` trades")
	assert.Contains(t, received.Text, "2026-03-01 06:00:00")
	assert.Contains(t, received.Text, failedUser.String())
	assert.Contains(t, received.Text, `failed\_to decrypt`)
}

func TestNotifySweep_Disabled(t *testing.T) {
	called := false
	s := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})
	s.enabled = false

	assert.NoError(t, s.NotifySweep(context.Background(), &domain.SweepResult{}))
	assert.False(t, called)
	assert.False(t, NewNotificationService("", "42", nil, zerolog.Nop()).Enabled())
}

func TestNotifySweep_APIError(t *testing.T) {
	s := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"ok":false,"description":"chat not found"}`))
	})

	err := s.NotifySweep(context.Background(), &domain.SweepResult{
		UsersSynced: 1,
		Results:     []domain.SyncResult{{UserID: uuid.New(), Error: "x"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
	assert.Contains(t, err.Error(), "chat not found")
}

func TestFormatSweep_CapsListedFailures(t *testing.T) {
	s := NewNotificationService("TOKEN", "42", time.UTC, zerolog.Nop())

	result := &domain.SweepResult{UsersSynced: maxListedFailures + 3}
	for i := 0; i < maxListedFailures+3; i++ {
		result.Results = append(result.Results, domain.SyncResult{UserID: uuid.New(), Error: fmt.Sprintf("error %d", i)})
	}

	text := s.formatSweep(result)
	assert.Contains(t, text, "13 of 13 users failed")
	assert.Contains(t, text, "…and 3 more")
	assert.NotContains(t, text, "error 10")
}
