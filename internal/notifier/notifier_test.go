package notifier

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aleister1102/docpipe/internal/config"
	"github.com/aleister1102/docpipe/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

func testSummary(status models.RunStatus) *models.RunSummary {
	start := time.Date(2026, 2, 2, 3, 0, 0, 0, time.UTC)
	return &models.RunSummary{
		RunID:            3,
		ProcessingDate:   time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		StartTime:        start,
		EndTime:          start.Add(time.Minute),
		Status:           status,
		FilesFound:       2,
		FilesDownloaded:  2,
		RecordsExtracted: 2,
	}
}

func testNotifier(cfg config.NotificationConfig) (*EmailNotifier, *[]*gomail.Message) {
	n := NewEmailNotifier(cfg, zerolog.Nop())
	var sent []*gomail.Message
	n.send = func(msg *gomail.Message) error {
		sent = append(sent, msg)
		return nil
	}
	return n, &sent
}

func TestEmailNotifier_SendsOnSuccess(t *testing.T) {
	cfg := config.NewDefaultNotificationConfig()
	cfg.SMTPHost = "smtp.example.com"
	cfg.FromAddress = "docpipe@example.com"
	cfg.Recipients = []string{"ops@example.com"}

	n, sent := testNotifier(cfg)
	require.NoError(t, n.NotifyRunCompletion(context.Background(), testSummary(models.RunStatusSucceeded)))
	require.Len(t, *sent, 1)

	msg := (*sent)[0]
	assert.Equal(t, []string{"[docpipe] SUCCEEDED - processing run for 2026-02-01"}, msg.GetHeader("Subject"))
	assert.Equal(t, []string{"ops@example.com"}, msg.GetHeader("To"))
}

func TestEmailNotifier_SuppressedByStatusSwitch(t *testing.T) {
	tests := []struct {
		name     string
		status   models.RunStatus
		onOK     bool
		onFail   bool
		expected int
	}{
		{name: "success suppressed", status: models.RunStatusSucceeded, onOK: false, onFail: true, expected: 0},
		{name: "failure suppressed", status: models.RunStatusFailed, onOK: true, onFail: false, expected: 0},
		{name: "partial failure counts as failure", status: models.RunStatusPartialFailure, onOK: true, onFail: false, expected: 0},
		{name: "failure delivered", status: models.RunStatusFailed, onOK: false, onFail: true, expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.NewDefaultNotificationConfig()
			cfg.FromAddress = "docpipe@example.com"
			cfg.Recipients = []string{"ops@example.com"}
			cfg.NotifyOnSuccess = tt.onOK
			cfg.NotifyOnFailure = tt.onFail

			n, sent := testNotifier(cfg)
			require.NoError(t, n.NotifyRunCompletion(context.Background(), testSummary(tt.status)))
			assert.Len(t, *sent, tt.expected)
		})
	}
}

func TestEmailNotifier_NoRecipients(t *testing.T) {
	cfg := config.NewDefaultNotificationConfig()
	cfg.FromAddress = "docpipe@example.com"

	n, _ := testNotifier(cfg)
	assert.Error(t, n.NotifyRunCompletion(context.Background(), testSummary(models.RunStatusSucceeded)))
}

func TestEmailNotifier_SendError(t *testing.T) {
	cfg := config.NewDefaultNotificationConfig()
	cfg.FromAddress = "docpipe@example.com"
	cfg.Recipients = []string{"ops@example.com"}

	n := NewEmailNotifier(cfg, zerolog.Nop())
	n.send = func(*gomail.Message) error { return errors.New("smtp connect refused") }

	err := n.NotifyRunCompletion(context.Background(), testSummary(models.RunStatusFailed))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "smtp connect refused")
}

func TestBody_CarriesCountsAndErrors(t *testing.T) {
	summary := testSummary(models.RunStatusPartialFailure)
	summary.ActionResults = []models.ActionResult{
		{Name: "distribute-report", Success: true},
		{Name: "write-log", Success: true},
		{Name: "send-notification", Success: false},
	}
	summary.ErrorMessages = []string{"upload: size mismatch"}

	body := Body(summary)
	assert.Contains(t, body, "status PARTIAL_FAILURE")
	assert.Contains(t, body, "Files downloaded:  2")
	assert.Contains(t, body, "distribute-report")
	assert.Contains(t, body, "upload: size mismatch")
}
