package notifier

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aleister1102/docpipe/internal/common"
	"github.com/aleister1102/docpipe/internal/config"
	"github.com/aleister1102/docpipe/internal/models"
	"github.com/rs/zerolog"
	"gopkg.in/gomail.v2"
)

// Notifier delivers the outcome of a processing run to operators.
type Notifier interface {
	NotifyRunCompletion(ctx context.Context, summary *models.RunSummary) error
}

// EmailNotifier sends run summaries over SMTP. The NotifyOnSuccess and
// NotifyOnFailure switches decide which terminal states produce mail;
// a suppressed send returns nil.
type EmailNotifier struct {
	cfg    config.NotificationConfig
	logger zerolog.Logger
	// send is swapped in tests to avoid a live SMTP dial.
	send func(msg *gomail.Message) error
}

// NewEmailNotifier creates an EmailNotifier from the notification config.
func NewEmailNotifier(cfg config.NotificationConfig, logger zerolog.Logger) *EmailNotifier {
	n := &EmailNotifier{
		cfg:    cfg,
		logger: logger.With().Str("module", "EmailNotifier").Logger(),
	}
	n.send = func(msg *gomail.Message) error {
		dialer := gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword)
		return dialer.DialAndSend(msg)
	}
	return n
}

// NotifyRunCompletion renders and sends the summary email, honoring the
// per-status switches and the configured send timeout.
func (n *EmailNotifier) NotifyRunCompletion(ctx context.Context, summary *models.RunSummary) error {
	if !n.shouldNotify(summary.Status) {
		n.logger.Debug().Str("status", string(summary.Status)).Msg("Notification suppressed by configuration")
		return nil
	}
	if len(n.cfg.Recipients) == 0 {
		return common.WrapError(common.ErrInvalidConfiguration, "no notification recipients configured")
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", n.cfg.FromAddress)
	msg.SetHeader("To", n.cfg.Recipients...)
	msg.SetHeader("Subject", Subject(summary))
	msg.SetBody("text/plain", Body(summary))

	timeout := time.Duration(n.cfg.SendTimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = time.Duration(config.DefaultNotifyTimeoutSecs) * time.Second
	}
	sendCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- n.send(msg) }()

	select {
	case err := <-errCh:
		if err != nil {
			return common.WrapError(err, "failed to send notification email")
		}
	case <-sendCtx.Done():
		return common.WrapError(common.ErrTimeout, "notification send timed out")
	}

	n.logger.Info().
		Int("recipients", len(n.cfg.Recipients)).
		Str("status", string(summary.Status)).
		Msg("Notification email sent")
	return nil
}

func (n *EmailNotifier) shouldNotify(status models.RunStatus) bool {
	if status == models.RunStatusSucceeded {
		return n.cfg.NotifyOnSuccess
	}
	return n.cfg.NotifyOnFailure
}

// Subject renders the notification subject with the run's terminal status.
func Subject(summary *models.RunSummary) string {
	return fmt.Sprintf("[docpipe] %s - processing run for %s",
		summary.Status, summary.ProcessingDate.Format("2006-01-02"))
}

// Body renders the plain-text notification body.
func Body(summary *models.RunSummary) string {
	var sb strings.Builder
	w := func(format string, args ...interface{}) {
		fmt.Fprintf(&sb, format+"\n", args...)
	}

	w("Processing run %d finished with status %s.", summary.RunID, summary.Status)
	w("")
	w("Processing date:   %s", summary.ProcessingDate.Format("2006-01-02"))
	w("Started:           %s", summary.StartTime.Format(time.RFC3339))
	w("Finished:          %s", summary.EndTime.Format(time.RFC3339))
	w("Duration:          %s", summary.Duration().Round(time.Second))
	w("")
	w("Folders scanned:   %d", summary.FoldersScanned)
	w("Files found:       %d", summary.FilesFound)
	w("Files skipped:     %d", summary.FilesSkipped)
	w("Files downloaded:  %d", summary.FilesDownloaded)
	w("Files failed:      %d", summary.FilesFailed)
	w("Records extracted: %d", summary.RecordsExtracted)
	w("Records failed:    %d", summary.RecordsFailed)

	if summary.ReportPath != "" {
		w("")
		w("Report: %s", summary.ReportPath)
	}

	if len(summary.ActionResults) > 0 {
		w("")
		w("Post-actions:")
		for _, a := range summary.ActionResults {
			status := "ok"
			if !a.Success {
				status = "FAILED"
			}
			w("  %-20s %s", a.Name, status)
		}
	}

	if len(summary.ErrorMessages) > 0 {
		w("")
		w("Errors:")
		for _, msg := range summary.ErrorMessages {
			w("  - %s", msg)
		}
	}
	return sb.String()
}
