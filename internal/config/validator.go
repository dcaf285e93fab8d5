package config

import (
	"time"

	"github.com/aleister1102/docpipe/internal/common"
	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
)

// ValidateConfig performs validation on the GlobalConfig structure. It is
// called once at startup; any error here is fatal before scheduling begins.
func ValidateConfig(cfg *GlobalConfig) error {
	if cfg == nil {
		return common.NewConfigurationError("", "", "configuration is nil")
	}

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return common.WrapError(err, "struct validation failed")
	}

	if err := validateSchedule(&cfg.ScheduleConfig); err != nil {
		return err
	}

	if err := validateNotification(&cfg.NotificationConfig); err != nil {
		return err
	}

	return nil
}

// validateSchedule enforces the interval XOR cron rule and checks that the
// cron expression, timezone, and date override are parseable.
func validateSchedule(sc *ScheduleConfig) error {
	hasInterval := sc.PollIntervalSeconds > 0
	hasCron := sc.PollCron != ""

	if hasInterval && hasCron {
		return common.NewConfigurationError("schedule_config", "poll_cron",
			"poll_interval_seconds and poll_cron are mutually exclusive")
	}
	if !hasInterval && !hasCron {
		return common.NewConfigurationError("schedule_config", "poll_interval_seconds",
			"either poll_interval_seconds or poll_cron must be set")
	}

	if hasCron {
		if _, err := cron.ParseStandard(sc.PollCron); err != nil {
			return common.NewConfigurationError("schedule_config", "poll_cron",
				"invalid cron expression: "+err.Error())
		}
		tz := sc.Timezone
		if tz == "" {
			tz = DefaultTimezone
		}
		if _, err := time.LoadLocation(tz); err != nil {
			return common.NewConfigurationError("schedule_config", "timezone",
				"unknown timezone: "+err.Error())
		}
	}

	if sc.ProcessingDateOverride != "" && sc.ProcessingDateOverride != ProcessingDateToday {
		if _, err := time.Parse("2006-01-02", sc.ProcessingDateOverride); err != nil {
			return common.NewConfigurationError("schedule_config", "processing_date_override",
				"expected YYYY-MM-DD or 'today'")
		}
	}

	return nil
}

// validateNotification requires SMTP wiring whenever any notification is enabled.
func validateNotification(nc *NotificationConfig) error {
	if !nc.NotifyOnSuccess && !nc.NotifyOnFailure {
		return nil
	}
	if nc.SMTPHost == "" {
		return common.NewConfigurationError("notification_config", "smtp_host",
			"required when notifications are enabled")
	}
	if len(nc.Recipients) == 0 {
		return common.NewConfigurationError("notification_config", "recipients",
			"at least one recipient is required when notifications are enabled")
	}
	return nil
}
