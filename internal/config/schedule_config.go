package config

// ScheduleConfig defines when processing cycles fire. Exactly one of
// PollIntervalSeconds or PollCron must be set; Timezone applies to cron mode.
type ScheduleConfig struct {
	PollIntervalSeconds int    `json:"poll_interval_seconds,omitempty" yaml:"poll_interval_seconds,omitempty" validate:"omitempty,min=1"`
	PollCron            string `json:"poll_cron,omitempty" yaml:"poll_cron,omitempty"`
	Timezone            string `json:"timezone,omitempty" yaml:"timezone,omitempty"`
	// RunOnStart fires one cycle immediately when the scheduler starts.
	RunOnStart bool `json:"run_on_start" yaml:"run_on_start"`
	// ShutdownGraceSecs bounds how long Stop waits for an active run.
	ShutdownGraceSecs int `json:"shutdown_grace_secs,omitempty" yaml:"shutdown_grace_secs,omitempty" validate:"omitempty,min=1"`
	// ProcessingDateOverride forces the logical processing date for every run:
	// "YYYY-MM-DD", "today", or empty for the default (yesterday).
	ProcessingDateOverride string `json:"processing_date_override,omitempty" yaml:"processing_date_override,omitempty"`
}

// NewDefaultScheduleConfig creates default schedule configuration
func NewDefaultScheduleConfig() ScheduleConfig {
	return ScheduleConfig{
		PollIntervalSeconds: DefaultPollIntervalSeconds,
		Timezone:            DefaultTimezone,
		RunOnStart:          true,
		ShutdownGraceSecs:   DefaultShutdownGraceSecs,
	}
}
