package config

// NotificationConfig defines configuration for email notifications
type NotificationConfig struct {
	SMTPHost        string   `json:"smtp_host,omitempty" yaml:"smtp_host,omitempty"`
	SMTPPort        int      `json:"smtp_port,omitempty" yaml:"smtp_port,omitempty" validate:"omitempty,min=1,max=65535"`
	SMTPUsername    string   `json:"smtp_username,omitempty" yaml:"smtp_username,omitempty"`
	SMTPPassword    string   `json:"smtp_password,omitempty" yaml:"smtp_password,omitempty"`
	FromAddress     string   `json:"from_address,omitempty" yaml:"from_address,omitempty" validate:"omitempty,email"`
	Recipients      []string `json:"recipients,omitempty" yaml:"recipients,omitempty" validate:"omitempty,dive,email"`
	NotifyOnSuccess bool     `json:"notify_on_success" yaml:"notify_on_success"`
	NotifyOnFailure bool     `json:"notify_on_failure" yaml:"notify_on_failure"`
	SendTimeoutSecs int      `json:"send_timeout_secs,omitempty" yaml:"send_timeout_secs,omitempty" validate:"omitempty,min=1"`
}

// NewDefaultNotificationConfig creates default notification configuration
func NewDefaultNotificationConfig() NotificationConfig {
	return NotificationConfig{
		SMTPPort:        DefaultSMTPPort,
		Recipients:      []string{},
		NotifyOnSuccess: true,
		NotifyOnFailure: true,
		SendTimeoutSecs: DefaultNotifyTimeoutSecs,
	}
}
