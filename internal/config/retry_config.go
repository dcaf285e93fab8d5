package config

import (
	"time"

	"github.com/aleister1102/docpipe/internal/common"
)

// RetryProfile configures one retry call site (connection, per-file transfer,
// report upload, notification send).
type RetryProfile struct {
	MaxAttempts   int  `json:"max_attempts,omitempty" yaml:"max_attempts,omitempty" validate:"omitempty,min=1,max=10"`
	BaseDelaySecs int  `json:"base_delay_secs,omitempty" yaml:"base_delay_secs,omitempty" validate:"omitempty,min=1,max=300"`
	MaxDelaySecs  int  `json:"max_delay_secs,omitempty" yaml:"max_delay_secs,omitempty" validate:"omitempty,min=1,max=3600"`
	EnableJitter  bool `json:"enable_jitter" yaml:"enable_jitter"`
}

// ToPolicy converts the profile to a runtime retry policy.
func (rp RetryProfile) ToPolicy() common.RetryPolicy {
	return common.RetryPolicy{
		MaxAttempts:  rp.MaxAttempts,
		BaseDelay:    time.Duration(rp.BaseDelaySecs) * time.Second,
		MaxDelay:     time.Duration(rp.MaxDelaySecs) * time.Second,
		EnableJitter: rp.EnableJitter,
	}
}

func newDefaultProfile(maxAttempts, baseDelaySecs int) RetryProfile {
	return RetryProfile{
		MaxAttempts:   maxAttempts,
		BaseDelaySecs: baseDelaySecs,
		MaxDelaySecs:  DefaultRetryMaxDelaySec,
		EnableJitter:  true,
	}
}

// RetryConfig groups the per-call-site retry profiles.
type RetryConfig struct {
	Connect      RetryProfile `json:"connect,omitempty" yaml:"connect,omitempty"`
	Transfer     RetryProfile `json:"transfer,omitempty" yaml:"transfer,omitempty"`
	Upload       RetryProfile `json:"upload,omitempty" yaml:"upload,omitempty"`
	Notification RetryProfile `json:"notification,omitempty" yaml:"notification,omitempty"`
}

// NewDefaultRetryConfig creates default retry configuration
func NewDefaultRetryConfig() RetryConfig {
	return RetryConfig{
		Connect:      newDefaultProfile(DefaultRetryMaxAttempts, DefaultRetryBaseDelaySec),
		Transfer:     newDefaultProfile(DefaultRetryMaxAttempts, 1),
		Upload:       newDefaultProfile(DefaultRetryMaxAttempts, DefaultRetryBaseDelaySec),
		Notification: newDefaultProfile(DefaultRetryMaxAttempts, DefaultRetryBaseDelaySec),
	}
}
