package config

const (
	// Transfer defaults
	DefaultSFTPPort             = 22
	DefaultFTPSPort             = 21
	DefaultConnectTimeoutSecs   = 30
	DefaultOperationTimeoutSecs = 120

	// Schedule defaults
	DefaultPollIntervalSeconds = 3600
	DefaultTimezone            = "UTC"
	DefaultShutdownGraceSecs   = 300

	// Storage defaults
	DefaultWorkspaceBasePath = "data/workspace"
	DefaultTrackerDBPath     = "data/docpipe.db"
	DefaultBackupBasePath    = "data/folder-backup"

	// Retention defaults (days, 0 = disabled)
	DefaultTrackerRetentionDays = 90
	DefaultReportRetentionDays  = 0

	// Retry defaults
	DefaultRetryMaxAttempts  = 3
	DefaultRetryBaseDelaySec = 2
	DefaultRetryMaxDelaySec  = 30

	// Notification defaults
	DefaultSMTPPort              = 587
	DefaultNotifyTimeoutSecs     = 30
	DefaultPostActionTimeoutSecs = 180

	// Log defaults
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "console"
	DefaultLogFile       = ""
	DefaultMaxLogSizeMB  = 100
	DefaultMaxLogBackups = 3

	// Processing date keyword accepted by the CLI and config override
	ProcessingDateToday = "today"
)

// DefaultFileExtensions are the document extensions fetched from source folders.
var DefaultFileExtensions = []string{".doc", ".docx", ".txt"}
