package config

// StorageConfig defines local filesystem layout.
type StorageConfig struct {
	// WorkspaceBasePath holds one dated sub-folder per processing run.
	WorkspaceBasePath string `json:"workspace_base_path,omitempty" yaml:"workspace_base_path,omitempty" validate:"required"`
	// TrackerDBPath is the SQLite database holding file and run history.
	TrackerDBPath string `json:"tracker_db_path,omitempty" yaml:"tracker_db_path,omitempty" validate:"required"`
	// BackupBasePath receives a copy of each workspace after a terminal run.
	// Empty disables backups.
	BackupBasePath string `json:"backup_base_path,omitempty" yaml:"backup_base_path,omitempty"`
}

// NewDefaultStorageConfig creates default storage configuration
func NewDefaultStorageConfig() StorageConfig {
	return StorageConfig{
		WorkspaceBasePath: DefaultWorkspaceBasePath,
		TrackerDBPath:     DefaultTrackerDBPath,
		BackupBasePath:    DefaultBackupBasePath,
	}
}

// RetentionConfig defines cleanup horizons in days. 0 disables a horizon.
type RetentionConfig struct {
	TrackerRecordDays int `json:"tracker_record_days,omitempty" yaml:"tracker_record_days,omitempty" validate:"omitempty,min=0"`
	ReportDays        int `json:"report_days,omitempty" yaml:"report_days,omitempty" validate:"omitempty,min=0"`
}

// NewDefaultRetentionConfig creates default retention configuration
func NewDefaultRetentionConfig() RetentionConfig {
	return RetentionConfig{
		TrackerRecordDays: DefaultTrackerRetentionDays,
		ReportDays:        DefaultReportRetentionDays,
	}
}
