package config

// TransferConfig defines connection parameters for a remote file endpoint.
// The same shape serves both the source (scanned and downloaded from) and the
// destination (report uploads).
type TransferConfig struct {
	Protocol             string `json:"protocol,omitempty" yaml:"protocol,omitempty" validate:"required,oneof=sftp ftps"`
	Host                 string `json:"host,omitempty" yaml:"host,omitempty" validate:"required,hostname|ip"`
	Port                 int    `json:"port,omitempty" yaml:"port,omitempty" validate:"min=1,max=65535"`
	Username             string `json:"username,omitempty" yaml:"username,omitempty" validate:"required"`
	Password             string `json:"password,omitempty" yaml:"password,omitempty" validate:"required"`
	RemotePath           string `json:"remote_path,omitempty" yaml:"remote_path,omitempty" validate:"required"`
	ConnectTimeoutSecs   int    `json:"connect_timeout_secs,omitempty" yaml:"connect_timeout_secs,omitempty" validate:"omitempty,min=1"`
	OperationTimeoutSecs int    `json:"operation_timeout_secs,omitempty" yaml:"operation_timeout_secs,omitempty" validate:"omitempty,min=1"`
}

// NewDefaultTransferConfig creates default transfer configuration
func NewDefaultTransferConfig(protocol string) TransferConfig {
	port := DefaultSFTPPort
	if protocol == "ftps" {
		port = DefaultFTPSPort
	}
	return TransferConfig{
		Protocol:             protocol,
		Port:                 port,
		RemotePath:           "/",
		ConnectTimeoutSecs:   DefaultConnectTimeoutSecs,
		OperationTimeoutSecs: DefaultOperationTimeoutSecs,
	}
}

// SourceConfig describes the remote file source to scan.
type SourceConfig struct {
	TransferConfig `yaml:",inline" json:",inline"`
	// Folders are the sub-folders under RemotePath scanned each cycle.
	Folders []string `json:"folders,omitempty" yaml:"folders,omitempty" validate:"required,min=1,dive,required"`
	// FileExtensions restricts which filenames are fetched (lowercase, with dot).
	FileExtensions []string `json:"file_extensions,omitempty" yaml:"file_extensions,omitempty"`
}

// NewDefaultSourceConfig creates default source configuration
func NewDefaultSourceConfig() SourceConfig {
	return SourceConfig{
		TransferConfig: NewDefaultTransferConfig("ftps"),
		Folders:        []string{},
		FileExtensions: append([]string(nil), DefaultFileExtensions...),
	}
}

// DestinationConfig describes the remote destination for report uploads.
type DestinationConfig struct {
	TransferConfig `yaml:",inline" json:",inline"`
}

// NewDefaultDestinationConfig creates default destination configuration
func NewDefaultDestinationConfig() DestinationConfig {
	return DestinationConfig{
		TransferConfig: NewDefaultTransferConfig("sftp"),
	}
}
