package transport

import (
	"context"
	"fmt"
	"time"

	"github.com/aleister1102/docpipe/internal/common"
	"github.com/aleister1102/docpipe/internal/config"
	"github.com/rs/zerolog"
)

// FileInfo describes one remote file discovered during a folder scan.
type FileInfo struct {
	Folder  string
	Name    string
	Size    int64
	ModTime time.Time
}

// Gateway abstracts a remote file endpoint. Implementations are not safe for
// concurrent use; the pipeline drives a gateway from a single goroutine.
//
// List is read-only and idempotent. Download and Upload verify that the
// written size matches the source size and fail with ErrSizeMismatch
// otherwise, leaving the destination file in place for inspection.
type Gateway interface {
	Connect(ctx context.Context) error
	List(folder string) ([]FileInfo, error)
	Download(ctx context.Context, folder, filename, localPath string) (int64, error)
	Upload(ctx context.Context, localPath, remoteName string) error
	Close() error
}

// NewGateway builds a Gateway for the configured protocol.
func NewGateway(cfg config.TransferConfig, logger zerolog.Logger) (Gateway, error) {
	switch cfg.Protocol {
	case "sftp":
		return NewSFTPGateway(cfg, logger), nil
	case "ftps":
		return NewFTPSGateway(cfg, logger), nil
	default:
		return nil, common.WrapError(common.ErrInvalidConfiguration,
			fmt.Sprintf("unsupported transfer protocol '%s'", cfg.Protocol))
	}
}

func connectTimeout(cfg config.TransferConfig) time.Duration {
	secs := cfg.ConnectTimeoutSecs
	if secs <= 0 {
		secs = config.DefaultConnectTimeoutSecs
	}
	return time.Duration(secs) * time.Second
}

func operationTimeout(cfg config.TransferConfig) time.Duration {
	secs := cfg.OperationTimeoutSecs
	if secs <= 0 {
		secs = config.DefaultOperationTimeoutSecs
	}
	return time.Duration(secs) * time.Second
}
