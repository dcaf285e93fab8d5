package transport

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"os"
	"path"

	"github.com/aleister1102/docpipe/internal/common"
	"github.com/aleister1102/docpipe/internal/config"
	"github.com/jlaffaye/ftp"
	"github.com/rs/zerolog"
)

// FTPSGateway talks to an FTP endpoint over explicit TLS.
type FTPSGateway struct {
	cfg    config.TransferConfig
	logger zerolog.Logger

	conn *ftp.ServerConn
}

// NewFTPSGateway creates an FTPS gateway from the given transfer configuration.
// The connection is not opened until Connect is called.
func NewFTPSGateway(cfg config.TransferConfig, logger zerolog.Logger) *FTPSGateway {
	return &FTPSGateway{
		cfg:    cfg,
		logger: logger.With().Str("module", "FTPSGateway").Str("host", cfg.Host).Logger(),
	}
}

// Connect dials the endpoint, upgrades to TLS and logs in.
func (g *FTPSGateway) Connect(ctx context.Context) error {
	addr := net.JoinHostPort(g.cfg.Host, fmt.Sprintf("%d", g.cfg.Port))
	conn, err := ftp.Dial(addr,
		ftp.DialWithContext(ctx),
		ftp.DialWithTimeout(connectTimeout(g.cfg)),
		ftp.DialWithShutTimeout(operationTimeout(g.cfg)),
		ftp.DialWithExplicitTLS(&tls.Config{
			ServerName: g.cfg.Host,
			MinVersion: tls.VersionTLS12,
		}),
	)
	if err != nil {
		return common.WrapError(common.ErrNetworkFailure, fmt.Sprintf("failed to dial %s: %v", addr, err))
	}

	if err := conn.Login(g.cfg.Username, g.cfg.Password); err != nil {
		conn.Quit()
		return common.WrapError(common.ErrAuthenticationFailed, fmt.Sprintf("ftps login to %s: %v", addr, err))
	}
	g.conn = conn

	g.logger.Info().Str("addr", addr).Msg("FTPS connection established")
	return nil
}

// List returns the regular files directly under RemotePath/folder.
func (g *FTPSGateway) List(folder string) ([]FileInfo, error) {
	if g.conn == nil {
		return nil, common.NewError("ftps gateway is not connected")
	}

	remoteDir := path.Join(g.cfg.RemotePath, folder)
	entries, err := g.conn.List(remoteDir)
	if err != nil {
		return nil, &common.TransferError{Operation: "list", Folder: folder, Wrapped: err}
	}

	files := make([]FileInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.Type != ftp.EntryTypeFile {
			continue
		}
		files = append(files, FileInfo{
			Folder:  folder,
			Name:    entry.Name,
			Size:    int64(entry.Size),
			ModTime: entry.Time,
		})
	}
	return files, nil
}

// Download copies a remote file to localPath and verifies the written size
// against the remote size.
func (g *FTPSGateway) Download(ctx context.Context, folder, filename, localPath string) (int64, error) {
	if g.conn == nil {
		return 0, common.NewError("ftps gateway is not connected")
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	remotePath := path.Join(g.cfg.RemotePath, folder, filename)
	remoteSize, err := g.conn.FileSize(remotePath)
	if err != nil {
		return 0, &common.TransferError{Operation: "download", Folder: folder, Filename: filename, Wrapped: err}
	}

	resp, err := g.conn.Retr(remotePath)
	if err != nil {
		return 0, &common.TransferError{Operation: "download", Folder: folder, Filename: filename, Wrapped: err}
	}

	written, err := writeLocalFile(localPath, resp)
	if closeErr := resp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return 0, &common.TransferError{Operation: "download", Folder: folder, Filename: filename, Wrapped: err}
	}
	if written != remoteSize {
		return written, &common.TransferError{
			Operation: "download", Folder: folder, Filename: filename,
			Wrapped: common.WrapErrorf(common.ErrSizeMismatch, "wrote %d bytes, remote reports %d", written, remoteSize),
		}
	}

	g.logger.Debug().Str("remote", remotePath).Int64("size", written).Msg("Downloaded file")
	return written, nil
}

// Upload copies a local file to RemotePath/remoteName and verifies the remote
// size afterwards.
func (g *FTPSGateway) Upload(ctx context.Context, localPath, remoteName string) error {
	if g.conn == nil {
		return common.NewError("ftps gateway is not connected")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	src, err := os.Open(localPath)
	if err != nil {
		return &common.TransferError{Operation: "upload", Filename: remoteName, Wrapped: err}
	}
	defer src.Close()

	localStat, err := src.Stat()
	if err != nil {
		return &common.TransferError{Operation: "upload", Filename: remoteName, Wrapped: err}
	}

	remotePath := path.Join(g.cfg.RemotePath, remoteName)
	if err := g.conn.Stor(remotePath, src); err != nil {
		return &common.TransferError{Operation: "upload", Filename: remoteName, Wrapped: err}
	}

	remoteSize, err := g.conn.FileSize(remotePath)
	if err != nil {
		return &common.TransferError{Operation: "upload", Filename: remoteName, Wrapped: err}
	}
	if remoteSize != localStat.Size() {
		return &common.TransferError{
			Operation: "upload", Filename: remoteName,
			Wrapped: common.WrapErrorf(common.ErrSizeMismatch, "remote has %d bytes, local has %d", remoteSize, localStat.Size()),
		}
	}

	g.logger.Info().Str("remote", remotePath).Int64("size", localStat.Size()).Msg("Uploaded file")
	return nil
}

// Close logs out and closes the control connection.
func (g *FTPSGateway) Close() error {
	if g.conn == nil {
		return nil
	}
	err := g.conn.Quit()
	g.conn = nil
	return err
}
