package transport

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aleister1102/docpipe/internal/common"
	"github.com/aleister1102/docpipe/internal/config"
	"github.com/pkg/sftp"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/ssh"
)

// SFTPGateway talks to an SSH file transfer endpoint with password
// authentication.
type SFTPGateway struct {
	cfg    config.TransferConfig
	logger zerolog.Logger

	sshClient  *ssh.Client
	sftpClient *sftp.Client
}

// NewSFTPGateway creates an SFTP gateway from the given transfer configuration.
// The connection is not opened until Connect is called.
func NewSFTPGateway(cfg config.TransferConfig, logger zerolog.Logger) *SFTPGateway {
	return &SFTPGateway{
		cfg:    cfg,
		logger: logger.With().Str("module", "SFTPGateway").Str("host", cfg.Host).Logger(),
	}
}

// Connect dials the SSH endpoint and opens an SFTP session on top of it.
func (g *SFTPGateway) Connect(ctx context.Context) error {
	addr := net.JoinHostPort(g.cfg.Host, fmt.Sprintf("%d", g.cfg.Port))
	sshConfig := &ssh.ClientConfig{
		User: g.cfg.Username,
		Auth: []ssh.AuthMethod{
			ssh.Password(g.cfg.Password),
		},
		// Host keys are not pinned; the endpoints live on a private network.
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         connectTimeout(g.cfg),
	}

	dialer := net.Dialer{Timeout: sshConfig.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return common.WrapError(common.ErrNetworkFailure, fmt.Sprintf("failed to dial %s: %v", addr, err))
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, sshConfig)
	if err != nil {
		conn.Close()
		if strings.Contains(err.Error(), "unable to authenticate") {
			return common.WrapError(common.ErrAuthenticationFailed, fmt.Sprintf("ssh handshake with %s: %v", addr, err))
		}
		return common.WrapError(common.ErrNetworkFailure, fmt.Sprintf("ssh handshake with %s: %v", addr, err))
	}
	g.sshClient = ssh.NewClient(sshConn, chans, reqs)

	sftpClient, err := sftp.NewClient(g.sshClient)
	if err != nil {
		g.sshClient.Close()
		g.sshClient = nil
		return common.WrapError(common.ErrNetworkFailure, fmt.Sprintf("failed to open sftp session on %s: %v", addr, err))
	}
	g.sftpClient = sftpClient

	g.logger.Info().Str("addr", addr).Msg("SFTP connection established")
	return nil
}

// List returns the regular files directly under RemotePath/folder.
func (g *SFTPGateway) List(folder string) ([]FileInfo, error) {
	if g.sftpClient == nil {
		return nil, common.NewError("sftp gateway is not connected")
	}

	remoteDir := path.Join(g.cfg.RemotePath, folder)
	entries, err := g.sftpClient.ReadDir(remoteDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &common.TransferError{Operation: "list", Folder: folder, Wrapped: common.ErrNotFound}
		}
		return nil, &common.TransferError{Operation: "list", Folder: folder, Wrapped: err}
	}

	files := make([]FileInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		files = append(files, FileInfo{
			Folder:  folder,
			Name:    entry.Name(),
			Size:    entry.Size(),
			ModTime: entry.ModTime(),
		})
	}
	return files, nil
}

// Download copies a remote file to localPath and verifies the written size
// against the remote size.
func (g *SFTPGateway) Download(ctx context.Context, folder, filename, localPath string) (int64, error) {
	if g.sftpClient == nil {
		return 0, common.NewError("sftp gateway is not connected")
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	remotePath := path.Join(g.cfg.RemotePath, folder, filename)
	src, err := g.sftpClient.Open(remotePath)
	if err != nil {
		return 0, &common.TransferError{Operation: "download", Folder: folder, Filename: filename, Wrapped: err}
	}
	defer src.Close()

	stat, err := src.Stat()
	if err != nil {
		return 0, &common.TransferError{Operation: "download", Folder: folder, Filename: filename, Wrapped: err}
	}

	written, err := writeLocalFile(localPath, src)
	if err != nil {
		return 0, &common.TransferError{Operation: "download", Folder: folder, Filename: filename, Wrapped: err}
	}
	if written != stat.Size() {
		return written, &common.TransferError{
			Operation: "download", Folder: folder, Filename: filename,
			Wrapped: common.WrapErrorf(common.ErrSizeMismatch, "wrote %d bytes, remote reports %d", written, stat.Size()),
		}
	}

	g.logger.Debug().Str("remote", remotePath).Int64("size", written).Msg("Downloaded file")
	return written, nil
}

// Upload copies a local file to RemotePath/remoteName and verifies the remote
// size afterwards.
func (g *SFTPGateway) Upload(ctx context.Context, localPath, remoteName string) error {
	if g.sftpClient == nil {
		return common.NewError("sftp gateway is not connected")
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
	dst, err := g.sftpClient.Create(remotePath)
	if err != nil {
		return &common.TransferError{Operation: "upload", Filename: remoteName, Wrapped: err}
	}

	written, err := io.Copy(dst, src)
	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return &common.TransferError{Operation: "upload", Filename: remoteName, Wrapped: err}
	}

	remoteStat, err := g.sftpClient.Stat(remotePath)
	if err != nil {
		return &common.TransferError{Operation: "upload", Filename: remoteName, Wrapped: err}
	}
	if remoteStat.Size() != localStat.Size() {
		return &common.TransferError{
			Operation: "upload", Filename: remoteName,
			Wrapped: common.WrapErrorf(common.ErrSizeMismatch, "remote has %d bytes, local has %d", remoteStat.Size(), localStat.Size()),
		}
	}

	g.logger.Info().Str("remote", remotePath).Int64("size", written).Msg("Uploaded file")
	return nil
}

// Close tears down the SFTP session and the underlying SSH connection.
func (g *SFTPGateway) Close() error {
	var firstErr error
	if g.sftpClient != nil {
		firstErr = g.sftpClient.Close()
		g.sftpClient = nil
	}
	if g.sshClient != nil {
		if err := g.sshClient.Close(); firstErr == nil {
			firstErr = err
		}
		g.sshClient = nil
	}
	return firstErr
}

func writeLocalFile(localPath string, src io.Reader) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(localPath), 0755); err != nil {
		return 0, err
	}
	dst, err := os.Create(localPath)
	if err != nil {
		return 0, err
	}
	written, err := io.Copy(dst, src)
	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}
	return written, err
}
