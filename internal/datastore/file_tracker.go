package datastore

import (
	"database/sql"
	"time"

	"github.com/aleister1102/docpipe/internal/common"
)

// FileIdentity uniquely identifies a remote file: at most one tracker record
// exists per identity.
type FileIdentity struct {
	Folder   string
	Filename string
}

// TrackedFile is one row of processing history for a remote file.
type TrackedFile struct {
	Identity     FileIdentity
	LastModified time.Time
	Size         int64
	ProcessedAt  time.Time
}

// FileTracker answers "is this file new or changed" against durable history.
// A commit is atomic per identity; commits happen only after successful
// extraction, so a file whose extraction failed stays eligible for
// reprocessing with the same modification time.
type FileTracker struct {
	store *Store
}

// NewFileTracker creates a FileTracker backed by the given store.
func NewFileTracker(store *Store) *FileTracker {
	return &FileTracker{store: store}
}

// IsNew reports whether the file must be (re)processed: true when no record
// exists for the identity, or when the stored modification time differs from
// remoteModTime. Timestamps are compared at second granularity because
// transfer protocols do not reliably carry sub-second mtimes.
func (ft *FileTracker) IsNew(identity FileIdentity, remoteModTime time.Time) (bool, error) {
	query := `SELECT last_modified FROM file_history WHERE source_folder = ? AND filename = ?`

	var stored time.Time
	err := ft.store.db.QueryRow(query, identity.Folder, identity.Filename).Scan(&stored)
	if err == sql.ErrNoRows {
		return true, nil
	}
	if err != nil {
		return false, common.WrapErrorf(err, "failed to query file history for '%s/%s'", identity.Folder, identity.Filename)
	}

	return !stored.Truncate(time.Second).Equal(remoteModTime.Truncate(time.Second)), nil
}

// Commit records that the file was processed at processedAt with the given
// remote modification time, replacing any previous record for the identity.
func (ft *FileTracker) Commit(identity FileIdentity, remoteModTime time.Time, size int64, processedAt time.Time) error {
	query := `
	INSERT INTO file_history (source_folder, filename, last_modified, size, processed_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(source_folder, filename)
	DO UPDATE SET last_modified = excluded.last_modified,
	              size = excluded.size,
	              processed_at = excluded.processed_at`

	_, err := ft.store.db.Exec(query,
		identity.Folder, identity.Filename,
		remoteModTime.UTC().Truncate(time.Second), size, processedAt.UTC())
	if err != nil {
		return common.WrapErrorf(err, "failed to commit file history for '%s/%s'", identity.Folder, identity.Filename)
	}

	ft.store.logger.Debug().
		Str("folder", identity.Folder).
		Str("filename", identity.Filename).
		Time("last_modified", remoteModTime).
		Msg("Committed file history record")
	return nil
}

// Prune removes records whose processed_at predates olderThan and returns the
// number of records deleted. This horizon is independent of report retention.
func (ft *FileTracker) Prune(olderThan time.Time) (int64, error) {
	result, err := ft.store.db.Exec(`DELETE FROM file_history WHERE processed_at < ?`, olderThan.UTC())
	if err != nil {
		return 0, common.WrapError(err, "failed to prune file history")
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, common.WrapError(err, "failed to count pruned rows")
	}

	if deleted > 0 {
		ft.store.logger.Info().Int64("deleted", deleted).Time("older_than", olderThan).Msg("Pruned old file history records")
	}
	return deleted, nil
}

// Get returns the tracked record for an identity, if one exists.
func (ft *FileTracker) Get(identity FileIdentity) (*TrackedFile, error) {
	query := `SELECT last_modified, size, processed_at FROM file_history WHERE source_folder = ? AND filename = ?`

	tf := TrackedFile{Identity: identity}
	err := ft.store.db.QueryRow(query, identity.Folder, identity.Filename).
		Scan(&tf.LastModified, &tf.Size, &tf.ProcessedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, common.WrapErrorf(err, "failed to load file history for '%s/%s'", identity.Folder, identity.Filename)
	}
	return &tf, nil
}

// Count returns the number of tracked identities.
func (ft *FileTracker) Count() (int, error) {
	var n int
	if err := ft.store.db.QueryRow(`SELECT COUNT(*) FROM file_history`).Scan(&n); err != nil {
		return 0, common.WrapError(err, "failed to count file history")
	}
	return n, nil
}
