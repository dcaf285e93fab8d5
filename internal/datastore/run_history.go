package datastore

import (
	"database/sql"
	"strings"
	"time"

	"github.com/aleister1102/docpipe/internal/common"
	"github.com/aleister1102/docpipe/internal/models"
)

// RunHistory persists one row per processing run, giving runs their
// monotonically assigned ids.
type RunHistory struct {
	store *Store
}

// NewRunHistory creates a RunHistory backed by the given store.
func NewRunHistory(store *Store) *RunHistory {
	return &RunHistory{store: store}
}

// RecordRunStart inserts a new run row with status ACTIVE and returns its id.
func (rh *RunHistory) RecordRunStart(processingDate time.Time, startTime time.Time) (int64, error) {
	query := `INSERT INTO run_history (processing_date, start_time, status) VALUES (?, ?, ?)`
	result, err := rh.store.db.Exec(query,
		processingDate.Format("2006-01-02"), startTime.UTC(), string(models.RunStatusActive))
	if err != nil {
		return 0, common.WrapError(err, "failed to insert run start record")
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, common.WrapError(err, "failed to get last insert ID for run start")
	}

	rh.store.logger.Info().
		Int64("run_id", id).
		Str("processing_date", processingDate.Format("2006-01-02")).
		Msg("Recorded run start")
	return id, nil
}

// RecordRunCompletion updates the run row with its terminal state and counts.
func (rh *RunHistory) RecordRunCompletion(summary *models.RunSummary) error {
	query := `UPDATE run_history SET end_time = ?, status = ?, workspace_path = ?,
		files_found = ?, files_downloaded = ?, files_failed = ?,
		records_extracted = ?, records_failed = ?, error_summary = ?
		WHERE id = ?`

	errorSummary := strings.Join(summary.ErrorMessages, "; ")
	_, err := rh.store.db.Exec(query,
		summary.EndTime.UTC(), string(summary.Status),
		sql.NullString{String: summary.WorkspacePath, Valid: summary.WorkspacePath != ""},
		summary.FilesFound, summary.FilesDownloaded, summary.FilesFailed,
		summary.RecordsExtracted, summary.RecordsFailed,
		sql.NullString{String: errorSummary, Valid: errorSummary != ""},
		summary.RunID)
	if err != nil {
		return common.WrapErrorf(err, "failed to update run completion for id %d", summary.RunID)
	}

	rh.store.logger.Info().
		Int64("run_id", summary.RunID).
		Str("status", string(summary.Status)).
		Msg("Recorded run completion")
	return nil
}

// MarkRunAbandoned flips a run that is still ACTIVE to FAILED with the given
// reason. A run that reached a terminal status on its own is left untouched;
// the return value reports whether a row was updated.
func (rh *RunHistory) MarkRunAbandoned(id int64, endTime time.Time, reason string) (bool, error) {
	query := `UPDATE run_history SET end_time = ?, status = ?, error_summary = ?
		WHERE id = ? AND status = ?`

	result, err := rh.store.db.Exec(query,
		endTime.UTC(), string(models.RunStatusFailed), reason,
		id, string(models.RunStatusActive))
	if err != nil {
		return false, common.WrapErrorf(err, "failed to mark run %d abandoned", id)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, common.WrapErrorf(err, "failed to read rows affected for run %d", id)
	}
	if rows > 0 {
		rh.store.logger.Warn().Int64("run_id", id).Str("reason", reason).Msg("Marked run abandoned")
	}
	return rows > 0, nil
}

// RunRecord is one persisted run history row.
type RunRecord struct {
	ID             int64
	ProcessingDate string
	Status         models.RunStatus
	ErrorSummary   string
}

// GetRun loads one run history row by id, or nil when the id is unknown.
func (rh *RunHistory) GetRun(id int64) (*RunRecord, error) {
	query := `SELECT id, processing_date, status, COALESCE(error_summary, '') FROM run_history WHERE id = ?`

	var record RunRecord
	err := rh.store.db.QueryRow(query, id).
		Scan(&record.ID, &record.ProcessingDate, &record.Status, &record.ErrorSummary)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, common.WrapErrorf(err, "failed to load run history row %d", id)
	}
	return &record, nil
}

// GetLastRunStart returns the start time of the most recent run, or nil when
// no run has ever been recorded.
func (rh *RunHistory) GetLastRunStart() (*time.Time, error) {
	query := `SELECT start_time FROM run_history ORDER BY start_time DESC LIMIT 1`

	var startTime time.Time
	err := rh.store.db.QueryRow(query).Scan(&startTime)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, common.WrapError(err, "failed to query last run start time")
	}
	return &startTime, nil
}
