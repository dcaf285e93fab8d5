package models

import "time"

// RunStatus is the terminal (or in-flight) status of a processing run.
type RunStatus string

const (
	RunStatusActive         RunStatus = "ACTIVE"
	RunStatusSucceeded      RunStatus = "SUCCEEDED"
	RunStatusPartialFailure RunStatus = "PARTIAL_FAILURE"
	RunStatusFailed         RunStatus = "FAILED"
)

// CycleState names the coordinator's position in a run. Transitions are
// strictly forward; terminal classification lives in RunStatus.
type CycleState string

const (
	StateIdle           CycleState = "Idle"
	StateWorkspaceReady CycleState = "WorkspaceReady"
	StateScanned        CycleState = "Scanned"
	StateFetched        CycleState = "Fetched"
	StateTransformed    CycleState = "Transformed"
	StateDistributed    CycleState = "Distributed"
)

// DownloadResult records the outcome of fetching one remote file.
type DownloadResult struct {
	Folder   string
	Filename string
	Size     int64
	Success  bool
	Error    string
}

// ActionResult records the outcome of one post-processing action. Results are
// attributable by Name, never by position.
type ActionResult struct {
	Name     string
	Success  bool
	Duration time.Duration
	Error    string
}

// RunSummary aggregates everything a finished run produced. It is owned by
// the run that created it and is immutable once the run reaches a terminal
// state.
type RunSummary struct {
	RunID          int64
	ProcessingDate time.Time // logical date the run covers, not the wall clock
	StartTime      time.Time
	EndTime        time.Time
	WorkspacePath  string
	Status         RunStatus

	FoldersScanned   int
	FilesFound       int
	FilesSkipped     int // already tracked with unchanged modification time
	FilesDownloaded  int
	FilesFailed      int
	RecordsExtracted int
	RecordsFailed    int

	Downloads     []DownloadResult
	ActionResults []ActionResult
	ErrorMessages []string

	ReportPath string
	LogPath    string
}

// Duration returns the wall-clock duration of the run.
func (rs *RunSummary) Duration() time.Duration {
	if rs.EndTime.IsZero() {
		return 0
	}
	return rs.EndTime.Sub(rs.StartTime)
}

// ActionByName returns the result for a named post-action, if recorded.
func (rs *RunSummary) ActionByName(name string) (ActionResult, bool) {
	for _, ar := range rs.ActionResults {
		if ar.Name == name {
			return ar, true
		}
	}
	return ActionResult{}, false
}

// ClassifyActions derives the terminal status from post-action outcomes:
// every action succeeded -> Succeeded, anything less -> PartialFailure.
// Failed is reserved for non-recoverable errors in earlier phases.
func ClassifyActions(results []ActionResult) RunStatus {
	for _, r := range results {
		if !r.Success {
			return RunStatusPartialFailure
		}
	}
	return RunStatusSucceeded
}
