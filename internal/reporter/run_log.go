package reporter

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aleister1102/docpipe/internal/common"
	"github.com/aleister1102/docpipe/internal/models"
	"github.com/rs/zerolog"
)

const runLogTimeLayout = "20060102_150405"

// RunLogWriter writes a human-readable summary of one processing run into the
// workspace, next to the report it describes.
type RunLogWriter struct {
	logger zerolog.Logger
	// now is swapped in tests to pin the log filename.
	now func() time.Time
}

// NewRunLogWriter creates a RunLogWriter.
func NewRunLogWriter(logger zerolog.Logger) *RunLogWriter {
	return &RunLogWriter{
		logger: logger.With().Str("module", "RunLogWriter").Logger(),
		now:    time.Now,
	}
}

// WriteRunLog renders the summary into `processing_log_<timestamp>.txt` under
// workspacePath and returns the written path.
func (rl *RunLogWriter) WriteRunLog(workspacePath string, summary *models.RunSummary) (string, error) {
	filename := fmt.Sprintf("processing_log_%s.txt", rl.now().Format(runLogTimeLayout))
	path := filepath.Join(workspacePath, filename)

	if err := os.WriteFile(path, []byte(renderRunLog(summary)), 0644); err != nil {
		return "", common.WrapErrorf(err, "failed to write run log '%s'", path)
	}

	rl.logger.Info().Str("path", path).Msg("Run log written")
	return path, nil
}

func renderRunLog(summary *models.RunSummary) string {
	var sb strings.Builder
	rule := strings.Repeat("=", 80)
	thin := strings.Repeat("-", 80)

	line := func(format string, args ...interface{}) {
		fmt.Fprintf(&sb, format+"\n", args...)
	}

	line(rule)
	line("DOCUMENT PROCESSING LOG")
	line(rule)
	line("")

	line("PROCESSING SUMMARY")
	line(thin)
	line("Run ID:             %d", summary.RunID)
	line("Processing Date:    %s", summary.ProcessingDate.Format("2006-01-02"))
	line("Start Time:         %s", summary.StartTime.Format(time.RFC3339))
	line("End Time:           %s", summary.EndTime.Format(time.RFC3339))
	line("Duration:           %.2f seconds", summary.Duration().Seconds())
	line("Status:             %s", summary.Status)
	line("")

	line("SCAN AND FETCH RESULTS")
	line(thin)
	line("Folders Scanned:    %d", summary.FoldersScanned)
	line("Files Found:        %d", summary.FilesFound)
	line("Files Skipped:      %d (already processed)", summary.FilesSkipped)
	line("Files Downloaded:   %d", summary.FilesDownloaded)
	line("Files Failed:       %d", summary.FilesFailed)
	line("")

	if len(summary.Downloads) > 0 {
		line("DOWNLOADED FILES")
		line(thin)
		for _, d := range summary.Downloads {
			status := "OK"
			if !d.Success {
				status = "FAILED"
			}
			line("  [%s] %s/%s (%d bytes)", status, d.Folder, d.Filename, d.Size)
		}
		line("")
	}

	line("EXTRACTION RESULTS")
	line(thin)
	line("Records Extracted:  %d", summary.RecordsExtracted)
	line("Records Failed:     %d", summary.RecordsFailed)
	if summary.ReportPath != "" {
		line("Report:             %s", summary.ReportPath)
	}
	line("")

	if len(summary.ActionResults) > 0 {
		line("POST-ACTIONS")
		line(thin)
		for _, a := range summary.ActionResults {
			status := "OK"
			if !a.Success {
				status = "FAILED"
			}
			line("  [%s] %-20s %.2fs", status, a.Name, a.Duration.Seconds())
		}
		line("")
	}

	if len(summary.ErrorMessages) > 0 {
		line("ERRORS")
		line(thin)
		for _, msg := range summary.ErrorMessages {
			line("  - %s", msg)
		}
		line("")
	}

	line(rule)
	return sb.String()
}
