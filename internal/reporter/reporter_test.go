package reporter

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aleister1102/docpipe/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVReporter_WriteReport(t *testing.T) {
	reporter := NewCSVReporter(zerolog.Nop())
	path := filepath.Join(t.TempDir(), "20260201_output.csv")

	records := []models.Record{
		{SourceFile: "a.docx", FirstName: "JOHN", LastName: "SMITH"},
		{SourceFile: "b.docx", CaseCode: "AA061625"},
	}
	require.NoError(t, reporter.WriteReport(records, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, strings.Join(models.CSVColumns, ","), lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "a.docx,JOHN,SMITH,"))
	assert.True(t, strings.HasPrefix(lines[2], "b.docx,"))
	assert.True(t, strings.HasSuffix(lines[2], ",AA061625"))
}

func TestCSVReporter_EmptyRecordListWritesHeader(t *testing.T) {
	reporter := NewCSVReporter(zerolog.Nop())
	path := filepath.Join(t.TempDir(), "reports", "20260201_output.csv")

	require.NoError(t, reporter.WriteReport(nil, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, strings.Join(models.CSVColumns, ",")+"\n", string(data))
}

func TestRunLogWriter_WriteRunLog(t *testing.T) {
	writer := NewRunLogWriter(zerolog.Nop())
	writer.now = func() time.Time {
		return time.Date(2026, 2, 2, 3, 15, 42, 0, time.UTC)
	}

	workspace := t.TempDir()
	start := time.Date(2026, 2, 2, 3, 0, 0, 0, time.UTC)
	summary := &models.RunSummary{
		RunID:            7,
		ProcessingDate:   time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		StartTime:        start,
		EndTime:          start.Add(90 * time.Second),
		Status:           models.RunStatusPartialFailure,
		FoldersScanned:   2,
		FilesFound:       3,
		FilesSkipped:     1,
		FilesDownloaded:  2,
		RecordsExtracted: 2,
		Downloads: []models.DownloadResult{
			{Folder: "radiology", Filename: "a.docx", Size: 2048, Success: true},
		},
		ActionResults: []models.ActionResult{
			{Name: "distribute-report", Success: true, Duration: 2 * time.Second},
			{Name: "send-notification", Success: false, Duration: time.Second},
		},
		ErrorMessages: []string{"send-notification: smtp connect refused"},
	}

	path, err := writer.WriteRunLog(workspace, summary)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(workspace, "processing_log_20260202_031542.txt"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)

	assert.Contains(t, content, "Run ID:             7")
	assert.Contains(t, content, "Processing Date:    2026-02-01")
	assert.Contains(t, content, "Duration:           90.00 seconds")
	assert.Contains(t, content, "Status:             PARTIAL_FAILURE")
	assert.Contains(t, content, "[OK] radiology/a.docx (2048 bytes)")
	assert.Contains(t, content, "[FAILED] send-notification")
	assert.Contains(t, content, "smtp connect refused")
}
