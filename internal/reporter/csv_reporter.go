package reporter

import (
	"encoding/csv"
	"os"
	"path/filepath"

	"github.com/aleister1102/docpipe/internal/common"
	"github.com/aleister1102/docpipe/internal/models"
	"github.com/rs/zerolog"
)

// CSVReporter writes the cycle's record list as the report artifact. The
// header row is always written, so an empty record list still produces a
// valid, distributable report.
type CSVReporter struct {
	logger zerolog.Logger
}

// NewCSVReporter creates a CSVReporter.
func NewCSVReporter(logger zerolog.Logger) *CSVReporter {
	return &CSVReporter{
		logger: logger.With().Str("module", "CSVReporter").Logger(),
	}
}

// WriteReport serializes records to path in the fixed column order.
func (cr *CSVReporter) WriteReport(records []models.Record, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return common.WrapErrorf(err, "failed to create report directory for '%s'", path)
	}

	file, err := os.Create(path)
	if err != nil {
		return common.WrapErrorf(err, "failed to create report file '%s'", path)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(models.CSVColumns); err != nil {
		return common.WrapError(err, "failed to write report header")
	}
	for _, record := range records {
		if err := writer.Write(record.CSVRow()); err != nil {
			return common.WrapErrorf(err, "failed to write report row for '%s'", record.SourceFile)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return common.WrapErrorf(err, "failed to flush report '%s'", path)
	}

	cr.logger.Info().Str("path", path).Int("records", len(records)).Msg("Report written")
	return nil
}
