package extractor

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/aleister1102/docpipe/internal/common"
	"github.com/aleister1102/docpipe/internal/models"
	"github.com/rs/zerolog"
)

// Extractor turns one downloaded document into a structured record.
type Extractor interface {
	Extract(path string) (models.Record, error)
}

// fieldSpec binds a record field to the ordered regex patterns that can
// populate it. Patterns are tried in order; the first accepted match wins.
type fieldSpec struct {
	name     string
	patterns []*regexp.Regexp
	isDate   bool
	isName   bool
	assign   func(*models.Record, string)
}

// FieldExtractor extracts labeled fields from document text with a fixed
// pattern table. Unmatched fields stay empty; a file only fails extraction
// when its text cannot be read at all.
type FieldExtractor struct {
	logger zerolog.Logger
	fields []fieldSpec
}

// NewFieldExtractor creates a FieldExtractor with the standard field table.
func NewFieldExtractor(logger zerolog.Logger) *FieldExtractor {
	return &FieldExtractor{
		logger: logger.With().Str("module", "FieldExtractor").Logger(),
		fields: buildFieldTable(),
	}
}

func buildFieldTable() []fieldSpec {
	compile := func(exprs ...string) []*regexp.Regexp {
		out := make([]*regexp.Regexp, 0, len(exprs))
		for _, e := range exprs {
			out = append(out, regexp.MustCompile(e))
		}
		return out
	}

	return []fieldSpec{
		{
			name:   "first_name",
			isName: true,
			patterns: compile(
				`(?im)FIRST\s+NAME\s*:\s*([^\n\r,]+)`,
			),
			assign: func(r *models.Record, v string) { r.FirstName = v },
		},
		{
			name:   "last_name",
			isName: true,
			patterns: compile(
				`(?im)LAST\s+NAME\s*:\s*([^\n\r,]+)`,
			),
			assign: func(r *models.Record, v string) { r.LastName = v },
		},
		{
			name:   "date_of_birth",
			isDate: true,
			patterns: compile(
				`(?im)Date\s+of\s+Birth\s*:\s*(\d{1,2}/\d{1,2}/\d{4})`,
				`(?im)DOB\s*:\s*(\d{1,2}/\d{1,2}/\d{4})`,
			),
			assign: func(r *models.Record, v string) { r.DateOfBirth = v },
		},
		{
			name: "record_number",
			patterns: compile(
				`(?im)Record\s*Number\s*:\s*(\d+\.\d+\.\d+)`,
				`(?im)MRN\s*:\s*(\d+\.\d+\.\d+)`,
				`~(\d+\.\d+\.\d+)~`,
			),
			assign: func(r *models.Record, v string) { r.RecordNumber = v },
		},
		{
			name: "case_number",
			patterns: compile(
				`(?im)Case\s+Number\s*:\s*(\d+)`,
			),
			assign: func(r *models.Record, v string) { r.CaseNumber = v },
		},
		{
			name:   "accident_date",
			isDate: true,
			patterns: compile(
				`(?im)D/Accident\s*:\s*(\d{1,2}/\d{1,2}/\d{4})`,
				`(?im)(?:Date\s+of\s+Accident|Accident\s+Date)\s*:\s*(\d{1,2}/\d{1,2}/\d{4})`,
				`(?im)D/Injury\s*:\s*(\d{1,2}/\d{1,2}/\d{4})`,
				`(?im)(?:Date\s+of\s+Injury|Injury\s+Date)\s*:\s*(\d{1,2}/\d{1,2}/\d{4})`,
			),
			assign: func(r *models.Record, v string) { r.AccidentDate = v },
		},
		{
			name:   "provider_first",
			isName: true,
			patterns: compile(
				// "FRIST" appears in real documents alongside the correct spelling.
				`(?im)PROVIDER\s+F(?:I?RI?)ST\s*:\s*([A-Za-z][A-Za-z\s.\-]+?)(?:\r?\n|$)`,
			),
			assign: func(r *models.Record, v string) { r.ProviderFirst = v },
		},
		{
			name:   "provider_last",
			isName: true,
			patterns: compile(
				`(?im)PROVIDER\s+LAST\s*:\s*([A-Za-z][A-Za-z\s.\-]+?)(?:\r?\n|$)`,
			),
			assign: func(r *models.Record, v string) { r.ProviderLast = v },
		},
		{
			name:   "exam_date",
			isDate: true,
			patterns: compile(
				`(?im)(?:Date\s+of\s+Exam|Exam\s+Date)\s*:\s*(\d{1,2}/\d{1,2}/\d{4})`,
			),
			assign: func(r *models.Record, v string) { r.ExamDate = v },
		},
		{
			name: "exam_place",
			patterns: compile(
				`(?im)(?:Place\s+of\s+Exam|Exam\s+Place)\s*:\s*([A-Za-z][A-Za-z\s.'\-]+?)\s*(?:\r?\n|$)`,
			),
			assign: func(r *models.Record, v string) { r.ExamPlace = v },
		},
		{
			name: "transcriptionist",
			patterns: compile(
				`(?im)Transcriptionist\s*:\s*([a-z]{2}/[a-z]{2})`,
				`([a-z]{2}/[a-z]{2})\s+DD:`,
			),
			assign: func(r *models.Record, v string) { r.Transcriptionist = v },
		},
		{
			name:   "dd_date",
			isDate: true,
			patterns: compile(
				`(?im)DD\s*:\s*(\d{1,2}/\d{1,2}/\d{4})`,
				`(?im)(?:DD\s+Date|Dictation\s+Date)\s*:\s*(\d{1,2}/\d{1,2}/\d{4})`,
			),
			assign: func(r *models.Record, v string) { r.DDDate = v },
		},
		{
			name:   "transcription_date",
			isDate: true,
			patterns: compile(
				`(?im)Transcription\s+Date\s*:\s*(\d{1,2}/\d{1,2}/\d{4})`,
				`(?im)transcribed\s+date\s*:\s*(\d{1,2}/\d{1,2}/\d{4})`,
			),
			assign: func(r *models.Record, v string) { r.TranscriptionDate = v },
		},
		{
			name: "job_number",
			patterns: compile(
				`(?im)Job\s*:?\s*(\d{4}-\d{2,3})`,
				`(?im)Job\s*:\s*[A-Z]\s*(\d{4}-\d{2,3})`,
				`[A-Z]\s+(\d{4}-\d{2,3})\s+\d`,
			),
			assign: func(r *models.Record, v string) { r.JobNumber = v },
		},
		{
			name: "case_code",
			patterns: compile(
				`(?im)Case\s*:\s*([A-Za-z]{2,3}\s*\d+)(?:\s|$)`,
			),
			assign: func(r *models.Record, v string) { r.CaseCode = v },
		},
	}
}

// Extract reads the document text and parses the field table against it.
// Merged multi-dictation documents and near-blank documents yield a record
// carrying only the source filename; they still appear in the report.
func (fe *FieldExtractor) Extract(path string) (models.Record, error) {
	sourceFile := filepath.Base(path)
	record := models.Record{SourceFile: sourceFile}

	text, err := ExtractText(path)
	if err != nil {
		return record, common.WrapErrorf(err, "failed to extract text from '%s'", sourceFile)
	}

	if strings.Contains(strings.ToUpper(sourceFile), "MERGED") {
		fe.logger.Info().Str("file", sourceFile).Msg("Merged document detected, emitting filename-only record")
		return record, nil
	}
	if isBlankDocument(text) {
		fe.logger.Info().Str("file", sourceFile).Msg("Blank or cancelled dictation, emitting filename-only record")
		return record, nil
	}

	matched := 0
	for _, field := range fe.fields {
		value := fe.matchField(field, text)
		if value != "" {
			field.assign(&record, value)
			matched++
		}
	}

	// Job numbers often live only in the filename.
	if record.JobNumber == "" {
		if m := filenameJobPattern.FindStringSubmatch(sourceFile); m != nil {
			record.JobNumber = m[1]
		}
	}

	fe.logger.Debug().Str("file", sourceFile).Int("fields_matched", matched).Msg("Parsed document fields")
	return record, nil
}

var filenameJobPattern = regexp.MustCompile(`[A-Z]\s+(\d{4}-\d{2,3})\s+\d`)

var whitespaceRun = regexp.MustCompile(`\s+`)

func (fe *FieldExtractor) matchField(field fieldSpec, text string) string {
	for _, pattern := range field.patterns {
		m := pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}

		value := strings.Trim(whitespaceRun.ReplaceAllString(strings.TrimSpace(m[1]), " "), ".,;:")
		if value == "" {
			continue
		}

		if field.isName && !isPlausibleName(value) {
			continue
		}
		if field.isDate {
			if normalized := NormalizeDate(value); normalized != "" {
				return normalized
			}
			continue
		}
		if field.name == "case_code" {
			value = strings.ToUpper(strings.ReplaceAll(value, " ", ""))
			if !caseCodePattern.MatchString(value) {
				continue
			}
		}
		if field.name == "exam_place" && !isPlausibleExamPlace(value) {
			continue
		}
		return value
	}
	return ""
}

var caseCodePattern = regexp.MustCompile(`^[A-Z]{2,3}\d+$`)

var nonNamePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\d{1,2}/\d{1,2}/\d{4}`),
	regexp.MustCompile(`\d{4}-\d{1,2}-\d{1,2}`),
	regexp.MustCompile(`(?i)date\s*of`),
	regexp.MustCompile(`^\d+$`),
	regexp.MustCompile(`[A-Z]{2}\d{6}`),
	regexp.MustCompile(`\d{4}-\d{3}`),
	regexp.MustCompile(`^[a-z]{2}/[a-z]{2}$`),
}

func isPlausibleName(value string) bool {
	if len(strings.TrimSpace(value)) < 2 {
		return false
	}
	for _, p := range nonNamePatterns {
		if p.MatchString(value) {
			return false
		}
	}

	alpha, total := 0, 0
	for _, c := range value {
		if c == ' ' {
			continue
		}
		total++
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') {
			alpha++
		}
	}
	return total > 0 && alpha*2 >= total
}

var examPlaceNoise = []string{
	"INTERNAL USE ONLY",
	"RADIOLOGY REPORT",
	"DICTATED BUT NOT READ",
	"SIGNED REPORT",
	"PATIENT",
	"MEDICAL EXAM",
	"PHYSICAL EXAM",
	"EXAMINATION",
	"REPORT",
	"EVALUATION",
}

func isPlausibleExamPlace(value string) bool {
	if len(strings.TrimSpace(value)) < 3 {
		return false
	}
	upper := strings.ToUpper(value)
	for _, noise := range examPlaceNoise {
		if strings.Contains(upper, noise) {
			return false
		}
	}
	return true
}

var blankIndicators = []string{
	"no dictation",
	"nodictation",
	"there is no dictation",
	"blank file",
	"this is a blank file",
	"dictation cancelled",
	"addendum to file",
	"addendum added to file",
	"re-dictated in file",
	"redictated in file",
}

func isBlankDocument(text string) bool {
	stripped := strings.TrimSpace(text)
	if len(stripped) < 50 {
		return true
	}
	lower := strings.ToLower(stripped)
	for _, indicator := range blankIndicators {
		if strings.Contains(lower, indicator) {
			return true
		}
	}
	return false
}
