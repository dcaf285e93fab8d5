package extractor

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDictation = `RADIOLOGY DICTATION

FIRST NAME: JOHN
LAST NAME: SMITH-DOE
Date of Birth: 3/7/1964
Record Number: 1.221743.0
Case Number: 8167
D/Accident: 12/01/2025
PROVIDER FIRST: MARK A.
PROVIDER LAST: JOHNSON
Date of Exam: 01/15/2026
Place of Exam: Riverside Imaging Center
Transcriptionist: ad/ag
DD: 01/16/2026
Transcription Date: 01/17/2026
Job: 1029-252
Case: AA 061625

Findings are within normal limits. No acute abnormality identified.
`

func writeTxt(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestFieldExtractor_FullDictation(t *testing.T) {
	fe := NewFieldExtractor(zerolog.Nop())

	record, err := fe.Extract(writeTxt(t, "N 1029-252 8167 ~1.221743.0~.txt", sampleDictation))
	require.NoError(t, err)

	assert.Equal(t, "JOHN", record.FirstName)
	assert.Equal(t, "SMITH-DOE", record.LastName)
	assert.Equal(t, "03/07/1964", record.DateOfBirth, "dates are normalized to MM/DD/YYYY")
	assert.Equal(t, "1.221743.0", record.RecordNumber)
	assert.Equal(t, "8167", record.CaseNumber)
	assert.Equal(t, "12/01/2025", record.AccidentDate)
	assert.Equal(t, "MARK A", record.ProviderFirst)
	assert.Equal(t, "JOHNSON", record.ProviderLast)
	assert.Equal(t, "01/15/2026", record.ExamDate)
	assert.Equal(t, "Riverside Imaging Center", record.ExamPlace)
	assert.Equal(t, "ad/ag", record.Transcriptionist)
	assert.Equal(t, "01/16/2026", record.DDDate)
	assert.Equal(t, "01/17/2026", record.TranscriptionDate)
	assert.Equal(t, "1029-252", record.JobNumber)
	assert.Equal(t, "AA061625", record.CaseCode, "case codes lose spaces and are uppercased")
}

func TestFieldExtractor_UnmatchedFieldsStayEmpty(t *testing.T) {
	fe := NewFieldExtractor(zerolog.Nop())

	text := "FIRST NAME: JANE\nThe remainder of this dictation carries no labeled fields at all, just narrative text long enough to not look blank."
	record, err := fe.Extract(writeTxt(t, "partial.txt", text))
	require.NoError(t, err)

	assert.Equal(t, "JANE", record.FirstName)
	assert.Empty(t, record.LastName)
	assert.Empty(t, record.DateOfBirth)
	assert.Empty(t, record.CaseCode)
}

func TestFieldExtractor_MergedDocumentIsFilenameOnly(t *testing.T) {
	fe := NewFieldExtractor(zerolog.Nop())

	record, err := fe.Extract(writeTxt(t, "MERGED batch 2026-01.txt", sampleDictation))
	require.NoError(t, err)

	assert.Equal(t, "MERGED batch 2026-01.txt", record.SourceFile)
	assert.Empty(t, record.FirstName)
	assert.Empty(t, record.CaseCode)
}

func TestFieldExtractor_BlankDictation(t *testing.T) {
	fe := NewFieldExtractor(zerolog.Nop())

	tests := []struct {
		name string
		text string
	}{
		{name: "explicit no dictation", text: "NOTE: there is no dictation for this file. Please disregard this placeholder document entirely."},
		{name: "cancelled", text: "Dictation cancelled. This placeholder exists only so the batch folder stays complete for auditing purposes."},
		{name: "near empty", text: "logo header"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record, err := fe.Extract(writeTxt(t, "blank.txt", tt.text))
			require.NoError(t, err)
			assert.Equal(t, "blank.txt", record.SourceFile)
			assert.Empty(t, record.FirstName)
		})
	}
}

func TestFieldExtractor_JobNumberFromFilename(t *testing.T) {
	fe := NewFieldExtractor(zerolog.Nop())

	text := "FIRST NAME: ANNA\nNarrative content without any job label, padded so the document does not trip the blank detector."
	record, err := fe.Extract(writeTxt(t, "U 1029-343 9054 report.txt", text))
	require.NoError(t, err)

	assert.Equal(t, "1029-343", record.JobNumber)
}

func TestFieldExtractor_NameValidationRejectsNonNames(t *testing.T) {
	fe := NewFieldExtractor(zerolog.Nop())

	text := "FIRST NAME: 12/05/2024\nThe label above was mis-filled with a date; there is no usable name anywhere in this dictation body."
	record, err := fe.Extract(writeTxt(t, "odd.txt", text))
	require.NoError(t, err)

	assert.Empty(t, record.FirstName)
}

func TestFieldExtractor_UnsupportedFormat(t *testing.T) {
	fe := NewFieldExtractor(zerolog.Nop())

	_, err := fe.Extract(writeTxt(t, "report.pdf", "%PDF-1.4 not a supported format"))
	assert.Error(t, err)
}

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "3/7/1964", want: "03/07/1964"},
		{in: "12-01-2025", want: "12/01/2025"},
		{in: "2026/01/15", want: "01/15/2026"},
		{in: "2026-1-5", want: "01/05/2026"},
		{in: "20260115", want: "01/15/2026"},
		{in: "01152026", want: "01/15/2026"},
		{in: "25/03/2024", want: "03/25/2024"}, // day-first input
		{in: "00/00/0000", want: ""},
		{in: "13/13/2024", want: ""},
		{in: "not a date", want: ""},
		{in: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeDate(tt.in))
		})
	}
}

func TestExtractText_HTMLMasqueradingAsDoc(t *testing.T) {
	path := writeTxt(t, "report.doc", "<html><body><p>FIRST NAME: LISA</p><p>Body text&nbsp;here</p></body></html>")

	text, err := ExtractText(path)
	require.NoError(t, err)
	assert.Contains(t, text, "FIRST NAME: LISA")
	assert.NotContains(t, text, "<p>")
}

func TestExtractText_RTFMasqueradingAsDoc(t *testing.T) {
	path := writeTxt(t, "report.doc", `{\rtf1\ansi\deff0 {\fonttbl} FIRST NAME: OMAR \par narrative}`)

	text, err := ExtractText(path)
	require.NoError(t, err)
	assert.Contains(t, text, "FIRST NAME: OMAR")
	assert.NotContains(t, text, `\rtf1`)
}
