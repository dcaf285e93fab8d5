package models

// Record is one structured row extracted from a fetched document. Fields are
// kept as strings; the extractor leaves unmatched fields empty so every
// processed file still contributes a row.
type Record struct {
	SourceFile        string
	FirstName         string
	LastName          string
	DateOfBirth       string
	RecordNumber      string
	CaseNumber        string
	AccidentDate      string
	ProviderFirst     string
	ProviderLast      string
	ExamDate          string
	ExamPlace         string
	Transcriptionist  string
	DDDate            string
	TranscriptionDate string
	JobNumber         string
	CaseCode          string
}

// CSVColumns is the fixed column set of the report artifact, in output order.
var CSVColumns = []string{
	"source_file",
	"first_name",
	"last_name",
	"date_of_birth",
	"record_number",
	"case_number",
	"accident_date/Injury_date",
	"provider_first",
	"provider_last",
	"exam_date",
	"exam_place",
	"transcriptionist",
	"dd_date",
	"transcription_date",
	"job_number",
	"case_code",
}

// CSVRow returns the record's values aligned with CSVColumns.
func (r Record) CSVRow() []string {
	return []string{
		r.SourceFile,
		r.FirstName,
		r.LastName,
		r.DateOfBirth,
		r.RecordNumber,
		r.CaseNumber,
		r.AccidentDate,
		r.ProviderFirst,
		r.ProviderLast,
		r.ExamDate,
		r.ExamPlace,
		r.Transcriptionist,
		r.DDDate,
		r.TranscriptionDate,
		r.JobNumber,
		r.CaseCode,
	}
}
