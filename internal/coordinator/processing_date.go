package coordinator

import (
	"time"

	"github.com/aleister1102/docpipe/internal/common"
	"github.com/aleister1102/docpipe/internal/config"
)

// ResolveProcessingDate turns the configured override into the logical date a
// run covers. An empty override means yesterday relative to now; "today" and
// explicit "YYYY-MM-DD" values are honored as given. The returned date is
// truncated to midnight in now's location.
func ResolveProcessingDate(override string, now time.Time) (time.Time, error) {
	midnight := func(t time.Time) time.Time {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	}

	switch override {
	case "":
		return midnight(now.AddDate(0, 0, -1)), nil
	case config.ProcessingDateToday:
		return midnight(now), nil
	default:
		parsed, err := time.ParseInLocation("2006-01-02", override, now.Location())
		if err != nil {
			return time.Time{}, common.NewValidationError("processing_date", override, "must be YYYY-MM-DD or 'today'")
		}
		return parsed, nil
	}
}
