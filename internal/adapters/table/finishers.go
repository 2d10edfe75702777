package table

import (
	"fmt"
	"io"
	"sort"

	"github.com/parquet-go/parquet-go"

	"github.com/okian/finishline/internal/domain/model"
)

// FinisherRow is one row of race_results.parquet: the event identity
// followed by the finisher's fields. Keys the API added beyond the known
// set are kept as a JSON object in Extra.
type FinisherRow struct {
	EventCode string `parquet:"eventCode"`
	EventYear int32  `parquet:"eventYear"`
	EventName string `parquet:"eventName"`

	OverallPlace    int32    `parquet:"overallPlace"`
	RunnerID        int64    `parquet:"runnerId"`
	FirstName       string   `parquet:"firstName"`
	LastName        string   `parquet:"lastName"`
	Bib             string   `parquet:"bib"`
	Gender          string   `parquet:"gender"`
	Age             *int32   `parquet:"age,optional"`
	City            string   `parquet:"city"`
	StateProvince   string   `parquet:"stateProvince"`
	CountryCode     string   `parquet:"countryCode"`
	IAAF            string   `parquet:"iaaf"`
	OverallTime     string   `parquet:"overallTime"`
	Pace            string   `parquet:"pace"`
	GenderPlace     *int32   `parquet:"genderPlace,optional"`
	AgeGradeTime    string   `parquet:"ageGradeTime"`
	AgeGradePlace   *int32   `parquet:"ageGradePlace,optional"`
	AgeGradePercent *float64 `parquet:"ageGradePercent,optional"`

	Extra string `parquet:"extra"`
}

// NewFinisherRow prefixes a finisher with the event it belongs to.
func NewFinisherRow(eventCode string, eventYear int, eventName string, f model.FinisherResult) (FinisherRow, error) {
	extra, err := f.ExtraJSON()
	if err != nil {
		return FinisherRow{}, fmt.Errorf("%w: %s place %d extra fields: %v", ErrBadRow, eventCode, f.OverallPlace, err)
	}
	return FinisherRow{
		EventCode:       eventCode,
		EventYear:       int32(eventYear),
		EventName:       eventName,
		OverallPlace:    int32(f.OverallPlace),
		RunnerID:        f.RunnerID,
		FirstName:       f.FirstName,
		LastName:        f.LastName,
		Bib:             f.Bib,
		Gender:          f.Gender,
		Age:             narrow(f.Age),
		City:            f.City,
		StateProvince:   f.StateProvince,
		CountryCode:     f.CountryCode,
		IAAF:            f.IAAF,
		OverallTime:     f.OverallTime,
		Pace:            f.Pace,
		GenderPlace:     narrow(f.GenderPlace),
		AgeGradeTime:    f.AgeGradeTime,
		AgeGradePlace:   narrow(f.AgeGradePlace),
		AgeGradePercent: f.AgeGradePercent,
		Extra:           extra,
	}, nil
}

// SortFinishers orders rows by event year, event code, then overall place.
func SortFinishers(rows []FinisherRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.EventYear != b.EventYear {
			return a.EventYear < b.EventYear
		}
		if a.EventCode != b.EventCode {
			return a.EventCode < b.EventCode
		}
		return a.OverallPlace < b.OverallPlace
	})
}

// WriteFinishers writes rows as zstd-compressed Parquet. An empty slice
// still produces a file carrying the schema.
func WriteFinishers(w io.Writer, rows []FinisherRow) error {
	pw := parquet.NewGenericWriter[FinisherRow](w, parquet.Compression(&parquet.Zstd))
	if len(rows) > 0 {
		if _, err := pw.Write(rows); err != nil {
			_ = pw.Close()
			return fmt.Errorf("write finisher rows: %w", err)
		}
	}
	if err := pw.Close(); err != nil {
		return fmt.Errorf("close parquet writer: %w", err)
	}
	return nil
}

func narrow(v *int) *int32 {
	if v == nil {
		return nil
	}
	n := int32(*v)
	return &n
}
