package model

import (
	"fmt"

	json "github.com/goccy/go-json"
)

// FinisherResult is one runner's completion record for an event.
// Nullable numbers are pointers so a missing value stays distinguishable
// from zero.
type FinisherResult struct {
	OverallPlace int `json:"overallPlace"`

	RunnerID        int64    `json:"runnerId"`
	FirstName       string   `json:"firstName"`
	LastName        string   `json:"lastName"`
	Bib             string   `json:"bib"`
	Gender          string   `json:"gender"`
	Age             *int     `json:"age"`
	City            string   `json:"city"`
	StateProvince   string   `json:"stateProvince"`
	CountryCode     string   `json:"countryCode"`
	IAAF            string   `json:"iaaf"`
	OverallTime     string   `json:"overallTime"`
	Pace            string   `json:"pace"`
	GenderPlace     *int     `json:"genderPlace"`
	AgeGradeTime    string   `json:"ageGradeTime"`
	AgeGradePlace   *int     `json:"ageGradePlace"`
	AgeGradePercent *float64 `json:"ageGradePercent"`

	// Extra holds every key not mapped above, verbatim.
	Extra map[string]json.RawMessage `json:"-"`
}

var finisherKeys = []string{
	"overallPlace", "runnerId", "firstName", "lastName", "bib", "gender", "age",
	"city", "stateProvince", "countryCode", "iaaf", "overallTime", "pace",
	"genderPlace", "ageGradeTime", "ageGradePlace", "ageGradePercent",
}

// UnmarshalJSON decodes the known keys and keeps the rest in Extra.
func (f *FinisherResult) UnmarshalJSON(b []byte) error {
	type plain FinisherResult
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	extra, err := leftovers(b, finisherKeys)
	if err != nil {
		return err
	}
	p.Extra = extra
	*f = FinisherResult(p)
	return nil
}

// DecodeFinisher decodes a raw finisher record. overallPlace is the cursor
// and de-duplication key, so a record without a positive one is rejected.
func DecodeFinisher(raw []byte) (FinisherResult, error) {
	var f FinisherResult
	if err := json.Unmarshal(raw, &f); err != nil {
		return FinisherResult{}, fmt.Errorf("%w: finisher: %v", ErrDecode, err)
	}
	if f.OverallPlace <= 0 {
		return FinisherResult{}, fmt.Errorf("%w: finisher has no positive overallPlace", ErrMissingField)
	}
	return f, nil
}

// ExtraJSON renders Extra as a compact JSON object, or "" when empty.
func (f FinisherResult) ExtraJSON() (string, error) {
	if len(f.Extra) == 0 {
		return "", nil
	}
	b, err := json.Marshal(f.Extra)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
