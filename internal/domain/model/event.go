// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"strings"
	"time"

	json "github.com/goccy/go-json"
)

// startLayouts are tried in order when parsing startDateTime. The API sends
// the zone-less form; the others cover hand-edited files.
var startLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Event is one race instance as listed by the events search endpoint.
type Event struct {
	EventCode     string `json:"eventCode"`
	EventName     string `json:"eventName"`
	StartDateTime string `json:"startDateTime"`

	// Year is derived from StartDateTime by Normalize.
	Year int `json:"-"`
	// Start is the parsed StartDateTime.
	Start time.Time `json:"-"`

	// Extra holds every key not mapped above, verbatim.
	Extra map[string]json.RawMessage `json:"-"`
}

var eventKeys = []string{"eventCode", "eventName", "startDateTime"}

// UnmarshalJSON decodes the known keys and keeps the rest in Extra.
func (e *Event) UnmarshalJSON(b []byte) error {
	type plain Event
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	extra, err := leftovers(b, eventKeys)
	if err != nil {
		return err
	}
	p.Extra = extra
	*e = Event(p)
	return nil
}

// DecodeEvent decodes and normalizes a raw event record.
func DecodeEvent(raw []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(raw, &e); err != nil {
		return Event{}, fmt.Errorf("%w: event: %v", ErrDecode, err)
	}
	if err := e.Normalize(); err != nil {
		return Event{}, err
	}
	return e, nil
}

// Normalize validates required fields and derives Start and Year.
func (e *Event) Normalize() error {
	if e.EventCode == "" {
		return fmt.Errorf("%w: event %q has no eventCode", ErrMissingField, e.EventName)
	}
	start, err := ParseStart(e.StartDateTime)
	if err != nil {
		return fmt.Errorf("event %s: %w", e.EventCode, err)
	}
	e.Start = start
	e.Year = start.Year()
	return nil
}

// ResultFileName is the base name, without extension, of the event's
// per-event result file.
func (e Event) ResultFileName() string {
	return ResultFileName(e.EventName, e.EventCode)
}

// ParseStart parses a startDateTime value.
func ParseStart(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range startLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrBadTimestamp, s)
}

// SanitizeName makes an event name safe as a single path component.
func SanitizeName(name string) string {
	return strings.ReplaceAll(name, "/", "-")
}

// ResultFileName builds "eventName (eventCode)".
func ResultFileName(eventName, eventCode string) string {
	return fmt.Sprintf("%s (%s)", SanitizeName(eventName), eventCode)
}

// ParseResultFileName splits "eventName (eventCode)[.json]" back into its
// parts. Names may themselves contain parentheses, so the last " (" wins.
// An empty event name is valid.
func ParseResultFileName(base string) (eventName, eventCode string, ok bool) {
	base = strings.TrimSuffix(base, ".json")
	if !strings.HasSuffix(base, ")") {
		return "", "", false
	}
	i := strings.LastIndex(base, " (")
	if i < 0 {
		return "", "", false
	}
	eventCode = base[i+2 : len(base)-1]
	if eventCode == "" || strings.ContainsAny(eventCode, "()") {
		return "", "", false
	}
	return base[:i], eventCode, true
}

// leftovers returns the keys of obj not listed in known, or nil.
func leftovers(obj []byte, known []string) (map[string]json.RawMessage, error) {
	var all map[string]json.RawMessage
	if err := json.Unmarshal(obj, &all); err != nil {
		return nil, err
	}
	for _, k := range known {
		delete(all, k)
	}
	if len(all) == 0 {
		return nil, nil
	}
	return all, nil
}
