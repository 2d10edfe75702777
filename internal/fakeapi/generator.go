package fakeapi

import (
	"fmt"
	"hash/fnv"
	"math/rand"
	"time"
)

// Name and distance pools. One event name carries a "/" so consumers
// exercise file name sanitization.
var (
	eventKinds = []struct {
		name     string
		distance string
		meters   int
	}{
		{"Mini 5K/10K", "5 km", 5_000},
		{"Manhattan 10K", "10 km", 10_000},
		{"Queens Half Marathon", "Half-Marathon", 21_097},
		{"Bronx 10 Mile", "10 miles", 16_093},
		{"City Marathon", "Marathon", 42_195},
	}
	firstNames = []string{"Ana", "Ben", "Chloe", "Dev", "Elif", "Femi", "Gus", "Hana", "Ivan", "Jo"}
	lastNames  = []string{"Alvarez", "Brown", "Chen", "Diallo", "Evans", "Fischer", "Garcia", "Hughes"}
	cities     = []string{"New York", "Brooklyn", "Hoboken", "Yonkers", "Boston", "London"}
)

type event struct {
	EventCode     string `json:"eventCode"`
	EventName     string `json:"eventName"`
	StartDateTime string `json:"startDateTime"`
	DistanceName  string `json:"distanceName"`
	IsVirtual     bool   `json:"isVirtual"`
}

type finisher struct {
	OverallPlace int    `json:"overallPlace"`
	RunnerID     int64  `json:"runnerId"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Bib          string `json:"bib"`
	Gender       string `json:"gender"`
	Age          int    `json:"age"`
	City         string `json:"city"`
	CountryCode  string `json:"countryCode"`
	OverallTime  string `json:"overallTime"`
	Pace         string `json:"pace"`
	TeamCode     string `json:"teamCode,omitempty"`
}

// generator derives every listing from the seed, so repeated requests
// return identical bytes.
type generator struct {
	cfg    *Config
	events map[int][]event
	known  map[string]int // event code -> distance in meters
}

func newGenerator(cfg *Config) *generator {
	g := &generator{cfg: cfg, events: map[int][]event{}, known: map[string]int{}}
	for year := cfg.YearFrom; year >= cfg.YearTo; year-- {
		for i := 0; i < cfg.EventsPerYear; i++ {
			kind := eventKinds[i%len(eventKinds)]
			month := 1 + i*12/max(cfg.EventsPerYear, 1)
			e := event{
				EventCode:     fmt.Sprintf("%02dEV%d", year%100, i+1),
				EventName:     fmt.Sprintf("%d %s", year, kind.name),
				StartDateTime: time.Date(year, time.Month(month), 1+i%28, 8, 0, 0, 0, time.UTC).Format("2006-01-02T15:04:05"),
				DistanceName:  kind.distance,
			}
			g.events[year] = append(g.events[year], e)
			g.known[e.EventCode] = kind.meters
		}
	}
	return g
}

// finishers returns places from..to inclusive, clipped to the event's field.
func (g *generator) finishers(code string, from, to int) []finisher {
	meters, ok := g.known[code]
	if !ok {
		return nil
	}
	from = max(from, 1)
	to = min(to, g.cfg.FinishersPerEvent)

	out := make([]finisher, 0, max(to-from+1, 0))
	for place := from; place <= to; place++ {
		out = append(out, g.finisher(code, meters, place))
	}
	return out
}

func (g *generator) finisher(code string, meters, place int) finisher {
	h := fnv.New64a()
	_, _ = fmt.Fprintf(h, "%s/%d", code, place)
	r := rand.New(rand.NewSource(g.cfg.Seed ^ int64(h.Sum64()))) //nolint:gosec // synthetic data

	// Times grow with place so sorting by time and by place agree.
	secsPerKm := 180 + place*600/max(g.cfg.FinishersPerEvent, 1)
	total := time.Duration(secsPerKm*meters/1000) * time.Second
	gender := "M"
	if r.Intn(2) == 0 {
		gender = "W"
	}

	f := finisher{
		OverallPlace: place,
		RunnerID:     int64(40_000_000 + r.Intn(9_000_000)),
		FirstName:    firstNames[r.Intn(len(firstNames))],
		LastName:     lastNames[r.Intn(len(lastNames))],
		Bib:          fmt.Sprintf("%d", 100+place),
		Gender:       gender,
		Age:          18 + r.Intn(60),
		City:         cities[r.Intn(len(cities))],
		CountryCode:  "USA",
		OverallTime:  clock(total),
		Pace:         clock(time.Duration(secsPerKm*1609/1000) * time.Second),
	}
	if place%7 == 0 {
		f.TeamCode = "NYAC"
	}
	return f
}

// clock formats d as H:MM:SS.
func clock(d time.Duration) string {
	s := int(d.Seconds())
	return fmt.Sprintf("%d:%02d:%02d", s/3600, s/60%60, s%60)
}
