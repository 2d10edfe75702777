// Package service runs the collection pipeline: enumerate events, build the
// races table, collect finishers per event and build the results table.
package service

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/okian/finishline/internal/adapters/nyrr"
	"github.com/okian/finishline/internal/adapters/storage"
	"github.com/okian/finishline/internal/adapters/table"
	"github.com/okian/finishline/internal/config"
	"github.com/okian/finishline/internal/domain/dedupe"
	"github.com/okian/finishline/internal/domain/model"
	"github.com/okian/finishline/internal/domain/types"
	"github.com/okian/finishline/pkg/logger"
	"github.com/okian/finishline/pkg/metrics"
)

// API is the results API as the pipeline uses it.
type API interface {
	SearchEvents(ctx context.Context, year int) ([]json.RawMessage, int, error)
	FinishersPage(ctx context.Context, eventCode string, afterPlace int) (nyrr.Page, error)
	FinisherCount(ctx context.Context, eventCode string) (int, error)
}

// Uploader copies a clean file to object storage.
type Uploader interface {
	Upload(ctx context.Context, name string, body io.ReadSeeker, size int64) error
}

// Service runs pipeline stages against one data tree.
type Service struct {
	api      API
	store    *storage.Store
	uploader Uploader
	deduper  dedupe.Deduper

	yearFrom int
	yearTo   int
	delay    time.Duration
	denylist map[string]struct{}
	sleep    types.Sleeper

	runID  string
	logger logger.Logger
}

// CollectSummary counts what one results stage did.
type CollectSummary struct {
	Fetched    int
	Existing   int
	Denylisted int
	Finishers  int
}

// New constructs a Service.
func New(api API, store *storage.Store, opts ...Option) *Service {
	s := &Service{
		api:      api,
		store:    store,
		yearFrom: 2025,
		yearTo:   1970,
		delay:    500 * time.Millisecond,
		denylist: map[string]struct{}{},
		sleep:    types.Sleep,
		runID:    uuid.NewString(),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.deduper == nil {
		s.deduper = dedupe.NewPlaceDeduper(dedupe.WithCapacity(60_000))
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	s.logger = s.logger.With(logger.String("run", s.runID))
	return s
}

// RunID identifies this Service's run in logs.
func (s *Service) RunID() string { return s.runID }

// Run executes stages in order and stops at the first failure.
func (s *Service) Run(ctx context.Context, stages []string) error {
	for _, name := range stages {
		fn, err := s.stage(name)
		if err != nil {
			return err
		}

		s.logger.Info(ctx, "stage started", logger.Stage(name))
		start := time.Now()
		err = fn(ctx)
		took := time.Since(start)
		metrics.RecordStage(name, took, err)
		if err != nil {
			s.logger.Error(ctx, "stage failed", logger.Stage(name), logger.Duration("took", took), logger.Error(err))
			return fmt.Errorf("stage %s: %w", name, err)
		}
		s.logger.Info(ctx, "stage finished", logger.Stage(name), logger.Duration("took", took))
	}
	return nil
}

func (s *Service) stage(name string) (func(context.Context) error, error) {
	switch name {
	case config.StageEvents:
		return s.EnumerateEvents, nil
	case config.StageRaces:
		return s.ConsolidateEvents, nil
	case config.StageResults:
		return func(ctx context.Context) error {
			_, err := s.CollectResults(ctx)
			return err
		}, nil
	case config.StageFinishers:
		return s.ConsolidateResults, nil
	case config.StagePublish:
		return s.Publish, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStage, name)
	}
}

// EnumerateEvents stores each year's event list, newest year first.
func (s *Service) EnumerateEvents(ctx context.Context) error {
	p := s.newPacer()
	for year := s.yearFrom; year >= s.yearTo; year-- {
		if err := p.wait(ctx); err != nil {
			return err
		}

		s.logger.Info(ctx, "fetching year", logger.Int("year", year))
		items, total, err := s.api.SearchEvents(ctx, year)
		if err != nil {
			return fmt.Errorf("search events %d: %w", year, err)
		}
		metrics.RecordEventsEnumerated(len(items))
		if total > len(items) {
			s.logger.Warn(ctx, "year has more events than one page returns",
				logger.Int("year", year),
				logger.Int("total", total),
				logger.Int("returned", len(items)))
		}

		if err := s.store.WriteYearEvents(ctx, year, items); err != nil {
			return err
		}
	}
	return nil
}

// ConsolidateEvents rebuilds races.csv from every stored year, newest
// start first.
func (s *Service) ConsolidateEvents(ctx context.Context) error {
	raws, err := s.store.ReadRawEvents(ctx)
	if err != nil {
		return err
	}

	events := make([]model.Event, 0, len(raws))
	for _, raw := range raws {
		e, err := model.DecodeEvent(raw)
		if err != nil {
			return err
		}
		e.EventName = model.SanitizeName(e.EventName)
		events = append(events, e)
	}

	sort.SliceStable(events, func(i, j int) bool {
		if !events[i].Start.Equal(events[j].Start) {
			return events[i].Start.After(events[j].Start)
		}
		return events[i].EventCode < events[j].EventCode
	})

	err = s.store.WriteFile(ctx, s.store.CleanPath(storage.RacesCSV), func(w io.Writer) error {
		return table.WriteRaces(w, events)
	})
	if err != nil {
		return err
	}
	metrics.RecordRowsWritten("races", len(events))
	s.logger.Info(ctx, "races table written", logger.Int("events", len(events)))
	return nil
}

// CollectResults fetches finishers for every races.csv row not yet on disk
// and not denylisted.
func (s *Service) CollectResults(ctx context.Context) (CollectSummary, error) {
	var sum CollectSummary

	rows, err := s.readRaces()
	if err != nil {
		return sum, err
	}

	p := s.newPacer()
	for _, row := range rows {
		base := row.ResultFileName()
		log := s.logger.With(logger.String("event", base), logger.Int("year", row.Year))

		if s.denylisted(row) {
			sum.Denylisted++
			metrics.RecordEventSkipped(metrics.SkipDenylisted)
			log.Info(ctx, "denylisted")
			continue
		}

		exists, err := s.store.ResultExists(row.Year, base)
		if err != nil {
			return sum, err
		}
		if exists {
			sum.Existing++
			metrics.RecordEventSkipped(metrics.SkipExisting)
			log.Info(ctx, "already collected")
			continue
		}

		log.Info(ctx, "collecting results")
		records, err := s.collectEvent(ctx, p, row.EventCode, log)
		if err != nil {
			s.logCollectSummary(ctx, sum)
			return sum, fmt.Errorf("collect %s: %w", base, err)
		}
		if err := s.store.WriteResults(ctx, row.Year, base, records); err != nil {
			return sum, err
		}

		sum.Fetched++
		sum.Finishers += len(records)
		metrics.RecordEventCollected(len(records))
		log.Info(ctx, "results collected", logger.Int("finishers", len(records)))
	}

	s.logCollectSummary(ctx, sum)
	return sum, nil
}

func (s *Service) readRaces() ([]table.RaceRow, error) {
	f, err := s.store.Open(s.store.CleanPath(storage.RacesCSV))
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	rows, err := table.ReadRaces(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", storage.RacesCSV, err)
	}
	return rows, nil
}

func (s *Service) denylisted(row table.RaceRow) bool {
	if _, ok := s.denylist[row.ResultFileName()]; ok {
		return true
	}
	_, ok := s.denylist[row.EventCode]
	return ok
}

// collectEvent pages through one event's finishers from place 1 until the
// API returns an empty page.
func (s *Service) collectEvent(ctx context.Context, p *pacer, eventCode string, log logger.Logger) ([]json.RawMessage, error) {
	if err := p.wait(ctx); err != nil {
		return nil, err
	}
	total, err := s.api.FinisherCount(ctx, eventCode)
	switch {
	case err == nil:
		log.Info(ctx, "total finishers", logger.Int("total", total))
	case ctx.Err() != nil:
		return nil, ctx.Err()
	default:
		log.Warn(ctx, "finisher count unavailable", logger.Error(err))
	}

	s.deduper.Reset()
	var (
		records []json.RawMessage
		cursor  int
	)
	for {
		if err := p.wait(ctx); err != nil {
			return nil, err
		}
		page, err := s.api.FinishersPage(ctx, eventCode, cursor)
		if err != nil {
			return nil, err
		}
		metrics.RecordPageFetched()
		if len(page.Records) == 0 {
			return records, nil
		}

		fresh := s.freshPlaces(ctx, page, cursor)
		if len(fresh) == 0 {
			return nil, fmt.Errorf("%w: %s after place %d", ErrCursorStalled, eventCode, cursor)
		}
		for _, i := range fresh {
			records = append(records, page.Records[i])
		}
		cursor = s.deduper.Highest()
		log.Debug(ctx, "page collected", logger.Int("highest_place", cursor), logger.Int("collected", len(records)))
	}
}

// freshPlaces returns indexes of page records placed beyond cursor and not
// yet seen, ordered by place.
func (s *Service) freshPlaces(ctx context.Context, page nyrr.Page, cursor int) []int {
	idx := make([]int, 0, len(page.Finishers))
	for i, f := range page.Finishers {
		if f.OverallPlace > cursor {
			idx = append(idx, i)
		}
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return page.Finishers[idx[a]].OverallPlace < page.Finishers[idx[b]].OverallPlace
	})

	out := idx[:0]
	for _, i := range idx {
		if !s.deduper.SeenAndRecord(ctx, page.Finishers[i].OverallPlace) {
			out = append(out, i)
		}
	}
	return out
}

func (s *Service) logCollectSummary(ctx context.Context, sum CollectSummary) {
	s.logger.Info(ctx, "collection summary",
		logger.Int("fetched", sum.Fetched),
		logger.Int("already_collected", sum.Existing),
		logger.Int("denylisted", sum.Denylisted),
		logger.Int("finishers", sum.Finishers))
}

// ConsolidateResults rebuilds race_results.parquet from every stored
// per-event file.
func (s *Service) ConsolidateResults(ctx context.Context) error {
	files, err := s.store.ListResults(ctx)
	if err != nil {
		return err
	}

	var rows []table.FinisherRow
	for _, rf := range files {
		records, err := s.store.ReadRecords(rf.Path)
		if err != nil {
			return err
		}
		for i, raw := range records {
			f, err := model.DecodeFinisher(raw)
			if err != nil {
				return fmt.Errorf("%s record %d: %w", rf.Path, i, err)
			}
			row, err := table.NewFinisherRow(rf.EventCode, rf.Year, rf.EventName, f)
			if err != nil {
				return err
			}
			rows = append(rows, row)
		}
	}
	table.SortFinishers(rows)

	err = s.store.WriteFile(ctx, s.store.CleanPath(storage.RaceResultsTable), func(w io.Writer) error {
		return table.WriteFinishers(w, rows)
	})
	if err != nil {
		return err
	}
	metrics.RecordRowsWritten("race_results", len(rows))
	s.logger.Info(ctx, "results table written", logger.Int("events", len(files)), logger.Int("finishers", len(rows)))
	return nil
}

// Publish uploads the clean tables. Without an uploader it does nothing.
func (s *Service) Publish(ctx context.Context) error {
	if s.uploader == nil {
		s.logger.Info(ctx, "no bucket configured, skipping publish")
		return nil
	}

	for _, name := range []string{storage.RacesCSV, storage.RaceResultsTable} {
		if err := s.publishFile(ctx, name); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) publishFile(ctx context.Context, name string) error {
	f, err := s.store.Open(s.store.CleanPath(name))
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", name, err)
	}
	return s.uploader.Upload(ctx, name, f, info.Size())
}

// pacer spaces consecutive requests by the configured delay. The first
// request of a stage is not delayed.
type pacer struct {
	sleep   types.Sleeper
	delay   time.Duration
	started bool
}

func (s *Service) newPacer() *pacer {
	return &pacer{sleep: s.sleep, delay: s.delay}
}

func (p *pacer) wait(ctx context.Context) error {
	if !p.started {
		p.started = true
		return ctx.Err()
	}
	return p.sleep(ctx, p.delay)
}
