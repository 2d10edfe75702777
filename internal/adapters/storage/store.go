// Package storage owns the on-disk data tree shared by the pipeline stages.
//
//	{root}/raw/races/{year}.json
//	{root}/raw/race_results/{year}/{eventName (eventCode)}.json
//	{root}/clean/races.csv
//	{root}/clean/race_results.parquet
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"sort"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/okian/finishline/internal/domain/model"
	"github.com/okian/finishline/pkg/logger"
)

// Clean output names, relative to the clean directory.
const (
	RacesCSV         = "races.csv"
	RaceResultsTable = "race_results.parquet"
)

const (
	jsonIndent = "    "
	dirPerm    = 0o755
)

// ResultFile is one stored per-event result list.
type ResultFile struct {
	Year      int
	EventName string
	EventCode string
	Path      string
}

// Store reads and writes the data tree rooted at a directory of an afero
// filesystem.
type Store struct {
	fs     afero.Fs
	root   string
	atomic bool
	logger logger.Logger
}

// New constructs a Store. Pass afero.NewOsFs() for the real disk.
func New(fsys afero.Fs, root string, opts ...Option) *Store {
	s := &Store{
		fs:     fsys,
		root:   path.Clean(root),
		atomic: true,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = logger.Named("storage")
	}
	return s
}

// RacesDir holds one search response per year.
func (s *Store) RacesDir() string { return path.Join(s.root, "raw", "races") }

// ResultsDir holds per-year directories of per-event result lists.
func (s *Store) ResultsDir() string { return path.Join(s.root, "raw", "race_results") }

// CleanDir holds the consolidated tables.
func (s *Store) CleanDir() string { return path.Join(s.root, "clean") }

// CleanPath returns the path of a consolidated table.
func (s *Store) CleanPath(name string) string { return path.Join(s.CleanDir(), name) }

// YearEventsPath returns raw/races/{year}.json.
func (s *Store) YearEventsPath(year int) string {
	return path.Join(s.RacesDir(), strconv.Itoa(year)+".json")
}

// ResultPath returns raw/race_results/{year}/{base}.json.
func (s *Store) ResultPath(year int, base string) string {
	return path.Join(s.ResultsDir(), strconv.Itoa(year), base+".json")
}

// WriteYearEvents replaces the stored search response for year.
func (s *Store) WriteYearEvents(ctx context.Context, year int, records []json.RawMessage) error {
	return s.writeRecords(ctx, s.YearEventsPath(year), records)
}

// ReadRawEvents returns every stored event record, file by file in name
// order. A missing directory yields no records.
func (s *Store) ReadRawEvents(ctx context.Context) ([]json.RawMessage, error) {
	dir := s.RacesDir()
	entries, err := afero.ReadDir(s.fs, dir)
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.Warn(ctx, "no raw event files", logger.String("dir", dir))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}

	var all []json.RawMessage
	for _, e := range entries {
		if e.IsDir() || isTempFile(e.Name()) || path.Ext(e.Name()) != ".json" {
			continue
		}
		records, err := s.ReadRecords(path.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		all = append(all, records...)
	}
	return all, nil
}

// ResultExists reports whether the per-event result file is present.
func (s *Store) ResultExists(year int, base string) (bool, error) {
	ok, err := afero.Exists(s.fs, s.ResultPath(year, base))
	if err != nil {
		return false, fmt.Errorf("stat result file: %w", err)
	}
	return ok, nil
}

// WriteResults stores one event's finisher records, creating the year
// directory as needed.
func (s *Store) WriteResults(ctx context.Context, year int, base string, records []json.RawMessage) error {
	return s.writeRecords(ctx, s.ResultPath(year, base), records)
}

// ListResults walks the results tree and returns every result file ordered
// by path. Names that do not follow the layout are an error wrapping
// ErrBadLayout.
func (s *Store) ListResults(_ context.Context) ([]ResultFile, error) {
	dir := s.ResultsDir()
	ok, err := afero.DirExists(s.fs, dir)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", dir, err)
	}
	if !ok {
		return nil, nil
	}

	var files []ResultFile
	err = afero.Walk(s.fs, dir, func(p string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if p == dir {
			return nil
		}
		if !info.IsDir() && isTempFile(info.Name()) {
			return nil
		}

		rel := strings.TrimPrefix(p, dir+"/")
		parts := strings.Split(rel, "/")
		if info.IsDir() {
			if len(parts) != 1 {
				return fmt.Errorf("%w: nested directory %s", ErrBadLayout, p)
			}
			if _, err := strconv.Atoi(parts[0]); err != nil {
				return fmt.Errorf("%w: directory %s is not a year", ErrBadLayout, p)
			}
			return nil
		}
		if len(parts) != 2 {
			return fmt.Errorf("%w: %s is outside a year directory", ErrBadLayout, p)
		}

		year, _ := strconv.Atoi(parts[0])
		name, code, ok := model.ParseResultFileName(parts[1])
		if !ok || path.Ext(parts[1]) != ".json" {
			return fmt.Errorf("%w: cannot parse event from %s", ErrBadLayout, p)
		}
		files = append(files, ResultFile{Year: year, EventName: name, EventCode: code, Path: p})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// ReadRecords reads a stored JSON array of records.
func (s *Store) ReadRecords(p string) ([]json.RawMessage, error) {
	data, err := afero.ReadFile(s.fs, p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, p)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrReadRecord, p, err)
	}
	var records []json.RawMessage
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrReadRecord, p, err)
	}
	return records, nil
}

// Open opens a file for reading. A missing file wraps ErrNotFound.
func (s *Store) Open(p string) (afero.File, error) {
	f, err := s.fs.Open(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, p)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", p, err)
	}
	return f, nil
}

// WriteFile creates or replaces p with whatever fill writes. With atomic
// writes enabled a failed fill leaves any previous file untouched.
func (s *Store) WriteFile(ctx context.Context, p string, fill func(w io.Writer) error) error {
	dir := path.Dir(p)
	if err := s.fs.MkdirAll(dir, dirPerm); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	target := p
	if s.atomic {
		target = path.Join(dir, tempName(path.Base(p)))
	}

	f, err := s.fs.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("create %s: %w", target, err)
	}

	werr := fill(f)
	cerr := f.Close()
	if werr == nil {
		werr = cerr
	}
	if werr != nil {
		if s.atomic {
			if err := s.fs.Remove(target); err != nil {
				s.logger.Warn(ctx, "failed to remove temp file", logger.String("path", target), logger.Error(err))
			}
		}
		return fmt.Errorf("write %s: %w", p, werr)
	}

	if s.atomic {
		if err := s.fs.Rename(target, p); err != nil {
			return fmt.Errorf("rename into %s: %w", p, err)
		}
	}
	s.logger.Debug(ctx, "file written", logger.String("path", p))
	return nil
}

// writeRecords writes records as a JSON array indented by four spaces.
func (s *Store) writeRecords(ctx context.Context, p string, records []json.RawMessage) error {
	if records == nil {
		records = []json.RawMessage{}
	}
	compact, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode %s: %w", p, err)
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, compact, "", jsonIndent); err != nil {
		return fmt.Errorf("indent %s: %w", p, err)
	}

	return s.WriteFile(ctx, p, func(w io.Writer) error {
		_, err := buf.WriteTo(w)
		return err
	})
}

const tempMarker = ".tmp-"

// tempName is the in-flight name for base: ".{base}.tmp-{uuid}".
func tempName(base string) string {
	return "." + base + tempMarker + uuid.NewString()
}

// isTempFile reports whether name is an in-flight atomic write. Other
// dot-prefixed names, such as events named ".5K", are regular files.
func isTempFile(name string) bool {
	if !strings.HasPrefix(name, ".") {
		return false
	}
	i := strings.LastIndex(name, tempMarker)
	if i <= 1 {
		return false
	}
	_, err := uuid.Parse(name[i+len(tempMarker):])
	return err == nil
}
