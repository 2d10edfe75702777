package table_test

import (
	"bytes"
	"errors"
	"strconv"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/parquet-go/parquet-go"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/finishline/internal/adapters/table"
	"github.com/okian/finishline/internal/domain/model"
)

func mustEvent(raw string) model.Event {
	e, err := model.DecodeEvent([]byte(raw))
	if err != nil {
		panic(err)
	}
	return e
}

func mustFinisher(raw string) model.FinisherResult {
	f, err := model.DecodeFinisher([]byte(raw))
	if err != nil {
		panic(err)
	}
	return f
}

func TestRacesCSV(t *testing.T) {
	Convey("Given events with differing extra keys", t, func() {
		events := []model.Event{
			mustEvent(`{"eventCode":"M2024","eventName":"NYC Marathon","startDateTime":"2024-11-03T08:00:00","venue":"Staten Island","isVirtual":false}`),
			mustEvent(`{"eventCode":"24FIVE","eventName":"5K, \"fun\" run","startDateTime":"2024-05-01T07:00:00","distanceName":"5 km","venue":null}`),
		}

		Convey("When writing races.csv", func() {
			var buf bytes.Buffer
			So(table.WriteRaces(&buf, events), ShouldBeNil)
			lines := strings.Split(strings.TrimSpace(buf.String()), "\n")

			Convey("Then the fixed columns lead and extras follow sorted", func() {
				So(lines[0], ShouldEqual, "eventCode,eventName,startDateTime,year,distanceName,isVirtual,venue")
				So(lines[1], ShouldEqual, "M2024,NYC Marathon,2024-11-03T08:00:00,2024,,false,Staten Island")
				So(lines[2], ShouldEqual, `24FIVE,"5K, ""fun"" run",2024-05-01T07:00:00,2024,5 km,,`)
			})

			Convey("Then reading it back yields the rows in order", func() {
				rows, err := table.ReadRaces(&buf)
				So(err, ShouldBeNil)
				So(rows, ShouldResemble, []table.RaceRow{
					{EventCode: "M2024", EventName: "NYC Marathon", Year: 2024},
					{EventCode: "24FIVE", EventName: `5K, "fun" run`, Year: 2024},
				})
				So(rows[1].ResultFileName(), ShouldEqual, `5K, "fun" run (24FIVE)`)
			})
		})

		Convey("When there are no events", func() {
			var buf bytes.Buffer
			So(table.WriteRaces(&buf, nil), ShouldBeNil)

			Convey("Then only the header is written", func() {
				So(buf.String(), ShouldEqual, "eventCode,eventName,startDateTime,year\n")
				rows, err := table.ReadRaces(&buf)
				So(err, ShouldBeNil)
				So(rows, ShouldBeEmpty)
			})
		})
	})

	Convey("Given malformed CSV input", t, func() {
		Convey("When the year column is missing", func() {
			_, err := table.ReadRaces(strings.NewReader("eventCode,eventName\nA,B\n"))
			So(errors.Is(err, table.ErrMissingColumn), ShouldBeTrue)
		})

		Convey("When a year is not a number", func() {
			_, err := table.ReadRaces(strings.NewReader("eventCode,eventName,year\nA,B,soon\n"))
			So(errors.Is(err, table.ErrBadRow), ShouldBeTrue)
		})

		Convey("When the file is empty", func() {
			_, err := table.ReadRaces(strings.NewReader(""))
			So(errors.Is(err, table.ErrMissingColumn), ShouldBeTrue)
		})
	})
}

func TestFinishersParquet(t *testing.T) {
	Convey("Given finishers from two events", t, func() {
		a2 := mustFinisher(`{"overallPlace":2,"firstName":"Bo","age":31,"ageGradePercent":61.5,"teamCode":"NYAC"}`)
		a1 := mustFinisher(`{"overallPlace":1,"firstName":"Al","runnerId":7}`)
		b1 := mustFinisher(`{"overallPlace":1,"firstName":"Cy"}`)

		var rows []table.FinisherRow
		for _, in := range []struct {
			code string
			year int
			f    model.FinisherResult
		}{{"A", 2024, a2}, {"B", 2023, b1}, {"A", 2024, a1}} {
			row, err := table.NewFinisherRow(in.code, in.year, "Race "+in.code, in.f)
			So(err, ShouldBeNil)
			rows = append(rows, row)
		}

		Convey("When sorting them", func() {
			table.SortFinishers(rows)

			Convey("Then order is year, code, place", func() {
				So(rows[0].EventCode+"#"+itoa(rows[0].OverallPlace), ShouldEqual, "B#1")
				So(rows[1].EventCode+"#"+itoa(rows[1].OverallPlace), ShouldEqual, "A#1")
				So(rows[2].EventCode+"#"+itoa(rows[2].OverallPlace), ShouldEqual, "A#2")
			})

			Convey("Then writing and reading Parquet preserves the rows", func() {
				var buf bytes.Buffer
				So(table.WriteFinishers(&buf, rows), ShouldBeNil)

				got, err := parquet.Read[table.FinisherRow](bytes.NewReader(buf.Bytes()), int64(buf.Len()))
				So(err, ShouldBeNil)
				So(got, ShouldHaveLength, 3)
				So(got[0].EventName, ShouldEqual, "Race B")
				So(got[0].EventYear, ShouldEqual, int32(2023))
				So(got[1].RunnerID, ShouldEqual, int64(7))
				So(got[2].Age, ShouldNotBeNil)
				So(*got[2].Age, ShouldEqual, int32(31))
				So(*got[2].AgeGradePercent, ShouldAlmostEqual, 61.5)
				So(got[1].Age, ShouldBeNil)

				var extra map[string]string
				So(json.Unmarshal([]byte(got[2].Extra), &extra), ShouldBeNil)
				So(extra["teamCode"], ShouldEqual, "NYAC")
			})
		})
	})

	Convey("Given no finishers", t, func() {
		var buf bytes.Buffer
		So(table.WriteFinishers(&buf, nil), ShouldBeNil)

		Convey("Then the file still carries the schema", func() {
			f, err := parquet.OpenFile(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
			So(err, ShouldBeNil)
			So(f.NumRows(), ShouldEqual, int64(0))
			_, ok := f.Schema().Lookup("overallPlace")
			So(ok, ShouldBeTrue)
		})
	})
}

func itoa(n int32) string { return strconv.Itoa(int(n)) }
