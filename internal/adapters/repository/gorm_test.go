package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/mindstats/internal/adapters/repository"
	"github.com/okian/mindstats/internal/domain/record"
	"github.com/okian/mindstats/internal/domain/snapshot"
	. "github.com/smartystreets/goconvey/convey"
)

func TestGormStore(t *testing.T) {
	ctx := context.Background()

	Convey("Given an in-memory sqlite store", t, func() {
		store, err := repository.OpenGorm(ctx, repository.DriverSQLite, ":memory:")
		So(err, ShouldBeNil)
		Reset(func() { _ = store.Close() })

		jan := time.Date(2025, 1, 10, 8, 0, 0, 0, time.UTC)
		feb := time.Date(2025, 2, 10, 8, 0, 0, 0, time.UTC)

		Convey("When raw records are written", func() {
			err := store.Write(ctx, record.FamilyCheckIn,
				record.Document{"_id": "k1", "student": "s1", "moodScore": 2, repository.FieldCreatedAt: jan},
				record.Document{"_id": "k2", "student": "s1", "moodScore": 4, repository.FieldCreatedAt: feb},
				record.Document{"_id": "k3", "student": "s2"},
			)
			So(err, ShouldBeNil)
			So(store.Write(ctx, record.FamilyCounsellor, record.Document{"_id": "c1", "name": "Dr. Osei"}), ShouldBeNil)

			Convey("Then a ranged fetch keeps the inclusive window and undated rows", func() {
				docs, err := store.Fetch(ctx, record.FamilyCheckIn, repository.Range{Start: &feb, End: &feb})
				So(err, ShouldBeNil)
				So(docs, ShouldHaveLength, 2)
				So(docs[0]["_id"], ShouldEqual, "k2")
				So(docs[0]["moodScore"], ShouldEqual, 4.0)
				So(docs[1]["_id"], ShouldEqual, "k3")
			})

			Convey("Then an unbounded fetch returns every row in insertion order", func() {
				docs, err := store.Fetch(ctx, record.FamilyCheckIn, repository.Range{})
				So(err, ShouldBeNil)
				So(docs, ShouldHaveLength, 3)
				So(docs[0]["_id"], ShouldEqual, "k1")
			})

			Convey("Then directory families ignore the range", func() {
				docs, err := store.Fetch(ctx, record.FamilyCounsellor, repository.Range{Start: &feb, End: &feb})
				So(err, ShouldBeNil)
				So(docs, ShouldHaveLength, 1)
				So(docs[0]["name"], ShouldEqual, "Dr. Osei")
			})
		})

		Convey("When snapshots are inserted", func() {
			first := &snapshot.Snapshot{
				Version:     "Daily-a",
				Timestamp:   jan,
				PeriodStart: &jan,
				PeriodEnd:   &feb,
				Metrics:     map[string]any{"totalReports": 3, "emergingThemes": []string{"sleep"}},
				FiltersUsed: map[string]any{"campus": "north"},
				RawDataHash: "abc",
			}
			second := &snapshot.Snapshot{Version: "Daily-b", Timestamp: feb, Metrics: map[string]any{"totalReports": 5}}

			id1, err1 := store.Insert(ctx, first)
			id2, err2 := store.Insert(ctx, second)

			Convey("Then each gets an id", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(id1, ShouldNotEqual, id2)
			})

			Convey("Then Get round-trips the document", func() {
				got, err := store.Get(ctx, id1)
				So(err, ShouldBeNil)
				So(got.ID, ShouldEqual, id1)
				So(got.Version, ShouldEqual, "Daily-a")
				So(got.Timestamp.Equal(jan), ShouldBeTrue)
				So(got.PeriodEnd.Equal(feb), ShouldBeTrue)
				So(got.Metrics["totalReports"], ShouldEqual, 3.0)
				So(got.Metrics["emergingThemes"], ShouldResemble, []any{"sleep"})
				So(got.FiltersUsed["campus"], ShouldEqual, "north")
				So(got.RawDataHash, ShouldEqual, "abc")
			})

			Convey("Then Latest returns the newest by timestamp", func() {
				got, err := store.Latest(ctx)
				So(err, ShouldBeNil)
				So(got.ID, ShouldEqual, id2)
			})

			Convey("Then Versions lists newest first", func() {
				versions, err := store.Versions(ctx)
				So(err, ShouldBeNil)
				So(versions, ShouldHaveLength, 2)
				So(versions[0].Version, ShouldEqual, "Daily-b")
				So(versions[1].PeriodStart.Equal(jan), ShouldBeTrue)
			})

			Convey("Then an unknown id is not found", func() {
				_, err := store.Get(ctx, "nope")
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When the store is empty", func() {
			_, err := store.Latest(ctx)

			Convey("Then Latest is not found", func() {
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})
	})

	Convey("Given an unknown driver", t, func() {
		_, err := repository.OpenGorm(ctx, "mongo", "")

		Convey("Then opening fails", func() {
			So(errors.Is(err, repository.ErrUnsupportedDriver), ShouldBeTrue)
		})
	})
}
