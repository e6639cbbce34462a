package themes_test

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/okian/mindstats/internal/domain/stages"
	"github.com/okian/mindstats/internal/domain/table"
	"github.com/okian/mindstats/internal/domain/themes"
	"github.com/okian/mindstats/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.Init()
}

type fakeClassifier struct {
	labels []string
	err    error
	delay  time.Duration
	calls  int
	got    []string
}

func (f *fakeClassifier) Classify(ctx context.Context, _ string, sample []string) ([]string, error) {
	f.calls++
	f.got = sample
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.labels, f.err
}

type panickyClassifier struct{}

func (panickyClassifier) Classify(context.Context, string, []string) ([]string, error) {
	panic("upstream client bug")
}

func contentTable(n int) table.Table {
	rows := make([]table.Row, 0, n)
	for i := 0; i < n; i++ {
		c := fmt.Sprintf("report %d", i)
		rows = append(rows, table.Row{ID: fmt.Sprint(i), Content: &c})
	}
	return table.Table{Rows: rows, Columns: table.ManualColumns()}
}

func TestEnrich(t *testing.T) {
	ctx := context.Background()

	Convey("Given a classifier that answers", t, func() {
		c := &fakeClassifier{labels: []string{" exam stress ", "", "loneliness", "sleep", "money", "family", "burnout"}}
		e := themes.New(c, themes.WithRand(rand.New(rand.NewSource(1))))

		Convey("When content is present", func() {
			d := e.Enrich(ctx, contentTable(3))

			Convey("Then labels are trimmed and capped at five", func() {
				So(d[stages.KeyEmergingThemes], ShouldResemble, []string{"exam stress", "loneliness", "sleep", "money", "family"})
				So(c.got, ShouldHaveLength, 3)
			})
		})

		Convey("When there are more than fifty texts", func() {
			e.Enrich(ctx, contentTable(120))

			Convey("Then at most fifty distinct texts are sent", func() {
				So(c.got, ShouldHaveLength, themes.DefaultSampleSize)
				seen := map[string]bool{}
				for _, s := range c.got {
					seen[s] = true
				}
				So(seen, ShouldHaveLength, themes.DefaultSampleSize)
			})
		})

		Convey("When no row carries content", func() {
			d := e.Enrich(ctx, table.Table{Rows: []table.Row{{ID: "1"}}, Columns: table.ManualColumns()})

			Convey("Then the themes are empty and the classifier is not called", func() {
				So(d[stages.KeyEmergingThemes], ShouldBeEmpty)
				So(c.calls, ShouldEqual, 0)
			})
		})

		Convey("When the table lacks the content column", func() {
			tbl := contentTable(2)
			tbl.Columns = table.GeneratedColumns()
			d := e.Enrich(ctx, tbl)

			Convey("Then the themes are empty", func() {
				So(d[stages.KeyEmergingThemes], ShouldBeEmpty)
				So(c.calls, ShouldEqual, 0)
			})
		})

		Convey("When enrichment is disabled", func() {
			e := themes.New(c, themes.WithEnabled(false))

			Convey("Then the themes are empty", func() {
				So(e.Enrich(ctx, contentTable(2))[stages.KeyEmergingThemes], ShouldBeEmpty)
			})
		})
	})

	Convey("Given a classifier that fails", t, func() {
		e := themes.New(&fakeClassifier{err: errors.New("boom")})

		Convey("Then the sentinel list is returned", func() {
			So(e.Enrich(ctx, contentTable(2))[stages.KeyEmergingThemes], ShouldResemble, []string{themes.FailedTheme})
		})

		Convey("Then Detect reports an enrichment error", func() {
			_, err := e.Detect(ctx, contentTable(2))
			So(errors.Is(err, themes.ErrEnrichment), ShouldBeTrue)
		})
	})

	Convey("Given a classifier slower than the timeout", t, func() {
		e := themes.New(&fakeClassifier{labels: []string{"late"}, delay: time.Second}, themes.WithTimeout(20*time.Millisecond))

		Convey("Then the call is abandoned and the sentinel list is returned", func() {
			start := time.Now()
			d := e.Enrich(ctx, contentTable(2))
			So(time.Since(start), ShouldBeLessThan, 500*time.Millisecond)
			So(d[stages.KeyEmergingThemes], ShouldResemble, []string{themes.FailedTheme})
		})
	})

	Convey("Given a classifier that panics", t, func() {
		e := themes.New(panickyClassifier{})

		Convey("Then the panic is contained and the sentinel list is returned", func() {
			var d stages.Delta
			So(func() { d = e.Enrich(ctx, contentTable(2)) }, ShouldNotPanic)
			So(d[stages.KeyEmergingThemes], ShouldResemble, []string{themes.FailedTheme})
		})

		Convey("Then Detect reports an enrichment error", func() {
			_, err := e.Detect(ctx, contentTable(2))
			So(errors.Is(err, themes.ErrEnrichment), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "upstream client bug")
		})
	})

	Convey("Given no classifier", t, func() {
		e := themes.New(nil)

		Convey("Then the themes are empty", func() {
			So(e.Enrich(ctx, contentTable(2))[stages.KeyEmergingThemes], ShouldBeEmpty)
		})
	})
}

func TestSample(t *testing.T) {
	Convey("Given two enrichers with the same seed", t, func() {
		texts := make([]string, 80)
		for i := range texts {
			texts[i] = fmt.Sprint(i)
		}
		a := themes.New(nil, themes.WithSampleSize(10), themes.WithRand(rand.New(rand.NewSource(7))))
		b := themes.New(nil, themes.WithSampleSize(10), themes.WithRand(rand.New(rand.NewSource(7))))

		Convey("Then they draw the same sample", func() {
			So(a.Sample(texts), ShouldResemble, b.Sample(texts))
			So(a.Sample(texts), ShouldHaveLength, 10)
		})
	})
}

func TestSampleSizeCap(t *testing.T) {
	Convey("Given an enricher asked for more texts than the default cap", t, func() {
		texts := make([]string, 80)
		for i := range texts {
			texts[i] = fmt.Sprint(i)
		}
		c := &fakeClassifier{labels: []string{"exam stress"}}
		e := themes.New(c, themes.WithSampleSize(80), themes.WithRand(rand.New(rand.NewSource(3))))

		Convey("Then at most DefaultSampleSize texts are drawn", func() {
			So(e.Sample(texts), ShouldHaveLength, themes.DefaultSampleSize)
		})

		Convey("Then the classifier receives at most DefaultSampleSize texts", func() {
			e.Enrich(context.Background(), contentTable(80))
			So(c.got, ShouldHaveLength, themes.DefaultSampleSize)
		})
	})
}
