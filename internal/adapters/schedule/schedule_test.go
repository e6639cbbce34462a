package schedule_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/okian/mindstats/internal/adapters/schedule"
	service "github.com/okian/mindstats/internal/app"
	"github.com/okian/mindstats/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

type recordingTrigger struct {
	mu   sync.Mutex
	reqs []service.Request
	err  error
}

func (r *recordingTrigger) Generate(_ context.Context, req service.Request) (service.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reqs = append(r.reqs, req)
	if r.err != nil {
		return service.Result{}, r.err
	}
	return service.Result{Success: true, SnapshotID: "id"}, nil
}

func (r *recordingTrigger) calls() []service.Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]service.Request(nil), r.reqs...)
}

func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return false
}

func TestScheduler(t *testing.T) {
	now := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)

	convey.Convey("Given a scheduler with a short interval", t, func() {
		trig := &recordingTrigger{}
		s := schedule.New(trig,
			schedule.WithInterval(10*time.Millisecond),
			schedule.WithWindow(6*time.Hour),
			schedule.WithClock(func() time.Time { return now }),
		)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		convey.Convey("When it runs", func() {
			go s.Run(ctx)

			convey.Convey("Then it triggers runs over the trailing window", func() {
				convey.So(waitFor(func() bool { return len(trig.calls()) >= 2 }), convey.ShouldBeTrue)
				req := trig.calls()[0]
				convey.So(req.PeriodEnd.Equal(now), convey.ShouldBeTrue)
				convey.So(req.PeriodStart.Equal(now.Add(-6*time.Hour)), convey.ShouldBeTrue)
				convey.So(s.Shutdown(context.Background()), convey.ShouldBeNil)
			})
		})

		convey.Convey("When the trigger fails", func() {
			trig.err = errors.New("store offline")
			go s.Run(ctx)

			convey.Convey("Then the loop keeps ticking", func() {
				convey.So(waitFor(func() bool { return len(trig.calls()) >= 3 }), convey.ShouldBeTrue)
				convey.So(s.Shutdown(context.Background()), convey.ShouldBeNil)
			})
		})

		convey.Convey("When the context is canceled", func() {
			done := make(chan struct{})
			go func() {
				s.Run(ctx)
				close(done)
			}()
			cancel()

			convey.Convey("Then Run returns", func() {
				stopped := false
				select {
				case <-done:
					stopped = true
				case <-time.After(2 * time.Second):
				}
				convey.So(stopped, convey.ShouldBeTrue)
				convey.So(s.Shutdown(context.Background()), convey.ShouldBeNil)
			})
		})
	})

	convey.Convey("Given a scheduler without interval", t, func() {
		trig := &recordingTrigger{}
		s := schedule.New(trig, schedule.WithInterval(0))

		convey.Convey("Then it is disabled and Run returns at once", func() {
			convey.So(s.Enabled(), convey.ShouldBeFalse)
			s.Run(context.Background())
			convey.So(trig.calls(), convey.ShouldBeEmpty)
			convey.So(s.Shutdown(context.Background()), convey.ShouldBeNil)
		})
	})

	convey.Convey("Given a scheduler that runs on start", t, func() {
		trig := &recordingTrigger{}
		s := schedule.New(trig, schedule.WithInterval(time.Hour), schedule.WithRunOnStart(true))
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go s.Run(ctx)

		convey.Convey("Then the first run happens before any tick", func() {
			convey.So(waitFor(func() bool { return len(trig.calls()) == 1 }), convey.ShouldBeTrue)
			convey.So(s.Shutdown(context.Background()), convey.ShouldBeNil)
		})
	})

	convey.Convey("Given a scheduler that never started", t, func() {
		s := schedule.New(&recordingTrigger{}, schedule.WithInterval(time.Hour))

		convey.Convey("Then Shutdown honours the caller deadline", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
			defer cancel()
			convey.So(errors.Is(s.Shutdown(ctx), context.DeadlineExceeded), convey.ShouldBeTrue)
		})
	})
}
