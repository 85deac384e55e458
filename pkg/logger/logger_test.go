package logger

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestInitAndLevels(t *testing.T) {
	Convey("Given the global logger", t, func() {
		So(Init(), ShouldBeNil)

		Convey("When logging at each level", func() {
			l := Get()

			Convey("Then no call panics", func() {
				So(func() {
					ctx := context.Background()
					l.Debug(ctx, "debug msg", String("k", "v"))
					l.Info(ctx, "info msg", Int("n", 1))
					l.Warn(ctx, "warn msg", Any("v", []int{1, 2}))
					l.Error(ctx, "error msg", Error(errors.New("boom")))
				}, ShouldNotPanic)
			})
		})

		Convey("When deriving a named logger", func() {
			named := Named("scheduler")

			Convey("Then it is usable independently", func() {
				So(named, ShouldNotBeNil)
				So(func() { named.Info(context.Background(), "named msg") }, ShouldNotPanic)
			})
		})

		Convey("When parsing level strings", func() {
			Convey("Then known names apply cleanly", func() {
				for _, lvl := range []string{"debug", "info", "WARN", "warning", "error", ""} {
					So(SetLevelString(lvl), ShouldBeNil)
				}
				SetLevel(slog.LevelInfo)
			})

			Convey("Then unknown names are rejected", func() {
				So(SetLevelString("loud"), ShouldNotBeNil)
			})
		})
	})
}
