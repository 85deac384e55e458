package report_test

import (
	"strings"
	"testing"
	"time"

	"github.com/okian/raidline/internal/domain/model"
	"github.com/okian/raidline/internal/domain/report"
	. "github.com/smartystreets/goconvey/convey"
)

func TestRequiredReplies(t *testing.T) {
	Convey("Given the percentage denominator rule", t, func() {
		Convey("When more than one target exists", func() {
			Convey("Then the maximum is one less than the total", func() {
				So(report.RequiredReplies(3), ShouldEqual, 2)
				So(report.RequiredReplies(2), ShouldEqual, 1)
			})
		})

		Convey("When one or zero targets exist", func() {
			Convey("Then the denominator floors at one", func() {
				So(report.RequiredReplies(1), ShouldEqual, 1)
				So(report.RequiredReplies(0), ShouldEqual, 1)
			})
		})
	})
}

func TestPercent(t *testing.T) {
	Convey("Given percentage rendering", t, func() {
		Convey("When the score is within range", func() {
			So(report.Percent(1, 2), ShouldEqual, 50)
			So(report.Percent(0, 2), ShouldEqual, 0)
			So(report.Percent(2, 2), ShouldEqual, 100)
		})

		Convey("When the score somehow exceeds the denominator", func() {
			Convey("Then the percentage is clamped", func() {
				So(report.Percent(5, 2), ShouldEqual, 100)
			})
		})
	})
}

func TestBuild(t *testing.T) {
	Convey("Given the end-to-end scenario ranking", t, func() {
		closedAt := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
		records := []model.ScoreRecord{
			{Member: "A", Handle: "alice_x", Score: 2},
			{Member: "C", Handle: "carol_x", Score: 1},
			{Member: "B", Handle: "bob_x", Score: 0},
		}

		Convey("When the report is built for three targets", func() {
			text := report.Build(closedAt, 3, records)

			Convey("Then the header carries date and counts", func() {
				So(text, ShouldStartWith, "ENGAGEMENT REPORT - 2026-03-01")
				So(text, ShouldContainSubstring, "Targets: 3 | Participants: 3")
			})

			Convey("Then percentages use the reduced denominator", func() {
				So(text, ShouldContainSubstring, "<@A> (@alice_x) - 2/2 (100%)")
				So(text, ShouldContainSubstring, "<@C> (@carol_x) - 1/2 (50%)")
				So(text, ShouldContainSubstring, "<@B> (@bob_x) - 0/2 (0%)")
			})

			Convey("Then ranking order is preserved", func() {
				So(strings.Index(text, "<@A>"), ShouldBeLessThan, strings.Index(text, "<@C>"))
				So(strings.Index(text, "<@C>"), ShouldBeLessThan, strings.Index(text, "<@B>"))
			})
		})
	})
}

func TestChunk(t *testing.T) {
	Convey("Given the message size limit", t, func() {
		Convey("When the report fits", func() {
			chunks := report.Chunk("short report", report.DefaultChunkLimit)

			Convey("Then it goes out as one message", func() {
				So(chunks, ShouldResemble, []string{"short report"})
			})
		})

		Convey("When the report is too long", func() {
			long := strings.Repeat("x", report.DefaultChunkLimit+250)
			chunks := report.Chunk(long, report.DefaultChunkLimit)

			Convey("Then it splits into head and remainder", func() {
				So(chunks, ShouldHaveLength, 2)
				So(chunks[0], ShouldHaveLength, report.DefaultChunkLimit)
				So(chunks[1], ShouldHaveLength, 250)
				So(chunks[0]+chunks[1], ShouldEqual, long)
			})
		})

		Convey("When the limit is not set", func() {
			chunks := report.Chunk("text", 0)

			Convey("Then the default limit applies", func() {
				So(chunks, ShouldResemble, []string{"text"})
			})
		})
	})
}
