package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with a private registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test-namespace"),
				WithSubsystem("test-subsystem"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
			})
		})
	})
}

func TestRecordingHelpers(t *testing.T) {
	Convey("Given the package-level recording helpers", t, func() {
		Convey("When recording session and scoring activity", func() {
			Convey("Then none of them panic", func() {
				So(func() {
					RecordSessionOpened()
					RecordSessionClosed()
					RecordSubmissionAccepted()
					RecordSubmissionIgnored()
					RecordLookupFailure()
					RecordFetchFailure()
					RecordScoringDuration(0.25)
					RecordParticipantsScored(3)
					UpdateRegistryMembers(12)
					RecordHTTPRequest("status", "GET", "200")
					RecordHTTPRequestDuration("status", "GET", 4.2)
				}, ShouldNotPanic)
			})
		})

		Convey("When reading the shared registry", func() {
			Convey("Then it is available for scraping", func() {
				So(GetRegistry(), ShouldNotBeNil)
			})
		})
	})
}
