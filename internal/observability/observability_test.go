package observability_test

import (
	"net/http/httptest"
	"time"

	"github.com/gofiber/fiber/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/deskline/helpdesk-service/internal/config"
	"github.com/deskline/helpdesk-service/internal/observability"
)

var _ = Describe("Metrics", func() {
	It("averages durations per route key", func() {
		m := observability.NewMetrics()
		m.RecordRequest("/api/tickets", "POST", 201, 10*time.Millisecond)
		m.RecordRequest("/api/tickets", "POST", 201, 30*time.Millisecond)
		m.RecordRequest("/api/login", "POST", 401, time.Millisecond)
		m.RecordError("/api/login", "POST", "UNAUTHORIZED")

		snap := m.Snapshot()
		Expect(snap.Requests).To(HaveLen(2))
		Expect(snap.Requests[0].Key).To(Equal("/api/login|POST|401"))
		Expect(snap.Requests[1].Count).To(Equal(int64(2)))
		Expect(snap.Requests[1].AvgMs).To(BeNumerically("~", 20, 0.01))
		Expect(snap.Errors).To(ConsistOf(observability.CounterSnapshot{Key: "/api/login|POST|UNAUTHORIZED", Count: 1}))
	})

	It("is safe to use when nil", func() {
		var m *observability.Metrics
		m.RecordRequest("/", "GET", 200, time.Millisecond)
		m.RecordError("/", "GET", "X")
		Expect(m.Snapshot().Requests).To(BeEmpty())
	})
})

var _ = Describe("RequestLogger", func() {
	var (
		app     *fiber.App
		logs    *observer.ObservedLogs
		metrics *observability.Metrics
	)

	BeforeEach(func() {
		var core zapcore.Core
		core, logs = observer.New(zap.InfoLevel)
		metrics = observability.NewMetrics()
		app = fiber.New()
		app.Use(observability.RequestLogger(zap.New(core), metrics))
		app.Get("/tickets/:id", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) })
		app.Get("/boom", func(c *fiber.Ctx) error { return fiber.ErrForbidden })
	})

	It("echoes a supplied request id and logs the matched route", func() {
		req := httptest.NewRequest("GET", "/tickets/12", nil)
		req.Header.Set(observability.RequestIDHeader, "req-1")
		resp, err := app.Test(req)
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.Header.Get(observability.RequestIDHeader)).To(Equal("req-1"))

		Expect(logs.Len()).To(Equal(1))
		fields := logs.All()[0].ContextMap()
		Expect(fields).To(HaveKeyWithValue("route", "/tickets/:id"))
		Expect(fields).To(HaveKeyWithValue("status", int64(204)))
		Expect(metrics.Snapshot().Requests[0].Key).To(Equal("/tickets/:id|GET|204"))
	})

	It("generates a request id and records the error status", func() {
		resp, err := app.Test(httptest.NewRequest("GET", "/boom", nil))
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.Header.Get(observability.RequestIDHeader)).NotTo(BeEmpty())
		Expect(logs.All()[0].ContextMap()).To(HaveKeyWithValue("status", int64(403)))
	})
})

var _ = Describe("NewLogger", func() {
	It("falls back to info for an unknown level", func() {
		logger, err := observability.NewLogger(config.LoggerConfig{Level: "chatty"}, config.AppConfig{Name: "helpdesk", Env: "production"})
		Expect(err).NotTo(HaveOccurred())
		Expect(logger.Core().Enabled(zap.InfoLevel)).To(BeTrue())
		Expect(logger.Core().Enabled(zap.DebugLevel)).To(BeFalse())
	})
})
