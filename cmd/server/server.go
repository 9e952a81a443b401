package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/yourorg/payment-bridge/internal/adapter"
	"github.com/yourorg/payment-bridge/internal/adapter/checkout"
	"github.com/yourorg/payment-bridge/internal/adapter/circuitbreaker"
	"github.com/yourorg/payment-bridge/internal/adapter/mock"
	"github.com/yourorg/payment-bridge/internal/bridge"
	"github.com/yourorg/payment-bridge/internal/config"
	"github.com/yourorg/payment-bridge/internal/description"
	"github.com/yourorg/payment-bridge/internal/events"
	"github.com/yourorg/payment-bridge/internal/logger"
	"github.com/yourorg/payment-bridge/internal/monitor"
	"github.com/yourorg/payment-bridge/internal/outcome"
	"github.com/yourorg/payment-bridge/internal/reporting"
	"github.com/yourorg/payment-bridge/internal/request"
)

const serviceName = "payment-bridge"

// server holds what the HTTP handlers share. Every payment request gets its own
// Dispatcher, so concurrent HTTP callers never contend for one pending slot.
type server struct {
	newSDK      func() adapter.NativeSDK
	builder     *request.Builder
	normalizer  *outcome.Normalizer
	monitor     *monitor.ContractMonitor
	journal     *reporting.Journal
	reporter    *reporting.RetrospectiveReporter
	observers   []bridge.Observer
	outcomeWait time.Duration
	logger      *slog.Logger
	attemptLog  *slog.Logger

	// breaker and endpoints are set only for the checkout adapter.
	breaker   *circuitbreaker.CircuitBreaker
	endpoints []string
}

// newServer wires the server from cfg. The returned cleanup closes the event publisher.
func newServer(cfg *config.Config, log *slog.Logger) (*server, func(), error) {
	if log == nil {
		log = slog.Default()
	}

	cm := monitor.NewDefaultContractMonitor()
	if cfg.Bridge.SchemaPath != "" {
		var err error
		cm, err = monitor.NewContractMonitor(cfg.Bridge.SchemaPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load description schema: %w", err)
		}
	}

	journal := reporting.NewJournal(cfg.Reporting.JournalSize)
	s := &server{
		builder: request.NewBuilder(
			request.WithDefaultCurrency(description.Currency(cfg.Bridge.DefaultCurrency)),
			request.WithDefaultSandbox(cfg.Bridge.DefaultSandbox),
		),
		normalizer:  outcome.DefaultNormalizer(),
		monitor:     cm,
		journal:     journal,
		reporter:    reporting.NewRetrospectiveReporter(),
		observers:   []bridge.Observer{journal},
		outcomeWait: cfg.Server.OutcomeWait,
		logger:      log,
		attemptLog:  logger.WithComponent("dispatcher"),
	}

	switch cfg.Bridge.Adapter {
	case "checkout":
		s.breaker = circuitbreaker.NewCircuitBreaker(circuitbreaker.Config{
			FailureThreshold: cfg.Checkout.FailureThreshold,
			ResetTimeout:     cfg.Checkout.ResetTimeout,
		})
		s.endpoints = []string{cfg.Checkout.SandboxURL, cfg.Checkout.LiveURL}
		sdk := checkout.NewAdapter(
			&http.Client{Timeout: cfg.Checkout.Timeout},
			checkout.WithBaseURLs(cfg.Checkout.SandboxURL, cfg.Checkout.LiveURL),
			checkout.WithCircuitBreaker(s.breaker),
		)
		s.newSDK = func() adapter.NativeSDK { return sdk }
	default:
		s.newSDK = func() adapter.NativeSDK { return mock.NewMockAdapter("mock") }
	}

	cleanup := func() {}
	if len(cfg.Kafka.Brokers) > 0 {
		pub := events.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger.WithComponent("events"))
		s.observers = append(s.observers, pub)
		cleanup = func() {
			if err := pub.Close(); err != nil {
				log.Error("failed to close event publisher", "error", err)
			}
		}
		log.Info("publishing outcome events", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topic)
	}
	return s, cleanup, nil
}

func setupRouter(s *server) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), otelgin.Middleware(serviceName), requestLogger(s.logger))

	r.GET("/healthz", s.health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/v1")
	v1.POST("/payments", s.createPayment)
	v1.GET("/reports/retrospective", s.retrospective)
	return r
}

func requestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		args := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		}
		if len(c.Errors) > 0 {
			args = append(args, "error", c.Errors.String())
		}
		switch status := c.Writer.Status(); {
		case status >= 500:
			log.Error("HTTP request completed", args...)
		case status >= 400:
			log.Warn("HTTP request completed", args...)
		default:
			log.Debug("HTTP request completed", args...)
		}
	}
}

// paymentResponse is the envelope the scripting layer expects, plus the attempt id.
type paymentResponse struct {
	AttemptID string `json:"attempt_id,omitempty"`
	Outcome   string `json:"outcome"`
	outcome.Envelope
}

func newPaymentResponse(attemptID string, o outcome.Outcome) paymentResponse {
	return paymentResponse{
		AttemptID: attemptID,
		Outcome:   o.Kind.String(),
		Envelope:  outcome.ToEnvelope(o),
	}
}

func (s *server) createPayment(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	valid, violations, err := s.monitor.Validate(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	if !valid {
		c.JSON(http.StatusBadRequest, gin.H{"error": monitor.FormatErrors(violations)})
		return
	}

	var payload structpb.Struct
	if err := protojson.Unmarshal(body, &payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	// Exactly one callback runs per attempt, so one slot never blocks.
	results := make(chan outcome.Outcome, 1)
	cb := bridge.Callbacks{
		OnCompleted: func(ref string) { results <- outcome.Completed(ref) },
		OnError:     func(msg string) { results <- outcome.Failed(msg) },
		OnDismissed: func() { results <- outcome.Dismissed() },
	}

	d := bridge.NewDispatcher(s.newSDK(),
		bridge.WithBuilder(s.builder),
		bridge.WithNormalizer(s.normalizer),
		bridge.WithLogger(s.attemptLog),
		bridge.WithObservers(s.observers...),
	)

	attemptID, err := d.Start(c.Request.Context(), payload.AsMap(), cb)
	if err != nil {
		// OnError has already run.
		c.JSON(http.StatusBadRequest, newPaymentResponse("", <-results))
		return
	}

	timer := time.NewTimer(s.outcomeWait)
	defer timer.Stop()

	select {
	case o := <-results:
		c.JSON(http.StatusOK, newPaymentResponse(attemptID, o))
	case <-timer.C:
		s.logger.Warn("payment outcome not received in time", "attempt_id", attemptID, "wait", s.outcomeWait)
		c.JSON(http.StatusGatewayTimeout, gin.H{
			"attempt_id": attemptID,
			"error":      "timed out waiting for payment outcome",
		})
	case <-c.Request.Context().Done():
		s.logger.Info("client went away before the payment outcome", "attempt_id", attemptID)
		c.Status(499)
	}
}

func (s *server) retrospective(c *gin.Context) {
	report, err := s.reporter.GenerateRetrospective(s.journal.Records())
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate report: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *server) health(c *gin.Context) {
	resp := gin.H{"status": "ok"}
	if s.breaker != nil {
		circuits := make(map[string]gin.H, len(s.endpoints))
		for _, ep := range s.endpoints {
			state, failures := s.breaker.Status(ep)
			circuits[ep] = gin.H{"state": state.String(), "failures": failures}
		}
		resp["checkout_circuits"] = circuits
	}
	c.JSON(http.StatusOK, resp)
}
