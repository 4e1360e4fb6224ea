// Package chat runs the routing pipeline: detect locale and classify in parallel,
// resolve a handler, process, and assemble the response.
package chat

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"golang.org/x/sync/errgroup"

	aierrors "github.com/hrygo/genuirouter/internal/errors"
	"github.com/hrygo/genuirouter/plugin/ai/handler"
	"github.com/hrygo/genuirouter/plugin/ai/i18n"
	"github.com/hrygo/genuirouter/plugin/ai/router"
	"github.com/hrygo/genuirouter/plugin/ai/timeout"
	"github.com/hrygo/genuirouter/server/internal/observability"
)

// Service is the pipeline entry point. It is safe for concurrent use.
type Service struct {
	router         router.RouterService
	registry       *handler.Registry
	metrics        *observability.Metrics
	logger         *slog.Logger
	requestTimeout time.Duration
	capabilities   []Capability
}

// Config wires a Service from prebuilt parts.
type Config struct {
	Router   router.RouterService
	Registry *handler.Registry
	// Metrics is optional; a fresh collector over the registry keys is created when nil.
	Metrics *observability.Metrics
	Logger  *slog.Logger
	// RequestTimeout bounds one pipeline run; zero selects the default.
	RequestTimeout time.Duration
	// Capabilities describes the registered intents for listing.
	Capabilities []Capability
}

// Capability describes one registered intent.
type Capability struct {
	Intent      router.Intent `json:"intent"`
	Description string        `json:"description"`
	Triggers    []string      `json:"triggers"`
}

// Options tune a Service built from a catalog.
type Options struct {
	ClassificationTimeout time.Duration
	ConfidenceThreshold   float32
	RequestTimeout        time.Duration
	Logger                *slog.Logger
}

// NewService creates a Service.
func NewService(cfg Config) (*Service, error) {
	if cfg.Router == nil {
		return nil, aierrors.Configuration("chat service requires a router")
	}
	if cfg.Registry == nil {
		return nil, aierrors.Configuration("chat service requires a handler registry")
	}

	metrics := cfg.Metrics
	if metrics == nil {
		keys := cfg.Registry.Keys()
		names := make([]string, len(keys))
		for i, k := range keys {
			names[i] = k.String()
		}
		metrics = observability.NewMetrics(names)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		router:         cfg.Router,
		registry:       cfg.Registry,
		metrics:        metrics,
		logger:         logger,
		requestTimeout: timeout.OrDefault(cfg.RequestTimeout, timeout.RequestTimeout),
		capabilities:   cfg.Capabilities,
	}, nil
}

// Build wires the registry, the router and the metrics from one catalog, so the
// router's vocabulary and the registry's keys cannot drift apart.
func Build(entries []handler.Entry, deps handler.Deps, opts Options) (*Service, error) {
	registry, err := handler.BuildFromCatalog(entries, deps)
	if err != nil {
		return nil, err
	}

	routerService := router.NewService(router.Config{
		Rules:                 handler.Rules(entries),
		Completion:            deps.Completion,
		ConfidenceThreshold:   opts.ConfidenceThreshold,
		ClassificationTimeout: opts.ClassificationTimeout,
	})

	capabilities := make([]Capability, 0, len(entries))
	for _, e := range entries {
		capabilities = append(capabilities, Capability{Intent: e.Key, Description: e.Description, Triggers: e.Triggers})
	}

	return NewService(Config{
		Router:         routerService,
		Registry:       registry,
		Logger:         opts.Logger,
		RequestTimeout: opts.RequestTimeout,
		Capabilities:   capabilities,
	})
}

// Request is one pipeline input.
type Request struct {
	Message router.Message
	// Locale overrides detection when valid.
	Locale i18n.Locale
	// RequestID is generated when empty.
	RequestID string
}

// Ask runs the pipeline on plain text.
func (s *Service) Ask(ctx context.Context, text string) *Response {
	return s.Handle(ctx, Request{Message: router.NewMessage(text)})
}

// Handle runs the pipeline. It always returns a response; every failure below it
// is converted into a degraded reply. A RequestContext already on ctx is reused,
// and its id takes precedence over req.RequestID.
func (s *Service) Handle(ctx context.Context, req Request) *Response {
	reqCtx, ok := observability.FromContext(ctx)
	if !ok {
		reqCtx = observability.NewRequestContextWithID(s.logger, req.RequestID)
		ctx = observability.WithRequestContext(ctx, reqCtx)
	}
	ctx, cancel := context.WithTimeout(ctx, s.requestTimeout)
	defer cancel()

	msg := req.Message
	if msg.ArrivalOrder == 0 {
		msg.ArrivalOrder = time.Now().UnixNano()
	}

	// Detection and classification only read msg.
	var (
		locale         i18n.Locale
		classification router.Classification
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		locale = i18n.Detect(msg.Text)
		return nil
	})
	g.Go(func() error {
		classification = s.router.Classify(gctx, msg)
		return nil
	})
	_ = g.Wait()

	if req.Locale.Valid() {
		locale = req.Locale
	}

	intent := classification.Intent
	if !s.registry.Has(intent) {
		intent = router.IntentFallback
	}
	reqCtx.Intent = intent.String()
	reqCtx.Locale = locale.String()

	result := s.process(ctx, reqCtx, intent, s.registry.Resolve(intent), msg, locale)
	resp := Assemble(reqCtx.RequestID, locale, intent, classification, result)

	s.metrics.RecordRoute(intent.String(), string(classification.Method), result.Degraded, reqCtx.Duration())

	attrs := []slog.Attr{
		slog.String(observability.LogFieldMethod, string(classification.Method)),
		slog.Int(observability.LogFieldMessageLen, len(msg.Text)),
		slog.Int64(observability.LogFieldDuration, reqCtx.DurationMs()),
		slog.Bool("has_payload", result.Payload != nil),
	}
	if result.Degraded {
		attrs = append(attrs, slog.String(observability.LogFieldErrorCode, string(result.ErrorCode)))
		if result.Err != nil {
			attrs = append(attrs, slog.Any("error", result.Err))
		}
		reqCtx.Warn("message handled with degraded result", attrs...)
	} else {
		reqCtx.Info("message handled", attrs...)
	}
	reqCtx.Debug("message text", slog.String("text", observability.Truncate(msg.Text)))

	return resp
}

// process invokes h, converting a panic or an invalid result into a NullHandler reply.
// A payload is kept only when it is valid and tagged with the intent that produced it.
func (s *Service) process(ctx context.Context, reqCtx *observability.RequestContext, intent router.Intent, h handler.Handler, msg router.Message, locale i18n.Locale) (result *handler.Result) {
	defer func() {
		if r := recover(); r != nil {
			s.metrics.RecordPanic()
			reqCtx.Error("handler panicked", fmt.Errorf("%v", r), slog.String("stack", string(debug.Stack())))
			result = handler.NullHandler{}.Process(ctx, msg, locale)
			result.Degraded = true
		}
	}()

	result = h.Process(ctx, msg, locale)
	if result == nil {
		reqCtx.Warn("handler returned no result")
		result = handler.NullHandler{}.Process(ctx, msg, locale)
		result.Degraded = true
		return result
	}
	if result.Payload != nil {
		if err := result.Payload.Validate(); err != nil {
			reqCtx.Warn("dropping invalid payload", slog.String("error", err.Error()))
			result.Payload = nil
		} else if string(result.Payload.Tag) != intent.String() {
			reqCtx.Warn("dropping payload tagged for another intent",
				slog.String("payload_tag", string(result.Payload.Tag)))
			result.Payload = nil
			result.Degraded = true
		}
	}
	if result.Text == "" {
		result.Text = i18n.T(locale, i18n.KeyFallbackAck)
	}
	return result
}

// Capabilities lists the registered intents.
func (s *Service) Capabilities() []Capability {
	if len(s.capabilities) > 0 {
		out := make([]Capability, len(s.capabilities))
		copy(out, s.capabilities)
		return out
	}
	keys := s.registry.Keys()
	out := make([]Capability, len(keys))
	for i, k := range keys {
		out[i] = Capability{Intent: k}
	}
	return out
}

// Metrics returns the service's routing metrics.
func (s *Service) Metrics() *observability.Metrics {
	return s.metrics
}
