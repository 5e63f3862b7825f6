// posthog.go wraps the posthog client so callers can use it unconditionally, even when no API key is configured.
package notify

import (
	"context"
	"log/slog"

	"github.com/SscSPs/ledger_core/internal/core/domain"
	"github.com/posthog/posthog-go"
)

const defaultPosthogEndpoint = "https://eu.i.posthog.com"

// PosthogSink forwards ledger events and API usage to PostHog.
type PosthogSink struct {
	posthogClient posthog.Client
	logger        *slog.Logger
}

// NewPosthogSink returns a sink that drops everything when apiKey is empty.
func NewPosthogSink(apiKey, endpoint string, logger *slog.Logger) *PosthogSink {
	if apiKey == "" {
		logger.Warn("Posthog API key is empty, not initializing posthog client.")
		return &PosthogSink{logger: logger}
	}
	if endpoint == "" {
		endpoint = defaultPosthogEndpoint
	}
	client, err := posthog.NewWithConfig(apiKey, posthog.Config{Endpoint: endpoint})
	if err != nil {
		logger.Error("Failed to initialize posthog client", slog.String("error", err.Error()))
		return &PosthogSink{logger: logger}
	}
	logger.Info("Posthog client initialized", slog.String("endpoint", endpoint))
	return &PosthogSink{posthogClient: client, logger: logger}
}

func (w *PosthogSink) IsInitialized() bool {
	return w.posthogClient != nil
}

// Enqueue queues a capture. Delivery happens in the client's background loop.
func (w *PosthogSink) Enqueue(distinctID string, event string, properties map[string]any) error {
	if w.posthogClient == nil {
		return nil
	}
	return w.posthogClient.Enqueue(posthog.Capture{
		DistinctId: distinctID,
		Event:      event,
		Properties: properties,
	})
}

// Notify captures a ledger event under the acting principal.
func (w *PosthogSink) Notify(_ context.Context, event domain.LedgerEvent) error {
	props := make(map[string]any, len(event.Properties)+1)
	for k, v := range event.Properties {
		props[k] = v
	}
	props["aggregate_id"] = event.AggregateID
	distinctID := event.ActorID
	if distinctID == "" {
		distinctID = "system"
	}
	return w.Enqueue(distinctID, string(event.Type), props)
}

func (w *PosthogSink) Close() {
	if w.posthogClient == nil {
		return
	}
	if err := w.posthogClient.Close(); err != nil && w.logger != nil {
		w.logger.Warn("Failed to flush posthog client", slog.String("error", err.Error()))
	}
}
