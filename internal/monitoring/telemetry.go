// Package monitoring - telemetry.go records events to JSONL files.
//
// DESIGN: Tracker writes one TransformEvent per transform call as JSONL
// (one JSON object per line). Events are appended immediately so the file
// can be tailed while the service runs.
package monitoring

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/compresr/omni-transform/internal/engine"
)

// Tracker handles telemetry event recording to file and stdout.
type Tracker struct {
	config     TelemetryConfig
	logPath    string
	eventCount int
	mu         sync.Mutex
}

// NewTracker creates a new telemetry tracker.
func NewTracker(cfg TelemetryConfig) (*Tracker, error) {
	t := &Tracker{
		config: cfg,
	}

	if !cfg.Enabled || cfg.LogPath == "" {
		return t, nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.LogPath), 0750); err != nil {
		return nil, err
	}
	t.logPath = cfg.LogPath
	if _, err := os.Stat(cfg.LogPath); os.IsNotExist(err) {
		if f, err := os.Create(cfg.LogPath); err == nil {
			f.Close()
		}
	}

	return t, nil
}

// appendJSONL appends a single JSON object as a line to the file.
func appendJSONL(path string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	data = append(data, '\n')

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.Write(data)
	return err
}

// RecordTransform records a transform event.
func (t *Tracker) RecordTransform(event *TransformEvent) {
	if t == nil || !t.config.Enabled {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.config.LogToStdout {
		reqID := event.RequestID
		if len(reqID) > 8 {
			reqID = reqID[:8]
		}
		log.Info().
			Str("request_id", reqID).
			Str("outcome", string(event.Outcome)).
			Str("provider", event.SelectedProvider).
			Str("error_code", event.ErrorCode).
			Msg("telemetry")
	}

	if t.logPath != "" {
		if err := appendJSONL(t.logPath, event); err != nil {
			log.Error().Err(err).Str("path", t.logPath).Msg("telemetry: failed to write transform event")
		} else {
			t.eventCount++
		}
	}
}

// EventCount returns how many events were written this session.
func (t *Tracker) EventCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.eventCount
}

// Close logs a session summary.
func (t *Tracker) Close() error {
	if t == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.logPath != "" && t.eventCount > 0 {
		log.Info().
			Str("path", t.logPath).
			Int("events", t.eventCount).
			Msg("telemetry: session complete")
	}

	return nil
}

// ClassifyOutcome maps a result onto an Outcome.
func ClassifyOutcome(res *engine.Result) Outcome {
	switch {
	case res.OK && len(res.Diagnostics.AttemptedProviders) > 1:
		return OutcomeFallback
	case res.OK:
		return OutcomeSelected
	case len(res.Diagnostics.AttemptedProviders) == 0 && len(res.Diagnostics.ProviderReasons) == 0:
		return OutcomeInvalid
	default:
		return OutcomeExhausted
	}
}

// NewTransformEvent summarizes a finished transform call.
func NewTransformEvent(requestID, source, model string, preferred []string, res *engine.Result, latency time.Duration) *TransformEvent {
	event := &TransformEvent{
		RequestID:          requestID,
		Timestamp:          time.Now(),
		Source:             source,
		Model:              model,
		Preferred:          preferred,
		Outcome:            ClassifyOutcome(res),
		OK:                 res.OK,
		AttemptedProviders: providerStrings(res.Diagnostics.AttemptedProviders),
		FallbackCandidates: providerStrings(res.FallbackCandidates),
		ErrorCode:          string(res.ErrorCode()),
		PayloadBytes:       len(res.ProviderPayload),
		LatencyUs:          latency.Microseconds(),
	}
	if event.Preferred == nil {
		event.Preferred = []string{}
	}
	if res.SelectedProvider != nil {
		event.SelectedProvider = res.SelectedProvider.String()
	}
	if len(res.Diagnostics.ProviderReasons) > 0 {
		event.ReasonCodes = make(map[string]string, len(res.Diagnostics.ProviderReasons))
		for p, r := range res.Diagnostics.ProviderReasons {
			event.ReasonCodes[p.String()] = string(r.Code)
		}
	}
	return event
}

func providerStrings[T ~string](ids []T) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, string(id))
	}
	return out
}

