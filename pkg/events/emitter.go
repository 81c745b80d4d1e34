// Package events handles event emission for retrieval outcomes
package events

import (
	"context"
	"encoding/json"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/sorrel/pkg/kafka"
	"github.com/Ramsey-B/sorrel/pkg/tracing"
)

// SchemaVersion is the current event schema version
const SchemaVersion = "1.0"

// Publisher is the producer surface the emitter needs.
type Publisher interface {
	PublishRetrievalEvent(ctx context.Context, event *kafka.RetrievalEvent) error
}

// Emitter emits retrieval lifecycle events. A nil publisher turns emission
// off, for deployments without a broker.
type Emitter struct {
	producer Publisher
	logger   ectologger.Logger
}

// NewEmitter creates a new event emitter
func NewEmitter(producer Publisher, logger ectologger.Logger) *Emitter {
	return &Emitter{
		producer: producer,
		logger:   logger,
	}
}

// EmitMetadataFetched emits a metadata.fetched event
func (e *Emitter) EmitMetadataFetched(ctx context.Context, jobID string, runIDs, missingIDs []string) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitMetadataFetched")
	defer span.End()

	if e.producer == nil {
		return nil
	}

	data, _ := json.Marshal(map[string]any{
		"schema_version": SchemaVersion,
		"missing_ids":    missingIDs,
	})

	event := &kafka.RetrievalEvent{
		EventType: "metadata.fetched",
		JobID:     jobID,
		RunIDs:    runIDs,
		Data:      data,
	}

	if err := e.producer.PublishRetrievalEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit metadata.fetched event")
		return err
	}
	return nil
}

// EmitSequencesDownloaded emits a sequences.downloaded event
func (e *Emitter) EmitSequencesDownloaded(ctx context.Context, jobID string, runIDs []string, singleFiles, pairedFiles int) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitSequencesDownloaded")
	defer span.End()

	if e.producer == nil {
		return nil
	}

	data, _ := json.Marshal(map[string]any{
		"schema_version": SchemaVersion,
		"single_files":   singleFiles,
		"paired_files":   pairedFiles,
	})

	event := &kafka.RetrievalEvent{
		EventType: "sequences.downloaded",
		JobID:     jobID,
		RunIDs:    runIDs,
		Data:      data,
	}

	if err := e.producer.PublishRetrievalEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit sequences.downloaded event")
		return err
	}
	return nil
}

// EmitSequencesFailed emits a sequences.failed event carrying the per-run
// failure reasons
func (e *Emitter) EmitSequencesFailed(ctx context.Context, jobID string, failed map[string]string) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitSequencesFailed")
	defer span.End()

	if e.producer == nil || len(failed) == 0 {
		return nil
	}

	data, _ := json.Marshal(map[string]any{
		"schema_version": SchemaVersion,
		"failed":         failed,
	})

	runIDs := make([]string, 0, len(failed))
	for id := range failed {
		runIDs = append(runIDs, id)
	}

	event := &kafka.RetrievalEvent{
		EventType: "sequences.failed",
		JobID:     jobID,
		RunIDs:    runIDs,
		Data:      data,
	}

	if err := e.producer.PublishRetrievalEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit sequences.failed event")
		return err
	}
	return nil
}
