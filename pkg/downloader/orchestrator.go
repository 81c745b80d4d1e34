// Package downloader drives read-file retrieval across retry rounds with
// storage-aware failure handling.
package downloader

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/sorrel/pkg/sratools"
)

// ReasonStorageExhausted is recorded for every run that could not be
// attempted once the disk limit was hit.
const ReasonStorageExhausted = "Storage exhausted."

// DefaultBackoffBase is the starting point of the shrinking inter-round
// backoff. Early retries wait longer to let transient archive load clear.
const DefaultBackoffBase = 180 * time.Second

// Config holds the retry policy.
type Config struct {
	Retries     int
	BackoffBase time.Duration
}

// Orchestrator downloads batches of runs through the tool runner, retrying
// failed ids across rounds. Ids are processed sequentially; fan-out across
// ids is the caller's concern.
type Orchestrator struct {
	cfg    Config
	runner sratools.Runner
	logger ectologger.Logger
	sleep  func(context.Context, time.Duration) error
}

func NewOrchestrator(cfg Config, runner sratools.Runner, logger ectologger.Logger) *Orchestrator {
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = DefaultBackoffBase
	}
	return &Orchestrator{
		cfg:    cfg,
		runner: runner,
		logger: logger,
		sleep:  sleepContext,
	}
}

type attemptOutcome int

const (
	attemptSucceeded attemptOutcome = iota
	attemptFailed
	attemptNoSpace
)

// Download runs retry rounds over the batch until every id succeeds, the
// retry budget is exhausted, or storage runs out. A negative retries value
// falls back to the configured budget. Returns the final failed-id to
// reason mapping; an empty map means everything landed.
func (o *Orchestrator) Download(ctx context.Context, ids []string, retries int) (map[string]string, error) {
	remaining := dedupe(ids)
	budget := retries
	if budget < 0 {
		budget = o.cfg.Retries
	}

	for {
		sort.Strings(remaining)

		failed := make(map[string]string)
		storageOut := false
		for i, id := range remaining {
			outcome, reason, err := o.attempt(ctx, id)
			if err != nil {
				return nil, err
			}
			switch outcome {
			case attemptSucceeded:
				continue
			case attemptFailed:
				failed[id] = reason
			case attemptNoSpace:
				// disk is the bottleneck; further attempts are futile for
				// every pending id, this round and all future ones
				failed[id] = ReasonStorageExhausted
				for _, rest := range remaining[i+1:] {
					failed[rest] = ReasonStorageExhausted
				}
				storageOut = true
			}
			if storageOut {
				break
			}
		}

		if storageOut {
			o.logger.WithContext(ctx).Errorf("Storage exhausted; aborting retries for %d runs", len(failed))
			return failed, nil
		}
		if len(failed) == 0 || budget <= 0 {
			return failed, nil
		}

		retryIDs := sortedKeys(failed)
		backoff := time.Duration(float64(o.cfg.BackoffBase) / float64(budget+1))
		o.logger.WithContext(ctx).Warnf("Retrying %d runs after %s: %s",
			len(retryIDs), backoff, strings.Join(retryIDs, ", "))
		if err := o.sleep(ctx, backoff); err != nil {
			return nil, err
		}

		remaining = retryIDs
		budget--
	}
}

func (o *Orchestrator) attempt(ctx context.Context, id string) (attemptOutcome, string, error) {
	if check, err := o.runner.SizeCheck(ctx, id); err != nil {
		// size checking degrades gracefully when the tool lacks the mode
		o.logger.WithContext(ctx).WithError(err).Warnf("Size check unavailable for %s", id)
	} else if sratools.Classify(check) == sratools.OutcomeNoSpace {
		return attemptNoSpace, "", nil
	}

	staged, err := o.runner.Prefetch(ctx, id)
	if err != nil {
		return 0, "", err
	}
	switch sratools.Classify(staged) {
	case sratools.OutcomeNoSpace:
		return attemptNoSpace, "", nil
	case sratools.OutcomeFailed:
		return attemptFailed, staged.Stderr, nil
	}

	extracted, err := o.runner.FasterqDump(ctx, id)
	if err != nil {
		return 0, "", err
	}
	switch sratools.Classify(extracted) {
	case sratools.OutcomeNoSpace:
		return attemptNoSpace, "", nil
	case sratools.OutcomeFailed:
		return attemptFailed, extracted.Stderr, nil
	}

	return attemptSucceeded, "", nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	result := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			result = append(result, id)
		}
	}
	return result
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
