// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package batch

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/shawncrivello/label-me-labeled/internal/labels"
	"github.com/shawncrivello/label-me-labeled/internal/logger"
)

const (
	loggerName = "drive-labels:batch"

	// AuditAction is the action type of the audit record written for every run.
	AuditAction = "batch_operation"

	callGetLabel     = "get_label"
	callModifyLabels = "modify_labels"
	callRemoveLabel  = "remove_label"
)

// Executor runs batches of label operations against the remote service.
type Executor struct {
	catalog  LabelCatalog
	files    FileLabelService
	config   Config
	progress ProgressReporter
	audit    AuditSink
	sleeper  Sleeper
	metrics  *Metrics
}

// Option customizes an Executor.
type Option func(*Executor)

// WithProgress sets the reporter receiving progress updates.
func WithProgress(progress ProgressReporter) Option {
	return func(e *Executor) {
		if progress != nil {
			e.progress = progress
		}
	}
}

// WithAudit sets the sink receiving the record of each run.
func WithAudit(audit AuditSink) Option {
	return func(e *Executor) {
		if audit != nil {
			e.audit = audit
		}
	}
}

// WithSleeper replaces the timer used for pauses and retry delays.
func WithSleeper(sleeper Sleeper) Option {
	return func(e *Executor) {
		if sleeper != nil {
			e.sleeper = sleeper
		}
	}
}

// WithMetrics records run metrics on m.
func WithMetrics(m *Metrics) Option {
	return func(e *Executor) {
		e.metrics = m
	}
}

// NewExecutor returns an Executor using catalog to resolve field types and files to
// change labels. It fails with ErrInvalidConfig when config cannot be used.
func NewExecutor(catalog LabelCatalog, files FileLabelService, config Config, opts ...Option) (*Executor, error) {
	if catalog == nil || files == nil {
		return nil, fmt.Errorf("%w: label catalog and file service are required", ErrInvalidConfig)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	executor := &Executor{
		catalog:  catalog,
		files:    files,
		config:   config,
		progress: noopProgress{},
		audit:    noopAudit{},
		sleeper:  TimerSleeper,
	}
	for _, opt := range opts {
		opt(executor)
	}

	return executor, nil
}

type opState int

const (
	statePending opState = iota
	stateSucceeded
	stateFailed
	stateRetrying
	stateInvalid
)

type schemaEntry struct {
	schema *labels.Schema
	err    error
}

// run holds the state of one Run invocation.
type run struct {
	*Executor

	id            string
	log           logger.Logger
	ops           []Operation
	limiter       *rate.Limiter
	encodeOptions []labels.EncodeOption

	mu        sync.Mutex
	states    []opState
	errs      []error
	schemas   map[string]schemaEntry
	pause     time.Duration
	processed int
}

// Run submits ops and returns the outcome of each of them. Remote failures never make
// Run fail: they are reported in the result. When ctx is cancelled Run stops submitting,
// marks every undecided operation as skipped and returns the partial result with ctx.Err().
func (e *Executor) Run(ctx context.Context, ops []Operation) (*BatchResult, error) {
	start := time.Now()
	id := uuid.NewString()

	r := &run{
		Executor: e,
		id:       id,
		log:      logger.FromContext(ctx).WithName(loggerName).With("runId", id),
		ops:      ops,
		states:   make([]opState, len(ops)),
		errs:     make([]error, len(ops)),
		schemas:  make(map[string]schemaEntry),
	}
	if e.config.RequestsPerSecond > 0 {
		r.limiter = rate.NewLimiter(rate.Limit(e.config.RequestsPerSecond), 1)
	}
	if e.config.StrictDates {
		r.encodeOptions = append(r.encodeOptions, labels.WithStrictDates())
	}

	groups, dropped := Group(ops)
	for _, index := range dropped {
		r.states[index] = stateInvalid
		r.errs[index] = fmt.Errorf("%w: file id and label id are required", ErrInvalidOperation)
	}
	if len(dropped) > 0 {
		r.log.Warn("operations without file or label are ignored", "count", len(dropped))
	}

	r.log.Info("batch run started", "operations", len(ops), "groups", len(groups))
	passes, runErr := r.execute(ctx, groups, len(dropped))

	result := r.result(passes, time.Since(start), runErr)
	if runErr != nil {
		r.log.Warn("batch run interrupted", "error", runErr.Error())
		e.progress.Update(result.Total, result.Total, "Cancelled")
	} else {
		e.progress.Update(result.Total, result.Total, "Complete")
	}

	//nolint:contextcheck // the audit record must be written even for cancelled runs
	r.record(context.WithoutCancel(ctx), result)
	e.metrics.observeResult(result)

	r.log.Info("batch run completed",
		"successful", result.Successful,
		"failed", result.Failed,
		"skipped", result.Skipped,
		"invalid", result.Invalid,
		"passes", result.Passes,
	)

	return result, runErr
}

// execute runs the first pass and the retry passes, returning how many passes started.
func (r *run) execute(ctx context.Context, groups []*OperationGroup, invalid int) (int, error) {
	pending := groups
	passes := 0
	for pass := 0; pass <= r.config.RetryCount && len(pending) > 0; pass++ {
		total := len(r.ops)
		r.setProcessed(invalid)

		if pass > 0 {
			total = r.undecidedCount(pending)
			r.setProcessed(0)

			delay := r.config.retryDelay(pass)
			r.log.Info("retrying failed groups", "pass", pass, "groups", len(pending), "delay", delay.String())
			r.progress.Update(0, total, fmt.Sprintf("Retry pass %d of %d", pass, r.config.RetryCount))
			if err := r.sleeper.Sleep(ctx, delay); err != nil {
				return passes, err
			}
		} else {
			r.progress.Update(invalid, total, "Starting")
		}

		passes++
		r.metrics.observePass()
		if err := r.runPass(ctx, pass, pending, total); err != nil {
			return passes, err
		}

		pending = r.retryableGroups(pending)
	}

	return passes, nil
}

// runPass submits groups in batches, pausing between two batches.
func (r *run) runPass(ctx context.Context, pass int, groups []*OperationGroup, total int) error {
	r.setPause(r.config.InterBatchPause)

	size := r.config.batchSize(len(groups))
	for start := 0; start < len(groups); start += size {
		if err := ctx.Err(); err != nil {
			return err
		}

		if start > 0 {
			if pause := r.currentPause(); pause > 0 {
				r.log.Debug("pausing between batches", "pause", pause.String())
				if err := r.sleeper.Sleep(ctx, pause); err != nil {
					return err
				}
			}
		}

		r.runBatch(ctx, pass, groups[start:min(start+size, len(groups))], total)
	}

	return ctx.Err()
}

// runBatch submits every group of batch, at most config.Concurrency at a time. Groups
// of a batch never share a file and label, and the calls of one group stay sequential.
func (r *run) runBatch(ctx context.Context, pass int, batch []*OperationGroup, total int) {
	var workers errgroup.Group
	workers.SetLimit(r.config.concurrency())

	for _, group := range batch {
		if ctx.Err() != nil {
			break
		}

		workers.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}

			count := r.undecidedCount([]*OperationGroup{group})
			r.processGroup(ctx, pass, group)
			r.advance(count, total, group)
			return nil
		})
	}

	_ = workers.Wait() // workers never return errors
}

func (r *run) processGroup(ctx context.Context, pass int, group *OperationGroup) {
	log := r.log.With("fileId", group.FileID, "labelId", group.LabelID, "pass", pass)

	if modifications := r.undecided(group.Modifications); len(modifications) > 0 {
		r.modify(ctx, log, group, modifications)
	}

	if ctx.Err() != nil {
		return
	}

	if removals := r.undecided(group.Removals); len(removals) > 0 {
		err := r.call(ctx, callRemoveLabel, func(ctx context.Context) error {
			return r.files.RemoveLabel(ctx, group.FileID, group.LabelID)
		})
		r.settle(ctx, log, removals, err)
	}
}

// modify encodes modifications and submits the valid ones with a single call.
// Operations that cannot be encoded fail alone.
func (r *run) modify(ctx context.Context, log logger.Logger, group *OperationGroup, modifications []Modification) {
	var schema *labels.Schema
	var schemaErr error
	if slices.ContainsFunc(modifications, func(m Modification) bool { return !m.Unset() }) {
		schema, schemaErr = r.schema(ctx, group.LabelID)
	}

	fieldModifications := make([]labels.FieldModification, 0, len(modifications))
	carried := make([]Modification, 0, len(modifications))
	unresolved := make([]Modification, 0)

	for _, modification := range modifications {
		op := modification.Operation
		switch op.Kind {
		case KindUnset:
			fieldModifications = append(fieldModifications, labels.FieldModification{FieldID: op.FieldID, Unset: true})
			carried = append(carried, modification)
			continue
		case KindApply, KindUpdate, "":
		default:
			r.settle(ctx, log, []Modification{modification}, fmt.Errorf("%w: unknown kind %q", ErrInvalidOperation, op.Kind))
			continue
		}

		if schemaErr != nil {
			unresolved = append(unresolved, modification)
			continue
		}

		fieldModification, err := r.encode(schema, op)
		if err != nil {
			r.settle(ctx, log, []Modification{modification}, err)
			continue
		}

		fieldModifications = append(fieldModifications, fieldModification)
		carried = append(carried, modification)
	}

	if len(unresolved) > 0 {
		r.settle(ctx, log, unresolved, schemaErr)
	}

	if len(carried) == 0 {
		return
	}

	err := r.call(ctx, callModifyLabels, func(ctx context.Context) error {
		return r.files.ModifyLabels(ctx, group.FileID, group.LabelID, fieldModifications)
	})
	r.settle(ctx, log, carried, err)
}

// encode resolves the type of the field targeted by op and encodes its value.
// Names of selection options are replaced by their ids.
func (r *run) encode(schema *labels.Schema, op Operation) (labels.FieldModification, error) {
	field, ok := schema.Field(op.FieldID)
	if !ok {
		return labels.FieldModification{}, fmt.Errorf("%w: field %q on label %q", ErrNotFound, op.FieldID, schema.ID)
	}

	value := op.Value
	if name, isString := value.(string); isString && field.Type == labels.Selection {
		if id, found := field.ChoiceID(name); found {
			value = id
		}
	}

	wire, err := labels.Encode(field.Type, value, r.encodeOptions...)
	if err != nil {
		return labels.FieldModification{}, fmt.Errorf("field %q: %w", field.ID, err)
	}

	return labels.FieldModification{FieldID: field.ID, Value: wire}, nil
}

// schema returns the schema of labelID, fetching it once per run. Transient failures
// are not cached so that a retry pass fetches the schema again.
func (r *run) schema(ctx context.Context, labelID string) (*labels.Schema, error) {
	r.mu.Lock()
	entry, ok := r.schemas[labelID]
	r.mu.Unlock()
	if ok {
		return entry.schema, entry.err
	}

	var schema *labels.Schema
	err := r.call(ctx, callGetLabel, func(ctx context.Context) error {
		var err error
		schema, err = r.catalog.GetLabel(ctx, labelID)
		return err
	})
	if err == nil && schema == nil {
		err = fmt.Errorf("%w: label %q", ErrNotFound, labelID)
	}

	if err == nil || (!IsRetryable(err) && !isCancellation(err)) {
		r.mu.Lock()
		r.schemas[labelID] = schemaEntry{schema: schema, err: err}
		r.mu.Unlock()
	}

	return schema, err
}

// call issues one remote call, waiting for the rate limiter first.
func (r *run) call(ctx context.Context, name string, fn func(context.Context) error) error {
	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	err := fn(ctx)
	r.metrics.observeCall(name, err)
	return err
}

// settle records the outcome of a call for every operation it carried.
func (r *run) settle(ctx context.Context, log logger.Logger, modifications []Modification, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var next opState
	switch {
	case err == nil:
		next = stateSucceeded
	case isCancellation(err) && ctx.Err() != nil:
		// the run is stopping, leave the operations undecided
		return
	case isCancellation(err):
		next = stateRetrying
	case !IsRetryable(err):
		next = stateFailed
	default:
		next = stateRetrying
	}

	for _, modification := range modifications {
		r.states[modification.Index] = next
		r.errs[modification.Index] = err
	}

	switch next {
	case stateSucceeded:
		log.Debug("operations applied", "count", len(modifications))
	case stateFailed:
		log.Warn("operations rejected", "count", len(modifications), "error", err.Error())
	case stateRetrying:
		log.Debug("operations failed, will retry", "count", len(modifications), "error", err.Error())
		if errors.Is(err, ErrRateLimited) {
			r.pause = r.config.nextPause(r.pause)
			r.metrics.observePause(r.pause)
			log.Warn("rate limited, increasing pause between batches", "pause", r.pause.String())
		}
	}
}

// record writes the audit record of the run. Failures are only logged.
func (r *run) record(ctx context.Context, result *BatchResult) {
	description := fmt.Sprintf("%s in %d passes", result.Summary(), result.Passes)
	if err := r.audit.Record(ctx, AuditAction, r.id, description); err != nil {
		r.log.Warn("cannot write audit record", "error", err.Error())
	}
}

func (r *run) result(passes int, duration time.Duration, runErr error) *BatchResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := &BatchResult{
		RunID:    r.id,
		Total:    len(r.ops),
		Passes:   passes,
		Duration: duration,
		Outcomes: make([]Outcome, 0, len(r.ops)),
		Errors:   make([]string, 0),
	}

	reported := make(map[string]bool)
	for index, op := range r.ops {
		outcome := Outcome{
			Operation: op,
			FileID:    op.FileID,
			LabelID:   op.LabelID,
			Err:       r.errs[index],
		}

		switch r.states[index] {
		case stateSucceeded:
			outcome.Status = StatusSucceeded
			result.Successful++
		case stateFailed:
			outcome.Status = StatusFailed
			result.Failed++
		case stateInvalid:
			outcome.Status = StatusInvalid
			result.Invalid++
		case statePending, stateRetrying:
			outcome.Status = StatusSkipped
			result.Skipped++
			if outcome.Err == nil {
				outcome.Err = runErr
			}
		}

		if outcome.Err != nil {
			message := fmt.Sprintf("%s: %s", op, outcome.Err)
			if !reported[message] {
				reported[message] = true
				result.Errors = append(result.Errors, message)
			}
		}

		result.Outcomes = append(result.Outcomes, outcome)
	}

	return result
}

func (r *run) undecided(modifications []Modification) []Modification {
	r.mu.Lock()
	defer r.mu.Unlock()

	undecided := make([]Modification, 0, len(modifications))
	for _, modification := range modifications {
		if state := r.states[modification.Index]; state == statePending || state == stateRetrying {
			undecided = append(undecided, modification)
		}
	}
	return undecided
}

func (r *run) undecidedCount(groups []*OperationGroup) int {
	count := 0
	for _, group := range groups {
		count += len(r.undecided(group.Modifications)) + len(r.undecided(group.Removals))
	}
	return count
}

// retryableGroups returns the groups holding operations that failed with a transient error.
func (r *run) retryableGroups(groups []*OperationGroup) []*OperationGroup {
	r.mu.Lock()
	defer r.mu.Unlock()

	retryable := make([]*OperationGroup, 0)
	for _, group := range groups {
		retry := func(m Modification) bool { return r.states[m.Index] == stateRetrying }
		if slices.ContainsFunc(group.Modifications, retry) || slices.ContainsFunc(group.Removals, retry) {
			retryable = append(retryable, group)
		}
	}
	return retryable
}

func (r *run) advance(count, total int, group *OperationGroup) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.processed = min(r.processed+count, total)
	r.progress.Update(r.processed, total, fmt.Sprintf("Processed %s on %s", group.LabelID, group.FileID))
}

func (r *run) setProcessed(processed int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.processed = processed
}

func (r *run) setPause(pause time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pause = pause
	r.metrics.observePause(pause)
}

func (r *run) currentPause() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pause
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
