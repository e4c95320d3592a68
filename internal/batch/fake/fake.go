// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package fake

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shawncrivello/label-me-labeled/internal/batch"
	"github.com/shawncrivello/label-me-labeled/internal/labels"
)

var (
	_ batch.LabelCatalog     = &Catalog{}
	_ batch.FileLabelService = &FileService{}
	_ batch.ProgressReporter = &Progress{}
	_ batch.AuditSink        = &Audit{}
	_ batch.Sleeper          = &Sleeper{}
)

// Catalog serves label schemas from memory and counts lookups per label.
type Catalog struct {
	tb testing.TB

	mu      sync.Mutex
	schemas map[string]*labels.Schema
	Calls   map[string]int
	Err     error
}

func NewCatalog(tb testing.TB, schemas ...*labels.Schema) *Catalog {
	tb.Helper()

	catalog := &Catalog{tb: tb, schemas: make(map[string]*labels.Schema), Calls: make(map[string]int)}
	for _, schema := range schemas {
		catalog.schemas[schema.ID] = schema
	}
	return catalog
}

func (c *Catalog) GetLabel(_ context.Context, labelID string) (*labels.Schema, error) {
	c.tb.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()

	c.Calls[labelID]++
	if c.Err != nil {
		return nil, c.Err
	}

	schema, ok := c.schemas[labelID]
	if !ok {
		return nil, fmt.Errorf("%w: label %s", batch.ErrNotFound, labelID)
	}
	return schema, nil
}

// Call is one request received by FileService.
type Call struct {
	Method        string
	FileID        string
	LabelID       string
	Modifications []labels.FieldModification
}

// Key identifies the file and label a call targets.
func (c Call) Key() string {
	return c.FileID + "/" + c.LabelID
}

// FileService records calls and answers with scripted errors.
type FileService struct {
	tb testing.TB

	mu    sync.Mutex
	Calls []Call
	// Responses holds, per "file/label" key, the errors returned by successive calls.
	// Once exhausted calls succeed.
	Responses map[string][]error
	// Always makes every call fail with the given error when set.
	Always error
	// OnCall runs before the response is computed.
	OnCall func(ctx context.Context, call Call)
}

func NewFileService(tb testing.TB) *FileService {
	tb.Helper()
	return &FileService{tb: tb, Responses: make(map[string][]error)}
}

// FailNext scripts the errors returned by the next calls on fileID and labelID.
func (f *FileService) FailNext(fileID, labelID string, errs ...error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := fileID + "/" + labelID
	f.Responses[key] = append(f.Responses[key], errs...)
}

func (f *FileService) ModifyLabels(ctx context.Context, fileID, labelID string, modifications []labels.FieldModification) error {
	f.tb.Helper()
	return f.respond(ctx, Call{Method: "ModifyLabels", FileID: fileID, LabelID: labelID, Modifications: modifications})
}

func (f *FileService) RemoveLabel(ctx context.Context, fileID, labelID string) error {
	f.tb.Helper()
	return f.respond(ctx, Call{Method: "RemoveLabel", FileID: fileID, LabelID: labelID})
}

// CallsFor returns the calls received for fileID and labelID.
func (f *FileService) CallsFor(fileID, labelID string) []Call {
	f.mu.Lock()
	defer f.mu.Unlock()

	calls := make([]Call, 0)
	for _, call := range f.Calls {
		if call.FileID == fileID && call.LabelID == labelID {
			calls = append(calls, call)
		}
	}
	return calls
}

func (f *FileService) respond(ctx context.Context, call Call) error {
	if f.OnCall != nil {
		f.OnCall(ctx, call)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.Calls = append(f.Calls, call)
	if err := ctx.Err(); err != nil {
		return err
	}
	if f.Always != nil {
		return f.Always
	}

	scripted := f.Responses[call.Key()]
	if len(scripted) == 0 {
		return nil
	}
	f.Responses[call.Key()] = scripted[1:]
	return scripted[0]
}

// Update is one progress notification.
type Update struct {
	Current int
	Total   int
	Message string
}

// Progress records progress updates.
type Progress struct {
	mu      sync.Mutex
	Updates []Update
}

func (p *Progress) Update(current, total int, message string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Updates = append(p.Updates, Update{Current: current, Total: total, Message: message})
}

// Last returns the last update received.
func (p *Progress) Last() Update {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.Updates) == 0 {
		return Update{}
	}
	return p.Updates[len(p.Updates)-1]
}

// Record is one audit record.
type Record struct {
	ActionType  string
	TargetID    string
	Description string
}

// Audit records audit records and optionally fails.
type Audit struct {
	mu      sync.Mutex
	Records []Record
	Err     error
}

func (a *Audit) Record(_ context.Context, actionType, targetID, description string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Records = append(a.Records, Record{ActionType: actionType, TargetID: targetID, Description: description})
	return a.Err
}

// Sleeper records requested waits without waiting.
type Sleeper struct {
	mu    sync.Mutex
	Waits []time.Duration
}

func (s *Sleeper) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.Waits = append(s.Waits, d)
	s.mu.Unlock()
	return ctx.Err()
}

// Total returns the sum of the recorded waits.
func (s *Sleeper) Total() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total time.Duration
	for _, wait := range s.Waits {
		total += wait
	}
	return total
}
