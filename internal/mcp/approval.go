package mcpserver

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"drawr/internal/domain"
	"drawr/internal/service"
)

// Approval events sent to the desktop UI.
const (
	EventApprovalRequired  = "mcp:approval-required"
	EventApprovalDismissed = "mcp:approval-dismissed"
)

// DefaultApprovalTimeout is how long a destructive tool waits for the user.
const DefaultApprovalTimeout = 120 * time.Second

// ApprovalQueue gates destructive tool calls behind a human decision.
// It has two modes:
//   - in-process (MCP hosted by the desktop app): channels plus UI events
//   - store-backed (standalone MCP): requests go through the mcp_approvals
//     table and are polled until the desktop app resolves them
//
// A nil *ApprovalQueue approves everything.
type ApprovalQueue struct {
	mu      sync.Mutex
	pending map[string]chan bool
	emitter service.EventEmitter
	store   domain.ApprovalStore
	log     *logrus.Entry

	Timeout      time.Duration
	PollInterval time.Duration
}

// NewApprovalQueue returns an in-process queue that notifies emitter.
func NewApprovalQueue(emitter service.EventEmitter, log *logrus.Entry) *ApprovalQueue {
	if emitter == nil {
		emitter = service.NopEmitter{}
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &ApprovalQueue{
		pending:      make(map[string]chan bool),
		emitter:      emitter,
		log:          log,
		Timeout:      DefaultApprovalTimeout,
		PollInterval: 500 * time.Millisecond,
	}
}

// NewStoreApprovalQueue returns a queue that shares requests through store.
func NewStoreApprovalQueue(store domain.ApprovalStore, log *logrus.Entry) *ApprovalQueue {
	q := NewApprovalQueue(nil, log)
	q.store = store
	return q
}

// Request blocks until the action is approved, rejected, timed out or ctx
// is cancelled. Only approval returns nil. metadata is optional JSON.
func (q *ApprovalQueue) Request(ctx context.Context, tool, description string, metadata ...string) error {
	if q == nil {
		return nil
	}
	meta := "{}"
	if len(metadata) > 0 && metadata[0] != "" {
		meta = metadata[0]
	}
	q.log.WithField("tool", tool).Info("waiting for approval")

	if q.store != nil {
		return q.requestViaStore(ctx, tool, description, meta)
	}
	return q.requestViaChannel(ctx, tool, description, meta)
}

func (q *ApprovalQueue) requestViaStore(ctx context.Context, tool, description, metadata string) error {
	a := &domain.PendingAction{Tool: tool, Description: description, Metadata: metadata}
	if err := q.store.CreateApproval(ctx, a); err != nil {
		return err
	}
	// The row is ours to remove whatever the outcome.
	defer q.store.DeleteApproval(context.Background(), a.ID)

	deadline := time.After(q.Timeout)
	ticker := time.NewTicker(q.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			status, err := q.store.ApprovalStatus(ctx, a.ID)
			if err != nil {
				continue
			}
			switch status {
			case domain.ApprovalApproved:
				return nil
			case domain.ApprovalRejected:
				return fmt.Errorf("action rejected by user: %s", tool)
			}
		case <-deadline:
			return fmt.Errorf("action timed out after %s: %s", q.Timeout, tool)
		case <-ctx.Done():
			return fmt.Errorf("approval for %s: %w", tool, ctx.Err())
		}
	}
}

func (q *ApprovalQueue) requestViaChannel(ctx context.Context, tool, description, metadata string) error {
	id := uuid.New().String()
	ch := make(chan bool, 1)

	q.mu.Lock()
	q.pending[id] = ch
	q.mu.Unlock()
	defer q.cleanup(id)

	q.emitter.Emit(ctx, EventApprovalRequired, domain.PendingAction{
		ID:          id,
		Tool:        tool,
		Description: description,
		Status:      domain.ApprovalPending,
		Metadata:    metadata,
		CreatedAt:   time.Now().UTC(),
	})

	select {
	case approved := <-ch:
		if !approved {
			return fmt.Errorf("action rejected by user: %s", tool)
		}
		return nil
	case <-time.After(q.Timeout):
		q.emitter.Emit(ctx, EventApprovalDismissed, map[string]string{"id": id})
		return fmt.Errorf("action timed out after %s: %s", q.Timeout, tool)
	case <-ctx.Done():
		q.emitter.Emit(context.Background(), EventApprovalDismissed, map[string]string{"id": id})
		return fmt.Errorf("approval for %s: %w", tool, ctx.Err())
	}
}

// Approve resolves a pending in-process action. It reports whether the id
// was pending here.
func (q *ApprovalQueue) Approve(actionID string) bool { return q.resolve(actionID, true) }

// Reject resolves a pending in-process action. It reports whether the id was
// pending here.
func (q *ApprovalQueue) Reject(actionID string) bool { return q.resolve(actionID, false) }

func (q *ApprovalQueue) resolve(id string, approved bool) bool {
	if q == nil {
		return false
	}
	q.mu.Lock()
	ch, ok := q.pending[id]
	q.mu.Unlock()
	if !ok {
		return false
	}
	select {
	case ch <- approved:
	default:
	}
	return true
}

func (q *ApprovalQueue) cleanup(id string) {
	q.mu.Lock()
	delete(q.pending, id)
	q.mu.Unlock()
}
