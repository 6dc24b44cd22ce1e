package pregel

import (
	"sync"

	"github.com/23skdu/trellis/internal/metrics"
)

// Messages iterates one node's inbox for the current superstep.
type Messages struct {
	values []float64
	pos    int
}

// Next returns the next message, or false when the inbox is drained.
func (m *Messages) Next() (float64, bool) {
	if m.pos >= len(m.values) {
		return 0, false
	}
	v := m.values[m.pos]
	m.pos++
	return v, true
}

// IsEmpty reports whether the inbox held no messages at all.
func (m *Messages) IsEmpty() bool {
	return len(m.values) == 0
}

func (m *Messages) reset(values []float64) {
	m.values = values
	m.pos = 0
}

// messenger moves float64 messages between supersteps. Senders target
// arbitrary receivers, so appends lock the receiver's inbox; readers only run
// after the superstep barrier (synchronous) or drain under the same lock
// (asynchronous).
type messenger interface {
	// initSuperstep prepares inboxes at the start of a superstep.
	initSuperstep(superstep int)
	sendTo(target int64, message float64)
	// messages fills into with the inbox of nodeID for this superstep.
	messages(nodeID int64, into *Messages)
	hasMessages(nodeID int64) bool
	release()
}

type inbox struct {
	mu     sync.Mutex
	values []float64
}

// syncMessenger delivers messages sent in superstep s to superstep s+1 via
// double buffering: the read and write sides are distinct and swapped at the
// barrier.
type syncMessenger struct {
	read  []inbox
	write []inbox
}

func newSyncMessenger(nodeCount int64) *syncMessenger {
	return &syncMessenger{
		read:  make([]inbox, nodeCount),
		write: make([]inbox, nodeCount),
	}
}

func (m *syncMessenger) initSuperstep(superstep int) {
	if superstep == 0 {
		return
	}
	m.read, m.write = m.write, m.read
	for i := range m.write {
		m.write[i].values = m.write[i].values[:0]
	}
}

func (m *syncMessenger) sendTo(target int64, message float64) {
	q := &m.write[target]
	q.mu.Lock()
	q.values = append(q.values, message)
	q.mu.Unlock()
	metrics.PregelMessagesSentTotal.Inc()
}

func (m *syncMessenger) messages(nodeID int64, into *Messages) {
	into.reset(m.read[nodeID].values)
}

func (m *syncMessenger) hasMessages(nodeID int64) bool {
	return len(m.read[nodeID].values) > 0
}

func (m *syncMessenger) release() {
	m.read = nil
	m.write = nil
}

// asyncMessenger uses a single buffer: a message becomes visible as soon as
// the receiver next drains its inbox, possibly within the sending superstep.
type asyncMessenger struct {
	inboxes []inbox
}

func newAsyncMessenger(nodeCount int64) *asyncMessenger {
	return &asyncMessenger{inboxes: make([]inbox, nodeCount)}
}

func (m *asyncMessenger) initSuperstep(superstep int) {}

func (m *asyncMessenger) sendTo(target int64, message float64) {
	q := &m.inboxes[target]
	q.mu.Lock()
	q.values = append(q.values, message)
	q.mu.Unlock()
	metrics.PregelMessagesSentTotal.Inc()
}

func (m *asyncMessenger) messages(nodeID int64, into *Messages) {
	q := &m.inboxes[nodeID]
	q.mu.Lock()
	drained := q.values
	q.values = nil
	q.mu.Unlock()
	into.reset(drained)
}

func (m *asyncMessenger) hasMessages(nodeID int64) bool {
	q := &m.inboxes[nodeID]
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.values) > 0
}

func (m *asyncMessenger) release() {
	m.inboxes = nil
}
