package notification

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingSink collects notices for verification.
type recordingSink struct {
	mu      sync.Mutex
	notices []Notice
}

func (s *recordingSink) Send(n Notice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notices = append(s.notices, n)
	return nil
}

func (s *recordingSink) all() []Notice {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Notice, len(s.notices))
	copy(out, s.notices)
	return out
}

// blockingSink never completes a send.
type blockingSink struct{}

func (blockingSink) Send(Notice) error {
	select {}
}

func TestPush_DeliversToAllSinks(t *testing.T) {
	m := NewManager()
	defer m.Close()

	a := &recordingSink{}
	b := &recordingSink{}
	m.Subscribe(a)
	m.Subscribe(b)

	m.Push("connection failed", SeverityError)

	for _, sink := range []*recordingSink{a, b} {
		notices := sink.all()
		require.Len(t, notices, 1)
		assert.Equal(t, "connection failed", notices[0].Message)
		assert.Equal(t, SeverityError, notices[0].Severity)
		assert.Equal(t, uint64(1), notices[0].SequenceNo)
		assert.False(t, notices[0].At.IsZero())
	}
}

func TestPush_SequenceNumbersIncrease(t *testing.T) {
	m := NewManager()
	defer m.Close()

	sink := &recordingSink{}
	m.Subscribe(sink)

	m.Push("first", SeverityInfo)
	m.Push("second", SeverityWarn)
	m.Push("third", SeverityError)

	notices := sink.all()
	require.Len(t, notices, 3)
	assert.Equal(t, uint64(1), notices[0].SequenceNo)
	assert.Equal(t, uint64(2), notices[1].SequenceNo)
	assert.Equal(t, uint64(3), notices[2].SequenceNo)
}

func TestPush_NoSubscribers(t *testing.T) {
	m := NewManager()
	defer m.Close()

	// Must not panic or block.
	m.Push("nobody listening", SeverityInfo)
}

func TestPush_SlowSinkDoesNotBlockOthers(t *testing.T) {
	m := NewManager()
	defer m.Close()

	fast := &recordingSink{}
	m.Subscribe(blockingSink{})
	m.Subscribe(fast)

	start := time.Now()
	m.Push("still delivered", SeverityWarn)
	elapsed := time.Since(start)

	require.Len(t, fast.all(), 1)
	assert.Less(t, elapsed, 2*time.Second, "push must time out slow sinks")
}

func TestUnsubscribe(t *testing.T) {
	m := NewManager()
	defer m.Close()

	sink := &recordingSink{}
	id := m.Subscribe(sink)
	assert.Equal(t, 1, m.SubscriberCount())

	m.Unsubscribe(id)
	assert.Equal(t, 0, m.SubscriberCount())

	m.Push("after unsubscribe", SeverityInfo)
	assert.Empty(t, sink.all())
}

func TestSeverityString(t *testing.T) {
	assert.Equal(t, "info", SeverityInfo.String())
	assert.Equal(t, "warn", SeverityWarn.String())
	assert.Equal(t, "error", SeverityError.String())
	assert.Equal(t, "unknown", Severity(99).String())
}
