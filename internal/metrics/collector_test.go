package metrics

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_RecordTiming(t *testing.T) {
	c := NewCollector()
	c.RecordTiming(OpPersist, 10*time.Millisecond)
	c.RecordTiming(OpPersist, 30*time.Millisecond)

	snap := c.Snapshot()
	require.NotNil(t, snap.Persist)
	assert.Equal(t, int64(2), snap.Persist.Count)
	assert.Equal(t, int64(40), snap.Persist.TotalTimeMs)
	assert.Equal(t, 20.0, snap.Persist.AvgTimeMs)
	assert.Equal(t, int64(10), snap.Persist.MinTimeMs)
	assert.Equal(t, int64(30), snap.Persist.MaxTimeMs)

	assert.Nil(t, snap.Audit, "operations without data are omitted")
}

func TestCollector_Time(t *testing.T) {
	c := NewCollector()
	boom := errors.New("boom")

	assert.NoError(t, c.Time(OpAudit, func() error { return nil }))
	assert.ErrorIs(t, c.Time(OpAudit, func() error { return boom }), boom)

	snap := c.Snapshot()
	require.NotNil(t, snap.Audit)
	assert.Equal(t, int64(2), snap.Audit.Count)
	assert.Equal(t, int64(1), snap.Audit.Failures)
}

func TestCollector_NilIsNoop(t *testing.T) {
	var c *Collector
	c.RecordTiming(OpPrompt, time.Second)
	c.RecordFailure(OpPrompt)
	assert.NoError(t, c.Time(OpPrompt, func() error { return nil }))
	assert.Equal(t, Snapshot{}, c.Snapshot())
}

func TestCollector_Concurrent(t *testing.T) {
	c := NewCollector()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.RecordTiming(OpMirror, time.Millisecond)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(800), c.Snapshot().Mirror.Count)
}
