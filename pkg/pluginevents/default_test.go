package pluginevents

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

type defaultOnlyEvent struct {
	Base
	CancelState
}

func TestDefault_Singleton(t *testing.T) {
	assert.Same(t, Default(), Default())

	logger, _ := newCapture()
	var ran atomic.Int32
	n := RegisterListener(ListenerFunc(func() []Binding {
		return []Binding{
			OnFunc("cancel", func(e *defaultOnlyEvent) {
				ran.Add(1)
				e.SetCancelled(true)
			}),
		}
	}), logger)
	assert.Equal(t, 1, n)

	assert.True(t, CallEvent(&defaultOnlyEvent{}))
	assert.Equal(t, int32(1), ran.Load())
	assert.Len(t, Default().Handlers(TypeFor[*defaultOnlyEvent]()), 1)

	// Independent instances do not see the default registry.
	assert.False(t, New().CallEvent(&defaultOnlyEvent{}))
	assert.Equal(t, int32(1), ran.Load())
}
