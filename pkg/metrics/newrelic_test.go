package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewContextWithNewRelicApplication(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, ctx, NewContextWithNewRelicApplication(ctx, nil))

	_, ok := newRelicApplicationFromContext(ctx)
	assert.False(t, ok)

	app, err := newrelic.NewApplication(
		newrelic.ConfigAppName("instruction-server-test"),
		newrelic.ConfigEnabled(false),
	)
	require.NoError(t, err)

	withApp := NewContextWithNewRelicApplication(ctx, app)
	fromCtx, ok := newRelicApplicationFromContext(withApp)
	require.True(t, ok)
	assert.Equal(t, app, fromCtx)

	for _, c := range []context.Context{ctx, withApp} {
		assert.NotPanics(t, func() {
			RecordCount(c, "Test/count", 1)
			RecordDuration(c, "Test/duration", 25*time.Millisecond)
			RecordEvent(c, "TestEvent", map[string]interface{}{"kind": "internal"})
		})
	}
}
