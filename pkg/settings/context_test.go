package settings

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextRoundTrip(t *testing.T) {
	tests := []struct {
		name     string
		settings *Run
	}{
		{name: "empty settings", settings: &Run{}},
		{name: "settings with values", settings: &Run{NoColor: true, Locale: "zh", MinLogLevel: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := IntoContext(context.Background(), tt.settings)
			got, ok := FromContext(ctx)
			require.True(t, ok)
			assert.Same(t, tt.settings, got)
			assert.Same(t, tt.settings, OrDefault(ctx))
		})
	}
}

func TestFromContextMissing(t *testing.T) {
	got, ok := FromContext(context.Background())
	assert.False(t, ok)
	assert.Nil(t, got)

	ctx := context.WithValue(context.Background(), settingsContextKey, "not settings")
	_, ok = FromContext(ctx)
	assert.False(t, ok)

	assert.Equal(t, NewCliParams(), OrDefault(context.Background()))
}
