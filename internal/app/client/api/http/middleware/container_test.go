package middleware

import (
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/stretchr/testify/assert"
)

func TestContainer_Chain(t *testing.T) {
	var calls []string
	mw := func(name string) func(huma.Context, func(huma.Context)) {
		return func(ctx huma.Context, next func(huma.Context)) {
			calls = append(calls, name)
			next(ctx)
		}
	}

	container := NewContainer(mw("logger"))
	plain := container.Chain()
	guarded := container.Chain(mw("loopback"))
	container.Use(mw("late"))

	assert.Len(t, plain, 1)
	assert.Len(t, guarded, 2)
	assert.Len(t, container.Chain(), 2)

	for _, m := range guarded {
		m(nil, func(huma.Context) {})
	}
	assert.Equal(t, []string{"logger", "loopback"}, calls)
}
