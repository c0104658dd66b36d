package middleware

import (
	"github.com/danielgtaylor/huma/v2"
)

// Container общие мидлвари локального API и сборка цепочек для групп операций
type Container struct {
	common huma.Middlewares
}

// NewContainer создает контейнер с мидлварями, общими для всех групп
func NewContainer(common ...func(ctx huma.Context, next func(huma.Context))) *Container {
	return &Container{common: append(make(huma.Middlewares, 0, len(common)), common...)}
}

// Use добавляет общую мидлварь
func (mc *Container) Use(middleware func(ctx huma.Context, next func(huma.Context))) {
	mc.common = append(mc.common, middleware)
}

// Chain возвращает общие мидлвари и дополнительные для одной группы; общий список не меняется
func (mc *Container) Chain(extra ...func(ctx huma.Context, next func(huma.Context))) huma.Middlewares {
	out := make(huma.Middlewares, 0, len(mc.common)+len(extra))
	out = append(out, mc.common...)
	return append(out, extra...)
}
