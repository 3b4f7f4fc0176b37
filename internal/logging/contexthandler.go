package logging

import (
	"context"
	"log/slog"
	"slices"
)

// ContextProvider returns attributes describing what is running right now,
// such as the ride session. It is called once per record and may return nil.
type ContextProvider func() []slog.Attr

// ContextHandler adds the provider's attributes to each record. A key the
// record (or a logger built with With) already carries is not repeated, so
// an explicit "session" attribute wins over the ambient one.
type ContextHandler struct {
	inner    slog.Handler
	provider ContextProvider
	bound    []string // keys added through WithAttrs
}

func NewContextHandler(inner slog.Handler, provider ContextProvider) *ContextHandler {
	return &ContextHandler{inner: inner, provider: provider}
}

func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.provider == nil {
		return h.inner.Handle(ctx, r)
	}
	extra := h.provider()
	if len(extra) == 0 {
		return h.inner.Handle(ctx, r)
	}

	seen := slices.Clone(h.bound)
	r.Attrs(func(a slog.Attr) bool {
		seen = append(seen, a.Key)
		return true
	})
	r = r.Clone()
	for _, a := range extra {
		if !slices.Contains(seen, a.Key) {
			r.AddAttrs(a)
		}
	}
	return h.inner.Handle(ctx, r)
}

func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	bound := slices.Clone(h.bound)
	for _, a := range attrs {
		bound = append(bound, a.Key)
	}
	return &ContextHandler{inner: h.inner.WithAttrs(attrs), provider: h.provider, bound: bound}
}

// WithGroup nests later attributes, ambient ones included, under name.
func (h *ContextHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &ContextHandler{inner: h.inner.WithGroup(name), provider: h.provider}
}
