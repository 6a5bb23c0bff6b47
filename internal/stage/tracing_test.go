package stage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/zjrosen/stagehand/internal/loader"
	"github.com/zjrosen/stagehand/internal/tracing"
)

func spansNamed(exp *tracetest.InMemoryExporter, name string) []tracetest.SpanStub {
	var out []tracetest.SpanStub
	for _, s := range exp.GetSpans() {
		if s.Name == name {
			out = append(out, s)
		}
	}
	return out
}

func TestManager_RecordsSpans(t *testing.T) {
	exp := tracetest.NewInMemoryExporter()
	tracer := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp)).Tracer("test")

	l := loader.NewFSLoader(testFS(),
		loader.WithController("home", func() loader.Controller { return &homeController{} }),
		loader.WithTracer(tracer),
	)
	m := New(WithLoader(l), WithTracer(tracer))

	_, err := m.RegisterView(context.Background(), "home", "views/home.yaml")
	require.NoError(t, err)
	require.NoError(t, m.Show("home"))
	require.Error(t, m.Show("missing"))

	register := spansNamed(exp, tracing.SpanRegisterView)
	require.Len(t, register, 1)

	loads := spansNamed(exp, tracing.SpanLoad)
	require.Len(t, loads, 1)
	require.Equal(t, register[0].SpanContext.SpanID(), loads[0].Parent.SpanID(), "load is a child of register")

	shows := spansNamed(exp, tracing.SpanShow)
	require.Len(t, shows, 2)
	require.Equal(t, codes.Error, shows[1].Status.Code)
}
