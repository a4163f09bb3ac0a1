package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/lukemcguire/pepcensus/httpcache"
)

func TestSetupWithoutEndpointsIsNoop(t *testing.T) {
	tel, err := Setup(context.Background(), "pepcensus-test", Config{})
	require.NoError(t, err)
	require.Nil(t, tel.TracerProvider)
	require.Nil(t, tel.MeterProvider)
	require.NoError(t, tel.Shutdown(context.Background()))
}

func spanAttr(span sdktrace.ReadOnlySpan, key attribute.Key) (attribute.Value, bool) {
	for _, kv := range span.Attributes() {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestInstrumentResty(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	otel.SetTracerProvider(provider)
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/gone/" {
			w.WriteHeader(http.StatusGone)
			return
		}
		w.Header().Set(httpcache.XFromCache, "1")
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	client := resty.New()
	InstrumentResty(client, "telemetry-test")

	_, err := client.R().Get(server.URL + "/pep-0001/")
	require.NoError(t, err)
	_, err = client.R().Get(server.URL + "/gone/")
	require.NoError(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 2)

	require.Equal(t, "http GET", spans[0].Name())
	status, ok := spanAttr(spans[0], "http.response.status_code")
	require.True(t, ok)
	require.EqualValues(t, http.StatusOK, status.AsInt64())
	full, ok := spanAttr(spans[0], "url.full")
	require.True(t, ok)
	require.Equal(t, server.URL+"/pep-0001/", full.AsString())
	hit, ok := spanAttr(spans[0], "cache.hit")
	require.True(t, ok)
	require.True(t, hit.AsBool())
	hit, ok = spanAttr(spans[1], "cache.hit")
	require.True(t, ok)
	require.False(t, hit.AsBool())

	require.Equal(t, codes.Error, spans[1].Status().Code)
}
