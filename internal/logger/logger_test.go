package logger

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
)

func attrMap(attrs []slog.Attr) map[string]string {
	out := make(map[string]string, len(attrs))
	for _, a := range attrs {
		out[a.Key] = a.Value.String()
	}
	return out
}

func TestCaptureBody_KeepsFullBodyForHandler(t *testing.T) {
	payload := strings.Repeat("a", MaxBodyLogged+10)
	r := httptest.NewRequest(http.MethodPost, "/products", strings.NewReader(payload))

	prefix, err := CaptureBody(r)
	require.NoError(t, err)
	assert.Len(t, prefix, MaxBodyLogged)

	rest, err := io.ReadAll(r.Body)
	require.NoError(t, err)
	assert.Equal(t, payload, string(rest))
}

func TestLogHTTPRequest_RedactsAndFlattens(t *testing.T) {
	body := `{"name":"Filter A","password":"x","tags":["a","b","c"]}`
	r := httptest.NewRequest(http.MethodPost, "/products?search=filt", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	r.Header.Set("Authorization", "Bearer abc")

	got := attrMap(LogHTTPRequest(r.Context(), r, "incoming::request"))

	assert.Equal(t, "POST", got["http.method"])
	assert.Equal(t, "***", got["http.header.authorization"])
	assert.Equal(t, "filt", got["http.query.search"])
	assert.Equal(t, "Filter A", got["http.body.name"])
	assert.Equal(t, "***", got["http.body.password"])
	assert.Equal(t, "a", got["http.body.tags.0"])
	assert.Equal(t, "c", got["http.body.tags.2"])

	replay, _ := io.ReadAll(r.Body)
	assert.Equal(t, body, string(replay))
}

func TestLogHTTPRequest_MultipartIsNotBuffered(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/products/upload", bytes.NewReader([]byte("--x--")))
	r.Header.Set("Content-Type", "multipart/form-data; boundary=x")

	got := attrMap(LogHTTPRequest(r.Context(), r, "incoming::request"))
	assert.Equal(t, "5", got["http.body.size_bytes"])
	_, hasBase64 := got["http.body.base64"]
	assert.False(t, hasBase64)
}

func TestDecodeBody_FormAndBinary(t *testing.T) {
	attrs, err := DecodeBody("application/x-www-form-urlencoded", []byte("name=x&token=y"))
	require.NoError(t, err)
	got := attrMap(attrs)
	assert.Equal(t, "x", got["http.body.name"])
	assert.Equal(t, "***", got["http.body.token"])

	attrs, err = DecodeBody("application/octet-stream", bytes.Repeat([]byte{1}, 300))
	require.NoError(t, err)
	got = attrMap(attrs)
	assert.Equal(t, "300", got["http.body.size_bytes"])
}

func TestLogGRPCResponse_FlattensProto(t *testing.T) {
	md := metadata.Pairs("authorization", "Bearer x", "x-ignored", "y")
	resp := &grpc_health_v1.HealthCheckResponse{Status: grpc_health_v1.HealthCheckResponse_SERVING}

	got := attrMap(LogGRPCResponse(context.Background(), "/grpc.health.v1.Health/Check", md, codes.OK, resp, 3*time.Millisecond, "incoming::response"))

	assert.Equal(t, "OK", got["grpc.code"])
	assert.Equal(t, "***", got["grpc.header.authorization"])
	assert.Equal(t, "SERVING", got["grpc.response.status"])
	_, ignored := got["grpc.header.x-ignored"]
	assert.False(t, ignored)
}

func TestBuildLogEntry_LokiShape(t *testing.T) {
	entry := buildLogEntry("info", "hello", []slog.Attr{slog.String("k", "v")})
	streams := entry["streams"].([]map[string]any)
	require.Len(t, streams, 1)
	values := streams[0]["values"].([][]string)
	assert.Contains(t, values[0][1], `"k":"v"`)
	assert.Contains(t, values[0][1], `"message":"hello"`)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warning"))
	assert.Equal(t, slog.LevelInfo, parseLevel(""))
}
