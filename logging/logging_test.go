package logging_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/fund-ledger/logging"
)

func TestNewWithOutput_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.NewWithOutput(&buf, "debug", "json")
	require.NoError(t, err)

	logger.WithField("id", "x").Debug("hello")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "hello", line["msg"])
	assert.Equal(t, "x", line["id"])
	assert.Equal(t, "debug", line["level"])
}

func TestNewWithOutput_RejectsUnknownSettings(t *testing.T) {
	_, err := logging.NewWithOutput(&bytes.Buffer{}, "loud", "json")
	assert.Error(t, err)

	_, err = logging.NewWithOutput(&bytes.Buffer{}, "info", "xml")
	assert.Error(t, err)
}

func TestRequestLogger(t *testing.T) {
	// GIVEN: A router with request IDs and the request logger
	logger, hook := logtest.NewNullLogger()
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(logging.RequestLogger(logger))
	r.Get("/ok", func(w http.ResponseWriter, r *http.Request) { w.Write([]byte("fine")) })
	r.Get("/missing", func(w http.ResponseWriter, r *http.Request) { http.NotFound(w, r) })

	// WHEN: Serving a success and a client error
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ok", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))

	// THEN: One entry per request with the right level
	entries := hook.AllEntries()
	require.Len(t, entries, 2)
	assert.Equal(t, logrus.InfoLevel, entries[0].Level)
	assert.Equal(t, 200, entries[0].Data["status"])
	assert.Equal(t, 4, entries[0].Data["bytes"])
	assert.NotEmpty(t, entries[0].Data["request_id"])
	assert.Equal(t, logrus.WarnLevel, entries[1].Level)
	assert.Equal(t, "/missing", entries[1].Data["path"])
}
