package webhook

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beacon-agent/beacon/engine/events"
)

func newTestRouter(t *testing.T) (*gin.Engine, *Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	svc := NewService(nil, testOptions())
	engine := gin.New()
	RegisterRoutes(engine.Group("/webhooks"), svc)
	return engine, svc
}

func doJSON(t *testing.T, engine *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestRegisterRoutes(t *testing.T) {
	t.Run("Should register a webhook and redact the secret", func(t *testing.T) {
		engine, _ := newTestRouter(t)
		rec := doJSON(t, engine, http.MethodPost, "/webhooks", gin.H{
			"url":         "https://example.com/hook",
			"secret":      "whsec_test",
			"description": "ci notifications",
		})
		require.Equal(t, http.StatusCreated, rec.Code)

		var got map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.NotEmpty(t, got["id"])
		assert.Equal(t, "https://example.com/hook", got["url"])
		assert.Equal(t, "ci notifications", got["description"])
		assert.Equal(t, true, got["has_secret"])
		assert.NotContains(t, rec.Body.String(), "whsec_test")
	})

	t.Run("Should reject invalid registrations", func(t *testing.T) {
		engine, _ := newTestRouter(t)
		rec := doJSON(t, engine, http.MethodPost, "/webhooks", gin.H{"url": "ftp://example.com"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		rec = doJSON(t, engine, http.MethodPost, "/webhooks", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Should list and fetch registered webhooks", func(t *testing.T) {
		engine, svc := newTestRouter(t)
		cfg, err := svc.Add(&RegisterInput{URL: "https://example.com/a"})
		require.NoError(t, err)

		rec := doJSON(t, engine, http.MethodGet, "/webhooks", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var list struct {
			Webhooks []map[string]any `json:"webhooks"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
		require.Len(t, list.Webhooks, 1)
		assert.Equal(t, string(cfg.ID), list.Webhooks[0]["id"])
		assert.Equal(t, false, list.Webhooks[0]["has_secret"])

		rec = doJSON(t, engine, http.MethodGet, "/webhooks/"+string(cfg.ID), nil)
		assert.Equal(t, http.StatusOK, rec.Code)

		rec = doJSON(t, engine, http.MethodGet, "/webhooks/missing", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("Should delete webhooks", func(t *testing.T) {
		engine, svc := newTestRouter(t)
		cfg, err := svc.Add(&RegisterInput{URL: "https://example.com/a"})
		require.NoError(t, err)

		rec := doJSON(t, engine, http.MethodDelete, "/webhooks/"+string(cfg.ID), nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Empty(t, svc.List())

		rec = doJSON(t, engine, http.MethodDelete, "/webhooks/"+string(cfg.ID), nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("Should run a connectivity test against the endpoint", func(t *testing.T) {
		received := make(chan *http.Request, 1)
		target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			received <- r.Clone(r.Context())
			w.WriteHeader(http.StatusOK)
		}))
		defer target.Close()

		engine, svc := newTestRouter(t)
		cfg, err := svc.Add(&RegisterInput{URL: target.URL})
		require.NoError(t, err)

		rec := doJSON(t, engine, http.MethodPost, fmt.Sprintf("/webhooks/%s/test", cfg.ID), nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var result DeliveryResult
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
		assert.True(t, result.Success)
		assert.Equal(t, http.StatusOK, result.StatusCode)
		assert.Equal(t, string(events.AgentStarted), string(result.EventType))

		req := <-received
		assert.Equal(t, string(events.AgentStarted), req.Header.Get(HeaderEventType))
	})

	t.Run("Should return 404 when testing an unknown webhook", func(t *testing.T) {
		engine, _ := newTestRouter(t)
		rec := doJSON(t, engine, http.MethodPost, "/webhooks/missing/test", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
