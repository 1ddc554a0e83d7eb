package logging

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_FieldNames(t *testing.T) {
	log := New("debug")
	var buf bytes.Buffer
	log.Out = &buf

	log.WithField("order", "ORD123").Info("placed")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "placed", entry["message"])
	assert.Equal(t, "info", entry["severity"])
	assert.Contains(t, entry, "timestamp")
	assert.Equal(t, "ORD123", entry["order"])
	assert.Equal(t, logrus.DebugLevel, log.Level)
}

func TestNew_BadLevelDefaultsToInfo(t *testing.T) {
	assert.Equal(t, logrus.InfoLevel, New("loud").Level)
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	log := New("info")
	var buf bytes.Buffer
	log.Out = &buf

	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set("sessionID", "sess-1") }, Middleware(log))
	r.GET("/cart", func(c *gin.Context) {
		_, scoped := FromContext(c, log).(*logrus.Entry)
		assert.True(t, scoped)
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/cart", nil))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "request complete", entry["message"])
	assert.Equal(t, "/cart", entry["http.req.path"])
	assert.EqualValues(t, http.StatusNoContent, entry["http.resp.status"])
	assert.Equal(t, "sess-1", entry["session"])
}
