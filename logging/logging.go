package logging

import (
	"io"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/trace"
)

// New builds the service's JSON logger.
func New(level string) *logrus.Logger {
	log := logrus.New()
	log.Formatter = &logrus.JSONFormatter{
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "severity",
			logrus.FieldKeyMsg:   "message",
		},
		TimestampFormat: time.RFC3339Nano,
	}
	log.Out = os.Stdout

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.Level = lvl
	return log
}

const ctxKeyLog = "logger"

// Middleware attaches a request-scoped logger to the gin context and logs the
// request once it completes.
func Middleware(log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		reqLog := log.WithFields(logrus.Fields{
			"http.req.path":   c.Request.URL.Path,
			"http.req.method": c.Request.Method,
		})
		c.Set(ctxKeyLog, reqLog)
		reqLog.Debug("request started")

		c.Next()

		entry := reqLog.WithFields(logrus.Fields{
			"http.resp.took_ms": time.Since(start).Milliseconds(),
			"http.resp.status":  c.Writer.Status(),
			"http.resp.bytes":   c.Writer.Size(),
		})
		if sid, ok := c.Get("sessionID"); ok {
			entry = entry.WithField("session", sid)
		}
		if sc := trace.SpanContextFromContext(c.Request.Context()); sc.IsValid() {
			entry = entry.WithField("trace_id", sc.TraceID().String())
		}
		if c.Writer.Status() >= 500 {
			entry.Warn("request complete")
			return
		}
		entry.Info("request complete")
	}
}

// FromContext returns the request logger, or fallback if none is attached.
func FromContext(c *gin.Context, fallback logrus.FieldLogger) logrus.FieldLogger {
	if v, ok := c.Get(ctxKeyLog); ok {
		if l, ok := v.(logrus.FieldLogger); ok {
			return l
		}
	}
	return fallback
}

// Discard is a logger that writes nothing; used in tests.
func Discard() *logrus.Logger {
	log := logrus.New()
	log.Out = io.Discard
	return log
}
