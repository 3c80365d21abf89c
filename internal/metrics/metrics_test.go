package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGinMiddlewareLabelsDocumentType(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(GinMiddleware())
	router.GET("/v1/documents/:type", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, path := range []string{"/v1/documents/cv", "/v1/documents/cover-letter", "/v1/documents/invoice", "/nowhere"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	route := "/v1/documents/:type"
	assert.Equal(t, 1.0, testutil.ToFloat64(requestTotal.WithLabelValues(http.MethodGet, route, "cv", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(requestTotal.WithLabelValues(http.MethodGet, route, "cover-letter", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(requestTotal.WithLabelValues(http.MethodGet, route, "", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(requestTotal.WithLabelValues(http.MethodGet, "unmatched", "", "404")))
	assert.Equal(t, 0.0, testutil.ToFloat64(requestsInFlight))
}

func TestTaskOutcome(t *testing.T) {
	assert.Equal(t, TaskSucceeded, TaskOutcome(nil))
	assert.Equal(t, TaskSkipped, TaskOutcome(fmt.Errorf("%w: render document: bad accent", asynq.SkipRetry)))
	assert.Equal(t, TaskRetried, TaskOutcome(errors.New("browser crashed")))
}

func TestAsynqMiddlewareCountsByOutcome(t *testing.T) {
	fail := true
	handler := AsynqMetricsMiddleware()(asynq.HandlerFunc(func(context.Context, *asynq.Task) error {
		if fail {
			return fmt.Errorf("%w: missing document", asynq.SkipRetry)
		}
		return nil
	}))

	task := asynq.NewTask("template:preview", nil)
	require.Error(t, handler.ProcessTask(context.Background(), task))
	fail = false
	require.NoError(t, handler.ProcessTask(context.Background(), task))

	assert.Equal(t, 1.0, testutil.ToFloat64(taskTotal.WithLabelValues("template:preview", "default", TaskSkipped)))
	assert.Equal(t, 1.0, testutil.ToFloat64(taskTotal.WithLabelValues("template:preview", "default", TaskSucceeded)))
	assert.Equal(t, 0.0, testutil.ToFloat64(taskInProgress.WithLabelValues("template:preview")))
}

func TestObserveGate(t *testing.T) {
	ObserveGate("cover-letter", true)
	ObserveGate("cover-letter", false)
	ObserveGate("cover-letter", false)

	assert.Equal(t, 1.0, testutil.ToFloat64(gateDecisions.WithLabelValues("cover-letter", "true")))
	assert.Equal(t, 2.0, testutil.ToFloat64(gateDecisions.WithLabelValues("cover-letter", "false")))
}
