package prometheus

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestStatusCategory(t *testing.T) {
	assert.Equal(t, "2xx", statusCategory(http.StatusCreated))
	assert.Equal(t, "4xx", statusCategory(http.StatusConflict))
	assert.Equal(t, "5xx", statusCategory(http.StatusInternalServerError))
	assert.Equal(t, "", statusCategory(http.StatusFound))
}

func TestMetricsMiddlewareCountsByRoute(t *testing.T) {
	e := echo.New()
	e.Use(MetricsMiddleware())
	e.GET("/things/:id", func(c echo.Context) error {
		return c.NoContent(http.StatusGone)
	})

	counter := HTTPRequestCounter.WithLabelValues("/things/:id", http.MethodGet, "410")
	category := StatusCategoryCounter.WithLabelValues("4xx", http.MethodGet, "/things/:id")
	before, beforeCategory := testutil.ToFloat64(counter), testutil.ToFloat64(category)

	for _, id := range []string{"1", "2"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/things/"+id, nil))
		assert.Equal(t, http.StatusGone, rec.Code)
	}

	assert.Equal(t, before+2, testutil.ToFloat64(counter))
	assert.Equal(t, beforeCategory+2, testutil.ToFloat64(category))
}

func TestRecordHelpers(t *testing.T) {
	before := testutil.ToFloat64(NavResolveCounter.WithLabelValues("empty"))
	RecordNavResolve(0)
	assert.Equal(t, before+1, testutil.ToFloat64(NavResolveCounter.WithLabelValues("empty")))

	before = testutil.ToFloat64(InviteCounter.WithLabelValues("accepted"))
	RecordInviteEvent("accepted")
	assert.Equal(t, before+1, testutil.ToFloat64(InviteCounter.WithLabelValues("accepted")))

	UpdateActiveTenants(3)
	assert.Equal(t, float64(3), testutil.ToFloat64(ActiveTenantsGauge))

	done := TrackDBOperation("query")
	done(time.Now())
	assert.Equal(t, 1, testutil.CollectAndCount(DBOperationDuration))
}
