package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHandlerExposesBuildInfo(t *testing.T) {
	reg := NewRegistry("v1.2.3", "test")
	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `trustscore_build_info{environment="test",version="v1.2.3"} 1`)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
