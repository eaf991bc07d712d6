package middleware_test

import (
	"crypto/sha1"
	"encoding/binary"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ticketminer/box-office/internal/config"
	"github.com/ticketminer/box-office/internal/middleware"
)

func cacheCfg() config.CacheConfig {
	return config.CacheConfig{
		Enabled:      true,
		Methods:      map[string]bool{"GET": true},
		TTL:          10 * time.Second,
		KeyStrategy:  "route_query",
		Prefix:       "boxoffice:cache",
		MaxBodyBytes: 1 << 20,
	}
}

// cacheKey mirrors the middleware's route_query key derivation.
func cacheKey(route, query string) string {
	sum := sha1.Sum([]byte("route:" + route + ":q:" + query))
	return fmt.Sprintf("boxoffice:cache:%x", sum[:])
}

func encodePayload(status int, hdrJSON string, body string) string {
	out := make([]byte, 8, 8+len(hdrJSON)+len(body))
	binary.BigEndian.PutUint32(out[0:4], uint32(status))
	binary.BigEndian.PutUint32(out[4:8], uint32(len(hdrJSON)))
	out = append(out, hdrJSON...)
	out = append(out, body...)
	return string(out)
}

func TestCacheHitSkipsHandler(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	key := cacheKey("/v1/events", "")
	payload := encodePayload(http.StatusOK, `{"Content-Type":["application/json"]}`, `[{"id":1}]`)
	mock.ExpectGet(key).SetVal(payload)

	called := false
	e := echo.New()
	e.GET("/v1/events", func(c echo.Context) error {
		called = true
		return c.String(http.StatusOK, "fresh")
	}, middleware.NewRedisCache(cacheCfg(), rdb))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/events", nil))

	assert.False(t, called, "handler must not run on a cache hit")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, `[{"id":1}]`, rec.Body.String())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCacheMissStoresResponse(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	key := cacheKey("/v1/events", "")
	mock.ExpectGet(key).RedisNil()
	mock.Regexp().ExpectSetEx(key, `(?s).*`, 10*time.Second).SetVal("OK")

	e := echo.New()
	e.GET("/v1/events", func(c echo.Context) error {
		return c.JSON(http.StatusOK, []int{1, 2})
	}, middleware.NewRedisCache(cacheCfg(), rdb))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/events", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	assert.Equal(t, "[1,2]\n", rec.Body.String())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCacheSkipsNonListedMethods(t *testing.T) {
	rdb, mock := redismock.NewClientMock()

	e := echo.New()
	e.POST("/v1/events", func(c echo.Context) error {
		return c.NoContent(http.StatusCreated)
	}, middleware.NewRedisCache(cacheCfg(), rdb))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/events", nil))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Empty(t, rec.Header().Get("X-Cache"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCacheWithoutRedisIsPassThrough(t *testing.T) {
	e := echo.New()
	e.GET("/v1/events", func(c echo.Context) error {
		return c.String(http.StatusOK, "fresh")
	}, middleware.NewRedisCache(cacheCfg(), nil))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/events", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "fresh", rec.Body.String())
	assert.Empty(t, rec.Header().Get("X-Cache"))
}
