package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestWriteRateLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)

	// 短窗口 200ms，最多 2 次
	router := gin.New()
	router.Use(func(c *gin.Context) {
		if id := c.GetHeader("X-Test-User"); id != "" {
			c.Set("userID", id)
		}
		c.Next()
	})
	router.Use(WriteRateLimit(2, 200*time.Millisecond))
	router.POST("/transactions", func(c *gin.Context) {
		c.String(200, "ok")
	})
	router.GET("/transactions", func(c *gin.Context) {
		c.String(200, "ok")
	})

	doReq := func(method, user string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, "/transactions", nil)
		req.Header.Set("X-Test-User", user)
		req.RemoteAddr = "192.168.1.1:12345"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	// 同一用户连续 3 次写入，第 3 次应返回 429
	assert.Equal(t, 200, doReq("POST", "alice").Code)
	assert.Equal(t, 200, doReq("POST", "alice").Code)
	w3 := doReq("POST", "alice")
	assert.Equal(t, http.StatusTooManyRequests, w3.Code)
	assert.Contains(t, w3.Body.String(), "频繁")

	// 读请求不受限
	assert.Equal(t, 200, doReq("GET", "alice").Code)

	// 不同用户互不影响，即使来自同一 IP
	assert.Equal(t, 200, doReq("POST", "bob").Code)

	// 窗口过后恢复
	time.Sleep(250 * time.Millisecond)
	assert.Equal(t, 200, doReq("POST", "alice").Code)
}

func TestWriteRateLimit_Disabled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(WriteRateLimit(0, time.Minute))
	router.POST("/x", func(c *gin.Context) { c.String(200, "ok") })

	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("POST", "/x", nil))
		assert.Equal(t, 200, w.Code)
	}
}
