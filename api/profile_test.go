package api

import (
	"testing"

	"envelope/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileHandler(t *testing.T) {
	setupTestDB(t)
	h := NewProfileHandler()
	router := gin.New()
	router.Use(setUserIDMiddleware(testUser))
	router.GET("/profile", h.Get)
	router.PUT("/profile", h.Update)

	// 尚未创建时返回空资料
	w := doJSON(router, "GET", "/profile", "")
	require.Equal(t, 200, w.Code)
	var p models.Profile
	decodeData(t, w, &p)
	assert.Equal(t, testUser, p.ID)
	assert.Empty(t, p.FullName)

	w = doJSON(router, "PUT", "/profile", `{"full_name":"张三"}`)
	require.Equal(t, 200, w.Code, w.Body.String())

	// 再次更新走冲突更新
	w = doJSON(router, "PUT", "/profile", `{"full_name":"李四","avatar_url":"https://example.com/a.png"}`)
	require.Equal(t, 200, w.Code, w.Body.String())

	w = doJSON(router, "GET", "/profile", "")
	decodeData(t, w, &p)
	assert.Equal(t, "李四", p.FullName)
	assert.Equal(t, "https://example.com/a.png", p.AvatarURL)

	w = doJSON(router, "PUT", "/profile", `{"avatar_url":"not a url"}`)
	assert.Equal(t, 400, w.Code)
}
