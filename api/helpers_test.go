package api

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"envelope/config"
	"envelope/database"
	"envelope/ledger"
	"envelope/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

const testUser = "user-1"

var testLedgerConfig = &config.LedgerConfig{Atomic: true, IncludeCreditAccounts: true}

func init() {
	gin.SetMode(gin.TestMode)
}

func setupMockDB(t *testing.T) (sqlmock.Sqlmock, func()) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{})
	require.NoError(t, err)

	oldDB := database.DB
	database.DB = gormDB
	return mock, func() {
		database.DB = oldDB
		sqlDB.Close()
	}
}

// setupTestDB 使用临时 sqlite 文件替换全局 DB，返回基于它的账本
func setupTestDB(t *testing.T) *ledger.Ledger {
	t.Helper()
	cfg := &config.Config{
		Server:   config.ServerConfig{Mode: "test"},
		Database: config.DatabaseConfig{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "api.db")},
	}
	db, err := database.Open(cfg)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	oldDB := database.DB
	database.DB = db
	t.Cleanup(func() {
		database.DB = oldDB
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return ledger.New(db, ledger.Options{Atomic: true, IncludeCreditAccounts: true})
}

func setUserIDMiddleware(userID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("userID", userID)
		c.Next()
	}
}

func doJSON(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req = httptest.NewRequest(method, path, nil)
	if body != "" {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// decodeData 解析 Response.data 到 out
func decodeData(t *testing.T, w *httptest.ResponseRecorder, out interface{}) Response {
	t.Helper()
	var resp struct {
		Response
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	if out != nil {
		require.NoError(t, json.Unmarshal(resp.Data, out))
	}
	return resp.Response
}

func seedAccount(t *testing.T, userID, name, typ string, balance int64) models.Account {
	t.Helper()
	a := models.Account{UserID: userID, Name: name, Type: typ, Balance: balance, StartingBalance: balance}
	require.NoError(t, database.DB.Create(&a).Error)
	return a
}

func seedCategory(t *testing.T, userID, name string) models.Category {
	t.Helper()
	g := models.CategoryGroup{UserID: userID, Name: name + " group"}
	require.NoError(t, database.DB.Create(&g).Error)
	c := models.Category{UserID: userID, GroupID: g.ID, Name: name}
	require.NoError(t, database.DB.Create(&c).Error)
	return c
}
