package ledger

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"envelope/config"
	"envelope/database"
	"envelope/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

const testUser = "user-1"

// newTestDB 使用临时 sqlite 文件，结构与生产一致
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	cfg := &config.Config{
		Server: config.ServerConfig{Mode: "test"},
		Database: config.DatabaseConfig{
			Driver: "sqlite",
			Path:   filepath.Join(t.TempDir(), "ledger.db"),
		},
	}
	db, err := database.Open(cfg)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// setupMockDB gorm mysql 方言 + sqlmock，用于断言语句序列
func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	gormDB, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{})
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	return gormDB, mock
}

func seedAccount(t *testing.T, db *gorm.DB, userID, name, typ string, balance int64) models.Account {
	t.Helper()
	a := models.Account{UserID: userID, Name: name, Type: typ, Balance: balance, StartingBalance: balance}
	require.NoError(t, db.Create(&a).Error)
	return a
}

func seedCategory(t *testing.T, db *gorm.DB, userID, name string) models.Category {
	t.Helper()
	g := models.CategoryGroup{UserID: userID, Name: name + " group"}
	require.NoError(t, db.Create(&g).Error)
	c := models.Category{UserID: userID, GroupID: g.ID, Name: name}
	require.NoError(t, db.Create(&c).Error)
	return c
}

func month(y int, m time.Month) time.Time {
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

func budgetRow(t *testing.T, db *gorm.DB, categoryID string, m time.Time) models.Budget {
	t.Helper()
	var b models.Budget
	require.NoError(t, db.Where("category_id = ? AND month = ?", categoryID, m).Take(&b).Error)
	return b
}

func balanceOf(t *testing.T, db *gorm.DB, accountID string) int64 {
	t.Helper()
	var a models.Account
	require.NoError(t, db.Where("id = ?", accountID).Take(&a).Error)
	return a.Balance
}

func countRows(t *testing.T, db *gorm.DB, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}

func ptr[T any](v T) *T {
	return &v
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
