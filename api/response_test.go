package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"envelope/config"
	"envelope/ledger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedgerError_StatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		kind   string
	}{
		{"validation", &ledger.ValidationError{Field: "amount", Reason: "不能为 0"}, http.StatusBadRequest, "validation"},
		{"not found", &ledger.NotFoundError{Entity: "account", ID: "a-1"}, http.StatusNotFound, "not_found"},
		{"wrapped conflict", fmt.Errorf("设置预算: %w", &ledger.ConflictError{Entity: "budget", Key: "c-1/2024-03"}), http.StatusConflict, "conflict"},
		{"internal", errors.New("driver: bad connection"), http.StatusInternalServerError, "internal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			LedgerError(c, tt.err, "操作失败")

			assert.Equal(t, tt.status, w.Code)
			resp := decodeData(t, w, nil)
			assert.Equal(t, tt.status, resp.Code)
			assert.Equal(t, tt.kind, resp.Kind)
		})
	}
}

func TestLedgerError_PartialApplication(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	perr := &ledger.PartialApplicationError{
		TransactionID: "t-1",
		UserID:        testUser,
		Applied:       []string{"insert_transaction"},
		Cause:         errors.New("activity failed"),
	}
	LedgerError(c, perr, "记账失败")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var data struct {
		TransactionID string `json:"transaction_id"`
	}
	resp := decodeData(t, w, &data)
	assert.Equal(t, "partial_application", resp.Kind)
	assert.Equal(t, "t-1", data.TransactionID)
}

func TestLedgerError_ReleaseHidesInternalDetails(t *testing.T) {
	config.GlobalConfig = &config.Config{Server: config.ServerConfig{Mode: "release"}}
	defer func() { config.GlobalConfig = nil }()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	LedgerError(c, errors.New("dial tcp 10.0.0.5:3306: refused"), "操作失败")

	resp := decodeData(t, w, nil)
	assert.Equal(t, "操作失败", resp.Message)
}

func TestParseMonthQuery(t *testing.T) {
	router := gin.New()
	router.GET("/m", func(c *gin.Context) {
		m, ok := parseMonthQuery(c)
		if !ok {
			return
		}
		Success(c, ledger.FormatMonth(m))
	})

	w := doJSON(router, "GET", "/m?month=2024-03", "")
	require.Equal(t, http.StatusOK, w.Code)
	var got string
	decodeData(t, w, &got)
	assert.Equal(t, "2024-03", got)

	w = doJSON(router, "GET", "/m?month=March", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
