package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"envelope/ledger"

	"github.com/gin-gonic/gin"
)

// Response 通用响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Kind    string      `json:"kind,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// PageResponse 分页响应结构
type PageResponse struct {
	Total    int64       `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
	List     interface{} `json:"list"`
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    200,
		Message: "success",
		Data:    data,
	})
}

// SuccessWithMessage 带消息的成功响应
func SuccessWithMessage(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    200,
		Message: message,
		Data:    data,
	})
}

// Error 错误响应
func Error(c *gin.Context, code int, message string) {
	c.JSON(code, Response{
		Code:    code,
		Message: message,
	})
}

// BadRequest 400 错误响应
func BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, Response{
		Code:    http.StatusBadRequest,
		Message: message,
		Kind:    string(ledger.KindValidation),
	})
}

// Unauthorized 401 错误响应
func Unauthorized(c *gin.Context, message string) {
	Error(c, http.StatusUnauthorized, message)
}

// InternalError 500 错误响应
func InternalError(c *gin.Context, message string) {
	Error(c, http.StatusInternalServerError, message)
}

// NotFound 404 错误响应
func NotFound(c *gin.Context, message string) {
	c.JSON(http.StatusNotFound, Response{
		Code:    http.StatusNotFound,
		Message: message,
		Kind:    string(ledger.KindNotFound),
	})
}

// LedgerError 按账本错误类别返回 400/404/409/500，kind 字段供客户端区分处理
func LedgerError(c *gin.Context, err error, fallback string) {
	kind := ledger.KindOf(err)
	status := http.StatusInternalServerError
	message := SafeErrorMessage(err, fallback)
	switch kind {
	case ledger.KindValidation:
		status, message = http.StatusBadRequest, err.Error()
	case ledger.KindNotFound:
		status, message = http.StatusNotFound, err.Error()
	case ledger.KindConflict:
		status, message = http.StatusConflict, err.Error()
	case ledger.KindPartialApplication:
		var perr *ledger.PartialApplicationError
		if errors.As(err, &perr) {
			c.JSON(status, Response{
				Code:    status,
				Message: message,
				Kind:    string(kind),
				Data:    gin.H{"transaction_id": perr.TransactionID},
			})
			return
		}
	}
	c.JSON(status, Response{Code: status, Message: message, Kind: string(kind)})
}

// parseMonthQuery 读取 month 查询参数（YYYY-MM），缺省为当前月
func parseMonthQuery(c *gin.Context) (time.Time, bool) {
	s := c.Query("month")
	if s == "" {
		return ledger.MonthOf(time.Now()), true
	}
	m, err := ledger.ParseMonth(s)
	if err != nil {
		BadRequest(c, "月份格式错误，应为: 2006-01")
		return time.Time{}, false
	}
	return m, true
}

// parsePage 读取分页参数
func parsePage(c *gin.Context) (page, pageSize int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}
