package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"envelope/config"
	"envelope/ledger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentMail struct {
	to, subject, body string
}

func newTestAlertService(enabled bool) (*AlertService, *[]sentMail) {
	s := NewAlertService(&config.EmailConfig{Enabled: enabled, AlertTo: "ops@example.com"})
	var sent []sentMail
	s.send = func(to, subject, body string) error {
		sent = append(sent, sentMail{to, subject, body})
		return nil
	}
	return s, &sent
}

func testPartialError() *ledger.PartialApplicationError {
	return &ledger.PartialApplicationError{
		TransactionID:   "txn-42",
		UserID:          "user-<1>",
		Applied:         []string{"insert_transaction", "apply_balance"},
		Cause:           errors.New("connection reset"),
		CompensationErr: errors.New("server has gone away"),
	}
}

func TestGeneratePartialApplicationBody(t *testing.T) {
	s, _ := newTestAlertService(true)
	at := time.Date(2024, 3, 15, 8, 30, 0, 0, time.UTC)
	body := s.generatePartialApplicationBody(testPartialError(), at)

	assert.Contains(t, body, "txn-42")
	assert.Contains(t, body, "insert_transaction, apply_balance")
	assert.Contains(t, body, "connection reset")
	assert.Contains(t, body, "server has gone away")
	assert.Contains(t, body, "2024-03-15 08:30:00")
	assert.Contains(t, body, "user-&lt;1&gt;")
	assert.NotContains(t, body, "user-<1>")
	assert.Contains(t, body, "width: 100%;")
}

func TestReportPartialApplication(t *testing.T) {
	s, sent := newTestAlertService(true)
	require.NoError(t, s.ReportPartialApplication(context.Background(), testPartialError()))
	require.Len(t, *sent, 1)
	assert.Equal(t, "ops@example.com", (*sent)[0].to)
	assert.Contains(t, (*sent)[0].subject, "txn-42")
}

func TestReportPartialApplication_Disabled(t *testing.T) {
	s, sent := newTestAlertService(false)
	require.NoError(t, s.ReportPartialApplication(context.Background(), testPartialError()))
	assert.Empty(t, *sent)
	assert.Error(t, s.SendTestEmail())
}

func TestReportPartialApplication_SendFailure(t *testing.T) {
	s, _ := newTestAlertService(true)
	s.send = func(to, subject, body string) error { return errors.New("smtp down") }
	assert.ErrorContains(t, s.ReportPartialApplication(context.Background(), testPartialError()), "smtp down")
}

// 编译期断言：告警服务可作为账本的 Reporter
var _ ledger.Reporter = (*AlertService)(nil)
