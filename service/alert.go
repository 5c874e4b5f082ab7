package service

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"time"

	"envelope/config"
	"envelope/ledger"
	"envelope/logger"

	"gopkg.in/gomail.v2"
)

// AlertService 账务告警邮件服务
type AlertService struct {
	cfg  *config.EmailConfig
	log  *slog.Logger
	send func(to, subject, body string) error
}

// NewAlertService 创建告警服务
func NewAlertService(cfg *config.EmailConfig) *AlertService {
	s := &AlertService{cfg: cfg, log: logger.For(logger.ComponentAlert)}
	s.send = s.sendEmail
	return s
}

// ReportPartialApplication 发送部分生效告警。邮件未启用时只记录日志
func (s *AlertService) ReportPartialApplication(ctx context.Context, perr *ledger.PartialApplicationError) error {
	if !s.cfg.Enabled {
		s.log.Warn("邮件告警未启用，部分生效仅记录日志", "transaction_id", perr.TransactionID, "user_id", perr.UserID)
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	subject := fmt.Sprintf("【账本告警】交易 %s 部分生效", perr.TransactionID)
	body := s.generatePartialApplicationBody(perr, time.Now())
	if err := s.send(s.cfg.AlertTo, subject, body); err != nil {
		return err
	}
	s.log.Info("已发送部分生效告警", "transaction_id", perr.TransactionID, "to", s.cfg.AlertTo)
	return nil
}

// generatePartialApplicationBody 生成告警邮件内容
func (s *AlertService) generatePartialApplicationBody(perr *ledger.PartialApplicationError, at time.Time) string {
	applied := "无"
	if len(perr.Applied) > 0 {
		applied = strings.Join(perr.Applied, ", ")
	}
	return fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: 'Microsoft YaHei', Arial, sans-serif; background: #f5f5f5; margin: 0; padding: 20px; }
        .container { max-width: 600px; margin: 0 auto; background: #fff; border-radius: 12px; overflow: hidden; box-shadow: 0 4px 20px rgba(0,0,0,0.1); }
        .header { background: linear-gradient(135deg, #dc2626, #b91c1c); color: white; padding: 30px; text-align: center; }
        .header h1 { margin: 0; font-size: 24px; }
        .content { padding: 40px 30px; }
        .content p { color: #333; line-height: 1.8; margin: 0 0 20px; }
        table { width: 100%%; border-collapse: collapse; margin: 20px 0; }
        td { border-bottom: 1px solid #eee; padding: 8px; font-size: 14px; vertical-align: top; }
        td.key { color: #6c757d; width: 120px; }
        .warning { background: #fff3cd; border-left: 4px solid #ffc107; padding: 15px; margin: 20px 0; border-radius: 4px; }
        .warning p { margin: 0; color: #856404; font-size: 14px; }
        .footer { background: #f8f9fa; padding: 20px 30px; text-align: center; color: #6c757d; font-size: 12px; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>⚠️ 账本部分生效</h1>
        </div>
        <div class="content">
            <p>一笔交易在记账过程中失败，补偿撤销也未能完成，账户余额或类别可用额可能不准确。</p>
            <table>
                <tr><td class="key">交易 ID</td><td>%s</td></tr>
                <tr><td class="key">用户 ID</td><td>%s</td></tr>
                <tr><td class="key">仍生效的步骤</td><td>%s</td></tr>
                <tr><td class="key">失败原因</td><td>%s</td></tr>
                <tr><td class="key">补偿错误</td><td>%s</td></tr>
                <tr><td class="key">时间</td><td>%s</td></tr>
            </table>
            <div class="warning">
                <p>请运行 <strong>ledgerctl reconcile --user %s</strong> 由交易日志重建余额与预算行。</p>
            </div>
        </div>
        <div class="footer">
            <p>此邮件由系统自动发送，请勿回复</p>
        </div>
    </div>
</body>
</html>
`,
		html.EscapeString(perr.TransactionID),
		html.EscapeString(perr.UserID),
		html.EscapeString(applied),
		html.EscapeString(errString(perr.Cause)),
		html.EscapeString(errString(perr.CompensationErr)),
		at.Format("2006-01-02 15:04:05"),
		html.EscapeString(perr.UserID),
	)
}

// SendTestEmail 发送测试邮件到告警地址
func (s *AlertService) SendTestEmail() error {
	if !s.cfg.Enabled {
		return fmt.Errorf("邮件服务未启用")
	}

	subject := "【账本告警】邮件配置测试"
	body := `
<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; padding: 20px;">
    <h2>✅ 邮件配置成功</h2>
    <p>如果您收到这封邮件，说明账本告警邮件配置正确。</p>
</body>
</html>
`
	return s.send(s.cfg.AlertTo, subject, body)
}

// sendEmail 发送邮件
func (s *AlertService) sendEmail(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", m.FormatAddress(s.cfg.Username, s.cfg.From))
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	d := gomail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.Username, s.cfg.Password)

	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("发送邮件失败: %w", err)
	}

	return nil
}

func errString(err error) string {
	if err == nil {
		return "-"
	}
	return err.Error()
}
