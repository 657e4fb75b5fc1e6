package service

import (
	"errors"
	"fmt"
	"html"
	"io"
	"strings"

	"cashflow/config"

	"gopkg.in/gomail.v2"
)

// ErrEmailDisabled 邮件服务未启用
var ErrEmailDisabled = errors.New("邮件服务未启用，请配置 email.enabled=true")

// Sender 发送邮件，*gomail.Dialer 实现该接口
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// EmailService 邮件服务
type EmailService struct {
	cfg    *config.EmailConfig
	sender Sender
}

// NewEmailService 创建邮件服务
func NewEmailService(cfg *config.EmailConfig) *EmailService {
	return &EmailService{
		cfg:    cfg,
		sender: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}
}

// NewEmailServiceWithSender 使用自定义发送器创建邮件服务
func NewEmailServiceWithSender(cfg *config.EmailConfig, sender Sender) *EmailService {
	return &EmailService{cfg: cfg, sender: sender}
}

// Enabled 是否启用邮件
func (s *EmailService) Enabled() bool {
	return s.cfg != nil && s.cfg.Enabled
}

// Report 邮件附带的报表
type Report struct {
	Nickname string
	Period   string // 如 2024-01-01 ~ 2024-03-01
	Filename string
	Content  []byte
	Totals   []CategoryTotal
}

// SendReport 发送带 Excel 附件的收支报表
func (s *EmailService) SendReport(toEmail string, report Report) error {
	if !s.Enabled() {
		return ErrEmailDisabled
	}

	m := s.newMessage(toEmail, "【记账系统】收支报表 "+report.Period, s.generateReportEmailBody(report))
	content := report.Content
	m.Attach(report.Filename, gomail.SetCopyFunc(func(w io.Writer) error {
		_, err := w.Write(content)
		return err
	}))

	return s.send(m)
}

// SendTestEmail 发送测试邮件
func (s *EmailService) SendTestEmail(toEmail string) error {
	if !s.Enabled() {
		return ErrEmailDisabled
	}

	body := `
<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; padding: 20px;">
    <h2>✅ 邮件配置成功</h2>
    <p>如果您收到这封邮件，说明邮件服务配置正确。</p>
    <p style="color: #666;">—— 记账系统</p>
</body>
</html>
`
	return s.send(s.newMessage(toEmail, "【记账系统】邮件配置测试", body))
}

func (s *EmailService) newMessage(to, subject, body string) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", m.FormatAddress(s.cfg.From, "记账系统"))
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)
	return m
}

func (s *EmailService) send(m *gomail.Message) error {
	if err := s.sender.DialAndSend(m); err != nil {
		return fmt.Errorf("发送邮件失败: %w", err)
	}
	return nil
}

// generateReportEmailBody 生成报表邮件内容
func (s *EmailService) generateReportEmailBody(report Report) string {
	var rows strings.Builder
	for _, t := range report.Totals {
		fmt.Fprintf(&rows, `
                <tr>
                    <td><span class="dot" style="background: %s;"></span>%s</td>
                    <td>%s</td>
                    <td>%s</td>
                    <td>%s</td>
                </tr>`,
			html.EscapeString(t.Color),
			html.EscapeString(t.Name),
			t.Earnings.StringFixed(2),
			t.Expenses.StringFixed(2),
			t.Cash.StringFixed(2),
		)
	}
	if len(report.Totals) == 0 {
		rows.WriteString(`
                <tr><td colspan="4">该时间段内没有记账记录</td></tr>`)
	}

	return fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: 'Microsoft YaHei', Arial, sans-serif; background: #f5f5f5; margin: 0; padding: 20px; }
        .container { max-width: 600px; margin: 0 auto; background: #fff; border-radius: 12px; overflow: hidden; box-shadow: 0 4px 20px rgba(0,0,0,0.1); }
        .header { background: linear-gradient(135deg, #2563eb, #1d4ed8); color: white; padding: 30px; text-align: center; }
        .header h1 { margin: 0; font-size: 24px; }
        .content { padding: 40px 30px; }
        .content p { color: #333; line-height: 1.8; margin: 0 0 20px; }
        table { width: 100%%; border-collapse: collapse; }
        th, td { border-bottom: 1px solid #e5e7eb; padding: 8px; text-align: left; }
        .dot { display: inline-block; width: 10px; height: 10px; border-radius: 50%%; margin-right: 6px; }
        .footer { background: #f8f9fa; padding: 20px 30px; text-align: center; color: #6c757d; font-size: 12px; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>💰 记账系统</h1>
        </div>
        <div class="content">
            <p>尊敬的 <strong>%s</strong>，您好！</p>
            <p>以下是您在 <strong>%s</strong> 期间的类别汇总，完整明细见附件。</p>
            <table>
                <tr><th>类别</th><th>收入</th><th>支出</th><th>结余</th></tr>%s
            </table>
        </div>
        <div class="footer">
            <p>此邮件由系统自动发送，请勿回复</p>
            <p>© 记账系统 - 您的个人财务管理助手</p>
        </div>
    </div>
</body>
</html>
`, html.EscapeString(report.Nickname), html.EscapeString(report.Period), rows.String())
}
