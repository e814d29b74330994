package services

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"html/template"
	"net/smtp"
	"net/url"
	"strings"
	texttemplate "text/template"
	"time"

	"go.uber.org/zap"

	"linkbio/internal/models/db_models"
)

// Notifier tells users about changes to their account.
type Notifier interface {
	NotifyDowngrade(ctx context.Context, user *db_models.User, planName string) error
	SendPasswordReset(ctx context.Context, user *db_models.User, token string) error
}

type SMTPConfig struct {
	Host       string
	Port       int
	Username   string
	Password   string
	From       string
	AppName    string
	AppBaseURL string
}

type EmailData struct {
	Title     string
	Intro     string
	ButtonURL string
	ButtonTxt string
	AppName   string
	Year      int
}

const mailHTMLTemplate = `<!doctype html>
<html>
<head><meta charset="UTF-8"><title>{{.Title}}</title></head>
<body style="font-family:Helvetica,Arial,sans-serif;color:#0f172a">
  <h1>{{.Title}}</h1>
  <p>{{.Intro}}</p>
  {{if .ButtonURL}}<p><a href="{{.ButtonURL}}">{{.ButtonTxt}}</a></p>{{end}}
  <p style="color:#64748b;font-size:13px">© {{.Year}} {{.AppName}}</p>
</body>
</html>`

const mailTextTemplate = `{{.Title}}

{{.Intro}}

{{if .ButtonURL}}{{.ButtonTxt}}: {{.ButtonURL}}
{{end}}
-- {{.AppName}} (c) {{.Year}}
`

type smtpNotifier struct {
	cfg     SMTPConfig
	htmlTpl *template.Template
	textTpl *texttemplate.Template
	log     *zap.Logger
}

// NewNotifier sends mail through SMTP when a host is configured and only logs otherwise.
func NewNotifier(cfg SMTPConfig, log *zap.Logger) Notifier {
	if cfg.Host == "" {
		return &logNotifier{log: log}
	}
	return &smtpNotifier{
		cfg:     cfg,
		htmlTpl: template.Must(template.New("mailHTML").Parse(mailHTMLTemplate)),
		textTpl: texttemplate.Must(texttemplate.New("mailText").Parse(mailTextTemplate)),
		log:     log,
	}
}

func downgradeEmail(appName, baseURL, planName string) EmailData {
	return EmailData{
		Title:     "Your subscription has ended",
		Intro:     fmt.Sprintf("Your %s subscription and its grace period have ended, so your account is now on the Free plan. Renew any time to get your premium features back.", planName),
		ButtonURL: strings.TrimRight(baseURL, "/") + "/plans",
		ButtonTxt: "See plans",
		AppName:   appName,
		Year:      time.Now().Year(),
	}
}

func resetPasswordEmail(appName, baseURL, token string) EmailData {
	return EmailData{
		Title:     "Reset your password",
		Intro:     "We received a request to reset your password. The link below is valid for 10 minutes. If you did not ask for this, you can ignore this email.",
		ButtonURL: fmt.Sprintf("%s/reset-password?token=%s", strings.TrimRight(baseURL, "/"), url.QueryEscape(token)),
		ButtonTxt: "Reset password",
		AppName:   appName,
		Year:      time.Now().Year(),
	}
}

func (s *smtpNotifier) NotifyDowngrade(_ context.Context, user *db_models.User, planName string) error {
	return s.deliver(user.Email, downgradeEmail(s.cfg.AppName, s.cfg.AppBaseURL, planName))
}

func (s *smtpNotifier) SendPasswordReset(_ context.Context, user *db_models.User, token string) error {
	return s.deliver(user.Email, resetPasswordEmail(s.cfg.AppName, s.cfg.AppBaseURL, token))
}

func (s *smtpNotifier) deliver(to string, data EmailData) error {
	var hb, tb bytes.Buffer
	if err := s.htmlTpl.Execute(&hb, data); err != nil {
		return err
	}
	if err := s.textTpl.Execute(&tb, data); err != nil {
		return err
	}
	return s.send(to, data.Title, hb.String(), tb.String())
}

func (s *smtpNotifier) send(to, subject, htmlBody, textBody string) error {
	boundary := fmt.Sprintf("mixed_%d", time.Now().UnixNano())

	var msg bytes.Buffer
	write := func(format string, a ...any) { _, _ = fmt.Fprintf(&msg, format, a...) }

	write("From: %s <%s>\r\n", s.cfg.AppName, s.cfg.From)
	write("To: %s\r\n", to)
	write("Subject: %s\r\n", subject)
	write("Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	write("MIME-Version: 1.0\r\n")
	write("Content-Type: multipart/alternative; boundary=%q\r\n\r\n", boundary)

	write("--%s\r\n", boundary)
	write("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	write("%s\r\n\r\n", textBody)

	write("--%s\r\n", boundary)
	write("Content-Type: text/html; charset=UTF-8\r\n\r\n")
	write("%s\r\n\r\n", htmlBody)
	write("--%s--\r\n", boundary)

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	if s.cfg.Port != 465 {
		// smtp.SendMail upgrades with STARTTLS when the server offers it.
		return smtp.SendMail(addr, auth, s.cfg.From, []string{to}, msg.Bytes())
	}

	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: s.cfg.Host, MinVersion: tls.VersionTLS12})
	if err != nil {
		return err
	}
	defer conn.Close()

	c, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		return err
	}
	defer c.Quit()

	if auth != nil {
		if err := c.Auth(auth); err != nil {
			return err
		}
	}
	if err := c.Mail(s.cfg.From); err != nil {
		return err
	}
	if err := c.Rcpt(to); err != nil {
		return err
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg.Bytes()); err != nil {
		return err
	}
	return w.Close()
}

type logNotifier struct {
	log *zap.Logger
}

func (n *logNotifier) NotifyDowngrade(_ context.Context, user *db_models.User, planName string) error {
	n.log.Info("account downgraded to free",
		zap.String("user_id", user.ID.String()),
		zap.String("email", user.Email),
		zap.String("plan", planName),
	)
	return nil
}

func (n *logNotifier) SendPasswordReset(_ context.Context, user *db_models.User, _ string) error {
	n.log.Warn("password reset requested but SMTP is not configured, no mail sent",
		zap.String("user_id", user.ID.String()),
	)
	return nil
}
