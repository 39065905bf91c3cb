package services

import (
	"fmt"
	"net/smtp"
	"time"

	"civicpulse-be/config"

	"go.uber.org/zap"
)

// Notifier delivers status-change emails. Fire-and-forget from the pipeline's
// perspective: enqueueing never blocks and failures never reach the caller.
type Notifier interface {
	NotifyStatusChange(toEmail, reportCategory, newStatus string)
}

type statusEmail struct {
	to       string
	category string
	status   string
}

// Mailer sends notification emails over SMTP from a single background worker
// with a bounded queue and per-message retries. When SMTP is not configured
// the mailer stays disabled and silently drops messages.
type Mailer struct {
	cfg     config.SMTPSettings
	queue   chan statusEmail
	done    chan struct{}
	log     *zap.Logger
	enabled bool
}

const (
	mailQueueSize    = 64
	mailSendAttempts = 3
	mailRetryDelay   = 5 * time.Second
)

func NewMailer(cfg config.SMTPSettings, log *zap.Logger) *Mailer {
	m := &Mailer{
		cfg:     cfg,
		queue:   make(chan statusEmail, mailQueueSize),
		done:    make(chan struct{}),
		log:     log,
		enabled: cfg.Enabled(),
	}
	if !m.enabled {
		log.Warn("SMTP not configured, status notification emails are disabled")
	}
	go m.worker()
	return m
}

// NotifyStatusChange enqueues a notification. A full queue drops the message
// with a log line rather than delaying the caller.
func (m *Mailer) NotifyStatusChange(toEmail, reportCategory, newStatus string) {
	if !m.enabled || toEmail == "" {
		return
	}
	select {
	case m.queue <- statusEmail{to: toEmail, category: reportCategory, status: newStatus}:
	default:
		m.log.Warn("mail queue full, dropping status notification",
			zap.String("to", toEmail), zap.String("status", newStatus))
	}
}

// Close stops the worker after the queue drains.
func (m *Mailer) Close() {
	close(m.queue)
	<-m.done
}

func (m *Mailer) worker() {
	defer close(m.done)
	for msg := range m.queue {
		var err error
		for attempt := 1; attempt <= mailSendAttempts; attempt++ {
			if err = m.send(msg); err == nil {
				break
			}
			m.log.Warn("failed to send status notification",
				zap.String("to", msg.to), zap.Int("attempt", attempt), zap.Error(err))
			if attempt < mailSendAttempts {
				time.Sleep(mailRetryDelay)
			}
		}
		if err != nil {
			m.log.Error("giving up on status notification",
				zap.String("to", msg.to), zap.String("status", msg.status), zap.Error(err))
		}
	}
}

func (m *Mailer) send(msg statusEmail) error {
	subject := fmt.Sprintf("Update on your report: %s", msg.category)
	body := fmt.Sprintf(`<html>
<body style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
	<h2>Civic Pulse</h2>
	<p>Hi there,</p>
	<p>The status of your report regarding <strong>%s</strong> has been updated to <strong>%s</strong>.</p>
	<p>Thank you for helping improve our city!</p>
	<p>The Civic Pulse Team</p>
</body>
</html>`, msg.category, msg.status)

	mime := "MIME-version: 1.0;\r\nContent-Type: text/html; charset=\"UTF-8\";\r\n"
	raw := []byte(fmt.Sprintf("To: %s\r\nFrom: Civic Pulse <%s>\r\nSubject: %s\r\n%s\r\n%s",
		msg.to, m.cfg.From, subject, mime, body))

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}
	addr := m.cfg.Host + ":" + m.cfg.Port
	return smtp.SendMail(addr, auth, m.cfg.From, []string{msg.to}, raw)
}
