// README: SMTP mailer for customer-facing booking emails.
package notify

import (
	"context"
	"fmt"
	"log"
	"net/smtp"
	"strings"
	"time"

	"fieldops/internal/config"
	"fieldops/internal/modules/appointment"
)

// Mailer sends plain-text booking emails over SMTP. When credentials are not
// configured every send is skipped with a warning, matching how a dev
// environment runs without a mail account.
type Mailer struct {
	cfg config.SMTPConfig
}

func NewMailer(cfg config.SMTPConfig) *Mailer {
	return &Mailer{cfg: cfg}
}

func (m *Mailer) BookingConfirmed(ctx context.Context, a *appointment.Appointment, technicianName string) error {
	subject := fmt.Sprintf("Appointment confirmed: %s", a.ServiceType)
	body := fmt.Sprintf(
		"Hi %s,\n\nYour %s appointment is confirmed.\n\nTechnician: %s\nWhen: %s\nWhere: %s\n\nSee you then!",
		a.CustomerName, a.ServiceType, technicianName,
		a.StartTime.Format(time.RFC1123), a.Address,
	)
	return m.send(a.CustomerEmail, subject, body)
}

func (m *Mailer) BookingCancelled(ctx context.Context, a *appointment.Appointment) error {
	subject := fmt.Sprintf("Appointment cancelled: %s", a.ServiceType)
	body := fmt.Sprintf(
		"Hi %s,\n\nYour %s appointment on %s has been cancelled.\n\nCall us any time to rebook.",
		a.CustomerName, a.ServiceType, a.StartTime.Format(time.RFC1123),
	)
	return m.send(a.CustomerEmail, subject, body)
}

func (m *Mailer) send(to, subject, body string) error {
	if m.cfg.User == "" || m.cfg.Pass == "" {
		log.Printf("op=mail skipped=no_credentials to=%s subject=%q", to, subject)
		return nil
	}

	msg := strings.Join([]string{
		"From: " + m.cfg.From,
		"To: " + to,
		"Subject: " + subject,
		"",
		body,
	}, "\r\n")

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	auth := smtp.PlainAuth("", m.cfg.User, m.cfg.Pass, m.cfg.Host)
	return smtp.SendMail(addr, auth, m.cfg.From, []string{to}, []byte(msg))
}
