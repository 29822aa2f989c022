package mailer

import (
	"fmt"
	"html"
	"strings"

	"ai-chatbot-be/internal/entity"
	"ai-chatbot-be/internal/pkg/logger"

	"gopkg.in/gomail.v2"
)

type IEmailService interface {
	SendRecoveryReport(toEmail string, run *entity.RecoveryRun) error
}

type sender interface {
	DialAndSend(m ...*gomail.Message) error
}

type emailService struct {
	dialer      sender
	senderEmail string
	senderName  string
	logger      logger.ILogger
}

func NewEmailService(host string, port int, username, password, senderEmail, senderName string, logger logger.ILogger) IEmailService {
	return &emailService{
		dialer:      gomail.NewDialer(host, port, username, password),
		senderEmail: senderEmail,
		senderName:  senderName,
		logger:      logger,
	}
}

// SendRecoveryReport mails the operator the accounts the reconciler could
// not repair.
func (s *emailService) SendRecoveryReport(toEmail string, run *entity.RecoveryRun) error {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.senderEmail, s.senderName)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", fmt.Sprintf("Subscription recovery: %d of %d failed", len(run.Failures), run.Checked))
	m.SetBody("text/html", RecoveryReportBody(run))

	if err := s.dialer.DialAndSend(m); err != nil {
		s.logger.Error("MAILER", "Failed to send recovery report", map[string]interface{}{
			"to":     toEmail,
			"run_id": run.Id.String(),
			"error":  err,
		})
		return err
	}

	s.logger.Info("MAILER", "Recovery report sent", map[string]interface{}{
		"to":     toEmail,
		"run_id": run.Id.String(),
	})
	return nil
}

func RecoveryReportBody(run *entity.RecoveryRun) string {
	var rows strings.Builder
	for _, f := range run.Failures {
		fmt.Fprintf(&rows, "<tr><td>%s</td><td>%s</td><td>%s</td></tr>",
			f.OrderId, f.AccountId, html.EscapeString(f.Reason))
	}

	return fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>Subscription recovery run</h2>
			<p>Run %s finished at %s.</p>
			<p>Checked: %d, recovered: %d, failed: %d.</p>
			<table border="1" cellpadding="6" style="border-collapse: collapse;">
				<tr><th>Order</th><th>Account</th><th>Reason</th></tr>
				%s
			</table>
		</div>
	`, run.Id, run.FinishedAt.UTC().Format("2006-01-02 15:04:05 MST"),
		run.Checked, run.Recovered, len(run.Failures), rows.String())
}
