package email

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"

	"github.com/domodwyer/mailyak/v3"
	log "github.com/sirupsen/logrus"
)

// EmailConfig holds SMTP configuration. An empty host disables sending.
type EmailConfig struct {
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	FromName     string
	FromEmail    string
	AppName      string
}

// EmailService handles email sending
type EmailService struct {
	config EmailConfig
	send   func(m *mailyak.MailYak) error
}

// NewEmailService creates a new email service
func NewEmailService(config EmailConfig) *EmailService {
	if config.AppName == "" {
		config.AppName = config.FromName
	}
	return &EmailService{config: config, send: (*mailyak.MailYak).Send}
}

// Enabled reports whether an SMTP server is configured
func (s *EmailService) Enabled() bool {
	return s.config.SMTPHost != ""
}

// OrderConfirmationItem is one rented product listed in the confirmation
type OrderConfirmationItem struct {
	Name     string
	Quantity int
	Subtotal string
}

// OrderConfirmation is the content of the order confirmation email. Amounts
// are preformatted.
type OrderConfirmation struct {
	To           string
	CustomerName string
	OrderNumber  string
	EventType    string
	DeliveryDate string
	PickupDate   string
	Items        []OrderConfirmationItem
	Subtotal     string
	Tax          string
	Total        string
	Deposit      string
}

// SendOrderConfirmation emails the customer the summary of a confirmed order
func (s *EmailService) SendOrderConfirmation(msg OrderConfirmation) error {
	if !s.Enabled() {
		log.WithFields(log.Fields{"to": msg.To, "order_number": msg.OrderNumber}).
			Debug("smtp not configured, skipping order confirmation")
		return nil
	}

	htmlContent, err := s.renderOrderConfirmation(msg)
	if err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}

	subject := fmt.Sprintf("Order confirmation #%s - %s", msg.OrderNumber, s.config.AppName)
	return s.sendEmail(msg.To, subject, htmlContent)
}

// sendEmail sends an HTML email through the configured SMTP server
func (s *EmailService) sendEmail(to, subject, htmlBody string) error {
	var auth smtp.Auth
	if s.config.SMTPUsername != "" {
		auth = smtp.PlainAuth("", s.config.SMTPUsername, s.config.SMTPPassword, s.config.SMTPHost)
	}

	m := mailyak.New(fmt.Sprintf("%s:%d", s.config.SMTPHost, s.config.SMTPPort), auth)
	m.From(s.config.FromEmail)
	m.FromName(s.config.FromName)
	m.To(to)
	m.Subject(subject)
	m.HTML().Set(htmlBody)

	if err := s.send(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

var orderConfirmationTmpl = template.Must(template.New("order_confirmation").Parse(orderConfirmationTemplate))

func (s *EmailService) renderOrderConfirmation(msg OrderConfirmation) (string, error) {
	data := struct {
		OrderConfirmation
		AppName string
	}{
		OrderConfirmation: msg,
		AppName:           s.config.AppName,
	}

	var buf bytes.Buffer
	if err := orderConfirmationTmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}

const orderConfirmationTemplate = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>Order confirmation</title>
</head>
<body style="margin: 0; padding: 0; font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; background-color: #f4f7fa;">
    <table role="presentation" style="max-width: 600px; margin: 40px auto; background-color: #ffffff; border-radius: 12px; border-collapse: collapse;">
        <tr>
            <td style="background-color: #1a1a2e; padding: 30px; text-align: center;">
                <h1 style="color: #ffffff; margin: 0; font-size: 26px;">{{.AppName}}</h1>
            </td>
        </tr>
        <tr>
            <td style="padding: 30px; color: #4a5568; font-size: 15px; line-height: 1.6;">
                <p>Hello {{.CustomerName}},</p>
                <p>Your order <strong>#{{.OrderNumber}}</strong>{{if .EventType}} for your {{.EventType}}{{end}} is confirmed.</p>
                <p>Delivery: <strong>{{.DeliveryDate}}</strong><br>Pickup: <strong>{{.PickupDate}}</strong></p>
                <table role="presentation" style="width: 100%; border-collapse: collapse; margin: 20px 0;">
                    {{range .Items}}
                    <tr>
                        <td style="padding: 6px 0; border-bottom: 1px solid #e2e8f0;">{{.Quantity}} × {{.Name}}</td>
                        <td style="padding: 6px 0; border-bottom: 1px solid #e2e8f0; text-align: right;">{{.Subtotal}}</td>
                    </tr>
                    {{end}}
                    <tr><td style="padding-top: 12px;">Subtotal</td><td style="padding-top: 12px; text-align: right;">{{.Subtotal}}</td></tr>
                    <tr><td>VAT</td><td style="text-align: right;">{{.Tax}}</td></tr>
                    <tr><td><strong>Total</strong></td><td style="text-align: right;"><strong>{{.Total}}</strong></td></tr>
                </table>
                <p>A security deposit of <strong>{{.Deposit}}</strong> is due before delivery.</p>
            </td>
        </tr>
        <tr>
            <td style="background-color: #f8fafc; padding: 20px; text-align: center; color: #a0aec0; font-size: 13px;">
                This email was sent by {{.AppName}}
            </td>
        </tr>
    </table>
</body>
</html>
`
