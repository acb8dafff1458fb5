package services

import (
	"fmt"
	"log"
	"net/smtp"
	"strings"

	"github.com/amirphl/Jorougumo/models"
)

// NotificationService notifies the operator about pipeline events that need
// human attention, currently over email only
type NotificationService interface {
	NotifyPendingApproval(post *models.PendingPost) error
}

// EmailProvider interface for email sending
type EmailProvider interface {
	SendEmail(email, subject, message string) error
}

// NotificationServiceImpl implements NotificationService
type NotificationServiceImpl struct {
	emailProvider EmailProvider
	operatorEmail string
}

// NewNotificationService creates a new notification service
func NewNotificationService(emailProvider EmailProvider, operatorEmail string) NotificationService {
	return &NotificationServiceImpl{
		emailProvider: emailProvider,
		operatorEmail: operatorEmail,
	}
}

// NotifyPendingApproval emails the operator that a draft awaits review
func (s *NotificationServiceImpl) NotifyPendingApproval(post *models.PendingPost) error {
	if s.emailProvider == nil {
		return fmt.Errorf("email provider not configured")
	}
	if len(s.operatorEmail) == 0 || !strings.Contains(s.operatorEmail, "@") {
		return fmt.Errorf("invalid operator email address: %s", s.operatorEmail)
	}

	subject := fmt.Sprintf("New %s draft awaiting approval", post.Platform)
	message := fmt.Sprintf(
		"A generated %s post is waiting for review.\n\nUUID: %s\nFocus: %s\nTone: %s\n\n%s",
		post.Platform, post.UUID, post.Focus, post.Tone, post.Content,
	)

	return s.emailProvider.SendEmail(s.operatorEmail, subject, message)
}

// SMTPEmailProvider sends email over plain SMTP auth
type SMTPEmailProvider struct {
	host     string
	port     int
	username string
	password string
	from     string
}

// NewSMTPEmailProvider creates a new SMTP email provider
func NewSMTPEmailProvider(host string, port int, username, password, from string) EmailProvider {
	return &SMTPEmailProvider{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
	}
}

// SendEmail sends an email via the configured SMTP server
func (p *SMTPEmailProvider) SendEmail(email, subject, message string) error {
	addr := fmt.Sprintf("%s:%d", p.host, p.port)
	auth := smtp.PlainAuth("", p.username, p.password, p.host)

	body := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n",
		p.from, email, subject, message)

	if err := smtp.SendMail(addr, auth, p.from, []string{email}, []byte(body)); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", email, err)
	}

	return nil
}

// MockEmailProvider logs instead of sending, and records messages for tests
type MockEmailProvider struct {
	Sent []MockEmail
}

// MockEmail is one recorded outgoing message
type MockEmail struct {
	To      string
	Subject string
	Message string
}

// NewMockEmailProvider creates a new mock email provider
func NewMockEmailProvider() *MockEmailProvider {
	return &MockEmailProvider{}
}

// SendEmail records the message and logs it
func (p *MockEmailProvider) SendEmail(email, subject, message string) error {
	p.Sent = append(p.Sent, MockEmail{To: email, Subject: subject, Message: message})
	log.Printf("Email sent to %s [%s]: %s", email, subject, message)
	return nil
}
