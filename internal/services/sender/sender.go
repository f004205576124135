// Package sender отправляет письма-напоминания, полученные из очереди уведомлений.
package sender

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/magabrotheeeer/subscription-tracker/internal/lib/email"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/metrics"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-tracker/internal/lib/smtp"
	"github.com/magabrotheeeer/subscription-tracker/internal/models"
)

// ErrMissingRecipient в сообщении нет адреса получателя.
var ErrMissingRecipient = errors.New("missing required parameters")

// RenewalDateLayout формат даты продления в письме.
const RenewalDateLayout = "January 2, 2006"

// Renderer рендерит тему и тело письма по метке.
type Renderer interface {
	Render(label string, info email.MailInfo) (string, string, error)
}

// Links ссылки, подставляемые в письмо.
type Links struct {
	AccountURL string
	SupportURL string
}

// Service отправляет письма-напоминания через SMTP.
type Service struct {
	transport smtp.TransportInterface
	renderer  Renderer
	links     Links
	log       *slog.Logger
}

// New создает новый экземпляр Service.
func New(transport smtp.TransportInterface, renderer Renderer, links Links, log *slog.Logger) *Service {
	return &Service{
		transport: transport,
		renderer:  renderer,
		links:     links,
		log:       log,
	}
}

// HandleReminder разбирает сообщение из очереди, рендерит письмо и отправляет его.
func (s *Service) HandleReminder(body []byte) error {
	const op = "services.sender.HandleReminder"

	var msg models.ReminderMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		s.log.Error("failed to unmarshal message body", sl.Err(err))
		return fmt.Errorf("%s: error unmarshalling message: %w", op, err)
	}
	if err := s.SendReminder(msg); err != nil {
		metrics.EmailsSent.WithLabelValues(metrics.ResultFailure).Inc()
		return fmt.Errorf("%s: %w", op, err)
	}
	metrics.EmailsSent.WithLabelValues(metrics.ResultSuccess).Inc()
	return nil
}

// SendReminder рендерит письмо по метке напоминания и отправляет его владельцу подписки.
func (s *Service) SendReminder(msg models.ReminderMessage) error {
	if strings.TrimSpace(msg.To) == "" || msg.Label == "" {
		return ErrMissingRecipient
	}

	subject, html, err := s.renderer.Render(msg.Label, MailInfo(msg, s.links))
	if err != nil {
		return err
	}
	return s.sendEmail([]string{msg.To}, subject, html)
}

// MailInfo готовит данные шаблона из сообщения очереди.
func MailInfo(msg models.ReminderMessage, links Links) email.MailInfo {
	return email.MailInfo{
		UserName:         msg.UserName,
		SubscriptionName: msg.SubscriptionName,
		RenewalDate:      msg.RenewalDate.UTC().Format(RenewalDateLayout),
		PlanName:         msg.SubscriptionName,
		Price:            FormatPrice(msg.Currency, msg.Price, msg.Frequency),
		PaymentMethod:    msg.PaymentMethod,
		DaysLeft:         daysLeft(msg.Label),
		AccountURL:       links.AccountURL,
		SupportURL:       links.SupportURL,
	}
}

// FormatPrice возвращает строку цены вида "USD 9.99 (monthly)".
func FormatPrice(currency models.Currency, price float64, frequency models.Frequency) string {
	return fmt.Sprintf("%s %s (%s)", currency, strconv.FormatFloat(price, 'f', -1, 64), frequency)
}

func daysLeft(label string) int {
	for _, days := range email.ReminderDays {
		if email.Label(days) == label {
			return days
		}
	}
	return 0
}

func (s *Service) sendEmail(to []string, subject, html string) error {
	msg := strings.Join([]string{
		"From: " + s.transport.GetSMTPUser(),
		"To: " + strings.Join(to, ";"),
		"Subject: " + subject,
		"Date: " + time.Now().UTC().Format(time.RFC1123Z),
		"MIME-Version: 1.0",
		"Content-Type: text/html; charset=\"UTF-8\"",
		"",
		html,
	}, "\r\n")

	client, err := s.transport.Connect()
	if err != nil {
		s.log.Error("failed to connect to SMTP server", sl.Err(err))
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Mail(s.transport.GetSMTPUser()); err != nil {
		s.log.Error("failed to set MAIL FROM", slog.String("from", s.transport.GetSMTPUser()), sl.Err(err))
		return err
	}
	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			s.log.Error("failed to set RCPT TO", slog.String("recipient", addr), sl.Err(err))
			return err
		}
	}

	wc, err := client.Data()
	if err != nil {
		s.log.Error("failed to get Data writer", sl.Err(err))
		return err
	}
	if _, err = wc.Write([]byte(msg)); err != nil {
		s.log.Error("failed to write email body", sl.Err(err))
		return err
	}
	if err = wc.Close(); err != nil {
		s.log.Error("failed to close Data writer", sl.Err(err))
		return err
	}
	if err = client.Quit(); err != nil {
		s.log.Error("failed to quit SMTP client", sl.Err(err))
		return err
	}

	s.log.Info("email sent successfully", slog.Any("to", to), slog.String("subject", subject))
	return nil
}
