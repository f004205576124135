// Package email рендерит письма-напоминания о продлении подписки по меткам шаблонов.
package email

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"strings"
	texttemplate "text/template"
)

// ErrUnknownTemplate нет шаблона с такой меткой.
var ErrUnknownTemplate = errors.New("invalid email type")

// MailInfo данные, подставляемые в шаблон.
type MailInfo struct {
	UserName         string
	SubscriptionName string
	RenewalDate      string
	PlanName         string
	Price            string
	PaymentMethod    string
	DaysLeft         int
	AccountURL       string
	SupportURL       string
}

// Template пара шаблонов темы и тела письма.
type Template struct {
	Label   string
	subject *texttemplate.Template
	body    *template.Template
}

const bodyLayout = `<div style="font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 0; background-color: #f4f7fa;">
  <table cellpadding="0" cellspacing="0" border="0" width="100%" style="background-color: #ffffff; border-radius: 10px; overflow: hidden;">
    <tr>
      <td style="background-color: #4a90e2; text-align: center;">
        <p style="font-size: 54px; line-height: 54px; font-weight: 800; color: #ffffff;">SubDub</p>
      </td>
    </tr>
    <tr>
      <td style="padding: 40px 30px;">
        <p style="font-size: 16px; margin-bottom: 25px;">Hello <strong style="color: #4a90e2;">{{.UserName}}</strong>,</p>
        <p style="font-size: 16px; margin-bottom: 25px;">Your <strong>{{.SubscriptionName}}</strong> subscription is set to renew on <strong style="color: #4a90e2;">{{.RenewalDate}}</strong> ({{.DaysLeft}} day{{if ne .DaysLeft 1}}s{{end}} from today).</p>
        <table cellpadding="15" cellspacing="0" border="0" width="100%" style="background-color: #f0f7ff; border-radius: 10px; margin-bottom: 25px;">
          <tr><td style="font-size: 16px; border-bottom: 1px solid #d0e3ff;"><strong>Plan:</strong> {{.PlanName}}</td></tr>
          <tr><td style="font-size: 16px; border-bottom: 1px solid #d0e3ff;"><strong>Price:</strong> {{.Price}}</td></tr>
          <tr><td style="font-size: 16px;"><strong>Payment Method:</strong> {{.PaymentMethod}}</td></tr>
        </table>
        <p style="font-size: 16px; margin-bottom: 25px;">If you'd like to make changes or cancel your subscription, please visit your <a href="{{.AccountURL}}" style="color: #4a90e2; text-decoration: none;">account settings</a> before the renewal date.</p>
        <p style="font-size: 16px; margin-top: 30px;">Need help? <a href="{{.SupportURL}}" style="color: #4a90e2; text-decoration: none;">Contact our support team</a> anytime.</p>
        <p style="font-size: 16px; margin-top: 30px;">Best regards,<br><strong>The SubDub Team</strong></p>
      </td>
    </tr>
  </table>
</div>`

var subjects = map[int]string{
	7: `📅 Reminder: Your {{.SubscriptionName}} Subscription Renews in 7 Days!`,
	5: `⏳ {{.SubscriptionName}} Renews in 5 Days – Stay Subscribed!`,
	2: `🚀 2 Days Left!  {{.SubscriptionName}} Subscription Renewal`,
	1: `⚡ Final Reminder: {{.SubscriptionName}} Renews Tomorrow!`,
}

// ReminderDays за сколько дней до продления отправляются напоминания, по убыванию.
var ReminderDays = []int{7, 5, 2, 1}

// Label возвращает метку шаблона для напоминания за days дней.
func Label(days int) string {
	return fmt.Sprintf("%d days before reminder", days)
}

// Registry набор шаблонов, доступных по метке.
type Registry struct {
	templates map[string]*Template
}

// NewRegistry разбирает все шаблоны напоминаний.
func NewRegistry() (*Registry, error) {
	const op = "email.NewRegistry"
	r := &Registry{templates: make(map[string]*Template, len(subjects))}
	for _, days := range ReminderDays {
		label := Label(days)
		subj, err := texttemplate.New(label + ":subject").Parse(subjects[days])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		body, err := template.New(label + ":body").Parse(bodyLayout)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		r.templates[label] = &Template{Label: label, subject: subj, body: body}
	}
	return r, nil
}

// Render возвращает тему и HTML-тело письма для метки.
func (r *Registry) Render(label string, info MailInfo) (string, string, error) {
	const op = "email.Render"
	tpl, ok := r.templates[label]
	if !ok {
		return "", "", fmt.Errorf("%s: %w: %s", op, ErrUnknownTemplate, label)
	}

	var subj strings.Builder
	if err := tpl.subject.Execute(&subj, info); err != nil {
		return "", "", fmt.Errorf("%s: %w", op, err)
	}
	var body bytes.Buffer
	if err := tpl.body.Execute(&body, info); err != nil {
		return "", "", fmt.Errorf("%s: %w", op, err)
	}
	return subj.String(), body.String(), nil
}
