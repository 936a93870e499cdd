// Package delivery emails rendered invoices to a firm's recipients.
package delivery

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"firmbill/internal/common"
	"firmbill/internal/documents"
	"firmbill/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/wneessen/go-mail"
)

// ErrNotConfigured is returned when SMTP settings are missing.
var ErrNotConfigured = errors.New("email delivery is not configured")

// Settings configures the mail client.
type Settings struct {
	Host       string
	Port       int
	Username   string
	Password   string
	From       string
	DefaultBCC string
	Timeout    time.Duration
}

// InvoiceMarker records that an invoice went out.
type InvoiceMarker interface {
	MarkSent(ctx context.Context, id uuid.UUID, sentAt time.Time) error
}

// Sender is the transport; *mail.Client satisfies it.
type Sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
	Close() error
}

// Recipients is the deduplicated address set for one delivery.
type Recipients struct {
	To  []string
	Cc  []string
	Bcc []string
}

// All returns every address in To, Cc, Bcc order.
func (r Recipients) All() []string {
	all := make([]string, 0, len(r.To)+len(r.Cc)+len(r.Bcc))
	all = append(all, r.To...)
	all = append(all, r.Cc...)
	return append(all, r.Bcc...)
}

// Mailer sends invoice documents and marks invoices sent.
type Mailer struct {
	sender   Sender
	settings Settings
	invoices InvoiceMarker
	now      func() time.Time
	logger   zerolog.Logger
}

// NewMailer builds the SMTP client once. With no host configured it returns a
// Mailer whose deliveries fail with ErrDeliveryFailure.
func NewMailer(settings Settings, invoices InvoiceMarker, logger zerolog.Logger) (*Mailer, error) {
	m := &Mailer{settings: settings, invoices: invoices, now: time.Now, logger: logger}
	if settings.Host == "" || settings.From == "" {
		return m, nil
	}

	opts := []mail.Option{
		mail.WithPort(settings.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if settings.Timeout > 0 {
		opts = append(opts, mail.WithTimeout(settings.Timeout))
	}
	if settings.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(settings.Username),
			mail.WithPassword(settings.Password),
		)
	}

	client, err := mail.NewClient(settings.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create mail client: %w", err)
	}
	m.sender = client
	return m, nil
}

// NewMailerWithSender wires an existing transport.
func NewMailerWithSender(sender Sender, settings Settings, invoices InvoiceMarker, logger zerolog.Logger) *Mailer {
	return &Mailer{sender: sender, settings: settings, invoices: invoices, now: time.Now, logger: logger}
}

// Configured reports whether deliveries can be attempted.
func (m *Mailer) Configured() bool {
	return m.sender != nil
}

// Close releases the transport.
func (m *Mailer) Close() error {
	if m.sender == nil {
		return nil
	}
	return m.sender.Close()
}

// RecipientsFor builds To/Cc/Bcc from the firm, extra addresses and the
// default BCC. Each address appears once across all lists, compared case-insensitively.
func RecipientsFor(firm *models.Firm, extra []string, defaultBCC string) Recipients {
	seen := make(map[string]bool)
	add := func(list []string, addrs ...string) []string {
		for _, addr := range addrs {
			addr = strings.TrimSpace(addr)
			key := strings.ToLower(addr)
			if addr == "" || seen[key] {
				continue
			}
			seen[key] = true
			list = append(list, addr)
		}
		return list
	}

	var r Recipients
	r.To = add(r.To, firm.Email)
	r.Cc = add(r.Cc, firm.CCEmails...)
	r.Cc = add(r.Cc, extra...)
	r.Bcc = add(r.Bcc, firm.BCCEmails...)
	if firm.IncludeDefaultBCC {
		r.Bcc = add(r.Bcc, defaultBCC)
	}
	return r
}

// Deliver emails doc to the firm and, once the transport accepts it, marks
// the invoice sent. Callers never set the sent status themselves.
func (m *Mailer) Deliver(ctx context.Context, invoice *models.Invoice, firm *models.Firm, doc *documents.Document, extra []string) error {
	op := "deliver invoice " + invoice.InvoiceNumber
	if m.sender == nil {
		return common.Wrap(op, common.ErrDeliveryFailure, ErrNotConfigured)
	}

	recipients := RecipientsFor(firm, extra, m.settings.DefaultBCC)
	if len(recipients.To) == 0 {
		return common.Wrap(op, common.ErrDeliveryFailure, fmt.Errorf("firm %s has no email address", firm.ID))
	}

	msg, err := m.buildMessage(invoice, firm, doc, recipients)
	if err != nil {
		return common.Wrap(op, common.ErrDeliveryFailure, err)
	}

	if err := m.sender.DialAndSendWithContext(ctx, msg); err != nil {
		return common.Wrap(op, common.ErrDeliveryFailure, err)
	}

	if err := m.invoices.MarkSent(ctx, invoice.ID, m.now()); err != nil {
		return fmt.Errorf("invoice %s was emailed but could not be marked sent: %w", invoice.InvoiceNumber, err)
	}

	m.logger.Info().
		Str("invoice_number", invoice.InvoiceNumber).
		Str("firm_id", firm.ID.String()).
		Int("recipients", len(recipients.All())).
		Msg("invoice delivered")
	return nil
}

func (m *Mailer) buildMessage(invoice *models.Invoice, firm *models.Firm, doc *documents.Document, r Recipients) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(m.settings.From); err != nil {
		return nil, fmt.Errorf("invalid from address: %w", err)
	}
	if err := msg.To(r.To...); err != nil {
		return nil, fmt.Errorf("invalid to address: %w", err)
	}
	if len(r.Cc) > 0 {
		if err := msg.Cc(r.Cc...); err != nil {
			return nil, fmt.Errorf("invalid cc address: %w", err)
		}
	}
	if len(r.Bcc) > 0 {
		if err := msg.Bcc(r.Bcc...); err != nil {
			return nil, fmt.Errorf("invalid bcc address: %w", err)
		}
	}

	msg.Subject(fmt.Sprintf("Invoice %s", invoice.InvoiceNumber))
	msg.SetBodyString(mail.TypeTextPlain, messageBody(invoice, firm))
	if err := msg.AttachReader(doc.Filename, bytes.NewReader(doc.Content)); err != nil {
		return nil, fmt.Errorf("failed to attach %s: %w", doc.Filename, err)
	}
	return msg, nil
}

func messageBody(invoice *models.Invoice, firm *models.Firm) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n", firm.Name)
	fmt.Fprintf(&b, "Please find attached invoice %s for %s.\n", invoice.InvoiceNumber, invoice.Total.StringFixed(2))
	fmt.Fprintf(&b, "Payment is due by %s.\n\n", invoice.DueDate.Format("02 Jan 2006"))
	b.WriteString("Kind regards,\nAccounts\n")
	return b.String()
}
