package delivery

import (
	"context"
	"errors"
	"testing"
	"time"

	"firmbill/internal/common"
	"firmbill/internal/documents"
	"firmbill/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"
)

type fakeSender struct {
	sent []*mail.Msg
	err  error
}

func (f *fakeSender) DialAndSendWithContext(_ context.Context, messages ...*mail.Msg) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, messages...)
	return nil
}

func (f *fakeSender) Close() error { return nil }

type MockInvoiceMarker struct {
	mock.Mock
}

func (m *MockInvoiceMarker) MarkSent(ctx context.Context, id uuid.UUID, sentAt time.Time) error {
	args := m.Called(ctx, id, sentAt)
	return args.Error(0)
}

func testFirm() *models.Firm {
	return &models.Firm{
		ID:                uuid.New(),
		Name:              "Hart & Vale",
		Email:             "billing@hartvale.test",
		CCEmails:          []string{"partner@hartvale.test", "Billing@HartVale.test"},
		BCCEmails:         []string{"audit@hartvale.test"},
		IncludeDefaultBCC: true,
	}
}

func testInvoice() *models.Invoice {
	return &models.Invoice{
		ID:            uuid.New(),
		InvoiceNumber: "INV-2026-0001",
		Total:         decimal.RequireFromString("2400"),
		DueDate:       time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}
}

func testDocument() *documents.Document {
	return &documents.Document{Content: []byte("%PDF-1.3"), Filename: "INV-2026-0001.pdf", ContentType: "application/pdf"}
}

func TestRecipientsFor_DedupesAcrossLists(t *testing.T) {
	r := RecipientsFor(testFirm(), []string{"partner@hartvale.test", "extra@client.test", " "}, "AUDIT@hartvale.test")

	assert.Equal(t, []string{"billing@hartvale.test"}, r.To)
	assert.Equal(t, []string{"partner@hartvale.test", "extra@client.test"}, r.Cc)
	assert.Equal(t, []string{"audit@hartvale.test"}, r.Bcc)
	assert.Len(t, r.All(), 4)
}

func TestRecipientsFor_DefaultBCCOnlyWhenEnabled(t *testing.T) {
	firm := testFirm()
	firm.IncludeDefaultBCC = false
	firm.BCCEmails = nil

	r := RecipientsFor(firm, nil, "office@firmbill.test")
	assert.Empty(t, r.Bcc)

	firm.IncludeDefaultBCC = true
	r = RecipientsFor(firm, nil, "office@firmbill.test")
	assert.Equal(t, []string{"office@firmbill.test"}, r.Bcc)
}

func TestDeliver_SendsAndMarksSent(t *testing.T) {
	sender := &fakeSender{}
	marker := new(MockInvoiceMarker)
	m := NewMailerWithSender(sender, Settings{From: "accounts@firmbill.test", DefaultBCC: "office@firmbill.test"}, marker, zerolog.Nop())
	sentAt := time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return sentAt }

	invoice := testInvoice()
	marker.On("MarkSent", mock.Anything, invoice.ID, sentAt).Return(nil)

	err := m.Deliver(context.Background(), invoice, testFirm(), testDocument(), nil)
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)

	rcpts, err := sender.sent[0].GetRecipients()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		"billing@hartvale.test", "partner@hartvale.test", "audit@hartvale.test", "office@firmbill.test",
	}, rcpts)
	assert.Equal(t, []string{"Invoice INV-2026-0001"}, sender.sent[0].GetGenHeader(mail.HeaderSubject))
	marker.AssertExpectations(t)
}

func TestDeliver_TransportFailureDoesNotMarkSent(t *testing.T) {
	sender := &fakeSender{err: errors.New("connection refused")}
	marker := new(MockInvoiceMarker)
	m := NewMailerWithSender(sender, Settings{From: "accounts@firmbill.test"}, marker, zerolog.Nop())

	err := m.Deliver(context.Background(), testInvoice(), testFirm(), testDocument(), nil)
	assert.ErrorIs(t, err, common.ErrDeliveryFailure)
	marker.AssertNotCalled(t, "MarkSent", mock.Anything, mock.Anything, mock.Anything)
}

func TestDeliver_NotConfigured(t *testing.T) {
	marker := new(MockInvoiceMarker)
	m, err := NewMailer(Settings{}, marker, zerolog.Nop())
	require.NoError(t, err)
	assert.False(t, m.Configured())

	err = m.Deliver(context.Background(), testInvoice(), testFirm(), testDocument(), nil)
	assert.ErrorIs(t, err, common.ErrDeliveryFailure)
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestDeliver_FirmWithoutEmail(t *testing.T) {
	marker := new(MockInvoiceMarker)
	m := NewMailerWithSender(&fakeSender{}, Settings{From: "accounts@firmbill.test"}, marker, zerolog.Nop())
	firm := testFirm()
	firm.Email = ""
	firm.CCEmails = nil

	err := m.Deliver(context.Background(), testInvoice(), firm, testDocument(), nil)
	assert.ErrorIs(t, err, common.ErrDeliveryFailure)
}
