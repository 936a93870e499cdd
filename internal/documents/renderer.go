// Package documents renders invoices as PDF or DOCX.
package documents

import (
	"fmt"
	"time"

	"firmbill/internal/billing"
	"firmbill/internal/common"
	"firmbill/internal/models"
)

// Kind selects the document backend.
type Kind string

const (
	KindPDF  Kind = "pdf"
	KindDOCX Kind = "docx"
)

// ParseKind accepts "pdf" or "docx"
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindPDF, KindDOCX:
		return Kind(s), nil
	}
	return "", common.Validation("kind", "must be pdf or docx")
}

// Document is a rendered invoice ready to attach or store.
type Document struct {
	Content     []byte
	Filename    string
	ContentType string
}

// Issuer is the billing party printed in the header.
type Issuer struct {
	Name        string
	Address     string
	Email       string
	BankDetails string
}

// InvoiceData is everything a template needs.
type InvoiceData struct {
	Issuer         Issuer
	InvoiceNumber  string
	IssueDate      time.Time
	DueDate        time.Time
	FirmName       string
	BillingAddress string
	FirmEmail      string
	PlanLabel      string
	Duration       string
	NumUsers       int
	BaseAmount     string
	Amounts        billing.Amounts
}

// NewInvoiceData assembles render input from an invoice and its firm.
func NewInvoiceData(issuer Issuer, invoice *models.Invoice, firm *models.Firm) InvoiceData {
	return InvoiceData{
		Issuer:         issuer,
		InvoiceNumber:  invoice.InvoiceNumber,
		IssueDate:      invoice.IssueDate,
		DueDate:        invoice.DueDate,
		FirmName:       firm.Name,
		BillingAddress: firm.BillingAddress,
		FirmEmail:      firm.Email,
		PlanLabel:      invoice.PlanType.Label(),
		Duration:       invoice.Duration,
		NumUsers:       invoice.NumUsers,
		BaseAmount:     invoice.BaseAmount.StringFixed(2),
		Amounts: billing.Amounts{
			Subtotal: invoice.Subtotal,
			FeeA:     invoice.FeeA,
			FeeB:     invoice.FeeB,
			Tax:      invoice.Tax,
			Total:    invoice.Total,
		},
	}
}

// Renderer produces invoice documents.
type Renderer struct {
	docxTemplate []byte
}

// NewRenderer returns a Renderer. docxTemplate is an optional .docx whose
// word/document.xml is executed as a Go template; nil uses the built-in layout.
func NewRenderer(docxTemplate []byte) *Renderer {
	return &Renderer{docxTemplate: docxTemplate}
}

// Render draws data with the chosen backend.
func (r *Renderer) Render(kind Kind, data InvoiceData) (*Document, error) {
	var (
		content     []byte
		contentType string
		err         error
	)
	switch kind {
	case KindPDF:
		content, err = renderPDF(data)
		contentType = "application/pdf"
	case KindDOCX:
		content, err = renderDOCX(r.docxTemplate, data)
		contentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	default:
		return nil, common.Wrap("render invoice", common.ErrRenderFailure, fmt.Errorf("unknown document kind %q", kind))
	}
	if err != nil {
		return nil, common.Wrap("render "+string(kind)+" "+data.InvoiceNumber, common.ErrRenderFailure, err)
	}

	return &Document{
		Content:     content,
		Filename:    fmt.Sprintf("%s.%s", data.InvoiceNumber, kind),
		ContentType: contentType,
	}, nil
}

func formatDate(t time.Time) string {
	return t.Format("02 Jan 2006")
}
