package documents

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

func renderPDF(data InvoiceData) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	marginX := 20.0
	marginY := 20.0
	pdf.SetMargins(marginX, marginY, marginX)
	pdf.SetAutoPageBreak(true, marginY)

	// Issuer header
	pdf.SetFont("Arial", "B", 16)
	pdf.SetTextColor(33, 37, 41)
	pdf.SetXY(marginX, marginY)
	pdf.Cell(0, 10, tr(data.Issuer.Name))
	pdf.Ln(8)
	pdf.SetFont("Arial", "", 9)
	if data.Issuer.Address != "" {
		pdf.MultiCell(0, 5, tr(data.Issuer.Address), "", "L", false)
	}
	if data.Issuer.Email != "" {
		pdf.Cell(0, 5, data.Issuer.Email)
		pdf.Ln(5)
	}
	pdf.Ln(6)

	pdf.SetFont("Arial", "B", 14)
	pdf.Cell(0, 10, "INVOICE")
	pdf.Ln(10)

	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Invoice Number: %s", data.InvoiceNumber))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Invoice Date: %s", formatDate(data.IssueDate)))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Due Date: %s", formatDate(data.DueDate)))
	pdf.Ln(10)

	pdf.SetFont("Arial", "B", 11)
	pdf.Cell(0, 8, "BILL TO:")
	pdf.Ln(6)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, tr(data.FirmName))
	pdf.Ln(6)
	if data.BillingAddress != "" {
		pdf.MultiCell(0, 6, tr(data.BillingAddress), "", "L", false)
	}
	pdf.Cell(0, 6, data.FirmEmail)
	pdf.Ln(10)

	// Line items
	headers := []string{"Description", "Users", "Price per user", "Amount"}
	colWidths := []float64{80, 20, 35, 35}

	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(240, 240, 240)
	for i, header := range headers {
		pdf.CellFormat(colWidths[i], 8, header, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(8)

	pdf.SetFont("Arial", "", 10)
	description := fmt.Sprintf("%s plan", data.PlanLabel)
	if data.Duration != "" {
		description += fmt.Sprintf(" (%s)", data.Duration)
	}
	pdf.CellFormat(colWidths[0], 8, tr(description), "1", 0, "L", false, 0, "")
	pdf.CellFormat(colWidths[1], 8, fmt.Sprintf("%d", data.NumUsers), "1", 0, "C", false, 0, "")
	pdf.CellFormat(colWidths[2], 8, data.BaseAmount, "1", 0, "R", false, 0, "")
	pdf.CellFormat(colWidths[3], 8, data.Amounts.Subtotal.StringFixed(2), "1", 0, "R", false, 0, "")
	pdf.Ln(13)

	// Totals
	totals := []struct {
		label string
		value string
		bold  bool
	}{
		{"Subtotal:", data.Amounts.Subtotal.StringFixed(2), false},
		{"Levy A (2.5%):", data.Amounts.FeeA.StringFixed(2), false},
		{"Levy B (2.5%):", data.Amounts.FeeB.StringFixed(2), false},
		{"VAT (15%):", data.Amounts.Tax.StringFixed(2), false},
		{"Total:", data.Amounts.Total.StringFixed(2), true},
	}
	for _, row := range totals {
		style := ""
		if row.bold {
			style = "B"
		}
		pdf.SetFont("Arial", style, 10)
		pdf.CellFormat(135, 6, row.label, "", 0, "R", false, 0, "")
		pdf.CellFormat(35, 6, row.value, "", 0, "R", false, 0, "")
		pdf.Ln(6)
	}

	if data.Issuer.BankDetails != "" {
		pdf.Ln(8)
		pdf.SetFont("Arial", "B", 10)
		pdf.Cell(0, 6, "Payment details")
		pdf.Ln(6)
		pdf.SetFont("Arial", "", 9)
		pdf.MultiCell(0, 5, tr(data.Issuer.BankDetails), "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to write pdf: %w", err)
	}
	return buf.Bytes(), nil
}
