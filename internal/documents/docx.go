package documents

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
	"text/template"
	"time"

	"github.com/shopspring/decimal"
)

const documentPart = "word/document.xml"

var docxFuncs = template.FuncMap{
	"xml": func(s string) (string, error) {
		var b strings.Builder
		if err := xml.EscapeText(&b, []byte(s)); err != nil {
			return "", err
		}
		return b.String(), nil
	},
	"date":  func(t time.Time) string { return formatDate(t) },
	"money": func(d decimal.Decimal) string { return d.StringFixed(2) },
}

const contentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"><Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/><Default Extension="xml" ContentType="application/xml"/><Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/></Types>`

const relsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/></Relationships>`

const defaultDocumentXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>
<w:p><w:r><w:rPr><w:b/><w:sz w:val="32"/></w:rPr><w:t>{{xml .Issuer.Name}}</w:t></w:r></w:p>
{{- if .Issuer.Address}}<w:p><w:r><w:t>{{xml .Issuer.Address}}</w:t></w:r></w:p>{{end}}
<w:p><w:r><w:rPr><w:b/><w:sz w:val="28"/></w:rPr><w:t>INVOICE</w:t></w:r></w:p>
<w:p><w:r><w:t xml:space="preserve">Invoice Number: {{xml .InvoiceNumber}}</w:t></w:r></w:p>
<w:p><w:r><w:t xml:space="preserve">Invoice Date: {{date .IssueDate}}</w:t></w:r></w:p>
<w:p><w:r><w:t xml:space="preserve">Due Date: {{date .DueDate}}</w:t></w:r></w:p>
<w:p><w:r><w:rPr><w:b/></w:rPr><w:t>BILL TO:</w:t></w:r></w:p>
<w:p><w:r><w:t>{{xml .FirmName}}</w:t></w:r></w:p>
<w:p><w:r><w:t>{{xml .BillingAddress}}</w:t></w:r></w:p>
<w:p><w:r><w:t>{{xml .FirmEmail}}</w:t></w:r></w:p>
<w:p><w:r><w:t xml:space="preserve">{{xml .PlanLabel}} plan{{if .Duration}} ({{xml .Duration}}){{end}}: {{.NumUsers}} users x {{.BaseAmount}}</w:t></w:r></w:p>
<w:p><w:r><w:t xml:space="preserve">Subtotal: {{money .Amounts.Subtotal}}</w:t></w:r></w:p>
<w:p><w:r><w:t xml:space="preserve">Levy A (2.5%): {{money .Amounts.FeeA}}</w:t></w:r></w:p>
<w:p><w:r><w:t xml:space="preserve">Levy B (2.5%): {{money .Amounts.FeeB}}</w:t></w:r></w:p>
<w:p><w:r><w:t xml:space="preserve">VAT (15%): {{money .Amounts.Tax}}</w:t></w:r></w:p>
<w:p><w:r><w:rPr><w:b/></w:rPr><w:t xml:space="preserve">Total: {{money .Amounts.Total}}</w:t></w:r></w:p>
{{- if .Issuer.BankDetails}}<w:p><w:r><w:t xml:space="preserve">Payment details: {{xml .Issuer.BankDetails}}</w:t></w:r></w:p>{{end}}
<w:sectPr/></w:body></w:document>`

func renderDOCX(templateDocx []byte, data InvoiceData) ([]byte, error) {
	if len(templateDocx) == 0 {
		return buildDefaultDOCX(data)
	}
	return fillTemplateDOCX(templateDocx, data)
}

func executeDocumentXML(src string, data InvoiceData) ([]byte, error) {
	tmpl, err := template.New(documentPart).Funcs(docxFuncs).Option("missingkey=error").Parse(src)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", documentPart, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to execute %s: %w", documentPart, err)
	}
	return buf.Bytes(), nil
}

func buildDefaultDOCX(data InvoiceData) ([]byte, error) {
	body, err := executeDocumentXML(defaultDocumentXML, data)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	parts := []struct {
		name    string
		content []byte
	}{
		{"[Content_Types].xml", []byte(contentTypesXML)},
		{"_rels/.rels", []byte(relsXML)},
		{documentPart, body},
	}
	for _, part := range parts {
		w, err := zw.Create(part.name)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(part.content); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func fillTemplateDOCX(templateDocx []byte, data InvoiceData) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(templateDocx), int64(len(templateDocx)))
	if err != nil {
		return nil, fmt.Errorf("docx template is not a zip archive: %w", err)
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	found := false
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, err
		}

		if f.Name == documentPart {
			found = true
			if content, err = executeDocumentXML(string(content), data); err != nil {
				return nil, err
			}
		}

		w, err := zw.CreateHeader(&zip.FileHeader{Name: f.Name, Method: f.Method, Modified: f.Modified})
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(content); err != nil {
			return nil, err
		}
	}
	if !found {
		return nil, fmt.Errorf("docx template has no %s", documentPart)
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
