package config

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
)

// InvoicingConfig represents the invoicing TOML file
type InvoicingConfig struct {
	Numbering NumberingConfig `toml:"numbering"`
	Terms     TermsConfig     `toml:"terms"`
	Batch     BatchConfig     `toml:"batch"`
	Issuer    IssuerConfig    `toml:"issuer"`
	Documents DocumentsConfig `toml:"documents"`
}

// NumberingConfig controls invoice number formatting
type NumberingConfig struct {
	Prefix string `toml:"prefix"`
}

// TermsConfig contains payment and scheduling terms
type TermsConfig struct {
	DefaultDueDays   int `toml:"default_due_days"`
	ScheduleLeadDays int `toml:"schedule_lead_days"`
}

// BatchConfig controls the daily scheduled-invoice run
type BatchConfig struct {
	RunAt        string `toml:"run_at"`
	Timezone     string `toml:"timezone"`
	DocumentKind string `toml:"document_kind"`
}

// IssuerConfig is printed on every invoice
type IssuerConfig struct {
	Name        string `toml:"name"`
	Address     string `toml:"address"`
	Email       string `toml:"email"`
	BankDetails string `toml:"bank_details"`
}

// DocumentsConfig points at optional document templates
type DocumentsConfig struct {
	DocxTemplate string `toml:"docx_template"`
}

// DefaultInvoicingConfig returns the settings used when no file is given
func DefaultInvoicingConfig() *InvoicingConfig {
	return &InvoicingConfig{
		Numbering: NumberingConfig{Prefix: "INV"},
		Terms:     TermsConfig{DefaultDueDays: 30, ScheduleLeadDays: 30},
		Batch:     BatchConfig{RunAt: "06:00", Timezone: "UTC", DocumentKind: "pdf"},
		Issuer:    IssuerConfig{Name: "Firmbill"},
	}
}

// LoadInvoicingConfig loads configuration from a TOML file on top of the defaults
func LoadInvoicingConfig(filename string) (*InvoicingConfig, error) {
	config := DefaultInvoicingConfig()
	if _, err := toml.DecodeFile(filename, config); err != nil {
		return nil, fmt.Errorf("failed to load invoicing config file: %w", err)
	}
	return config, nil
}

// Validate checks the values that would otherwise fail at runtime
func (c *InvoicingConfig) Validate() error {
	if c.Numbering.Prefix == "" {
		return fmt.Errorf("numbering.prefix is required")
	}
	if c.Terms.DefaultDueDays < 0 || c.Terms.ScheduleLeadDays < 0 {
		return fmt.Errorf("terms must not be negative")
	}
	if _, _, err := c.RunAtClock(); err != nil {
		return err
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	switch c.Batch.DocumentKind {
	case "pdf", "docx":
	default:
		return fmt.Errorf("batch.document_kind must be pdf or docx, got %q", c.Batch.DocumentKind)
	}
	return nil
}

// RunAtClock parses batch.run_at as HH:MM
func (c *InvoicingConfig) RunAtClock() (hour, minute uint, err error) {
	t, err := time.Parse("15:04", c.Batch.RunAt)
	if err != nil {
		return 0, 0, fmt.Errorf("batch.run_at must be HH:MM, got %q", c.Batch.RunAt)
	}
	return uint(t.Hour()), uint(t.Minute()), nil
}

// Location resolves batch.timezone
func (c *InvoicingConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Batch.Timezone)
	if err != nil {
		return nil, fmt.Errorf("batch.timezone: %w", err)
	}
	return loc, nil
}
