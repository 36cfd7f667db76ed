package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// LedgerReason describes why a customer's credit balance changed.
type LedgerReason string

const (
	LedgerReasonDownload   LedgerReason = "download"
	LedgerReasonPlanGrant  LedgerReason = "plan_grant"
	LedgerReasonAdjustment LedgerReason = "adjustment"
)

// LedgerEntry is one credit balance mutation.
type LedgerEntry struct {
	ID           uuid.UUID
	CustomerID   uuid.UUID
	Delta        int
	BalanceAfter int
	Reason       LedgerReason
	Reference    string
	CreatedAt    time.Time
}

// InvoiceReference is the ledger reference for credits granted by an invoice.
// The ledger enforces one entry per reference.
func InvoiceReference(invoiceID string) string {
	return fmt.Sprintf("invoice:%s", invoiceID)
}

// DownloadReference is the ledger reference for a sample download.
func DownloadReference(sampleID uuid.UUID, at time.Time) string {
	return fmt.Sprintf("download:%s:%d", sampleID, at.UnixNano())
}
