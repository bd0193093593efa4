package models

// TransactionEvent is an immutable fact about money movement, created once
// per payment-gateway webhook notification. All settlements derived from the
// event reference it by ID.
type TransactionEvent struct {
	// ID is the unique identifier for the event (UUID format).
	ID string

	// TransactionID groups the approval and its cancels under one
	// logical payment.
	TransactionID string

	// EventType is APPROVAL, CANCEL or PARTIAL_CANCEL.
	EventType EventType

	// MerchantID identifies the merchant the money moved through.
	MerchantID string

	// MerchantPath is the dot-delimited ancestor chain of the merchant's
	// vendor organization, root first (e.g. "dist1.agency2.dealer3.seller4.vendor5").
	MerchantPath string

	// PaymentMethod is the gateway payment method code (e.g. "CARD").
	PaymentMethod string

	// Amount is the signed amount in the smallest currency unit.
	// Positive for approvals; cancels arrive negative. Settlement rows
	// derived from the event store unsigned magnitudes.
	Amount int64

	// Currency is the ISO 4217 code (e.g. "KRW").
	Currency string

	// PgTID and OTID form the gateway idempotency key pair for the
	// notification that produced this event.
	PgTID string
	OTID  string

	// OccurredAt is the Unix timestamp of the event at the gateway.
	OccurredAt int64

	// CreatedAt is the Unix timestamp when the event was recorded here.
	CreatedAt int64
}

// AbsAmount returns the unsigned magnitude of the event amount.
func (e *TransactionEvent) AbsAmount() int64 {
	if e.Amount < 0 {
		return -e.Amount
	}
	return e.Amount
}

// Entry returns the settlement entry direction implied by the event sign.
func (e *TransactionEvent) Entry() EntryType {
	if e.Amount < 0 {
		return EntryDebit
	}
	return EntryCredit
}
