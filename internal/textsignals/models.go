package textsignals

// PaymentType is the inferred transfer rail for a receipt
type PaymentType string

const (
	PaymentTypeUPI          PaymentType = "UPI"
	PaymentTypeNEFT         PaymentType = "NEFT"
	PaymentTypeIMPS         PaymentType = "IMPS"
	PaymentTypeRTGS         PaymentType = "RTGS"
	PaymentTypeBankTransfer PaymentType = "BANK_TRANSFER"
)

// PaymentSignals holds the indicators detected in receipt text.
// Absence of a signal is represented by false/nil, never by an error.
type PaymentSignals struct {
	HasAmount         bool `json:"has_amount"`
	HasTransactionRef bool `json:"has_transaction_ref"`
	HasDate           bool `json:"has_date"`
	HasStatusKeyword  bool `json:"has_status_keyword"`
	HasPaymentMethod  bool `json:"has_payment_method"`
	HasBankName       bool `json:"has_bank_name"`

	Amount         *float64    `json:"amount,omitempty"`
	Date           *string     `json:"date,omitempty"`
	TransactionRef *string     `json:"transaction_ref,omitempty"`
	PaymentType    PaymentType `json:"payment_type,omitempty"`
	Platform       string      `json:"platform,omitempty"`
}
