package textsignals

import (
	"regexp"
	"strconv"
	"strings"
)

// Amount patterns are ordered by precedence: currency-prefixed amounts win over
// generic numerics so random numbers in the text don't get picked up as money.
var amountPatterns = []*regexp.Regexp{
	regexp.MustCompile(`₹\s*([\d,]+(?:\.\d{1,2})?)`),
	regexp.MustCompile(`(?i)\b(?:rs\.?|inr)\s*([\d,]+(?:\.\d{1,2})?)`),
	regexp.MustCompile(`(?i)(?:amount|amt|total|paid)\s*[:\-]?\s*(?:₹|rs\.?|inr)?\s*([\d,]+(?:\.\d{1,2})?)`),
}

// Reference patterns: prefixed UTR/UPI/transaction ids take precedence over the
// bare 12-16 digit fallback, which would otherwise match phone numbers.
var refPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)utr\s*(?:no\.?|number|id)?\s*[:\-]?\s*([A-Z0-9]{10,22})`),
	regexp.MustCompile(`(?i)upi\s*(?:ref\.?|transaction)?\s*(?:no\.?|id)?\s*[:\-]?\s*(\d{12})`),
	regexp.MustCompile(`(?i)(?:transaction|txn|trans)\s*(?:id|no\.?|ref\.?|#)?\s*[:\-]?\s*([A-Za-z0-9]{8,25})`),
	regexp.MustCompile(`(?i)ref(?:erence)?\s*(?:id|no\.?|#)?\s*[:\-]?\s*([A-Za-z0-9]{8,25})`),
	regexp.MustCompile(`\b(\d{12,16})\b`),
}

var datePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})\b`),
	regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2})\b`),
	regexp.MustCompile(`(?i)\b(\d{1,2}\s+(?:jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\s+\d{4})\b`),
}

var statusKeywords = []string{
	"PAID", "SUCCESS", "SUCCESSFUL", "COMPLETED", "CREDITED",
	"RECEIVED", "TRANSFERRED", "SENT", "DONE",
}

var paymentMethodKeywords = []string{
	"UPI", "NEFT", "IMPS", "RTGS", "GPAY", "GOOGLE PAY", "PHONEPE",
	"PAYTM", "BHIM", "NET BANKING", "NETBANKING", "BANK TRANSFER",
}

var bankNames = []string{
	"STATE BANK", "SBI", "HDFC", "ICICI", "AXIS", "KOTAK",
	"PUNJAB NATIONAL", "PNB", "CANARA", "BANK OF BARODA", "UNION BANK",
	"IDBI", "YES BANK", "INDUSIND", "FEDERAL BANK", "BANK OF INDIA",
	"INDIAN BANK", "CENTRAL BANK",
}

// platformChecks are evaluated in priority order; first match wins.
var platformChecks = []struct {
	needles  []string
	platform string
}{
	{[]string{"mygate"}, "MyGate"},
	{[]string{"nobroker"}, "NoBroker"},
	{[]string{"adda"}, "Adda"},
	{[]string{"google pay", "gpay", "g pay"}, "Google Pay"},
	{[]string{"phonepe", "phone pe"}, "PhonePe"},
	{[]string{"paytm"}, "Paytm"},
	{[]string{"bhim"}, "BHIM"},
}

// Detect extracts payment indicators from raw receipt text. It is pure and
// deterministic; empty text yields an empty PaymentSignals.
func Detect(text string) PaymentSignals {
	signals := PaymentSignals{}
	if text == "" {
		return signals
	}

	upper := strings.ToUpper(text)
	lower := strings.ToLower(text)

	for _, pattern := range amountPatterns {
		if m := pattern.FindStringSubmatch(text); m != nil {
			if amount, err := parseAmount(m[1]); err == nil {
				signals.HasAmount = true
				signals.Amount = &amount
				break
			}
		}
	}

	for _, pattern := range refPatterns {
		if m := pattern.FindStringSubmatch(text); m != nil {
			ref := m[1]
			signals.HasTransactionRef = true
			signals.TransactionRef = &ref
			break
		}
	}

	for _, pattern := range datePatterns {
		if m := pattern.FindStringSubmatch(text); m != nil {
			date := m[1]
			signals.HasDate = true
			signals.Date = &date
			break
		}
	}

	for _, keyword := range statusKeywords {
		if strings.Contains(upper, keyword) {
			signals.HasStatusKeyword = true
			break
		}
	}

	for _, keyword := range paymentMethodKeywords {
		if strings.Contains(upper, keyword) {
			signals.HasPaymentMethod = true
			break
		}
	}

	for _, bank := range bankNames {
		if strings.Contains(upper, bank) {
			signals.HasBankName = true
			break
		}
	}

	signals.PaymentType = inferPaymentType(upper)
	signals.Platform = inferPlatform(lower, signals.HasBankName)

	return signals
}

func parseAmount(raw string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
}

func inferPaymentType(upper string) PaymentType {
	switch {
	case strings.Contains(upper, "UPI"),
		strings.Contains(upper, "GPAY"),
		strings.Contains(upper, "GOOGLE PAY"),
		strings.Contains(upper, "PHONEPE"),
		strings.Contains(upper, "PAYTM"),
		strings.Contains(upper, "BHIM"):
		return PaymentTypeUPI
	case strings.Contains(upper, "NEFT"):
		return PaymentTypeNEFT
	case strings.Contains(upper, "IMPS"):
		return PaymentTypeIMPS
	case strings.Contains(upper, "RTGS"):
		return PaymentTypeRTGS
	case strings.Contains(upper, "BANK TRANSFER"),
		strings.Contains(upper, "NET BANKING"),
		strings.Contains(upper, "NETBANKING"):
		return PaymentTypeBankTransfer
	default:
		return ""
	}
}

func inferPlatform(lower string, hasBank bool) string {
	for _, check := range platformChecks {
		for _, needle := range check.needles {
			if strings.Contains(lower, needle) {
				return check.platform
			}
		}
	}
	if hasBank {
		return "Bank"
	}
	return ""
}
