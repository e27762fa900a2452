package transform

import (
	"strings"

	"github.com/dmayman/shopify-notion-sync/internal/client/shopify"
)

const unknownLabel = "Unknown"

// financialStatusLabels maps Shopify displayFinancialStatus values to the
// labels written to Notion.
var financialStatusLabels = map[string]string{
	"PAID":               "Paid",
	"PENDING":            "Pending",
	"AUTHORIZED":         "Authorized",
	"EXPIRED":            "Expired",
	"PARTIALLY_PAID":     "Partially Paid",
	"PARTIALLY_REFUNDED": "Partially Refunded",
	"REFUNDED":           "Refunded",
	"VOIDED":             "Voided",
}

// paymentMethodSynonyms collapses gateway-specific method names into one
// canonical label each.
var paymentMethodSynonyms = map[string]string{
	"shop_pay_installments": "Shop Pay Installments",
	"shop pay installments": "Shop Pay Installments",
	"installments":          "Shop Pay Installments",
	"card":                  "Card",
	"credit_card":           "Card",
}

// PaymentStatus classifies an order's payment state. The platform status
// string wins when it maps directly; otherwise the transactions are
// inspected, checking Voided, Partially Refunded, Refunded, Paid, and
// Pending in that order.
func PaymentStatus(financialStatus string, transactions []shopify.Transaction) string {
	if label, ok := financialStatusLabels[strings.ToUpper(strings.TrimSpace(financialStatus))]; ok {
		return label
	}
	if len(transactions) == 0 {
		return unknownLabel
	}

	var voided, refunded, paid, seen bool
	for _, txn := range transactions {
		kind := strings.ToUpper(txn.Kind)
		status := strings.ToUpper(txn.Status)
		seen = true
		if status != "SUCCESS" {
			continue
		}
		switch kind {
		case "VOID":
			voided = true
		case "REFUND":
			refunded = true
		case "SALE", "CAPTURE":
			paid = true
		}
	}

	switch {
	case voided:
		return "Voided"
	case refunded && paid:
		return "Partially Refunded"
	case refunded:
		return "Refunded"
	case paid:
		return "Paid"
	case seen:
		return "Pending"
	default:
		return unknownLabel
	}
}

// PaymentMethod derives a payment method label: the first transaction with a
// named method wins, then the first named gateway, then Unknown.
func PaymentMethod(transactions []shopify.Transaction) string {
	for _, txn := range transactions {
		if txn.PaymentDetails == nil {
			continue
		}
		name := strings.TrimSpace(txn.PaymentDetails.PaymentMethodName)
		if name == "" {
			continue
		}
		if label, ok := paymentMethodSynonyms[strings.ToLower(name)]; ok {
			return label
		}
		return titleCase(name)
	}
	for _, txn := range transactions {
		gateway := strings.TrimSpace(txn.Gateway)
		if gateway != "" {
			return titleCase(gateway)
		}
	}
	return unknownLabel
}

// titleCase capitalizes each word, treating underscores and dashes as word
// separators.
func titleCase(raw string) string {
	words := strings.FieldsFunc(strings.ToLower(raw), func(r rune) bool {
		return r == ' ' || r == '_' || r == '-'
	})
	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}
