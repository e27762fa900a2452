package shopify

import "time"

// Order is the raw order shape returned by the Admin GraphQL orders query.
// Nested money and variant structures are nullable; the transformer is
// responsible for tolerating missing values.
type Order struct {
	ID                     string        `json:"id"`
	LegacyResourceID       string        `json:"legacyResourceId"`
	Name                   string        `json:"name"`
	Email                  string        `json:"email"`
	CreatedAt              time.Time     `json:"createdAt"`
	UpdatedAt              time.Time     `json:"updatedAt"`
	DisplayFinancialStatus string        `json:"displayFinancialStatus"`
	Customer               *Customer     `json:"customer"`
	TotalTaxSet            *MoneyBag     `json:"totalTaxSet"`
	Transactions           []Transaction `json:"transactions"`
	LineItems              LineItemConn  `json:"lineItems"`
}

type Customer struct {
	DisplayName string `json:"displayName"`
}

type MoneyBag struct {
	PresentmentMoney *Money `json:"presentmentMoney"`
}

type Money struct {
	Amount       string `json:"amount"`
	CurrencyCode string `json:"currencyCode"`
}

type Transaction struct {
	Kind           string          `json:"kind"`
	Status         string          `json:"status"`
	Gateway        string          `json:"gateway"`
	PaymentDetails *PaymentDetails `json:"paymentDetails"`
	Fees           []Fee           `json:"fees"`
}

type PaymentDetails struct {
	PaymentMethodName string `json:"paymentMethodName"`
}

type Fee struct {
	Amount *Money `json:"amount"`
}

type LineItemConn struct {
	Edges []LineItemEdge `json:"edges"`
}

type LineItemEdge struct {
	Node LineItem `json:"node"`
}

type LineItem struct {
	ID                     string    `json:"id"`
	Title                  string    `json:"title"`
	Quantity               int       `json:"quantity"`
	Variant                *Variant  `json:"variant"`
	OriginalUnitPriceSet   *MoneyBag `json:"originalUnitPriceSet"`
	DiscountedUnitPriceSet *MoneyBag `json:"discountedUnitPriceSet"`
}

type Variant struct {
	Title string `json:"title"`
	SKU   string `json:"sku"`
}
