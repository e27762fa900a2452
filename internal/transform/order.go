// Package transform converts raw Shopify orders into the normalized
// representation the sync writes to Notion. Everything here is deterministic
// and free of I/O; missing or unparseable nested fields degrade to zero
// values instead of failing the order.
package transform

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dmayman/shopify-notion-sync/internal/client/shopify"
)

const defaultVariantTitle = "Default Title"

type LineItem struct {
	ProductName string
	SKU         string
	ListedFor   decimal.Decimal
	SoldFor     decimal.Decimal
	Quantity    int
}

type Order struct {
	OrderID       string
	OrderDate     time.Time
	UpdatedAt     time.Time
	CustomerName  string
	CustomerEmail string
	AdminURL      string
	TotalTax      decimal.Decimal
	TotalFees     decimal.Decimal
	TotalListed   decimal.Decimal
	TotalSold     decimal.Decimal
	PaymentStatus string
	PaymentMethod string
	LineItems     []LineItem
}

// MultiItem reports whether the order needs child pages per line item.
func (o Order) MultiItem() bool {
	return len(o.LineItems) > 1
}

// FromShopify normalizes one raw order. storeHandle feeds the derived admin
// URL and may be empty, in which case no URL is produced.
func FromShopify(raw shopify.Order, storeHandle string) Order {
	out := Order{
		OrderID:       raw.Name,
		OrderDate:     raw.CreatedAt,
		UpdatedAt:     raw.UpdatedAt,
		CustomerEmail: raw.Email,
		TotalTax:      safeAmount(raw.TotalTaxSet),
		TotalFees:     totalFees(raw.Transactions),
		PaymentStatus: PaymentStatus(raw.DisplayFinancialStatus, raw.Transactions),
		PaymentMethod: PaymentMethod(raw.Transactions),
	}
	if raw.Customer != nil {
		out.CustomerName = raw.Customer.DisplayName
	}
	if storeHandle != "" && raw.LegacyResourceID != "" {
		out.AdminURL = fmt.Sprintf("https://admin.shopify.com/store/%s/orders/%s", storeHandle, raw.LegacyResourceID)
	}

	for _, edge := range raw.LineItems.Edges {
		item := edge.Node
		quantity := item.Quantity
		if quantity < 1 {
			quantity = 1
		}
		qty := decimal.NewFromInt(int64(quantity))
		listed := safeAmount(item.OriginalUnitPriceSet).Mul(qty)
		sold := safeAmount(item.DiscountedUnitPriceSet).Mul(qty)

		out.LineItems = append(out.LineItems, LineItem{
			ProductName: productName(item),
			SKU:         variantSKU(item.Variant),
			ListedFor:   listed,
			SoldFor:     sold,
			Quantity:    quantity,
		})
		out.TotalListed = out.TotalListed.Add(listed)
		out.TotalSold = out.TotalSold.Add(sold)
	}
	return out
}

func productName(item shopify.LineItem) string {
	if item.Variant != nil && item.Variant.Title != "" && item.Variant.Title != defaultVariantTitle {
		return item.Title + " – " + item.Variant.Title
	}
	return item.Title
}

func variantSKU(v *shopify.Variant) string {
	if v == nil {
		return ""
	}
	return v.SKU
}

// safeAmount extracts a money amount from a nullable price set, treating any
// missing or malformed value as zero.
func safeAmount(bag *shopify.MoneyBag) decimal.Decimal {
	if bag == nil || bag.PresentmentMoney == nil {
		return decimal.Zero
	}
	return parseAmount(bag.PresentmentMoney.Amount)
}

func parseAmount(raw string) decimal.Decimal {
	if raw == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// totalFees sums every fee amount across all transactions. Transactions
// without fees contribute zero.
func totalFees(transactions []shopify.Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, txn := range transactions {
		for _, fee := range txn.Fees {
			if fee.Amount == nil {
				continue
			}
			total = total.Add(parseAmount(fee.Amount.Amount))
		}
	}
	return total
}
