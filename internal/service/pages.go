package service

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/dmayman/shopify-notion-sync/internal/client/notion"
	"github.com/dmayman/shopify-notion-sync/internal/transform"
)

// parentProperties builds the page payload carrying the order's aggregate
// fields. Net earning and payout are presentation arithmetic on normalized
// fields and are computed here, not in the transformer.
func parentProperties(o transform.Order) notion.Properties {
	productName := ""
	sku := ""
	if o.MultiItem() {
		productName = fmt.Sprintf("%d products", len(o.LineItems))
	} else if len(o.LineItems) > 0 {
		productName = o.LineItems[0].ProductName
		sku = o.LineItems[0].SKU
	}

	props := notion.Properties{
		"Order ID":       notion.Title(o.OrderID),
		"Product name":   notion.RichText(productName),
		"Listed for":     notion.Number(o.TotalListed),
		"Sold for":       notion.Number(o.TotalSold),
		"Tax":            notion.Number(o.TotalTax),
		"Fee":            notion.Number(o.TotalFees),
		"Net earning":    notion.Number(o.TotalSold.Sub(o.TotalFees)),
		"To payouts":     notion.Number(o.TotalSold.Add(o.TotalTax).Sub(o.TotalFees)),
		"Status":         notion.Select(o.PaymentStatus),
		"Payment method": notion.Select(o.PaymentMethod),
	}
	if !o.OrderDate.IsZero() {
		props["Date"] = notion.Date(o.OrderDate)
	}
	if o.CustomerName != "" {
		props["Customer name"] = notion.RichText(o.CustomerName)
	}
	if o.CustomerEmail != "" {
		props["Customer Email"] = notion.Email(o.CustomerEmail)
	}
	if sku != "" {
		props["SKU"] = notion.RichText(sku)
	}
	if o.AdminURL != "" {
		props["Shopify URL"] = notion.URL(o.AdminURL)
	}
	return props
}

// childProperties builds one line item page. Tax and fee apply only at the
// parent level, so children carry zero for both.
func childProperties(o transform.Order, item transform.LineItem, position int, parentID string) notion.Properties {
	props := notion.Properties{
		"Order ID":     notion.Title(fmt.Sprintf("%s.%d", o.OrderID, position)),
		"Product name": notion.RichText(item.ProductName),
		"Listed for":   notion.Number(item.ListedFor),
		"Sold for":     notion.Number(item.SoldFor),
		"Tax":          notion.Number(decimal.Zero),
		"Fee":          notion.Number(decimal.Zero),
		"Net earning":  notion.Number(item.SoldFor),
		"To payouts":   notion.Number(item.SoldFor),
		"Parent item":  notion.Relation(parentID),
	}
	if item.SKU != "" {
		props["SKU"] = notion.RichText(item.SKU)
	}
	return props
}
