package transform

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dmayman/shopify-notion-sync/internal/client/shopify"
)

func money(amount string) *shopify.MoneyBag {
	return &shopify.MoneyBag{PresentmentMoney: &shopify.Money{Amount: amount, CurrencyCode: "USD"}}
}

func lineItem(title string, variant *shopify.Variant, listed, sold string, qty int) shopify.LineItemEdge {
	return shopify.LineItemEdge{Node: shopify.LineItem{
		Title:                  title,
		Quantity:               qty,
		Variant:                variant,
		OriginalUnitPriceSet:   money(listed),
		DiscountedUnitPriceSet: money(sold),
	}}
}

func TestFromShopify_MultiItemTotals(t *testing.T) {
	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	updated := created.Add(2 * time.Hour)
	raw := shopify.Order{
		Name:                   "#1001",
		LegacyResourceID:       "5550001",
		Email:                  "buyer@example.com",
		CreatedAt:              created,
		UpdatedAt:              updated,
		DisplayFinancialStatus: "PAID",
		Customer:               &shopify.Customer{DisplayName: "Jordan Lee"},
		TotalTaxSet:            money("3.50"),
		Transactions: []shopify.Transaction{
			{Kind: "SALE", Status: "SUCCESS", Gateway: "shopify_payments", Fees: []shopify.Fee{
				{Amount: &shopify.Money{Amount: "1.25"}},
			}},
		},
		LineItems: shopify.LineItemConn{Edges: []shopify.LineItemEdge{
			lineItem("Hoodie", &shopify.Variant{Title: "Large", SKU: "HD-L"}, "12.00", "10.00", 1),
			lineItem("Sticker Pack", nil, "22.00", "20.00", 1),
		}},
	}

	got := FromShopify(raw, "demo-handle")
	if !got.MultiItem() {
		t.Fatalf("MultiItem()=false want true")
	}
	if got.OrderID != "#1001" {
		t.Fatalf("OrderID=%q", got.OrderID)
	}
	if got.AdminURL != "https://admin.shopify.com/store/demo-handle/orders/5550001" {
		t.Fatalf("AdminURL=%q", got.AdminURL)
	}
	if got.CustomerName != "Jordan Lee" || got.CustomerEmail != "buyer@example.com" {
		t.Fatalf("customer=%q/%q", got.CustomerName, got.CustomerEmail)
	}
	if want := decimal.NewFromInt(34); !got.TotalListed.Equal(want) {
		t.Fatalf("TotalListed=%s want=%s", got.TotalListed, want)
	}
	if want := decimal.NewFromInt(30); !got.TotalSold.Equal(want) {
		t.Fatalf("TotalSold=%s want=%s", got.TotalSold, want)
	}
	if want := decimal.RequireFromString("3.50"); !got.TotalTax.Equal(want) {
		t.Fatalf("TotalTax=%s want=%s", got.TotalTax, want)
	}
	if want := decimal.RequireFromString("1.25"); !got.TotalFees.Equal(want) {
		t.Fatalf("TotalFees=%s want=%s", got.TotalFees, want)
	}
	if got.LineItems[0].ProductName != "Hoodie – Large" {
		t.Fatalf("item[0]=%q", got.LineItems[0].ProductName)
	}
	if got.LineItems[1].ProductName != "Sticker Pack" {
		t.Fatalf("item[1]=%q", got.LineItems[1].ProductName)
	}
}

func TestFromShopify_QuantityMultipliesPrices(t *testing.T) {
	raw := shopify.Order{
		Name: "#1002",
		LineItems: shopify.LineItemConn{Edges: []shopify.LineItemEdge{
			lineItem("Print", nil, "4.00", "3.00", 3),
		}},
	}

	got := FromShopify(raw, "")
	if got.MultiItem() {
		t.Fatalf("MultiItem()=true want false")
	}
	if want := decimal.NewFromInt(12); !got.LineItems[0].ListedFor.Equal(want) {
		t.Fatalf("ListedFor=%s want=%s", got.LineItems[0].ListedFor, want)
	}
	if want := decimal.NewFromInt(9); !got.LineItems[0].SoldFor.Equal(want) {
		t.Fatalf("SoldFor=%s want=%s", got.LineItems[0].SoldFor, want)
	}
	if got.AdminURL != "" {
		t.Fatalf("AdminURL=%q want empty without store handle", got.AdminURL)
	}
}

func TestFromShopify_QuantityFloorsToOne(t *testing.T) {
	raw := shopify.Order{
		LineItems: shopify.LineItemConn{Edges: []shopify.LineItemEdge{
			lineItem("Mystery Box", nil, "8.00", "8.00", 0),
		}},
	}

	got := FromShopify(raw, "")
	if got.LineItems[0].Quantity != 1 {
		t.Fatalf("Quantity=%d want=1", got.LineItems[0].Quantity)
	}
	if want := decimal.NewFromInt(8); !got.LineItems[0].SoldFor.Equal(want) {
		t.Fatalf("SoldFor=%s want=%s", got.LineItems[0].SoldFor, want)
	}
}

func TestProductName(t *testing.T) {
	tests := []struct {
		name    string
		variant *shopify.Variant
		want    string
	}{
		{"no variant", nil, "Poster"},
		{"default title ignored", &shopify.Variant{Title: "Default Title"}, "Poster"},
		{"empty title ignored", &shopify.Variant{Title: ""}, "Poster"},
		{"variant appended", &shopify.Variant{Title: "A2"}, "Poster – A2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := productName(shopify.LineItem{Title: "Poster", Variant: tt.variant})
			if got != tt.want {
				t.Fatalf("productName=%q want=%q", got, tt.want)
			}
		})
	}
}

func TestSafeAmount(t *testing.T) {
	tests := []struct {
		name string
		bag  *shopify.MoneyBag
		want string
	}{
		{"nil bag", nil, "0"},
		{"nil money", &shopify.MoneyBag{}, "0"},
		{"empty amount", money(""), "0"},
		{"malformed amount", money("not-a-number"), "0"},
		{"valid amount", money("19.99"), "19.99"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := safeAmount(tt.bag)
			if want := decimal.RequireFromString(tt.want); !got.Equal(want) {
				t.Fatalf("safeAmount=%s want=%s", got, want)
			}
		})
	}
}

func TestTotalFees_ToleratesMissingFees(t *testing.T) {
	transactions := []shopify.Transaction{
		{Kind: "SALE", Status: "SUCCESS"},
		{Kind: "SALE", Status: "SUCCESS", Fees: []shopify.Fee{
			{Amount: nil},
			{Amount: &shopify.Money{Amount: "2.50"}},
		}},
	}
	got := totalFees(transactions)
	if want := decimal.RequireFromString("2.50"); !got.Equal(want) {
		t.Fatalf("totalFees=%s want=%s", got, want)
	}
}
