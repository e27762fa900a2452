package shopify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const orderFields = `
id
legacyResourceId
name
email
createdAt
updatedAt
displayFinancialStatus
customer {
    displayName
}
totalTaxSet {
    presentmentMoney {
        amount
        currencyCode
    }
}
transactions {
    kind
    status
    gateway
    paymentDetails {
        ... on CardPaymentDetails {
            paymentMethodName
        }
    }
    fees {
        amount {
            amount
            currencyCode
        }
    }
}
lineItems(first: 250) {
    edges {
        node {
            id
            title
            quantity
            variant {
                title
                sku
            }
            originalUnitPriceSet {
                presentmentMoney {
                    amount
                    currencyCode
                }
            }
            discountedUnitPriceSet {
                presentmentMoney {
                    amount
                    currencyCode
                }
            }
        }
    }
}`

// OrdersQuery selects which orders to fetch. Names and UpdatedAfter are
// mutually exclusive filters; Names wins when both are set.
type OrdersQuery struct {
	Limit        int
	Names        []string
	UpdatedAfter *time.Time
	SortDesc     bool
}

func (q OrdersQuery) searchFilter() string {
	if len(q.Names) > 0 {
		parts := make([]string, 0, len(q.Names))
		for _, name := range q.Names {
			parts = append(parts, "name:"+name)
		}
		return strings.Join(parts, " OR ")
	}
	if q.UpdatedAfter != nil {
		return fmt.Sprintf("updated_at:>='%s'", q.UpdatedAfter.UTC().Format(time.RFC3339))
	}
	return ""
}

// FetchOrders returns up to Limit orders sorted by update time.
func (c *Client) FetchOrders(ctx context.Context, q OrdersQuery) ([]Order, error) {
	limit := q.Limit
	if limit < 1 {
		limit = 1
	}
	if limit > 1000 {
		limit = 1000
	}

	query := fmt.Sprintf(`
query($first: Int!, $reverse: Boolean!, $query: String) {
    orders(first: $first, sortKey: UPDATED_AT, reverse: $reverse, query: $query) {
        edges {
            node {%s
            }
        }
    }
}`, orderFields)

	variables := map[string]any{
		"first":   limit,
		"reverse": q.SortDesc,
	}
	if filter := q.searchFilter(); filter != "" {
		variables["query"] = filter
	}

	data, err := c.execute(ctx, query, variables)
	if err != nil {
		return nil, err
	}

	var out struct {
		Orders struct {
			Edges []struct {
				Node Order `json:"node"`
			} `json:"edges"`
		} `json:"orders"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to decode orders response: %w", err)
	}

	orders := make([]Order, 0, len(out.Orders.Edges))
	for _, edge := range out.Orders.Edges {
		orders = append(orders, edge.Node)
	}
	return orders, nil
}
