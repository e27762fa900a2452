package notion

import (
	"time"

	"github.com/shopspring/decimal"
)

// Properties is one page's property payload, keyed by property name.
type Properties map[string]any

func Title(content string) any {
	return map[string]any{
		"title": []any{
			map[string]any{"text": map[string]any{"content": content}},
		},
	}
}

func RichText(content string) any {
	return map[string]any{
		"rich_text": []any{
			map[string]any{"text": map[string]any{"content": content}},
		},
	}
}

func Number(value decimal.Decimal) any {
	f, _ := value.Float64()
	return map[string]any{"number": f}
}

func Date(start time.Time) any {
	return map[string]any{
		"date": map[string]any{"start": start.UTC().Format(time.RFC3339)},
	}
}

func Email(address string) any {
	return map[string]any{"email": address}
}

func URL(link string) any {
	return map[string]any{"url": link}
}

func Select(name string) any {
	return map[string]any{
		"select": map[string]any{"name": name},
	}
}

func Relation(pageID string) any {
	return map[string]any{
		"relation": []any{
			map[string]any{"id": pageID},
		},
	}
}
