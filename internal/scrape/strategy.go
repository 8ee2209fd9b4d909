package scrape

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Strategy reads one field from a row. An empty result means the strategy
// did not apply and the next one is tried.
type Strategy func(row *goquery.Selection) string

// FirstNonEmpty combines strategies in priority order
func FirstNonEmpty(strategies ...Strategy) Strategy {
	return func(row *goquery.Selection) string {
		for _, s := range strategies {
			if v := s(row); v != "" {
				return v
			}
		}
		return ""
	}
}

// Text reads the cleaned text of the first element matching selector
func Text(selector string) Strategy {
	return func(row *goquery.Selection) string {
		return clean(row.Find(selector).First().Text())
	}
}

// Nth reads the cleaned text of the i-th element matching selector
func Nth(selector string, i int) Strategy {
	return func(row *goquery.Selection) string {
		return clean(row.Find(selector).Eq(i).Text())
	}
}

// Attr reads an attribute of the first element matching selector
func Attr(selector, name string) Strategy {
	return func(row *goquery.Selection) string {
		v, _ := row.Find(selector).First().Attr(name)
		return clean(v)
	}
}

// BestText prefers the full name carried in title, aria-label or
// data-tooltip over the visible text, which is often abbreviated.
func BestText(selector string) Strategy {
	return func(row *goquery.Selection) string {
		el := row.Find(selector).First()
		if el.Length() == 0 {
			return ""
		}
		for _, name := range []string{"title", "aria-label", "data-tooltip"} {
			if v, ok := el.Attr(name); ok {
				if v = clean(v); len(v) > 3 {
					return v
				}
			}
		}
		return clean(el.Text())
	}
}

func clean(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
