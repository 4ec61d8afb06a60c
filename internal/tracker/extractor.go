package tracker

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"pricewatch/pkg/errors"
)

// priceRegex finds the first price-like number in a string. It handles
// integers (1,079), decimals (119.00) and comma grouping.
var priceRegex = regexp.MustCompile(`[\d.,]*\d`)

// Extraction is the result of resolving the selectors against a page.
type Extraction struct {
	Price float64
	Name  string
}

// Extract resolves priceSelector against the markup and parses the matched
// element's text as a decimal price. When the selector matches more than one
// element the first match wins. nameSelector is optional; a missing or
// unmatched name selector yields an empty name, not an error.
func Extract(markup, productID, priceSelector, nameSelector string) (Extraction, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return Extraction{}, errors.NewSelectorNotFound(productID, priceSelector)
	}

	priceSel := doc.Find(priceSelector).First()
	if priceSel.Length() == 0 {
		return Extraction{}, errors.NewSelectorNotFound(productID, priceSelector)
	}

	priceText := strings.TrimSpace(priceSel.Text())
	price, ok := ParsePrice(priceText)
	if !ok {
		return Extraction{}, errors.NewPriceNotParsable(productID, priceText)
	}

	res := Extraction{Price: price}
	if nameSelector != "" {
		nameSel := doc.Find(nameSelector).First()
		if nameSel.Length() > 0 {
			res.Name = strings.TrimSpace(nameSel.Text())
		}
	}
	return res, nil
}

// ParsePrice strips currency symbols, grouping separators and surrounding
// text from a price string and converts it to a float64. The second return
// value is false when no numeric token remains.
func ParsePrice(priceStr string) (float64, bool) {
	found := priceRegex.FindString(priceStr)
	if found == "" {
		return 0, false
	}

	cleaned := normalizeSeparators(found)
	price, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return price, true
}

// normalizeSeparators reduces a digit/comma/dot token to a plain decimal.
// "1,299.50" and "1.299,50" both become "1299.50".
func normalizeSeparators(s string) string {
	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")

	switch {
	case lastComma == -1 && lastDot == -1:
		return s
	case lastComma == -1:
		// Dots only. A single dot is a decimal point; multiple dots are
		// grouping separators ("1.299.000").
		if strings.Count(s, ".") > 1 {
			return strings.ReplaceAll(s, ".", "")
		}
		return s
	case lastDot == -1:
		// Commas only. "1,299" is grouping, "119,50" is a decimal comma.
		if strings.Count(s, ",") == 1 && len(s)-lastComma-1 != 3 {
			return strings.Replace(s, ",", ".", 1)
		}
		return strings.ReplaceAll(s, ",", "")
	case lastDot > lastComma:
		// "1,299.50" - comma groups, dot decimal
		return strings.ReplaceAll(s, ",", "")
	default:
		// "1.299,50" - dot groups, comma decimal
		s = strings.ReplaceAll(s, ".", "")
		return strings.Replace(s, ",", ".", 1)
	}
}
