// Package basket turns free-text grocery lines into structured basket items
// and renders them back for editing.
package basket

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/ttokjang/backend/internal/domain"
)

// Compiled patterns for trailing modifiers. Quantity is stripped first, then size.
var (
	// "2개", "3 봉", "12ea" or a bare trailing number
	quantityTokenPattern = regexp.MustCompile(`(?i)(?:[\s\p{Zs}]|^)(\d+)[\s\p{Zs}]*(개|봉|팩|통|병|캔|묶음|줄|판|ea)?$`)

	// "1L", "500 ml", "1.5kg", "30구"
	sizeTokenPattern = regexp.MustCompile(`(?i)(?:[\s\p{Zs}]|^)(\d+(?:\.\d+)?)[\s\p{Zs}]*(kg|g|mg|ml|l|리터|밀리리터|그램|구)$`)

	leadingDigitsPattern = regexp.MustCompile(`^(\d+)`)
)

const (
	segmentName = iota
	segmentQuantity
	segmentSize
)

// ParseBasket parses one item per non-blank line.
func ParseBasket(text string) []domain.BasketItem {
	lines := strings.Split(text, "\n")
	items := make([]domain.BasketItem, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		items = append(items, ParseLine(line))
	}
	return items
}

// ParseLine parses "name[ qty][ size][,qty[,size]]" into a basket item.
// It never fails: unusable modifiers fall back to quantity 1 and no size.
func ParseLine(line string) domain.BasketItem {
	segments := splitSegments(line)

	raw := segments[segmentName]
	name, extractedQty, extractedSize := extractModifiers(raw)
	if name == "" {
		name = raw
	}

	quantity := 1
	if n, ok := parsePositiveInt(segments[segmentQuantity]); ok {
		quantity = n
	} else if extractedQty > 0 {
		quantity = extractedQty
	}

	size := segments[segmentSize]
	if size == "" {
		size = extractedSize
	}

	return domain.BasketItem{
		ItemName: strings.TrimSpace(name),
		Quantity: quantity,
		Size:     strings.TrimSpace(size),
	}
}

// FormatLine renders an item as "name,quantity[,size]". Commas in the name
// are written as is, so such a line parses back with a different name.
func FormatLine(item domain.BasketItem) string {
	quantity := item.Quantity
	if quantity < 1 {
		quantity = 1
	}
	line := fmt.Sprintf("%s,%d", item.ItemName, quantity)
	if item.Size != "" {
		line += "," + item.Size
	}
	return line
}

// FormatBasket renders items one per line, the inverse of ParseBasket.
func FormatBasket(items []domain.BasketItem) string {
	return strings.Join(FormatLines(items), "\n")
}

// FormatLines renders every item with FormatLine.
func FormatLines(items []domain.BasketItem) []string {
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = FormatLine(item)
	}
	return lines
}

// splitSegments returns exactly three trimmed positional segments.
// Missing or blank segments are empty strings.
func splitSegments(line string) [3]string {
	var segments [3]string
	for i, part := range strings.SplitN(line, ",", 4) {
		if i >= len(segments) {
			break
		}
		segments[i] = strings.TrimSpace(part)
	}
	return segments
}

// extractModifiers strips a trailing quantity token and then a trailing size
// token. Returned quantity is 0 when none was found.
func extractModifiers(raw string) (name string, quantity int, size string) {
	text := strings.TrimSpace(raw)

	if m := quantityTokenPattern.FindStringSubmatchIndex(text); m != nil {
		if n, ok := parsePositiveInt(text[m[2]:m[3]]); ok {
			quantity = n
		}
		text = strings.TrimSpace(text[:m[0]])
	}

	if m := sizeTokenPattern.FindStringSubmatchIndex(text); m != nil {
		size = text[m[2]:m[3]] + text[m[4]:m[5]]
		text = strings.TrimSpace(text[:m[0]])
	}

	return text, quantity, size
}

// parsePositiveInt reads the leading digits of value ("2개" -> 2), falling
// back to a numeric parse of the whole string. Results below 1 are rejected.
func parsePositiveInt(value string) (int, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}

	if m := leadingDigitsPattern.FindString(value); m != "" {
		n, err := strconv.Atoi(m)
		if err != nil || n <= 0 {
			return 0, false
		}
		return n, true
	}

	f, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 1 || f > math.MaxInt32 {
		return 0, false
	}
	return int(math.Floor(f)), true
}
