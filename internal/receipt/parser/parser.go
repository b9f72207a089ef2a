// Package parser turns OCR receipt text into candidate line items.
package parser

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// MaxQuantity bounds the values accepted as a line quantity.
const MaxQuantity = 99

// Pattern ids recorded on each candidate.
const (
	PatternStoreColumns    = "store-columns"
	PatternStoreStarred    = "store-columns-starred"
	PatternNamePriceQtySum = "name-price-qty-amount"
	PatternNamePrice       = "name-price"
	PatternNameCodePrice   = "name-code-price"
	PatternNameQtyPrice    = "name-qty-price"
)

// Candidate is one recognized receipt line.
type Candidate struct {
	Raw        string `json:"raw"`
	Pattern    string `json:"pattern"`
	Name       string `json:"name"`
	Quantity   int    `json:"quantity"`
	Price      *int   `json:"price"`
	CategoryID *int   `json:"categoryId"`
	LocationID *int   `json:"suggestedLocation"`
}

type linePattern struct {
	id string
	re *regexp.Regexp
	// qtyGroup is the capture group expected to hold the quantity.
	qtyGroup int
	// priceGroup, when set, fixes the price column instead of scanning backward.
	priceGroup int
}

var storeMarkers = []string{"TRADERS", "트레이더스"}

// Store receipts print fixed columns: name, unit price, quantity, amount.
var storePatterns = []linePattern{
	{PatternStoreColumns, regexp.MustCompile(`^([가-힣A-Za-z\s()]+?)\s+([\d,]+)\s+(\d+)\s+([\d,]+)$`), 3, 2},
	{PatternStoreStarred, regexp.MustCompile(`^\*\s*([가-힣A-Za-z\s()]+?)\s+([\d,]+)\s+(\d+)\s+([\d,]+)$`), 3, 2},
}

// Generic patterns are tried in rank order; the first match wins.
var genericPatterns = []linePattern{
	{PatternNamePriceQtySum, regexp.MustCompile(`^([가-힣A-Za-z\s()]+)\s+([\d,]+)\s+(\d+)\s+([\d,]+)`), 3, 0},
	{PatternNamePrice, regexp.MustCompile(`^\*?\s*([가-힣A-Za-z\s()]+)\s+([\d,]+)원?$`), 3, 0},
	{PatternNameCodePrice, regexp.MustCompile(`^([가-힣A-Za-z\s]+)(?:\([^)]+\))?\s+([\d,]+)`), 3, 0},
	{PatternNameQtyPrice, regexp.MustCompile(`^([가-힣A-Za-z\s]+)\s+(\d+)개?\s+([\d,]+)원?`), 3, 0},
}

// ExcludedKeywords mark receipt lines that are never items.
var ExcludedKeywords = []string{
	"합계", "총", "부가세", "면세", "과세", "결제", "카드", "현금",
	"거스름", "받은금액", "영수증", "사업자", "전화", "주소",
	"TEL", "FAX", "대표", "번호", "일시불", "할부", "포인트",
	"금액", "단가", "수량", "상품명", "total",
}

var (
	leadingStar = regexp.MustCompile(`^\*\s*`)
	spaces      = regexp.MustCompile(`\s+`)
	nameJunk    = regexp.MustCompile(`[^\s가-힣A-Za-z0-9()]`)
)

// Parse extracts candidates from text. Names are unique within the result.
func Parse(text string) []Candidate {
	lines := splitLines(text)
	patterns, minNameLen := genericPatterns, 2
	if IsStoreReceipt(text) {
		patterns, minNameLen = storePatterns, 1
	}

	var out []Candidate
	seen := make(map[string]bool)
	for _, line := range lines {
		if IsExcluded(line) {
			continue
		}
		c, ok := matchLine(line, patterns, minNameLen)
		if !ok || seen[c.Name] {
			continue
		}
		seen[c.Name] = true
		out = append(out, c)
	}
	return out
}

// IsStoreReceipt reports whether text carries a store-chain marker.
func IsStoreReceipt(text string) bool {
	for _, m := range storeMarkers {
		if strings.Contains(text, m) {
			return true
		}
	}
	return false
}

// IsExcluded reports whether line contains an exclusion keyword, ignoring case.
func IsExcluded(line string) bool {
	lower := strings.ToLower(line)
	for _, k := range ExcludedKeywords {
		if strings.Contains(lower, strings.ToLower(k)) {
			return true
		}
	}
	return false
}

// CleanName strips a leading star, collapses whitespace and drops symbols other than parentheses.
func CleanName(name string) string {
	name = leadingStar.ReplaceAllString(name, "")
	name = spaces.ReplaceAllString(name, " ")
	name = nameJunk.ReplaceAllString(name, "")
	return strings.TrimSpace(name)
}

func splitLines(text string) []string {
	var lines []string
	for _, l := range strings.Split(text, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

func matchLine(line string, patterns []linePattern, minNameLen int) (Candidate, bool) {
	for _, p := range patterns {
		m := p.re.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		name := CleanName(m[1])
		if utf8.RuneCountInString(name) < minNameLen {
			continue
		}
		return Candidate{
			Raw:      line,
			Pattern:  p.id,
			Name:     name,
			Quantity: quantity(m, p.qtyGroup),
			Price:    price(m, p.priceGroup),
		}, true
	}
	return Candidate{}, false
}

// quantity prefers the designated group, then the first other numeric group in range, then 1.
func quantity(m []string, group int) int {
	if group < len(m) {
		if n, ok := number(m[group]); ok && n >= 1 && n <= MaxQuantity {
			return n
		}
	}
	for i := 2; i < len(m); i++ {
		if n, ok := number(m[i]); ok && n >= 1 && n <= MaxQuantity {
			return n
		}
	}
	return 1
}

// price is the fixed group when given, else the last positive numeric group.
func price(m []string, group int) *int {
	if group > 0 && group < len(m) {
		if n, ok := number(m[group]); ok && n > 0 {
			return &n
		}
	}
	for i := len(m) - 1; i >= 2; i-- {
		if n, ok := number(m[i]); ok && n > 0 {
			return &n
		}
	}
	return nil
}

func number(s string) (int, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	return n, err == nil
}
