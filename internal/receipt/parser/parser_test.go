package parser_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/smartinventory/smartinventory-backend/internal/receipt/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(n int) *int { return &n }

// ignoreRaw compares only the extracted fields.
var ignoreRaw = cmpopts.IgnoreFields(parser.Candidate{}, "Raw")

func TestParse_StoreReceipt(t *testing.T) {
	text := `이마트 TRADERS 월계점
대파(봄)         3,680  1    3,680
* 삼겹살 구이용   15,900  2   31,800
합계                       35,480
카드결제 35,480`

	got := parser.Parse(text)
	want := []parser.Candidate{
		{Pattern: parser.PatternStoreColumns, Name: "대파(봄)", Quantity: 1, Price: ptr(3680)},
		{Pattern: parser.PatternStoreStarred, Name: "삼겹살 구이용", Quantity: 2, Price: ptr(15900)},
	}
	if diff := cmp.Diff(want, got, ignoreRaw); diff != "" {
		t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_GenericPatterns(t *testing.T) {
	tests := []struct {
		line string
		want parser.Candidate
	}{
		{
			line: "계란 6,900 2 13,800",
			want: parser.Candidate{Pattern: parser.PatternNamePriceQtySum, Name: "계란", Quantity: 2, Price: ptr(13800)},
		},
		{
			line: "* 우유 2,500원",
			want: parser.Candidate{Pattern: parser.PatternNamePrice, Name: "우유", Quantity: 1, Price: ptr(2500)},
		},
		{
			line: "바나나(수입) 4,980",
			want: parser.Candidate{Pattern: parser.PatternNamePrice, Name: "바나나(수입)", Quantity: 1, Price: ptr(4980)},
		},
		{
			line: "두부(A12) 1,500 행사",
			want: parser.Candidate{Pattern: parser.PatternNameCodePrice, Name: "두부", Quantity: 1, Price: ptr(1500)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got := parser.Parse(tt.line)
			require.Len(t, got, 1)
			tt.want.Raw = tt.line
			if diff := cmp.Diff(tt.want, got[0]); diff != "" {
				t.Errorf("candidate mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParse_QuantityNeverAtOrAboveHundred(t *testing.T) {
	tests := []struct {
		line string
		qty  int
	}{
		{"생수 2,000 120 240,000", 1},
		{"휴지 100 100 10,000", 1},
		{"건전지 990 99 98,010", 99},
		{"컵라면 1,200 0 0", 1},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got := parser.Parse(tt.line)
			require.Len(t, got, 1)
			assert.Equal(t, tt.qty, got[0].Quantity)
			assert.Less(t, got[0].Quantity, 100)
		})
	}
}

func TestParse_ExcludedLinesNeverEmitted(t *testing.T) {
	for _, line := range []string{
		"합계 12,000",
		"Total 12,000",
		"TOTAL 12,000",
		"부가세 1,090",
		"카드 승인 12,000",
		"사업자 번호 123",
		"TEL 02 1234",
	} {
		t.Run(line, func(t *testing.T) {
			assert.True(t, parser.IsExcluded(line))
			assert.Empty(t, parser.Parse(line))
		})
	}
}

func TestParse_DeduplicatesAndIsDeterministic(t *testing.T) {
	text := "우유 2,500\n우유 2,500\n빵 3,000\n우유 1,900"

	first := parser.Parse(text)
	second := parser.Parse(text)
	assert.Equal(t, first, second)

	names := make(map[string]int)
	for _, c := range first {
		names[c.Name]++
	}
	assert.Equal(t, map[string]int{"우유": 1}, names, "single-rune names are dropped on the generic path")
}

func TestParse_NoMatchesIsEmpty(t *testing.T) {
	assert.Empty(t, parser.Parse(""))
	assert.Empty(t, parser.Parse("\n\n   \n"))
	assert.Empty(t, parser.Parse("12345\n!!!"))
}

func TestCleanName(t *testing.T) {
	tests := map[string]string{
		"*  우유":         "우유",
		"대파(봄)":         "대파(봄)",
		"콜라  제로":        "콜라 제로",
		"샴푸#1 리필!":      "샴푸1 리필",
		"  Coca-Cola  ": "CocaCola",
	}
	for in, want := range tests {
		assert.Equal(t, want, parser.CleanName(in), in)
	}
}
