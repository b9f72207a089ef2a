// Package chatbot answers free-text questions about the household inventory.
package chatbot

import (
	"context"
	"fmt"
	"math/rand"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/smartinventory/smartinventory-backend/internal/inventory/domain"
	"github.com/smartinventory/smartinventory-backend/internal/inventory/store"
)

// BackendRules names the keyword responder.
const BackendRules = "rules"

// ChatLowStockLevel is the quantity at or below which the chatbot reports an item as running out.
const ChatLowStockLevel = 2

const (
	lowStockShown   = 3
	recentHistory   = 5
	categoriesShown = 5
	topCategories   = 3
)

// Responder produces a reply for a message.
type Responder interface {
	Respond(ctx context.Context, message string, inv *Inventory) (string, error)
	Name() string
}

// Inventory is the read-only view a responder works from.
type Inventory struct {
	Items      []*domain.Item
	Categories []*domain.Category
	Locations  *domain.LocationIndex
	// Recent holds the latest stock movements, newest first.
	Recent []*domain.HistoryEntry

	locationCount int
}

// NewInventory builds the responder view from a state snapshot.
func NewInventory(st *store.State) *Inventory {
	recent := make([]*domain.HistoryEntry, len(st.History))
	copy(recent, st.History)
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].CreatedAt.After(recent[j].CreatedAt)
	})
	if len(recent) > recentHistory {
		recent = recent[:recentHistory]
	}

	return &Inventory{
		Items:         st.Items,
		Categories:    st.Categories,
		Locations:     st.LocationIndex(),
		Recent:        recent,
		locationCount: len(st.Locations),
	}
}

// TotalQuantity sums all item quantities.
func (inv *Inventory) TotalQuantity() int {
	total := 0
	for _, it := range inv.Items {
		total += it.Quantity
	}
	return total
}

// LowStock returns items at or below ChatLowStockLevel, in store order.
func (inv *Inventory) LowStock() []*domain.Item {
	var low []*domain.Item
	for _, it := range inv.Items {
		if it.Quantity <= ChatLowStockLevel {
			low = append(low, it)
		}
	}
	return low
}

// LocationCount is the number of locations.
func (inv *Inventory) LocationCount() int {
	return inv.locationCount
}

func (inv *Inventory) category(id *int) *domain.Category {
	if id == nil {
		return nil
	}
	for _, c := range inv.Categories {
		if c.ID == *id {
			return c
		}
	}
	return nil
}

func (inv *Inventory) item(id int) *domain.Item {
	for _, it := range inv.Items {
		if it.ID == id {
			return it
		}
	}
	return nil
}

// Rules is the keyword responder. It never fails.
type Rules struct {
	now  func() time.Time
	pick func(n int) int
}

// NewRules creates a keyword responder using the wall clock and random variants.
func NewRules() *Rules {
	return &Rules{now: time.Now, pick: rand.Intn}
}

// NewRulesWith creates a keyword responder with a fixed clock and variant chooser.
func NewRulesWith(now func() time.Time, pick func(n int) int) *Rules {
	return &Rules{now: now, pick: pick}
}

// Name implements Responder.
func (r *Rules) Name() string { return BackendRules }

// Respond implements Responder.
func (r *Rules) Respond(_ context.Context, message string, inv *Inventory) (string, error) {
	return r.Reply(message, inv), nil
}

var itemQueryWords = regexp.MustCompile(`재고|현황|수량|얼마|있어|없어|찾아|어디`)

// Reply picks the first matching intent: greeting, stock status, a specific item,
// add, use, location, category, stats, help, thanks, then a generic answer.
func (r *Rules) Reply(message string, inv *Inventory) string {
	msg := strings.ToLower(strings.TrimSpace(message))

	switch {
	case containsAny(msg, "안녕", "hi", "hello"):
		return r.greeting(inv)
	case containsAny(msg, "재고", "현황", "수량", "얼마"):
		return stockStatus(inv)
	}

	if it := matchItem(msg, inv); it != nil {
		return itemDetail(it, inv)
	}

	switch {
	case containsAny(msg, "추가", "등록", "새로", "넣기"):
		return addGuide
	case containsAny(msg, "사용", "출고", "빼기", "소모"):
		return useGuide
	case containsAny(msg, "위치", "장소", "어디", "찾기"):
		return locationGuide
	case containsAny(msg, "카테고리", "분류", "종류"):
		return categoryGuide(inv)
	case containsAny(msg, "통계", "분석", "리포트", "요약"):
		return stats(inv)
	case containsAny(msg, "도움", "help", "사용법", "매뉴얼"):
		return helpGuide
	case containsAny(msg, "고마워", "감사", "thanks", "thank you"):
		return thanks[r.pick(len(thanks))]
	}

	return r.fallback(message, inv)
}

func (r *Rules) greeting(inv *Inventory) string {
	variants := []string{
		fmt.Sprintf("안녕하세요! 😊 현재 시간은 %s입니다.<br>총 %d개의 물품을 관리하고 있어요. 무엇을 도와드릴까요?",
			clock(r.now()), len(inv.Items)),
		fmt.Sprintf("반갑습니다! 🤗 물품관리 도우미입니다.<br>현재 %d개 카테고리에 %d개 물품이 등록되어 있어요.",
			len(inv.Categories), len(inv.Items)),
		fmt.Sprintf("안녕하세요! ✨ 오늘도 물품관리를 도와드릴게요.<br>총 %d개 위치에 물품들이 정리되어 있습니다.",
			inv.LocationCount()),
	}
	return variants[r.pick(len(variants))]
}

func (r *Rules) fallback(message string, inv *Inventory) string {
	variants := []string{
		fmt.Sprintf("🤔 \"%s\"에 대해 더 구체적으로 알려주시면 정확한 답변을 드릴 수 있어요!<br><br>"+
			"예를 들어:<br>"+
			"• \"휴지 재고 얼마나 있어?\" (특정 물품 조회)<br>"+
			"• \"물건 어떻게 추가해?\" (기능 사용법)<br>"+
			"• \"전체 재고 현황 보여줘\" (통계 요청)", message),
		"💡 좋은 질문이네요! 다음 중 어떤 것을 도와드릴까요?<br><br>" +
			"📊 재고 현황 확인<br>" +
			"➕ 새 물건 등록<br>" +
			"📤 물건 사용 등록<br>" +
			"📍 위치 관리<br>" +
			"❓ 사용법 안내",
		fmt.Sprintf("🔍 \"%s\"와 관련해서 이런 기능들을 사용할 수 있어요:<br><br>"+
			"• 현재 %d개 물품 관리 중<br>"+
			"• %d개 카테고리로 분류<br>"+
			"• %d개 위치에 보관<br><br>"+
			"더 구체적으로 무엇을 도와드릴까요?", message, len(inv.Items), len(inv.Categories), inv.LocationCount()),
	}
	return variants[r.pick(len(variants))]
}

func stockStatus(inv *Inventory) string {
	var b strings.Builder
	b.WriteString("📊 <strong>현재 재고 현황</strong><br><br>")
	writeTotals(&b, inv)
	b.WriteString("<br>")

	low := inv.LowStock()
	if len(low) == 0 {
		b.WriteString("✅ 모든 물품의 재고가 충분합니다!")
		return b.String()
	}

	b.WriteString("⚠️ <strong>재고 부족 알림</strong><br>")
	for i, it := range low {
		if i == lowStockShown {
			break
		}
		fmt.Fprintf(&b, "• %s: %d%s<br>", it.Name, it.Quantity, unit(it))
	}
	if len(low) > lowStockShown {
		fmt.Fprintf(&b, "• 외 %d개 품목<br>", len(low)-lowStockShown)
	}
	return b.String()
}

// matchItem finds the first item named in msg, or whose name contains what is
// left of msg after the query words are removed.
func matchItem(msg string, inv *Inventory) *domain.Item {
	rest := strings.TrimSpace(itemQueryWords.ReplaceAllString(msg, ""))
	for _, it := range inv.Items {
		name := strings.ToLower(it.Name)
		if name == "" {
			continue
		}
		if strings.Contains(msg, name) || (rest != "" && strings.Contains(name, rest)) {
			return it
		}
	}
	return nil
}

func itemDetail(it *domain.Item, inv *Inventory) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🔍 <strong>%s</strong> 정보<br><br>", it.Name)
	fmt.Fprintf(&b, "📦 현재 수량: <strong>%d%s</strong><br>", it.Quantity, unit(it))

	categoryName := "미분류"
	if c := inv.category(it.CategoryID); c != nil {
		categoryName = c.Name
	}
	fmt.Fprintf(&b, "🏷️ 카테고리: %s<br>", categoryName)

	location := "위치 미설정"
	if path := inv.Locations.Path(it.LocationID); len(path) > 0 {
		location = strings.Join(path, " > ")
	}
	fmt.Fprintf(&b, "📍 위치: %s<br>", location)

	if it.Description != "" {
		fmt.Fprintf(&b, "📝 설명: %s<br>", it.Description)
	}

	var own []*domain.HistoryEntry
	for _, h := range inv.Recent {
		if h.ItemID == it.ID {
			own = append(own, h)
		}
		if len(own) == 2 {
			break
		}
	}
	if len(own) > 0 {
		b.WriteString("<br>📋 <strong>최근 이력</strong><br>")
		for _, h := range own {
			writeMovement(&b, h, it)
		}
	}
	return b.String()
}

func categoryGuide(inv *Inventory) string {
	names := make([]string, 0, categoriesShown)
	for i, c := range inv.Categories {
		if i == categoriesShown {
			break
		}
		icon := c.Icon
		if icon == "" {
			icon = "📁"
		}
		names = append(names, icon+" "+c.Name)
	}

	var b strings.Builder
	b.WriteString("🏷️ <strong>카테고리 관리</strong><br><br>")
	fmt.Fprintf(&b, "<strong>현재 카테고리 (%d개):</strong><br>", len(inv.Categories))
	b.WriteString(strings.Join(names, "<br>"))
	b.WriteString("<br>")
	if len(inv.Categories) > categoriesShown {
		fmt.Fprintf(&b, "외 %d개...<br>", len(inv.Categories)-categoriesShown)
	}
	b.WriteString("<br>")
	b.WriteString("<strong>카테고리 추가 방법:</strong><br>" +
		"1️⃣ 하단 '카테고리' 메뉴 클릭<br>" +
		"2️⃣ ➕ 버튼으로 새 카테고리 추가<br>" +
		"3️⃣ 이름, 색상, 아이콘 설정<br><br>" +
		"💡 카테고리별로 물건을 체계적으로 관리하세요!")
	return b.String()
}

type categoryCount struct {
	name  string
	count int
}

func stats(inv *Inventory) string {
	counts := make([]categoryCount, 0, len(inv.Categories))
	for _, c := range inv.Categories {
		n := 0
		for _, it := range inv.Items {
			if it.CategoryID != nil && *it.CategoryID == c.ID {
				n++
			}
		}
		counts = append(counts, categoryCount{name: c.Name, count: n})
	}
	sort.SliceStable(counts, func(i, j int) bool { return counts[i].count > counts[j].count })
	if len(counts) > topCategories {
		counts = counts[:topCategories]
	}

	var b strings.Builder
	b.WriteString("📈 <strong>물품관리 통계</strong><br><br>")
	b.WriteString("📊 <strong>전체 현황</strong><br>")
	writeTotals(&b, inv)
	b.WriteString("<br>")

	if len(counts) > 0 {
		b.WriteString("🏆 <strong>카테고리별 물품 수</strong><br>")
		for i, c := range counts {
			fmt.Fprintf(&b, "%d. %s: %d개<br>", i+1, c.name, c.count)
		}
		b.WriteString("<br>")
	}

	if len(inv.Recent) > 0 {
		b.WriteString("📋 <strong>최근 활동</strong><br>")
		for i, h := range inv.Recent {
			if i == 3 {
				break
			}
			writeMovement(&b, h, inv.item(h.ItemID))
		}
	}
	return b.String()
}

func writeTotals(b *strings.Builder, inv *Inventory) {
	fmt.Fprintf(b, "• 전체 물품: %d개<br>", len(inv.Items))
	fmt.Fprintf(b, "• 총 수량: %d개<br>", inv.TotalQuantity())
	fmt.Fprintf(b, "• 카테고리: %d개<br>", len(inv.Categories))
	fmt.Fprintf(b, "• 위치: %d개<br>", inv.LocationCount())
}

func writeMovement(b *strings.Builder, h *domain.HistoryEntry, it *domain.Item) {
	kind := "출고"
	if h.Type == domain.StockIn {
		kind = "입고"
	}
	fmt.Fprintf(b, "• %s %s: %d%s<br>", koreanDate(h.CreatedAt), kind, h.Quantity, unit(it))
}

func unit(it *domain.Item) string {
	if it == nil || it.Unit == "" {
		return domain.DefaultUnit
	}
	return it.Unit
}

// clock formats t like "오후 03:04".
func clock(t time.Time) string {
	half := "오전"
	if t.Hour() >= 12 {
		half = "오후"
	}
	h := t.Hour() % 12
	if h == 0 {
		h = 12
	}
	return fmt.Sprintf("%s %02d:%02d", half, h, t.Minute())
}

// koreanDate formats t like "2024. 1. 5.".
func koreanDate(t time.Time) string {
	return fmt.Sprintf("%d. %d. %d.", t.Year(), int(t.Month()), t.Day())
}

func containsAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

const addGuide = "➕ <strong>새 물건 등록하기</strong><br><br>" +
	"1️⃣ 우측 하단 ➕ 버튼 클릭<br>" +
	"2️⃣ '📝 새 물건 등록' 선택<br>" +
	"3️⃣ 다음 정보 입력:<br>" +
	"   • 물건명 (필수)<br>" +
	"   • 카테고리 선택<br>" +
	"   • 위치 선택<br>" +
	"   • 수량 및 단위<br>" +
	"   • 설명 (선택사항)<br>" +
	"4️⃣ 저장 버튼 클릭<br><br>" +
	"💡 팁: 사진을 찍어서 물건을 등록할 수도 있어요!"

const useGuide = "📤 <strong>물건 사용(출고) 등록</strong><br><br>" +
	"<strong>방법 1: 재고관리 페이지</strong><br>" +
	"1️⃣ 하단 '재고관리' 메뉴 클릭<br>" +
	"2️⃣ '출고' 탭 선택<br>" +
	"3️⃣ 물건과 수량 선택<br>" +
	"4️⃣ 사용 목적 입력<br>" +
	"5️⃣ 등록 완료<br><br>" +
	"<strong>방법 2: 빠른 등록</strong><br>" +
	"• ➕ 버튼 > 빠른 출고 등록<br><br>" +
	"💡 출고 시 재고가 자동으로 차감됩니다!"

const locationGuide = "📍 <strong>위치 관리 시스템</strong><br><br>" +
	"<strong>계층형 위치 구조:</strong><br>" +
	"🏠 Level 0: 집, 사무실, 창고<br>" +
	"🏢 Level 1: 1층, 2층, 지하<br>" +
	"🚪 Level 2: 거실, 침실, 부엌<br>" +
	"📦 Level 3: 서랍, 선반, 냉장고<br><br>" +
	"<strong>위치 관리 방법:</strong><br>" +
	"1️⃣ 하단 '위치' 메뉴 클릭<br>" +
	"2️⃣ 새 위치 추가 또는 수정<br>" +
	"3️⃣ 상위 위치 선택<br>" +
	"4️⃣ 위치명 입력 후 저장<br><br>" +
	"💡 정확한 위치 설정으로 물건을 쉽게 찾을 수 있어요!"

const helpGuide = "❓ <strong>물품관리 시스템 사용법</strong><br><br>" +
	"🏠 <strong>홈</strong>: 챗봇과 대화<br>" +
	"📍 <strong>위치</strong>: 물건 보관 장소 관리<br>" +
	"🏷️ <strong>카테고리</strong>: 물건 분류 관리<br>" +
	"📦 <strong>재고관리</strong>: 입고/출고 처리<br>" +
	"⚙️ <strong>설정</strong>: 앱 환경 설정<br><br>" +
	"<strong>자주 사용하는 질문:</strong><br>" +
	"• \"휴지 재고 확인해줘\"<br>" +
	"• \"물건 추가하는 방법\"<br>" +
	"• \"재고 현황 보여줘\"<br>" +
	"• \"위치 설정하는 법\"<br><br>" +
	"💬 자연스럽게 대화하듯 질문해보세요!"

var thanks = []string{
	"천만에요! 😊 언제든지 물품관리에 대해 궁금한 게 있으면 물어보세요!",
	"도움이 되었다니 기뻐요! 🤗 다른 궁금한 것도 언제든 말씀해주세요.",
	"별말씀을요! ✨ 효율적인 물품관리를 위해 항상 여기 있을게요!",
}
