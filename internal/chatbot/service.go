package chatbot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/smartinventory/smartinventory-backend/internal/inventory/store"
	"github.com/smartinventory/smartinventory-backend/pkg/errors"
	"github.com/smartinventory/smartinventory-backend/pkg/logger"
)

const promptItemLimit = 50

// Reply is the chatbot answer.
type Reply struct {
	Success   bool      `json:"success"`
	Response  string    `json:"response"`
	Backend   string    `json:"backend"`
	Timestamp time.Time `json:"timestamp"`
}

// Service routes messages to the configured responder, falling back to the rules.
type Service struct {
	store   *store.Store
	backend Responder
	rules   *Rules
	logger  *logger.Logger
}

// NewService creates a chatbot service. A nil backend answers with rules only.
func NewService(st *store.Store, backend Responder, rules *Rules, log *logger.Logger) *Service {
	if rules == nil {
		rules = NewRules()
	}
	return &Service{
		store:   st,
		backend: backend,
		rules:   rules,
		logger:  log.WithComponent("chatbot"),
	}
}

// Backend returns the name of the preferred responder.
func (s *Service) Backend() string {
	if s.backend == nil {
		return BackendRules
	}
	return s.backend.Name()
}

// Ask answers message from a snapshot of the current inventory.
func (s *Service) Ask(ctx context.Context, message string) (*Reply, error) {
	if strings.TrimSpace(message) == "" {
		return nil, errors.BadRequestKey("errors.message_required", nil)
	}

	inv := NewInventory(s.store.Snapshot())

	if s.backend != nil {
		text, err := s.backend.Respond(ctx, message, inv)
		if err == nil {
			return &Reply{Success: true, Response: text, Backend: s.backend.Name(), Timestamp: time.Now().UTC()}, nil
		}
		s.logger.Warn().Err(err).Str("backend", s.backend.Name()).Msg("chatbot backend failed, using rules")
	}

	return &Reply{
		Success:   true,
		Response:  s.rules.Reply(message, inv),
		Backend:   BackendRules,
		Timestamp: time.Now().UTC(),
	}, nil
}

// SystemPrompt describes the assistant role and the current inventory.
func SystemPrompt(inv *Inventory) string {
	var b strings.Builder
	b.WriteString("당신은 가정용 물품관리 앱의 도우미입니다. 한국어로 간결하게 답하고, " +
		"아래 재고 정보에 근거해서만 수량과 위치를 말하세요. 줄바꿈은 <br>로 표시합니다.\n\n")
	fmt.Fprintf(&b, "전체 물품 %d개, 총 수량 %d개, 카테고리 %d개, 위치 %d개\n",
		len(inv.Items), inv.TotalQuantity(), len(inv.Categories), inv.LocationCount())

	if low := inv.LowStock(); len(low) > 0 {
		names := make([]string, 0, len(low))
		for _, it := range low {
			names = append(names, fmt.Sprintf("%s(%d%s)", it.Name, it.Quantity, unit(it)))
		}
		fmt.Fprintf(&b, "재고 부족: %s\n", strings.Join(names, ", "))
	}

	b.WriteString("\n물품 목록:\n")
	for i, it := range inv.Items {
		if i == promptItemLimit {
			fmt.Fprintf(&b, "... 외 %d개\n", len(inv.Items)-promptItemLimit)
			break
		}
		category := "미분류"
		if c := inv.category(it.CategoryID); c != nil {
			category = c.Name
		}
		location := "위치 미설정"
		if path := inv.Locations.Path(it.LocationID); len(path) > 0 {
			location = strings.Join(path, " > ")
		}
		fmt.Fprintf(&b, "- %s: %d%s, %s, %s\n", it.Name, it.Quantity, unit(it), category, location)
	}
	return b.String()
}
