package credits

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ozlabs/forge/common"
	"github.com/ozlabs/forge/internal/dto"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Balance handles GET /api/v1/users/:id/credits.
func (h *Handler) Balance(c *gin.Context) (any, error) {
	userID := c.Param("id")
	if userID == "" {
		return nil, common.NewValidationError(map[string][]string{
			"id": {"required"},
		})
	}

	balance, err := h.service.Balance(c.Request.Context(), userID)
	if err != nil {
		return nil, err
	}
	return dto.BalanceResponseDTO{UserID: userID, Balance: balance}, nil
}

// History handles GET /api/v1/users/:id/credits/history.
func (h *Handler) History(c *gin.Context) (any, error) {
	userID := c.Param("id")
	if userID == "" {
		return nil, common.NewValidationError(map[string][]string{
			"id": {"required"},
		})
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	entries, err := h.service.History(c.Request.Context(), userID, limit)
	if err != nil {
		return nil, err
	}

	out := make([]dto.LedgerEntryDTO, 0, len(entries))
	for _, e := range entries {
		out = append(out, dto.LedgerEntryDTO{
			UserID:       e.UserID,
			Amount:       e.Amount,
			Type:         e.Type,
			ReferenceID:  e.ReferenceID,
			BalanceAfter: e.BalanceAfter,
			CreatedAt:    e.CreatedAt,
		})
	}
	return out, nil
}
