package v1

import (
	"context"
	"net/http"

	"storefront-backend/internal/domain"
	"storefront-backend/pkg/utils"
)

type ShippingQuoter interface {
	Quote(ctx context.Context, req domain.QuoteRequest) (*domain.ShippingQuote, error)
	Options(ctx context.Context, req domain.QuoteRequest) ([]domain.CarrierQuoteOption, error)
}

type ShippingHandler struct {
	quoter ShippingQuoter
}

func NewShippingHandler(quoter ShippingQuoter) *ShippingHandler {
	return &ShippingHandler{quoter: quoter}
}

// POST /api/v1/shipping/quote
func (h *ShippingHandler) Quote(w http.ResponseWriter, r *http.Request) {
	var req domain.QuoteRequest
	if !decodeBody(w, r, &req) {
		return
	}

	quote, err := h.quoter.Quote(r.Context(), req)
	if err != nil {
		writeQuoteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, quote)
}

// POST /api/v1/shipping/options
func (h *ShippingHandler) Options(w http.ResponseWriter, r *http.Request) {
	var req domain.QuoteRequest
	if !decodeBody(w, r, &req) {
		return
	}

	options, err := h.quoter.Options(r.Context(), req)
	if err != nil {
		writeQuoteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"options": options,
	})
}
