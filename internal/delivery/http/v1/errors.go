package v1

import (
	"errors"
	"net/http"

	"storefront-backend/internal/domain"
	"storefront-backend/internal/usecase"
	"storefront-backend/pkg/logger"
	"storefront-backend/pkg/utils"
)

const maxBodyBytes = 1 << 20

// writeQuoteError maps quote failures to 422 with their code. Anything that
// is not a shipping error is logged and hidden behind a 500.
func writeQuoteError(w http.ResponseWriter, r *http.Request, err error) {
	code := domain.ShippingErrorCode(err)
	switch {
	case code == domain.CodeInvalidRequest:
		utils.WriteErrorCode(w, http.StatusBadRequest, code, err.Error())
	case code != "":
		utils.WriteErrorCode(w, http.StatusUnprocessableEntity, code, err.Error())
	default:
		logger.WithContext(r.Context()).Error().Err(err).Msg("Shipping quote failed")
		utils.WriteError(w, http.StatusInternalServerError, "Failed to compute shipping")
	}
}

// writeAdminError maps settings errors: missing entities are 404, rejected
// settings are 422.
func writeAdminError(w http.ResponseWriter, r *http.Request, err error) {
	code := domain.ShippingErrorCode(err)
	switch {
	case errors.Is(err, domain.ErrZoneNotFound), errors.Is(err, domain.ErrCarrierNotFound):
		utils.WriteErrorCode(w, http.StatusNotFound, code, err.Error())
	case errors.Is(err, domain.ErrInvalidRequest):
		utils.WriteErrorCode(w, http.StatusBadRequest, code, err.Error())
	case errors.Is(err, domain.ErrInvalidSettings):
		utils.WriteErrorCode(w, http.StatusUnprocessableEntity, code, err.Error())
	case errors.Is(err, usecase.ErrLogoStorageDisabled):
		utils.WriteError(w, http.StatusServiceUnavailable, "Logo uploads are disabled")
	default:
		logger.WithContext(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("Shipping settings update failed")
		utils.WriteError(w, http.StatusInternalServerError, "Failed to update shipping settings")
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := utils.DecodeJSON(r, v); err != nil {
		utils.WriteErrorCode(w, http.StatusBadRequest, domain.CodeInvalidRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}
