package v1

import (
	"context"
	"net/http"

	"storefront-backend/internal/domain"
	"storefront-backend/internal/usecase"
	"storefront-backend/pkg/utils"
)

type ShippingSettingsManager interface {
	GetSettings(ctx context.Context) (*domain.ShippingSettings, error)
	CreateZone(ctx context.Context, req usecase.ZoneRequest) (*domain.ShippingZone, error)
	UpdateZone(ctx context.Context, id string, req usecase.ZoneRequest) (*domain.ShippingZone, error)
	DeleteZone(ctx context.Context, id string) error
	CreateCarrier(ctx context.Context, req usecase.CarrierRequest) (*domain.ShippingCarrier, error)
	UpdateCarrier(ctx context.Context, id string, req usecase.CarrierRequest) (*domain.ShippingCarrier, error)
	DeleteCarrier(ctx context.Context, id string) error
	UpsertRate(ctx context.Context, carrierID, zoneID string, req usecase.RateRequest) (*domain.CarrierZoneRate, error)
	UpdatePackageDefaults(ctx context.Context, defaults domain.PackageDefaults) (*domain.PackageDefaults, error)
	UpdateGeneral(ctx context.Context, req usecase.GeneralRequest) (*domain.GeneralShippingSettings, error)
	UpdateCarrierLogo(ctx context.Context, carrierID string, data []byte, contentType string) (string, error)
}

type AdminShippingHandler struct {
	settings ShippingSettingsManager
}

func NewAdminShippingHandler(settings ShippingSettingsManager) *AdminShippingHandler {
	return &AdminShippingHandler{settings: settings}
}

// GET /api/v1/admin/shipping/settings
func (h *AdminShippingHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settings.GetSettings(r.Context())
	if err != nil {
		writeAdminError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, settings.Resolve())
}

// PUT /api/v1/admin/shipping/settings/general
func (h *AdminShippingHandler) UpdateGeneral(w http.ResponseWriter, r *http.Request) {
	var req usecase.GeneralRequest
	if !decodeBody(w, r, &req) {
		return
	}
	general, err := h.settings.UpdateGeneral(r.Context(), req)
	if err != nil {
		writeAdminError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, general)
}

// PUT /api/v1/admin/shipping/settings/package-defaults
func (h *AdminShippingHandler) UpdatePackageDefaults(w http.ResponseWriter, r *http.Request) {
	var req domain.PackageDefaults
	if !decodeBody(w, r, &req) {
		return
	}
	defaults, err := h.settings.UpdatePackageDefaults(r.Context(), req)
	if err != nil {
		writeAdminError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, defaults)
}

// POST /api/v1/admin/shipping/zones
func (h *AdminShippingHandler) CreateZone(w http.ResponseWriter, r *http.Request) {
	var req usecase.ZoneRequest
	if !decodeBody(w, r, &req) {
		return
	}
	zone, err := h.settings.CreateZone(r.Context(), req)
	if err != nil {
		writeAdminError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, zone)
}

// PATCH /api/v1/admin/shipping/zones/{id}
func (h *AdminShippingHandler) UpdateZone(w http.ResponseWriter, r *http.Request) {
	var req usecase.ZoneRequest
	if !decodeBody(w, r, &req) {
		return
	}
	zone, err := h.settings.UpdateZone(r.Context(), r.PathValue("id"), req)
	if err != nil {
		writeAdminError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, zone)
}

// DELETE /api/v1/admin/shipping/zones/{id}
func (h *AdminShippingHandler) DeleteZone(w http.ResponseWriter, r *http.Request) {
	if err := h.settings.DeleteZone(r.Context(), r.PathValue("id")); err != nil {
		writeAdminError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// POST /api/v1/admin/shipping/carriers
func (h *AdminShippingHandler) CreateCarrier(w http.ResponseWriter, r *http.Request) {
	var req usecase.CarrierRequest
	if !decodeBody(w, r, &req) {
		return
	}
	carrier, err := h.settings.CreateCarrier(r.Context(), req)
	if err != nil {
		writeAdminError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, carrier)
}

// PATCH /api/v1/admin/shipping/carriers/{id}
func (h *AdminShippingHandler) UpdateCarrier(w http.ResponseWriter, r *http.Request) {
	var req usecase.CarrierRequest
	if !decodeBody(w, r, &req) {
		return
	}
	carrier, err := h.settings.UpdateCarrier(r.Context(), r.PathValue("id"), req)
	if err != nil {
		writeAdminError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, carrier)
}

// DELETE /api/v1/admin/shipping/carriers/{id}
func (h *AdminShippingHandler) DeleteCarrier(w http.ResponseWriter, r *http.Request) {
	if err := h.settings.DeleteCarrier(r.Context(), r.PathValue("id")); err != nil {
		writeAdminError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PUT /api/v1/admin/shipping/carriers/{carrierId}/rates/{zoneId}
func (h *AdminShippingHandler) UpsertRate(w http.ResponseWriter, r *http.Request) {
	var req usecase.RateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	rate, err := h.settings.UpsertRate(r.Context(), r.PathValue("carrierId"), r.PathValue("zoneId"), req)
	if err != nil {
		writeAdminError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, rate)
}
