package v1

import (
	"net/http"
	"path/filepath"
	"strings"

	"storefront-backend/pkg/logger"
	"storefront-backend/pkg/utils"
)

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".gif":  true,
}

// LogoUploadHandler accepts a carrier logo as multipart "file", converts it
// to WebP and attaches it to the carrier.
type LogoUploadHandler struct {
	settings      ShippingSettingsManager
	maxUploadSize int64
}

func NewLogoUploadHandler(settings ShippingSettingsManager, maxUploadSizeMB int64) *LogoUploadHandler {
	return &LogoUploadHandler{
		settings:      settings,
		maxUploadSize: maxUploadSizeMB << 20,
	}
}

// POST /api/v1/admin/shipping/carriers/{id}/logo
func (h *LogoUploadHandler) UploadCarrierLogo(w http.ResponseWriter, r *http.Request) {
	log := logger.WithContext(r.Context())
	carrierID := r.PathValue("id")

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize+(1<<20))
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		log.Warn().Err(err).Msg("Logo upload: invalid multipart form")
		utils.WriteError(w, http.StatusBadRequest, "File too large or invalid format")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid file")
		return
	}
	defer file.Close()

	if header.Size > h.maxUploadSize {
		utils.WriteError(w, http.StatusRequestEntityTooLarge, "File too large")
		return
	}

	contentType := header.Header.Get("Content-Type")
	if !utils.IsImage(contentType) {
		utils.WriteError(w, http.StatusBadRequest, "Invalid file type. Allowed: JPEG, PNG, WebP, GIF")
		return
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedExtensions[ext] {
		utils.WriteError(w, http.StatusBadRequest, "Invalid file extension")
		return
	}

	data, newContentType, err := utils.ProcessImage(file, header.Filename, utils.LogoMaxWidth)
	if err != nil {
		log.Warn().Err(err).Str("file", header.Filename).Msg("Logo upload: image processing failed")
		utils.WriteError(w, http.StatusUnprocessableEntity, "Failed to process image")
		return
	}

	url, err := h.settings.UpdateCarrierLogo(r.Context(), carrierID, data, newContentType)
	if err != nil {
		writeAdminError(w, r, err)
		return
	}

	log.Info().Str("carrier_id", carrierID).Str("url", url).Msg("Carrier logo updated")
	utils.WriteJSON(w, http.StatusOK, map[string]string{
		"url": url,
	})
}
