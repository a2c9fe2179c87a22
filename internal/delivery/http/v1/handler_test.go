package v1

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"storefront-backend/internal/domain"
	infracache "storefront-backend/internal/infrastructure/cache"
	"storefront-backend/internal/usecase"
	"storefront-backend/pkg/cache"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubQuoter struct {
	quote   *domain.ShippingQuote
	options []domain.CarrierQuoteOption
	err     error
	lastReq domain.QuoteRequest
}

func (s *stubQuoter) Quote(_ context.Context, req domain.QuoteRequest) (*domain.ShippingQuote, error) {
	s.lastReq = req
	return s.quote, s.err
}

func (s *stubQuoter) Options(_ context.Context, req domain.QuoteRequest) ([]domain.CarrierQuoteOption, error) {
	s.lastReq = req
	return s.options, s.err
}

func doJSON(t *testing.T, h http.HandlerFunc, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var out map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestQuoteHandler(t *testing.T) {
	q := &stubQuoter{quote: &domain.ShippingQuote{ZoneID: "z-bog", CarrierID: "c-serv", Cost: 8937.5, Currency: "COP"}}
	h := NewShippingHandler(q)

	w := doJSON(t, h.Quote, http.MethodPost, "/api/v1/shipping/quote",
		`{"city":"Bogota","items":[{"productId":"p1","quantity":2}],"subtotal":50000}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Bogota", q.lastReq.City)
	assert.Equal(t, 2, q.lastReq.Items[0].Quantity)

	var got domain.ShippingQuote
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, 8937.5, got.Cost)
}

func TestQuoteHandlerErrors(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("%w: %q", domain.ErrNoZoneConfigured, "Pasto"), http.StatusUnprocessableEntity, domain.CodeNoZoneConfigured},
		{domain.ErrCarrierInactive, http.StatusUnprocessableEntity, domain.CodeCarrierInactive},
		{domain.ErrRateNotConfigured, http.StatusUnprocessableEntity, domain.CodeRateNotConfigured},
		{domain.ErrWeightExceedsLimit, http.StatusUnprocessableEntity, domain.CodeWeightExceedsLimit},
		{domain.ErrCarrierNotFound, http.StatusUnprocessableEntity, domain.CodeCarrierNotFound},
		{domain.ErrInvalidRequest, http.StatusBadRequest, domain.CodeInvalidRequest},
		{errors.New("connection refused"), http.StatusInternalServerError, ""},
	}
	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			h := NewShippingHandler(&stubQuoter{err: tc.err})
			w := doJSON(t, h.Quote, http.MethodPost, "/api/v1/shipping/quote", `{"city":"Pasto"}`)

			assert.Equal(t, tc.status, w.Code)
			body := decodeError(t, w)
			assert.Equal(t, tc.code, body["code"])
			if tc.code == "" {
				assert.NotContains(t, body["error"], "connection refused")
			}
		})
	}
}

func TestQuoteHandlerRejectsBadBody(t *testing.T) {
	h := NewShippingHandler(&stubQuoter{})

	w := doJSON(t, h.Quote, http.MethodPost, "/api/v1/shipping/quote", `{"city":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, h.Quote, http.MethodPost, "/api/v1/shipping/quote", `{"city":"Bogota","zip":"110111"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, domain.CodeInvalidRequest, decodeError(t, w)["code"])
}

func TestOptionsHandler(t *testing.T) {
	q := &stubQuoter{options: []domain.CarrierQuoteOption{
		{CarrierID: "c-serv", IsDefault: true, Quote: &domain.ShippingQuote{Cost: 12000}},
		{CarrierID: "c-env", ErrorCode: domain.CodeRateNotConfigured},
	}}
	h := NewShippingHandler(q)

	w := doJSON(t, h.Options, http.MethodPost, "/api/v1/shipping/options", `{"city":"Medellin"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var got struct {
		Options []domain.CarrierQuoteOption `json:"options"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got.Options, 2)
	assert.Equal(t, domain.CodeRateNotConfigured, got.Options[1].ErrorCode)
}

type stubConfigSource struct{ calls int }

func (s *stubConfigSource) PublicConfig(context.Context) (*usecase.PublicConfig, error) {
	s.calls++
	return &usecase.PublicConfig{Currency: "COP", CurrencyMinorUnits: 2, DefaultCarrierID: "c-serv"}, nil
}

func TestShippingConfigIsCached(t *testing.T) {
	src := &stubConfigSource{}
	c := infracache.NewMemoryCache(time.Minute, time.Minute)
	h := NewConfigHandler(c, src, time.Minute)

	for i := 0; i < 2; i++ {
		w := doJSON(t, h.GetShippingConfig, http.MethodGet, "/api/v1/config/shipping", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "public, max-age=300", w.Header().Get("Cache-Control"))
		assert.Contains(t, w.Body.String(), `"defaultCarrierId":"c-serv"`)
	}
	assert.Equal(t, 1, src.calls)

	_, err := cache.NewGeneration(c, usecase.SettingsGenerationKey).Bump(context.Background())
	require.NoError(t, err)
	w := doJSON(t, h.GetShippingConfig, http.MethodGet, "/api/v1/config/shipping", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, src.calls)
}

// stubSettings records calls and returns err when set.
type stubSettings struct {
	err      error
	lastID   string
	zoneReq  usecase.ZoneRequest
	rateArgs [2]string
	logo     []byte
}

func (s *stubSettings) GetSettings(context.Context) (*domain.ShippingSettings, error) {
	return &domain.ShippingSettings{}, s.err
}

func (s *stubSettings) CreateZone(_ context.Context, req usecase.ZoneRequest) (*domain.ShippingZone, error) {
	s.zoneReq = req
	if s.err != nil {
		return nil, s.err
	}
	return &domain.ShippingZone{ID: "z-new", Name: *req.Name, Cities: req.Cities, IsActive: true}, nil
}

func (s *stubSettings) UpdateZone(_ context.Context, id string, req usecase.ZoneRequest) (*domain.ShippingZone, error) {
	s.lastID, s.zoneReq = id, req
	if s.err != nil {
		return nil, s.err
	}
	return &domain.ShippingZone{ID: id}, nil
}

func (s *stubSettings) DeleteZone(_ context.Context, id string) error {
	s.lastID = id
	return s.err
}

func (s *stubSettings) CreateCarrier(_ context.Context, req usecase.CarrierRequest) (*domain.ShippingCarrier, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &domain.ShippingCarrier{ID: "c-new", Name: *req.Name}, nil
}

func (s *stubSettings) UpdateCarrier(_ context.Context, id string, _ usecase.CarrierRequest) (*domain.ShippingCarrier, error) {
	s.lastID = id
	if s.err != nil {
		return nil, s.err
	}
	return &domain.ShippingCarrier{ID: id}, nil
}

func (s *stubSettings) DeleteCarrier(_ context.Context, id string) error {
	s.lastID = id
	return s.err
}

func (s *stubSettings) UpsertRate(_ context.Context, carrierID, zoneID string, req usecase.RateRequest) (*domain.CarrierZoneRate, error) {
	s.rateArgs = [2]string{carrierID, zoneID}
	if s.err != nil {
		return nil, s.err
	}
	return &domain.CarrierZoneRate{ZoneID: zoneID, BaseCost: req.BaseCost}, nil
}

func (s *stubSettings) UpdatePackageDefaults(_ context.Context, d domain.PackageDefaults) (*domain.PackageDefaults, error) {
	return &d, s.err
}

func (s *stubSettings) UpdateGeneral(_ context.Context, req usecase.GeneralRequest) (*domain.GeneralShippingSettings, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &domain.GeneralShippingSettings{DefaultCarrierID: *req.DefaultCarrierID}, nil
}

func (s *stubSettings) UpdateCarrierLogo(_ context.Context, carrierID string, data []byte, contentType string) (string, error) {
	s.lastID, s.logo = carrierID, data
	if s.err != nil {
		return "", s.err
	}
	return "https://cdn.test/carriers/" + carrierID + ".webp", nil
}

// serve routes through a mux so PathValue is populated.
func serve(t *testing.T, pattern string, h http.HandlerFunc, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc(pattern, h)
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func TestAdminZoneRoutes(t *testing.T) {
	s := &stubSettings{}
	h := NewAdminShippingHandler(s)

	w := serve(t, "POST /zones", h.CreateZone, http.MethodPost, "/zones", `{"name":"Cali","cities":["Cali"]}`)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, []string{"Cali"}, s.zoneReq.Cities)

	w = serve(t, "PATCH /zones/{id}", h.UpdateZone, http.MethodPatch, "/zones/z-1", `{"cities":[]}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "z-1", s.lastID)
	assert.NotNil(t, s.zoneReq.Cities)
	assert.Empty(t, s.zoneReq.Cities)

	w = serve(t, "DELETE /zones/{id}", h.DeleteZone, http.MethodDelete, "/zones/z-1", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestAdminErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{fmt.Errorf("%w: z-9", domain.ErrZoneNotFound), http.StatusNotFound},
		{domain.ErrCarrierNotFound, http.StatusNotFound},
		{fmt.Errorf("%w: city %q is listed twice", domain.ErrInvalidSettings, "Chia"), http.StatusUnprocessableEntity},
		{usecase.ErrLogoStorageDisabled, http.StatusServiceUnavailable},
		{errors.New("db down"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		h := NewAdminShippingHandler(&stubSettings{err: tc.err})
		w := serve(t, "DELETE /carriers/{id}", h.DeleteCarrier, http.MethodDelete, "/carriers/c-1", "")
		assert.Equal(t, tc.status, w.Code, tc.err.Error())
	}
}

func TestAdminUpsertRate(t *testing.T) {
	s := &stubSettings{}
	h := NewAdminShippingHandler(s)

	w := serve(t, "PUT /carriers/{carrierId}/rates/{zoneId}", h.UpsertRate, http.MethodPut,
		"/carriers/c-1/rates/z-2", `{"baseCost":9000,"costPerKg":1200,"estimatedDays":{"min":1,"max":2}}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, [2]string{"c-1", "z-2"}, s.rateArgs)
	assert.Contains(t, w.Body.String(), `"baseCost":9000`)
}

func TestAdminGeneralAndDefaults(t *testing.T) {
	h := NewAdminShippingHandler(&stubSettings{})

	w := serve(t, "PUT /general", h.UpdateGeneral, http.MethodPut, "/general", `{"defaultCarrierId":"c-1"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"defaultCarrierId":"c-1"`)

	w = serve(t, "PUT /defaults", h.UpdatePackageDefaults, http.MethodPut, "/defaults",
		`{"length":30,"width":20,"height":10,"weightPerItem":0.3,"volumetricDivisor":5000}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = serve(t, "GET /settings", h.GetSettings, http.MethodGet, "/settings", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"volumetricDivisor":5000`)
}

func multipartLogo(t *testing.T, filename, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	hdr.Set("Content-Type", contentType)
	part, err := mw.CreatePart(hdr)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &body, mw.FormDataContentType()
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestCarrierLogoUpload(t *testing.T) {
	s := &stubSettings{}
	h := NewLogoUploadHandler(s, 2)
	mux := http.NewServeMux()
	mux.HandleFunc("POST /carriers/{id}/logo", h.UploadCarrierLogo)

	body, ct := multipartLogo(t, "logo.png", "image/png", pngBytes(t))
	req := httptest.NewRequest(http.MethodPost, "/carriers/c-1/logo", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "c-1", s.lastID)
	assert.NotEmpty(t, s.logo)
	assert.Contains(t, w.Body.String(), "https://cdn.test/carriers/c-1.webp")

	body, ct = multipartLogo(t, "logo.pdf", "application/pdf", []byte("%PDF"))
	req = httptest.NewRequest(http.MethodPost, "/carriers/c-1/logo", body)
	req.Header.Set("Content-Type", ct)
	w = httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

func TestHealth(t *testing.T) {
	w := doJSON(t, NewHealthHandler(stubPinger{}).Health, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, NewHealthHandler(stubPinger{err: errors.New("down")}).Health, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
