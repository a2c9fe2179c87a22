package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"storefront-backend/internal/domain"
)

// fakeShippingRepo keeps the aggregate in memory and mirrors the cascade
// rules of the SQL schema.
type fakeShippingRepo struct {
	mu       sync.Mutex
	settings *domain.ShippingSettings
	loads    int
	failNext error
	lockErr  error
	calls    []string

	// afterGet runs once, after GetSettings has copied the stored settings.
	afterGet func()

	// row stands in for the settings row lock held until the fake
	// transaction ends.
	row sync.Mutex
}

func newFakeShippingRepo(s *domain.ShippingSettings) *fakeShippingRepo {
	if s == nil {
		s = &domain.ShippingSettings{}
	}
	return &fakeShippingRepo{settings: s.Clone()}
}

func (f *fakeShippingRepo) takeErr() error {
	err := f.failNext
	f.failNext = nil
	return err
}

func (f *fakeShippingRepo) GetSettings(_ context.Context) (*domain.ShippingSettings, error) {
	f.mu.Lock()
	f.loads++
	f.calls = append(f.calls, "get")
	out := f.settings.Clone()
	hook := f.afterGet
	f.afterGet = nil
	f.mu.Unlock()

	if hook != nil {
		hook()
	}
	return out, nil
}

func (f *fakeShippingRepo) CreateZone(_ context.Context, zone *domain.ShippingZone) (*domain.ShippingZone, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeErr(); err != nil {
		return nil, err
	}
	f.calls = append(f.calls, "create_zone")
	f.settings.AddZone(*zone)
	out := *zone
	return &out, nil
}

func (f *fakeShippingRepo) UpdateZone(_ context.Context, zone *domain.ShippingZone) (*domain.ShippingZone, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.settings.ReplaceZone(*zone); err != nil {
		return nil, err
	}
	out := *zone
	return &out, nil
}

func (f *fakeShippingRepo) DeleteZone(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.settings.RemoveZone(id)
}

func (f *fakeShippingRepo) CreateCarrier(_ context.Context, carrier *domain.ShippingCarrier) (*domain.ShippingCarrier, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.settings.Carriers {
		if c.Code == carrier.Code {
			return nil, fmt.Errorf("duplicate key value violates unique constraint on code %q", c.Code)
		}
	}
	f.settings.Carriers = append(f.settings.Carriers, *carrier)
	out := *carrier
	return &out, nil
}

func (f *fakeShippingRepo) UpdateCarrier(_ context.Context, carrier *domain.ShippingCarrier) (*domain.ShippingCarrier, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := *carrier
	c.ZoneRates = nil
	if err := f.settings.ReplaceCarrier(c); err != nil {
		return nil, err
	}
	out := *carrier
	out.ZoneRates = nil
	return &out, nil
}

func (f *fakeShippingRepo) UpdateCarrierLogo(_ context.Context, id, logoURL string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, err := f.settings.Carrier(id)
	if err != nil {
		return err
	}
	c.LogoURL = logoURL
	return nil
}

func (f *fakeShippingRepo) DeleteCarrier(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.settings.RemoveCarrier(id)
}

func (f *fakeShippingRepo) UpsertRate(_ context.Context, carrierID string, rate *domain.CarrierZoneRate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.settings.SetRate(carrierID, *rate)
}

func (f *fakeShippingRepo) UpdateGeneral(_ context.Context, g *domain.GeneralShippingSettings) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.settings.DefaultCarrierID = g.DefaultCarrierID
	f.settings.Origin = g.Origin
	f.settings.Currency = g.Currency
	f.settings.CurrencyMinorUnits = g.CurrencyMinorUnits
	return nil
}

func (f *fakeShippingRepo) UpdatePackageDefaults(_ context.Context, d *domain.PackageDefaults) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.settings.PackageDefaults = *d
	return nil
}

func (f *fakeShippingRepo) CountZones(_ context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "count")
	return len(f.settings.Zones), nil
}

func (f *fakeShippingRepo) LockSettings(ctx context.Context) error {
	st, ok := ctx.Value(fakeTxKey{}).(*fakeTxState)
	if !ok {
		return errors.New("lock outside transaction")
	}
	if f.lockErr != nil {
		return f.lockErr
	}
	if st.unlock == nil {
		f.row.Lock()
		st.unlock = f.row.Unlock
	}
	f.mu.Lock()
	f.calls = append(f.calls, "lock")
	f.mu.Unlock()
	return nil
}

func (f *fakeShippingRepo) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeShippingRepo) snapshot() *domain.ShippingSettings {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.settings.Clone()
}

type fakeTxKey struct{}

type fakeTxState struct{ unlock func() }

// passthroughTx runs fn without a real transaction. Row locks taken by the
// fake repository are released when fn returns.
type passthroughTx struct {
	mu    sync.Mutex
	calls int
}

func (p *passthroughTx) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()

	st := &fakeTxState{}
	err := fn(context.WithValue(ctx, fakeTxKey{}, st))
	if st.unlock != nil {
		st.unlock()
	}
	return err
}

type fakeLogoStorage struct {
	uploads []string
	deleted []string
	fail    bool
}

func (s *fakeLogoStorage) UploadBuffer(_ context.Context, prefix string, _ []byte, contentType string) (string, error) {
	if s.fail {
		return "", errors.New("upload failed")
	}
	ext := strings.TrimPrefix(contentType, "image/")
	url := fmt.Sprintf("https://cdn.test/%s/%d.%s", prefix, len(s.uploads)+1, ext)
	s.uploads = append(s.uploads, url)
	return url, nil
}

func (s *fakeLogoStorage) DeleteFile(_ context.Context, fileURL string) error {
	s.deleted = append(s.deleted, fileURL)
	return nil
}

func f64(v float64) *float64 { return &v }
func str(v string) *string    { return &v }
func boolp(v bool) *bool      { return &v }

func fixtureSettings() *domain.ShippingSettings {
	return &domain.ShippingSettings{
		Zones: []domain.ShippingZone{
			{ID: "z-bog", Name: "Bogota", Cities: []string{"Bogota", "Chia"}, IsActive: true},
			{ID: "z-med", Name: "Medellin", Cities: []string{"Medellin"}, IsActive: true},
			{ID: "z-rest", Name: "Resto del pais", Cities: []string{}, IsActive: true},
		},
		Carriers: []domain.ShippingCarrier{
			{
				ID: "c-serv", Name: "Servientrega", Code: "servientrega", VolumetricFactor: 6000, IsActive: true,
				ZoneRates: []domain.CarrierZoneRate{
					{ZoneID: "z-bog", BaseCost: 8000, CostPerKg: 1500, EstimatedDays: domain.EstimatedDays{Min: 1, Max: 2}, FreeShippingThreshold: f64(150000)},
					{ZoneID: "z-med", BaseCost: 12000, CostPerKg: 2000, EstimatedDays: domain.EstimatedDays{Min: 2, Max: 3}},
					{ZoneID: "z-rest", BaseCost: 15000, CostPerKg: 2500, EstimatedDays: domain.EstimatedDays{Min: 3, Max: 6}, MaxWeight: f64(20)},
				},
			},
			{
				ID: "c-env", Name: "Envia", Code: "envia", IsActive: true,
				ZoneRates: []domain.CarrierZoneRate{
					{ZoneID: "z-bog", BaseCost: 7000, CostPerKg: 1000, EstimatedDays: domain.EstimatedDays{Min: 1, Max: 3}},
				},
			},
		},
		DefaultCarrierID: "c-serv",
		PackageDefaults:  domain.PackageDefaults{Length: 30, Width: 25, Height: 5, WeightPerItem: 0.25, VolumetricDivisor: 5000},
		Currency:         "COP",
	}
}
