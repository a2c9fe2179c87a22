package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveFillsDefaults(t *testing.T) {
	s := (&ShippingSettings{}).Resolve()

	assert.Equal(t, PackageDefaults{
		Length:            DefaultPackageLengthCm,
		Width:             DefaultPackageWidthCm,
		Height:            DefaultPackageHeightCm,
		WeightPerItem:     DefaultWeightPerItemKg,
		VolumetricDivisor: DefaultVolumetricDivisor,
	}, s.PackageDefaults)
	assert.Equal(t, DefaultCurrency, s.Currency)
	assert.Equal(t, DefaultCurrencyMinorUnit, s.MinorUnits())
}

func TestResolveDoesNotAliasSource(t *testing.T) {
	src := testSettings()
	out := src.Resolve()

	out.Zones[0].Cities[0] = "Changed"
	out.Carriers[0].ZoneRates[0].BaseCost = 1
	*out.Carriers[0].ZoneRates[1].MaxWeight = 99

	assert.Equal(t, "Bogota", src.Zones[0].Cities[0])
	assert.Equal(t, 8000.0, src.Carriers[0].ZoneRates[0].BaseCost)
	assert.Equal(t, 30.0, *src.Carriers[0].ZoneRates[1].MaxWeight)
}

func TestValidate(t *testing.T) {
	require.NoError(t, testSettings().Validate())

	cases := []struct {
		name   string
		mutate func(s *ShippingSettings)
	}{
		{"overlapping cities", func(s *ShippingSettings) {
			s.Zones[1].Cities = append(s.Zones[1].Cities, "Soacha")
		}},
		{"same-named zones sharing a city", func(s *ShippingSettings) {
			s.Zones = append(s.Zones, ShippingZone{ID: "z-twin", Name: s.Zones[0].Name, Cities: []string{s.Zones[0].Cities[0]}, IsActive: true})
		}},
		{"two fallbacks", func(s *ShippingSettings) {
			s.Zones = append(s.Zones, ShippingZone{ID: "z-2", Name: "Otro", IsActive: true})
		}},
		{"empty city", func(s *ShippingSettings) {
			s.Zones[0].Cities = append(s.Zones[0].Cities, " ")
		}},
		{"zone without name", func(s *ShippingSettings) {
			s.Zones[0].Name = ""
		}},
		{"duplicate rate", func(s *ShippingSettings) {
			s.Carriers[0].ZoneRates = append(s.Carriers[0].ZoneRates, NewRateStub("z-bog"))
		}},
		{"rate for unknown zone", func(s *ShippingSettings) {
			s.Carriers[0].ZoneRates = append(s.Carriers[0].ZoneRates, NewRateStub("z-none"))
		}},
		{"negative base cost", func(s *ShippingSettings) {
			s.Carriers[0].ZoneRates[0].BaseCost = -1
		}},
		{"days min above max", func(s *ShippingSettings) {
			s.Carriers[0].ZoneRates[0].EstimatedDays = EstimatedDays{Min: 3, Max: 1}
		}},
		{"zero max weight", func(s *ShippingSettings) {
			s.Carriers[0].ZoneRates[0].MaxWeight = f64(0)
		}},
		{"duplicate carrier code", func(s *ShippingSettings) {
			s.Carriers[1].Code = s.Carriers[0].Code
		}},
		{"unknown default carrier", func(s *ShippingSettings) {
			s.DefaultCarrierID = "ghost"
		}},
		{"inactive default carrier", func(s *ShippingSettings) {
			s.Carriers[0].IsActive = false
		}},
		{"negative package default", func(s *ShippingSettings) {
			s.PackageDefaults.Height = -5
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := testSettings()
			tc.mutate(s)
			require.ErrorIs(t, s.Validate(), ErrInvalidSettings)
		})
	}

	t.Run("city repeated inside one zone", func(t *testing.T) {
		s := testSettings()
		s.Zones[0].Cities = append(s.Zones[0].Cities, s.Zones[0].Cities[0])
		require.NoError(t, s.Validate())
	})

	t.Run("inactive zones may overlap", func(t *testing.T) {
		s := testSettings()
		s.Zones = append(s.Zones, ShippingZone{ID: "z-old", Name: "Old", Cities: []string{"Chia"}, IsActive: false})
		require.NoError(t, s.Validate())
	})
}

func TestAddZoneStubsEveryCarrier(t *testing.T) {
	s := testSettings()
	s.AddZone(ShippingZone{ID: "z-cali", Name: "Cali", Cities: []string{"Cali"}, IsActive: true})

	for _, c := range s.Carriers {
		r, err := c.RateFor("z-cali")
		require.NoError(t, err, c.Name)
		assert.Equal(t, NewRateStub("z-cali"), *r)
	}
	require.NoError(t, s.Validate())
}

func TestRemoveZoneCascades(t *testing.T) {
	s := testSettings()
	require.NoError(t, s.RemoveZone("z-bog"))

	for _, c := range s.Carriers {
		_, err := c.RateFor("z-bog")
		require.ErrorIs(t, err, ErrRateNotConfigured, c.Name)
	}
	require.NoError(t, s.Validate())
	require.ErrorIs(t, s.RemoveZone("z-bog"), ErrZoneNotFound)
}

func TestCarrierLifecycle(t *testing.T) {
	s := testSettings()

	s.AddCarrier(ShippingCarrier{ID: "c-new", Name: "Envia", Code: "envia", IsActive: true})
	c, err := s.Carrier("c-new")
	require.NoError(t, err)
	assert.Len(t, c.ZoneRates, len(s.Zones))

	require.NoError(t, s.ReplaceCarrier(ShippingCarrier{ID: "c-new", Name: "Envia Express", Code: "envia", IsActive: true}))
	c, _ = s.Carrier("c-new")
	assert.Equal(t, "Envia Express", c.Name)
	assert.Len(t, c.ZoneRates, len(s.Zones))

	require.NoError(t, s.RemoveCarrier("c-serv"))
	assert.Empty(t, s.DefaultCarrierID)
	require.ErrorIs(t, s.RemoveCarrier("c-serv"), ErrCarrierNotFound)
	require.NoError(t, s.Validate())
}

func TestSetRate(t *testing.T) {
	s := testSettings()

	require.NoError(t, s.SetRate("c-coord", CarrierZoneRate{ZoneID: "z-med", BaseCost: 10000, EstimatedDays: EstimatedDays{Min: 2, Max: 4}}))
	c, _ := s.Carrier("c-coord")
	r, err := c.RateFor("z-med")
	require.NoError(t, err)
	assert.Equal(t, 10000.0, r.BaseCost)

	require.NoError(t, s.SetRate("c-coord", CarrierZoneRate{ZoneID: "z-med", BaseCost: 11000, EstimatedDays: EstimatedDays{Min: 2, Max: 4}}))
	c, _ = s.Carrier("c-coord")
	assert.Len(t, c.ZoneRates, 2)

	require.ErrorIs(t, s.SetRate("ghost", NewRateStub("z-med")), ErrCarrierNotFound)
}
