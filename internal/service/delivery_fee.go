package service

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Cheertaboi/delivery-order-service/internal/models"
	"github.com/Cheertaboi/delivery-order-service/internal/normalize"
)

// FeeQuote is the outcome of fee resolution.
type FeeQuote struct {
	Fee      decimal.Decimal
	Source   models.FeeSource
	ZoneName *string
}

// ResolveFee prices delivery for an address under the restaurant's fee mode.
// distanceKm is nil when the address could not be geocoded, in which case no
// distance band can match. The radius ceiling is the caller's responsibility.
func ResolveFee(r *models.Restaurant, address string, distanceKm *float64) (FeeQuote, error) {
	flat := FeeQuote{Fee: nonNegative(r.DeliveryFee), Source: models.FeeSourceFlat}
	fallback := FeeQuote{Fee: flat.Fee, Source: models.FeeSourceFallback}

	var (
		zone *models.NeighborhoodRate
		band *models.DistanceBand
	)
	if cfg := r.DeliveryConfig; cfg != nil {
		zone = matchNeighborhood(cfg.NeighborhoodRates, address)
		band = matchDistanceBand(cfg.DistanceBands, distanceKm)
	}

	switch mode := r.Mode(); mode {
	case models.FeeModeFlat:
		return flat, nil

	case models.FeeModeDistanceBands:
		if band != nil {
			return FeeQuote{Fee: nonNegative(band.Fee), Source: models.FeeSourceDistanceBand}, nil
		}
		return fallback, nil

	case models.FeeModeNeighborhoodFixed:
		if zone != nil {
			return zoneQuote(zone, models.FeeSourceNeighborhoodFixed), nil
		}
		return fallback, nil

	case models.FeeModeHybrid:
		if zone != nil {
			return zoneQuote(zone, models.FeeSourceHybrid), nil
		}
		if band != nil {
			return FeeQuote{Fee: nonNegative(band.Fee), Source: models.FeeSourceHybrid}, nil
		}
		return fallback, nil

	default:
		return FeeQuote{}, fmt.Errorf("%w: %q", models.ErrUnknownFeeMode, mode)
	}
}

func zoneQuote(zone *models.NeighborhoodRate, source models.FeeSource) FeeQuote {
	name := strings.TrimSpace(zone.Name)
	return FeeQuote{Fee: nonNegative(zone.Fee), Source: source, ZoneName: &name}
}

// matchNeighborhood returns the first active rate whose folded name occurs in
// the folded address. List order is the only tie-break.
func matchNeighborhood(rates []models.NeighborhoodRate, address string) *models.NeighborhoodRate {
	addr := normalize.Text(address)
	if addr == "" {
		return nil
	}
	for i := range rates {
		if !rates[i].Active {
			continue
		}
		name := normalize.Text(rates[i].Name)
		if name != "" && strings.Contains(addr, name) {
			return &rates[i]
		}
	}
	return nil
}

// matchDistanceBand returns the band with the smallest upToKm that still
// covers distanceKm. The input slice is left untouched.
func matchDistanceBand(bands []models.DistanceBand, distanceKm *float64) *models.DistanceBand {
	if distanceKm == nil || len(bands) == 0 {
		return nil
	}
	sorted := make([]models.DistanceBand, len(bands))
	copy(sorted, bands)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].UpToKm < sorted[j].UpToKm
	})
	for i := range sorted {
		if sorted[i].UpToKm >= *distanceKm {
			return &sorted[i]
		}
	}
	return nil
}

func nonNegative(v float64) decimal.Decimal {
	return round2(decimal.Max(money(v), decimal.Zero))
}
