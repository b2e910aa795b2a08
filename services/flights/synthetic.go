// File: services/flights/synthetic.go
package flights

import (
	"context"
	"fmt"
	"hash/fnv"
	"time"

	"aerovoice/models"
)

var syntheticCarriers = []struct {
	name string
	code string
}{
	{"Pacific Air", "PA"},
	{"Atlantic Jet", "AJ"},
	{"Skyline", "SK"},
	{"Meridian", "MD"},
}

// SyntheticSearchService generates deterministic placeholder options from the
// query itself. It stands in when the upstream is unavailable so the dialogue
// can keep moving; options are marked Synthetic.
type SyntheticSearchService struct{}

func NewSyntheticSearchService() *SyntheticSearchService { return &SyntheticSearchService{} }

func (s *SyntheticSearchService) Search(_ context.Context, query models.FlightQuery) ([]models.FlightOption, error) {
	if query.Origin == "" || query.Destination == "" || query.DepartureDate == "" {
		return nil, fmt.Errorf("flights: incomplete query")
	}
	depart, err := time.Parse("2006-01-02", query.DepartureDate)
	if err != nil {
		return nil, fmt.Errorf("flights: bad departure date %q: %w", query.DepartureDate, err)
	}

	seed := hashQuery(query)
	options := make([]models.FlightOption, 0, 3)
	for i := 0; i < 3; i++ {
		carrier := syntheticCarriers[(seed+uint32(i))%uint32(len(syntheticCarriers))]
		departAt := depart.Add(time.Duration(7+5*i) * time.Hour)
		duration := time.Duration(2+int(seed%4)) * time.Hour
		stops := i % 2
		if stops > 0 {
			duration += 90 * time.Minute
		}
		price := 120 + float64((seed%200)+uint32(i)*85)
		options = append(options, models.FlightOption{
			ID:           fmt.Sprintf("%s%d-%s", carrier.code, 100+int(seed%800)+i, query.DepartureDate),
			Carrier:      carrier.name,
			FlightNumber: fmt.Sprintf("%s%d", carrier.code, 100+int(seed%800)+i),
			Origin:       query.Origin,
			Destination:  query.Destination,
			Departure:    departAt,
			Arrival:      departAt.Add(duration),
			Stops:        stops,
			Price:        price,
			Currency:     "usd",
			Synthetic:    true,
		})
	}
	return options, nil
}

func hashQuery(q models.FlightQuery) uint32 {
	h := fnv.New32a()
	fmt.Fprintf(h, "%s|%s|%s|%s", q.Origin, q.Destination, q.DepartureDate, q.TripType)
	return h.Sum32()
}
