package flights

import (
	"context"
	"testing"

	"aerovoice/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyntheticSearchDeterministic(t *testing.T) {
	svc := NewSyntheticSearchService()
	query := models.FlightQuery{
		Origin:        "Boston",
		Destination:   "Denver",
		DepartureDate: "2026-10-12",
		TripType:      models.TripOneWay,
	}

	first, err := svc.Search(context.Background(), query)
	require.NoError(t, err)
	second, err := svc.Search(context.Background(), query)
	require.NoError(t, err)

	assert.Equal(t, first, second, "same query must yield the same options")
	require.Len(t, first, 3)
	for _, opt := range first {
		assert.True(t, opt.Synthetic)
		assert.Equal(t, "Boston", opt.Origin)
		assert.Equal(t, "Denver", opt.Destination)
		assert.Greater(t, opt.Price, 0.0)
		assert.True(t, opt.Arrival.After(opt.Departure))
	}
}

func TestSyntheticSearchVariesByQuery(t *testing.T) {
	svc := NewSyntheticSearchService()
	a, err := svc.Search(context.Background(), models.FlightQuery{
		Origin: "Boston", Destination: "Denver", DepartureDate: "2026-10-12",
	})
	require.NoError(t, err)
	b, err := svc.Search(context.Background(), models.FlightQuery{
		Origin: "Boston", Destination: "Chicago", DepartureDate: "2026-10-12",
	})
	require.NoError(t, err)
	assert.NotEqual(t, a[0].ID, b[0].ID)
}

func TestSyntheticSearchRejectsIncompleteQuery(t *testing.T) {
	svc := NewSyntheticSearchService()
	_, err := svc.Search(context.Background(), models.FlightQuery{Origin: "Boston"})
	assert.Error(t, err)

	_, err = svc.Search(context.Background(), models.FlightQuery{
		Origin: "Boston", Destination: "Denver", DepartureDate: "not-a-date",
	})
	assert.Error(t, err)
}
