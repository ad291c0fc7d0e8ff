package export

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/ridepool/service-trip/internal/application"
)

// GeoJSONContentType is the media type of SearchGeoJSON output.
const GeoJSONContentType = "application/geo+json"

// SearchGeoJSON renders search matches as a FeatureCollection of route lines, best match first.
// Each feature carries its rank and score so a map can style closer trips differently.
func SearchGeoJSON(matches []application.TripMatchDTO) ([]byte, error) {
	fc := geojson.NewFeatureCollection()
	for i, m := range matches {
		f := geojson.NewFeature(orb.LineString{
			{m.Trip.Source.Longitude, m.Trip.Source.Latitude},
			{m.Trip.Destination.Longitude, m.Trip.Destination.Latitude},
		})
		f.ID = m.Trip.ID.String()
		f.Properties["rank"] = i + 1
		f.Properties["score"] = float64(m.Score)
		f.Properties["trip_number"] = m.Trip.TripNumber
		f.Properties["source"] = m.Trip.Source.Label
		f.Properties["destination"] = m.Trip.Destination.Label
		f.Properties["departure_at"] = m.Trip.DepartureAt
		f.Properties["seats_available"] = m.Trip.SeatsAvailable
		f.Properties["fare_per_seat_cents"] = m.Trip.FarePerSeatCents
		fc.Append(f)
	}

	data, err := fc.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("failed to marshal geojson: %w", err)
	}
	return data, nil
}
