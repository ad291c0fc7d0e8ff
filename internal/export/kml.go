// Package export renders trips in map formats (KML for desktop GIS, GeoJSON for web maps).
package export

import (
	"fmt"
	"io"

	kml "github.com/twpayne/go-kml"

	"github.com/ridepool/service-trip/internal/application"
	"github.com/ridepool/service-trip/internal/domain/route"
)

// KMLContentType is the media type of WriteTripKML output.
const KMLContentType = "application/vnd.google-earth.kml+xml"

// WriteTripKML writes a KML document with the trip's route line and its two endpoints.
func WriteTripKML(w io.Writer, trip application.TripDTO) error {
	path, err := trip.RouteInfo.Points()
	if err != nil || len(path) < 2 {
		path = []route.Point{trip.Source.Point(), trip.Destination.Point()}
	}

	coords := make([]kml.Coordinate, len(path))
	for i, p := range path {
		coords[i] = kml.Coordinate{Lon: p.Y, Lat: p.X}
	}

	doc := kml.KML(
		kml.Document(
			kml.Name(trip.TripNumber),
			kml.Description(fmt.Sprintf("%s to %s, %.2f km, %d of %d seats free",
				trip.Source.Label, trip.Destination.Label,
				trip.RouteInfo.DistanceKm, trip.SeatsAvailable, trip.SeatsTotal)),
			kml.Placemark(
				kml.Name("Route"),
				kml.LineString(
					kml.Tessellate(true),
					kml.Coordinates(coords...),
				),
			),
			endpoint("Source", trip.Source),
			endpoint("Destination", trip.Destination),
		),
	)
	if err := doc.WriteIndent(w, "", "  "); err != nil {
		return fmt.Errorf("failed to write KML: %w", err)
	}
	return nil
}

func endpoint(kind string, p route.Place) kml.Element {
	name := kind
	if p.Label != "" {
		name = fmt.Sprintf("%s: %s", kind, p.Label)
	}
	return kml.Placemark(
		kml.Name(name),
		kml.Point(
			kml.Coordinates(kml.Coordinate{Lon: p.Longitude, Lat: p.Latitude}),
		),
	)
}
