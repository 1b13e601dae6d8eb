package domain

// Place is a geographic location with an external gazetteer identifier.
type Place struct {
	ID          int64
	Name        string
	GeoNamesURI string
	Latitude    float64
	Longitude   float64
	Notes       string
}
