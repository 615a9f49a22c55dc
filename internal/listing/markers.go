// Places listings on the map view grid.

package listing

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	gridColumns = 8
	gridRows    = 6
)

// Marker is a listing pin on the map view. Left and Top are percentages of
// the map's width and height.
type Marker struct {
	PropertyID int64  `json:"propertyId"`
	Title      string `json:"title"`
	Label      string `json:"label"`
	Left       int    `json:"left"`
	Top        int    `json:"top"`
	Saved      bool   `json:"saved"`
}

// MarkerPosition returns the grid position of the i-th marker. Positions
// wrap after gridColumns*gridRows markers.
func MarkerPosition(i int) (left, top int) {
	left = 20 + (i%gridColumns)*10
	top = 15 + ((i/gridColumns)%gridRows)*12
	return left, top
}

// Markers places properties on the grid in list order.
//
// Coordinates are synthetic; latitude and longitude are not used.
func Markers(properties []Property, saved *SavedSet) []Marker {
	out := make([]Marker, len(properties))
	for i := range properties {
		p := &properties[i]
		left, top := MarkerPosition(i)
		out[i] = Marker{
			PropertyID: p.ID,
			Title:      p.Title,
			Label:      FormatPrice(p.Price),
			Left:       left,
			Top:        top,
			Saved:      saved != nil && saved.IsSaved(p.ID),
		}
	}
	return out
}

// FormatPrice renders a price in US dollars without cents, e.g. "$450,000".
func FormatPrice(price float64) string {
	return message.NewPrinter(language.AmericanEnglish).Sprintf("$%d", int64(math.Round(price)))
}
