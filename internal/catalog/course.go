package catalog

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/shopspring/decimal"
)

// Course is a read-only catalog listing.
type Course struct {
	ID           int              `json:"id"`
	Title        string           `json:"title"`
	Description  string           `json:"description"`
	URL          string           `json:"url,omitempty"`
	ThumbnailURL string           `json:"thumbnailUrl"`
	Instructor   string           `json:"instructor,omitempty"`
	Rating       *float64         `json:"rating,omitempty"`
	NumReviews   *int             `json:"numReviews,omitempty"`
	PriceUSD     *decimal.Decimal `json:"priceUsd,omitempty"`
}

// Decode reads a JSON array of courses.
func Decode(r io.Reader) ([]Course, error) {
	var courses []Course
	if err := json.NewDecoder(r).Decode(&courses); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}
	return courses, nil
}

func (c Course) validate() error {
	if c.Title == "" {
		return fmt.Errorf("course %d: title is required", c.ID)
	}
	if c.Rating != nil && (*c.Rating < 0 || *c.Rating > 5) {
		return fmt.Errorf("course %d: rating %.2f out of range 0-5", c.ID, *c.Rating)
	}
	if c.NumReviews != nil && *c.NumReviews < 0 {
		return fmt.Errorf("course %d: negative review count", c.ID)
	}
	if c.PriceUSD != nil && c.PriceUSD.IsNegative() {
		return fmt.Errorf("course %d: negative price", c.ID)
	}
	return nil
}
