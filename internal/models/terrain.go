package models

import "time"

// Point is one vertex of a terrain ring. Field names match what the
// client-side drawing library submits.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Terrain is a land parcel owned by exactly one user. Area is carried as
// decimal text end to end so stored values round-trip without float
// formatting.
type Terrain struct {
	ID          string
	OwnerID     string
	Name        string
	Description string
	Coordinates []Point
	Area        string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TerrainSummary is the reduced-disclosure view served to anonymous map
// visitors: shape and size only, no name, description or owner.
type TerrainSummary struct {
	Coordinates []Point
	Area        string
}

// TerrainStats are derived aggregates, never stored.
type TerrainStats struct {
	Count     int    `json:"count"`
	TotalArea string `json:"total_area"`
}
