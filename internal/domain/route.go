package domain

// RouteLeg is one drawable segment of a day's route preview.
// Fallback is true when the directions provider failed for this leg and
// Points is the straight line between the two stops.
type RouteLeg struct {
	From     string   `json:"from"`
	To       string   `json:"to"`
	Points   []LatLng `json:"points"`
	Color    string   `json:"color"`
	Fallback bool     `json:"fallback"`
}

// RoutePreview is the map artifact for one day. It is recomputed whenever
// the selected day changes and never merged with a previous preview.
// Anchored is false when the day has no hotel to start and end at; Legs is
// then empty.
type RoutePreview struct {
	Day      int        `json:"day"`
	Anchored bool       `json:"anchored"`
	Legs     []RouteLeg `json:"legs"`
}
