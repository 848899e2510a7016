package models

import "time"

// RouteResponse describes one installed route, for GET /routes.
type RouteResponse struct {
	Destination string    `json:"destination"`
	Gateway     string    `json:"gateway,omitempty"`
	Device      string    `json:"device,omitempty"`
	Provenance  string    `json:"provenance"`
	Zone        string    `json:"zone,omitempty"`
	QueryName   string    `json:"query_name,omitempty"`
	InsertedAt  time.Time `json:"inserted_at"`
}

// RoutesResponse is the response for GET /routes.
type RoutesResponse struct {
	Routes []RouteResponse `json:"routes"`
	Count  int             `json:"count"`
}

// ZoneResponse describes one configured zone, for GET /zones.
type ZoneResponse struct {
	Index     int      `json:"index"`
	Patterns  []string `json:"patterns,omitempty"`
	Upstreams []string `json:"upstreams"`
	Route     string   `json:"route"`
	Exclusive bool     `json:"exclusive,omitempty"`
}

// ZonesResponse is the response for GET /zones.
type ZonesResponse struct {
	Zones   []ZoneResponse `json:"zones"`
	Default ZoneResponse   `json:"default"`
}
