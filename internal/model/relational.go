package model

import "time"

// Route is a loading/unloading pair. Unique by the pair.
type Route struct {
	ID                int64  `json:"id"`
	LoadingLocation   string `json:"loading_location"`
	UnloadingLocation string `json:"unloading_location"`
}

// TransportType is a named mode of transport. Unique by name.
type TransportType struct {
	ID   int64  `json:"id"`
	Type string `json:"type"`
}

// TransportDetail refines a transport type. Unique by (type, subtype, size).
type TransportDetail struct {
	ID              int64  `json:"id"`
	TransportTypeID int64  `json:"transport_type_id"`
	Subtype         string `json:"subtype"`
	Size            string `json:"size"`
}

// Price is one quoted price observed in one message. Prices are append-only,
// so a route/detail pair accumulates a history.
type Price struct {
	ID                int64    `json:"id"`
	TransportDetailID int64    `json:"transport_detail_id"`
	RouteID           int64    `json:"route_id"`
	Value             string   `json:"value"`
	Amount            *float64 `json:"amount,omitempty"`
	Currency          string   `json:"currency,omitempty"`
	MessageID         int64    `json:"message_id"`
}

// PriceRow is a price joined with its route and transport description.
type PriceRow struct {
	PriceID           int64     `json:"price_id"`
	LoadingLocation   string    `json:"loading_location"`
	UnloadingLocation string    `json:"unloading_location"`
	TransportType     string    `json:"transport_type"`
	Subtype           string    `json:"subtype"`
	Size              string    `json:"size"`
	Value             string    `json:"value"`
	Amount            *float64  `json:"amount,omitempty"`
	Currency          string    `json:"currency,omitempty"`
	MessageID         int64     `json:"message_id"`
	ReceivedTime      time.Time `json:"received_time"`
}

// Stats summarizes the store contents.
type Stats struct {
	Messages         int `json:"messages"`
	Processed        int `json:"processed"`
	Migrated         int `json:"migrated"`
	Routes           int `json:"routes"`
	TransportTypes   int `json:"transport_types"`
	TransportDetails int `json:"transport_details"`
	Prices           int `json:"prices"`
}
