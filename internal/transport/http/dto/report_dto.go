package dto

import "time"

type LocationPayload struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type SubmitReportResponse struct {
	ID          string           `json:"id"`
	Description string           `json:"description"`
	MediaURL    string           `json:"media_url"`
	StoragePath string           `json:"storage_path"`
	MediaType   string           `json:"media_type"`
	Approved    bool             `json:"approved"`
	Location    *LocationPayload `json:"location,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
}
