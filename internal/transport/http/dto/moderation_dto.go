package dto

import "time"

type ModerationReportResponse struct {
	ID          string           `json:"id"`
	Description string           `json:"description"`
	MediaURL    string           `json:"media_url"`
	StoragePath string           `json:"storage_path,omitempty"`
	MediaType   string           `json:"media_type"`
	Approved    bool             `json:"approved"`
	Location    *LocationPayload `json:"location,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
}

type ModerationReportsListResponse struct {
	Items []ModerationReportResponse `json:"items"`
}
