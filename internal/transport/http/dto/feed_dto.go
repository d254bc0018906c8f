package dto

import "time"

// Feed frames are pushed over the moderation websocket. Every frame
// carries a type tag so clients can dispatch without peeking at fields.

type FeedReportItem struct {
	ID          string           `json:"id"`
	Description string           `json:"description"`
	MediaURL    string           `json:"media_url"`
	StoragePath string           `json:"storage_path,omitempty"`
	MediaType   string           `json:"media_type"`
	Approved    bool             `json:"approved"`
	Location    *LocationPayload `json:"location,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
}

type FeedSnapshotFrame struct {
	Type  string           `json:"type"` // "snapshot"
	Tab   string           `json:"tab"`
	Items []FeedReportItem `json:"items"`
}

type FeedDiagnosticFrame struct {
	Type    string `json:"type"` // "diagnostic"
	Mode    string `json:"mode"`
	Message string `json:"message,omitempty"`
}

type FeedLoadingFrame struct {
	Type    string `json:"type"` // "loading"
	Loading bool   `json:"loading"`
}

type FeedCommand struct {
	Action string `json:"action"` // "tab" or "refresh"
	Tab    string `json:"tab,omitempty"`
}
