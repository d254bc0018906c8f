package feed

import (
	"time"

	"github.com/OzanD26/halk-habercisi/internal/domain/enums"
	pgrepo "github.com/OzanD26/halk-habercisi/internal/repo/postgres"
)

type Coordinates struct {
	Latitude  float64
	Longitude float64
}

// ReportView is the canonical shape delivered to feed consumers. Optional
// fields are defaulted so every view renders the same way.
type ReportView struct {
	ID          string
	Description string
	MediaURL    string
	StoragePath *string
	MediaType   enums.MediaKind
	Approved    bool
	Location    *Coordinates
	CreatedAt   time.Time
}

func reshape(records []pgrepo.ReportRecord) []ReportView {
	views := make([]ReportView, 0, len(records))
	for _, rec := range records {
		views = append(views, reshapeOne(rec))
	}
	return views
}

func reshapeOne(rec pgrepo.ReportRecord) ReportView {
	mediaType := enums.MediaKind(rec.MediaType)
	if mediaType != enums.MediaKindImage && mediaType != enums.MediaKindVideo {
		mediaType = enums.MediaKindImage
	}

	var location *Coordinates
	if rec.Latitude != nil && rec.Longitude != nil {
		location = &Coordinates{Latitude: *rec.Latitude, Longitude: *rec.Longitude}
	}

	return ReportView{
		ID:          rec.ID,
		Description: rec.Description,
		MediaURL:    rec.MediaURL,
		StoragePath: rec.StoragePath,
		MediaType:   mediaType,
		Approved:    rec.Approved,
		Location:    location,
		CreatedAt:   rec.CreatedAt,
	}
}
