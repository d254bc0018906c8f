package ws

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/OzanD26/halk-habercisi/internal/domain/enums"
	feedsvc "github.com/OzanD26/halk-habercisi/internal/services/feed"
	"github.com/OzanD26/halk-habercisi/internal/transport/http/dto"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// FeedHandler streams moderation feed snapshots over a websocket. Each
// connection owns its own synchronizer, so a tab switch or refresh from
// one moderator never disturbs another.
type FeedHandler struct {
	store  feedsvc.Store
	logger *zap.Logger
}

func NewFeedHandler(store feedsvc.Store, logger *zap.Logger) *FeedHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FeedHandler{store: store, logger: logger}
}

func (h *FeedHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	tab := enums.FilterTabPending
	if raw := r.URL.Query().Get("tab"); raw != "" {
		parsed, err := enums.ParseFilterTab(raw)
		if err != nil {
			h.writeClose(conn, websocket.ClosePolicyViolation, "unknown tab")
			return
		}
		tab = parsed
	}

	sender := &frameSender{conn: conn, logger: h.logger}
	var syn *feedsvc.Synchronizer
	syn = feedsvc.NewSynchronizer(h.store, feedsvc.Consumer{
		OnData: func(views []feedsvc.ReportView) {
			sender.sendSnapshot(string(syn.Tab()), views)
		},
		OnDiagnostic: func(mode feedsvc.QueryMode, lastError string) {
			sender.send(dto.FeedDiagnosticFrame{Type: "diagnostic", Mode: string(mode), Message: lastError})
		},
		OnLoadingChange: func(loading bool) {
			sender.send(dto.FeedLoadingFrame{Type: "loading", Loading: loading})
		},
	}, h.logger)
	defer syn.Detach()

	if err := syn.Attach(r.Context(), tab); err != nil {
		h.logger.Warn("feed attach failed", zap.Error(err))
		h.writeClose(conn, websocket.CloseInternalServerErr, "feed unavailable")
		return
	}

	for {
		var cmd dto.FeedCommand
		if err := conn.ReadJSON(&cmd); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Debug("websocket read failed", zap.Error(err))
			}
			return
		}

		switch cmd.Action {
		case "refresh":
			if err := syn.Refresh(r.Context()); err != nil {
				h.logger.Warn("feed refresh failed", zap.Error(err))
			}
		case "tab":
			parsed, err := enums.ParseFilterTab(cmd.Tab)
			if err != nil {
				sender.send(dto.FeedDiagnosticFrame{Type: "diagnostic", Mode: string(syn.Mode()), Message: "unknown tab: " + cmd.Tab})
				continue
			}
			if err := syn.Attach(r.Context(), parsed); err != nil {
				h.logger.Warn("feed tab switch failed", zap.Error(err))
			}
		default:
			sender.send(dto.FeedDiagnosticFrame{Type: "diagnostic", Mode: string(syn.Mode()), Message: "unknown action: " + cmd.Action})
		}
	}
}

func (h *FeedHandler) writeClose(conn *websocket.Conn, code int, reason string) {
	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason))
}

// frameSender serializes concurrent writers: synchronizer callbacks fire
// from subscription goroutines while the read loop answers commands.
type frameSender struct {
	mu     sync.Mutex
	conn   *websocket.Conn
	logger *zap.Logger
}

func (s *frameSender) send(frame any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.conn.WriteJSON(frame); err != nil {
		s.logger.Debug("websocket write failed", zap.Error(err))
	}
}

func (s *frameSender) sendSnapshot(tab string, views []feedsvc.ReportView) {
	items := make([]dto.FeedReportItem, 0, len(views))
	for _, view := range views {
		item := dto.FeedReportItem{
			ID:          view.ID,
			Description: view.Description,
			MediaURL:    view.MediaURL,
			MediaType:   string(view.MediaType),
			Approved:    view.Approved,
			CreatedAt:   view.CreatedAt,
		}
		if view.StoragePath != nil {
			item.StoragePath = *view.StoragePath
		}
		if view.Location != nil {
			item.Location = &dto.LocationPayload{
				Latitude:  view.Location.Latitude,
				Longitude: view.Location.Longitude,
			}
		}
		items = append(items, item)
	}
	s.send(dto.FeedSnapshotFrame{Type: "snapshot", Tab: tab, Items: items})
}
