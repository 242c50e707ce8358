package dashboard

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/glidekit/glidesync/internal/sync"
)

// Handler turns watch session events into dashboard messages. It bridges
// the watch result loop and the WebSocket server.
//
// All methods are expected to be called from the single goroutine that
// drains the coordinator's Results channel, so stats need no lock.
type Handler struct {
	server *Server
	logger *slog.Logger

	stats *StatsData
}

// NewHandler creates an event handler connected to a dashboard server
func NewHandler(server *Server, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Handler{
		server: server,
		logger: logger,
		stats: &StatsData{
			ByType: make(map[string]int),
		},
	}
}

// OnWatchStarted announces a new watch session to connected clients
func (h *Handler) OnWatchStarted(dir string, types []string, autoSync bool, instance string) {
	data := WatchStartedData{
		Dir:      dir,
		Types:    types,
		AutoSync: autoSync,
		Instance: instance,
	}

	dataJSON, err := json.Marshal(data)
	if err != nil {
		h.logger.Error("failed to marshal watch session data", slog.String("error", err.Error()))
		return
	}

	h.server.Broadcast(Message{
		Type:      MessageTypeWatchStarted,
		Timestamp: time.Now(),
		Data:      dataJSON,
	})
}

// OnSyncResult broadcasts one outcome and the refreshed statistics
func (h *Handler) OnSyncResult(res sync.Result) {
	h.stats.Total++
	if res.Success {
		h.stats.Succeeded++
	} else {
		h.stats.Failed++
	}
	h.stats.ByType[res.Type]++

	data := SyncResultData{
		Name:      res.Name,
		Type:      res.Type,
		FilePath:  res.FilePath,
		Direction: string(res.Direction),
		Success:   res.Success,
		RemoteID:  res.RemoteID,
		Message:   res.Message,
		Error:     res.Err,
	}

	dataJSON, err := json.Marshal(data)
	if err != nil {
		h.logger.Error("failed to marshal sync result", slog.String("error", err.Error()))
		return
	}

	h.server.Broadcast(Message{
		Type:      MessageTypeSyncResult,
		Timestamp: res.Timestamp,
		Data:      dataJSON,
	})

	h.broadcastStats()
}

// broadcastStats sends current statistics to all clients
func (h *Handler) broadcastStats() {
	dataJSON, err := json.Marshal(h.stats)
	if err != nil {
		h.logger.Error("failed to marshal stats", slog.String("error", err.Error()))
		return
	}

	h.server.Broadcast(Message{
		Type:      MessageTypeStats,
		Timestamp: time.Now(),
		Data:      dataJSON,
	})
}

// GetStats returns the current statistics
func (h *Handler) GetStats() StatsData {
	return *h.stats
}
