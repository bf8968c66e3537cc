package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"crypto_track/internal/chart"
	"crypto_track/internal/domain"
	"crypto_track/internal/format"
	"crypto_track/internal/infra"
	"crypto_track/internal/infra/telegram"
	"crypto_track/internal/service"
)

// DataSource is the slice of the refresh controller the server reads from
type DataSource interface {
	Snapshots() []domain.AssetSnapshot
	Snapshot(id string) (domain.AssetSnapshot, error)
	State() service.State
	Currency() domain.Currency
	Notice() *service.Notice
}

// Server exposes the current snapshot batch to the mini-app page over
// HTTP, plus the live WebSocket bridge and the cached icons
type Server struct {
	data    DataSource
	bridge  *telegram.Bridge
	iconDir string

	httpServer *http.Server
}

// NewServer wires the presentation endpoints. iconDir may be empty to
// disable icon serving; bridge may be nil to disable the live bridge.
func NewServer(addr string, data DataSource, bridge *telegram.Bridge, iconDir string) *Server {
	s := &Server{
		data:    data,
		bridge:  bridge,
		iconDir: iconDir,
	}
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}
	return s
}

// Handler builds the route table
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /api/assets", s.handleAssets)
	mux.HandleFunc("GET /api/assets/{id}/chart", s.handleChart)
	mux.HandleFunc("GET /api/metrics", s.handleMetrics)
	if s.bridge != nil {
		mux.HandleFunc("GET /ws", s.bridge.HandleWS)
	}
	if s.iconDir != "" {
		mux.Handle("GET /icons/", http.StripPrefix("/icons/", http.FileServer(http.Dir(s.iconDir))))
	}
	return mux
}

// Start serves until Shutdown. Blocks.
func (s *Server) Start() error {
	slog.Info("HTTP server listening", slog.String("addr", s.httpServer.Addr))
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown drains connections gracefully
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// PushUpdate broadcasts the current view to every connected page.
// Wired as the refresh controller's subscriber.
func (s *Server) PushUpdate() {
	if s.bridge == nil {
		return
	}
	s.bridge.Broadcast("update", s.assetsPayload())
}

// PushTo sends the current view to a single freshly attached session
func (s *Server) PushTo(sess *telegram.Session) {
	sess.Send("update", s.assetsPayload())
}

// ======================================================================================
// Handlers
// ======================================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok", "state": string(s.data.State())})
}

func (s *Server) handleAssets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.assetsPayload())
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	tr, ok := domain.ParseTimeRange(r.URL.Query().Get("range"))
	if !ok {
		http.Error(w, "invalid range: want week, month, or year", http.StatusBadRequest)
		return
	}

	id := r.PathValue("id")
	snap, err := s.data.Snapshot(id)
	if err != nil {
		http.Error(w, "unknown asset", http.StatusNotFound)
		return
	}

	series := chart.BuildSeries(snap.Sparkline7d, tr, time.Now())
	writeJSON(w, chartResponse{
		ID:     snap.ID,
		Range:  tr,
		Color:  format.Color(snap.ID),
		Series: series,
	})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, infra.GlobalMetrics.Snapshot())
}

// ======================================================================================
// View models
// ======================================================================================

type assetsResponse struct {
	State    string          `json:"state"`
	Currency domain.Currency `json:"currency"`
	Notice   *service.Notice `json:"notice,omitempty"`
	Assets   []assetView     `json:"assets"`
}

// assetView is one display-ready asset row
type assetView struct {
	ID          string `json:"id"`
	Symbol      string `json:"symbol"`
	Name        string `json:"name"`
	Price       string `json:"price"`
	MarketCap   string `json:"market_cap"`
	Change      string `json:"change,omitempty"` // absent when upstream omits the 24h change
	Direction   string `json:"direction"`
	Color       string `json:"color"`
	Image       string `json:"image"`
	HasChart    bool   `json:"has_chart"`
	LastUpdated string `json:"last_updated"`
}

type chartResponse struct {
	ID     string           `json:"id"`
	Range  domain.TimeRange `json:"range"`
	Color  string           `json:"color"`
	Series chart.Series     `json:"series"`
}

func (s *Server) assetsPayload() assetsResponse {
	currency := s.data.Currency()
	batch := s.data.Snapshots()

	views := make([]assetView, 0, len(batch))
	for i := range batch {
		snap := &batch[i]
		view := assetView{
			ID:          snap.ID,
			Symbol:      snap.Symbol,
			Name:        snap.Name,
			Price:       format.Price(snap.Price(currency), currency),
			MarketCap:   format.LargeNumber(snap.MarketCap[currency], currency),
			Direction:   snap.ChangeDirection(),
			Color:       format.Color(snap.ID),
			Image:       snap.ImageURL,
			HasChart:    len(snap.Sparkline7d) > 0,
			LastUpdated: snap.LastUpdated,
		}
		if snap.PriceChange24h != nil {
			view.Change = format.Percentage(*snap.PriceChange24h)
		}
		views = append(views, view)
	}

	return assetsResponse{
		State:    string(s.data.State()),
		Currency: currency,
		Notice:   s.data.Notice(),
		Assets:   views,
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("Response encode failed", slog.Any("error", err))
	}
}
