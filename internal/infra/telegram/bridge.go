package telegram

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"crypto_track/internal/domain"
	"crypto_track/internal/infra"

	"github.com/gorilla/websocket"
)

const (
	writeTimeout   = 10 * time.Second
	pingInterval   = 30 * time.Second
	readTimeout    = 90 * time.Second
	maxMessageSize = 4096

	mainButtonLabel = "Refresh"
)

// Controls is the slice of the refresh controller the bridge drives in
// response to page events
type Controls interface {
	SetCurrency(c domain.Currency)
	RefreshNow()
}

// FavoriteToggler persists per-asset favorite flags, optional
type FavoriteToggler interface {
	ToggleFavorite(id string) (bool, error)
}

// Bridge is the host-shell adapter. Each mini-app page holds one
// WebSocket session; pages running inside the Telegram shell announce it
// on init and get the shell surface (theme, haptics, main button)
// proxied through their socket. Pages without a shell get plain data
// updates and every shell operation is a no-op.
//
// Bridge implements domain.ShellNotifier.
type Bridge struct {
	controls  Controls
	favorites FavoriteToggler
	onAttach  func(*Session)

	mu       sync.RWMutex
	sessions map[*Session]struct{}

	upgrader websocket.Upgrader
}

// NewBridge creates a bridge. favorites and onAttach may be nil;
// onAttach runs after a session finishes its init exchange, letting the
// owner push the first data frame.
func NewBridge(controls Controls, favorites FavoriteToggler, onAttach func(*Session)) *Bridge {
	return &Bridge{
		controls:  controls,
		favorites: favorites,
		onAttach:  onAttach,
		sessions:  make(map[*Session]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The page is served from the bot's web-app URL, not from
			// this host, so cross-origin upgrades are expected.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Session is one connected page
type Session struct {
	bridge *Bridge
	conn   *websocket.Conn

	writeMu sync.Mutex

	mu         sync.RWMutex
	shell      *ShellInfo
	theme      *ThemeParams
	user       *User
	mainButton func() // bound click handler, nil when hidden
}

// HandleWS upgrades an HTTP request into a bridge session and serves it
// until the page disconnects
func (b *Bridge) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("WebSocket upgrade failed", slog.Any("error", err))
		return
	}

	s := &Session{bridge: b, conn: conn}

	b.mu.Lock()
	b.sessions[s] = struct{}{}
	b.mu.Unlock()
	infra.GlobalMetrics.IncrementSessions()

	go s.pingLoop()
	s.readLoop()

	// Teardown: unbind is symmetric with the bind done on shell attach
	s.unbindMainButton()
	b.mu.Lock()
	delete(b.sessions, s)
	b.mu.Unlock()
	infra.GlobalMetrics.DecrementSessions()
	conn.Close()
}

// SessionCount returns the number of connected pages
func (b *Bridge) SessionCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.sessions)
}

// Broadcast sends a typed data frame to every connected page
func (b *Bridge) Broadcast(msgType string, data any) {
	for _, s := range b.snapshotSessions() {
		s.send(outboundMessage{Type: msgType, Data: data})
	}
}

// NotifySuccess triggers a success haptic on every shell session
func (b *Bridge) NotifySuccess() {
	b.haptic(hapticCommand{Event: "success"})
}

// NotifyError triggers an error haptic on every shell session
func (b *Bridge) NotifyError() {
	b.haptic(hapticCommand{Event: "error"})
}

// NotifySelectionChanged triggers a selection haptic on every shell session
func (b *Bridge) NotifySelectionChanged() {
	b.haptic(hapticCommand{Event: "selection"})
}

// NotifyImpact triggers an impact haptic with the given strength
func (b *Bridge) NotifyImpact(strength string) {
	b.haptic(hapticCommand{Event: "impact", Strength: strength})
}

func (b *Bridge) haptic(cmd hapticCommand) {
	for _, s := range b.snapshotSessions() {
		if !s.HasShell() {
			continue // no shell, no haptics
		}
		c := cmd
		s.send(outboundMessage{Type: "haptic", Haptic: &c})
	}
}

func (b *Bridge) snapshotSessions() []*Session {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]*Session, 0, len(b.sessions))
	for s := range b.sessions {
		out = append(out, s)
	}
	return out
}

// ======================================================================================
// Session
// ======================================================================================

// HasShell reports whether this page runs inside the host shell
func (s *Session) HasShell() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.shell != nil
}

// Theme returns the current theme snapshot, nil without a shell
func (s *Session) Theme() *ThemeParams {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.theme == nil {
		return nil
	}
	t := *s.theme
	return &t
}

// User returns the shell-reported identity, nil without a shell
func (s *Session) User() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// Send pushes a typed data frame to this page only
func (s *Session) Send(msgType string, data any) {
	s.send(outboundMessage{Type: msgType, Data: data})
}

func (s *Session) send(msg outboundMessage) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := s.conn.WriteJSON(msg); err != nil {
		slog.Debug("Bridge write failed", slog.Any("error", err))
	}
}

func (s *Session) pingLoop() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for range ticker.C {
		s.writeMu.Lock()
		s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		err := s.conn.WriteMessage(websocket.PingMessage, nil)
		s.writeMu.Unlock()
		if err != nil {
			return
		}
	}
}

func (s *Session) readLoop() {
	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(readTimeout))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(readTimeout))
	})

	for {
		var msg inboundMessage
		if err := s.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Debug("Bridge session closed", slog.Any("error", err))
			}
			return
		}
		s.conn.SetReadDeadline(time.Now().Add(readTimeout))
		s.handle(msg)
	}
}

func (s *Session) handle(msg inboundMessage) {
	switch msg.Type {
	case "init":
		s.handleInit(msg.Shell)
	case "theme_changed":
		s.handleThemeChanged(msg.Theme)
	case "set_currency":
		if c, ok := domain.ParseCurrency(msg.Currency); ok {
			s.bridge.controls.SetCurrency(c)
		}
	case "refresh":
		s.bridge.controls.RefreshNow()
	case "toggle_favorite":
		s.handleToggleFavorite(msg.AssetID)
	case "main_button_clicked":
		s.mu.RLock()
		onClick := s.mainButton
		s.mu.RUnlock()
		if onClick != nil {
			onClick()
		}
	default:
		slog.Debug("Unknown bridge message", slog.String("type", msg.Type))
	}
}

// handleInit records the shell capability once per session. With a shell
// present the page is told to signal readiness and expand to full height,
// and the main action button is bound.
func (s *Session) handleInit(shell *ShellInfo) {
	s.mu.Lock()
	if s.shell != nil {
		s.mu.Unlock()
		return // init is once per session
	}
	if shell == nil {
		s.mu.Unlock()
		s.send(outboundMessage{Type: "ready"})
		return
	}
	s.shell = shell
	s.theme = shell.Theme
	s.user = shell.User // captured once, never re-read
	s.mu.Unlock()

	slog.Info("Shell session attached",
		slog.String("platform", shell.Platform),
		slog.String("color_scheme", shell.ColorScheme),
	)

	s.send(outboundMessage{Type: "ready"})
	s.send(outboundMessage{Type: "expand"})
	s.bindMainButton(mainButtonLabel, s.bridge.controls.RefreshNow)

	if s.bridge.onAttach != nil {
		s.bridge.onAttach(s)
	}
}

func (s *Session) handleThemeChanged(theme *ThemeParams) {
	s.mu.Lock()
	if s.shell == nil || theme == nil {
		s.mu.Unlock()
		return
	}
	s.theme = theme
	s.mu.Unlock()
}

func (s *Session) handleToggleFavorite(id string) {
	if s.bridge.favorites == nil || id == "" {
		return
	}
	fav, err := s.bridge.favorites.ToggleFavorite(id)
	if err != nil {
		slog.Warn("Toggle favorite failed", slog.String("asset", id), slog.Any("error", err))
		return
	}
	s.bridge.NotifyImpact("light")
	s.Send("favorite", map[string]any{"id": id, "is_favorite": fav})
}

// bindMainButton shows the shell's action button with a label and one
// click handler. Every bind has a matching unbind on session teardown.
func (s *Session) bindMainButton(label string, onClick func()) {
	s.mu.Lock()
	if s.shell == nil {
		s.mu.Unlock()
		return
	}
	s.mainButton = onClick
	s.mu.Unlock()
	s.send(outboundMessage{Type: "main_button", MainButton: &mainButtonCommand{Action: "show", Text: label}})
}

func (s *Session) unbindMainButton() {
	s.mu.Lock()
	bound := s.mainButton != nil
	s.mainButton = nil
	s.mu.Unlock()
	if bound {
		s.send(outboundMessage{Type: "main_button", MainButton: &mainButtonCommand{Action: "hide"}})
	}
}
