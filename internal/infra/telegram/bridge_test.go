package telegram

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"crypto_track/internal/domain"

	"github.com/gorilla/websocket"
)

type fakeControls struct {
	mu       sync.Mutex
	currency domain.Currency
	refresh  int
}

func (f *fakeControls) SetCurrency(c domain.Currency) {
	f.mu.Lock()
	f.currency = c
	f.mu.Unlock()
}

func (f *fakeControls) RefreshNow() {
	f.mu.Lock()
	f.refresh++
	f.mu.Unlock()
}

func (f *fakeControls) state() (domain.Currency, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.currency, f.refresh
}

// dialBridge spins up a bridge server and one connected page
func dialBridge(t *testing.T, bridge *Bridge) *websocket.Conn {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(bridge.HandleWS))
	t.Cleanup(server.Close)

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) outboundMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(time.Second))
	var msg outboundMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read frame failed: %v", err)
	}
	return msg
}

func shellInit() inboundMessage {
	return inboundMessage{
		Type: "init",
		Shell: &ShellInfo{
			Platform:    "ios",
			ColorScheme: "dark",
			Theme:       &ThemeParams{BgColor: "#1c1c1d", TextColor: "#ffffff"},
			User:        &User{ID: 42, FirstName: "Ada", Username: "ada"},
		},
	}
}

func TestBridge_ShellHandshake(t *testing.T) {
	var attachedMu sync.Mutex
	var attached *Session

	bridge := NewBridge(&fakeControls{}, nil, func(s *Session) {
		attachedMu.Lock()
		attached = s
		attachedMu.Unlock()
	})
	conn := dialBridge(t, bridge)

	if err := conn.WriteJSON(shellInit()); err != nil {
		t.Fatalf("write init failed: %v", err)
	}

	// Exact sequence on shell attach: ready, expand, main button bind
	if msg := readFrame(t, conn); msg.Type != "ready" {
		t.Fatalf("frame 1 = %q, want ready", msg.Type)
	}
	if msg := readFrame(t, conn); msg.Type != "expand" {
		t.Fatalf("frame 2 = %q, want expand", msg.Type)
	}
	msg := readFrame(t, conn)
	if msg.Type != "main_button" || msg.MainButton == nil ||
		msg.MainButton.Action != "show" || msg.MainButton.Text != "Refresh" {
		t.Fatalf("frame 3 = %+v, want main_button show Refresh", msg)
	}

	attachedMu.Lock()
	s := attached
	attachedMu.Unlock()
	if s == nil {
		t.Fatal("onAttach not called")
	}
	if !s.HasShell() {
		t.Error("session should report a shell")
	}
	if theme := s.Theme(); theme == nil || theme.BgColor != "#1c1c1d" {
		t.Errorf("theme = %+v", theme)
	}
	if user := s.User(); user == nil || user.ID != 42 || user.FirstName != "Ada" {
		t.Errorf("user = %+v", user)
	}
}

func TestBridge_NoShellIsNoop(t *testing.T) {
	bridge := NewBridge(&fakeControls{}, nil, nil)
	conn := dialBridge(t, bridge)

	// Plain page: init without a shell runtime
	if err := conn.WriteJSON(inboundMessage{Type: "init"}); err != nil {
		t.Fatalf("write init failed: %v", err)
	}

	if msg := readFrame(t, conn); msg.Type != "ready" {
		t.Fatalf("frame = %q, want ready only", msg.Type)
	}

	// Haptics must not reach a shell-less page
	bridge.NotifySuccess()
	bridge.NotifyImpact("heavy")

	conn.SetReadDeadline(time.Now().Add(150 * time.Millisecond))
	var msg outboundMessage
	if err := conn.ReadJSON(&msg); err == nil {
		t.Fatalf("unexpected frame %+v for shell-less session", msg)
	}
}

func TestBridge_HapticDelivery(t *testing.T) {
	bridge := NewBridge(&fakeControls{}, nil, nil)
	conn := dialBridge(t, bridge)

	conn.WriteJSON(shellInit())
	readFrame(t, conn) // ready
	readFrame(t, conn) // expand
	readFrame(t, conn) // main_button

	bridge.NotifyError()
	msg := readFrame(t, conn)
	if msg.Type != "haptic" || msg.Haptic == nil || msg.Haptic.Event != "error" {
		t.Fatalf("frame = %+v, want error haptic", msg)
	}

	bridge.NotifyImpact("medium")
	msg = readFrame(t, conn)
	if msg.Haptic == nil || msg.Haptic.Event != "impact" || msg.Haptic.Strength != "medium" {
		t.Fatalf("frame = %+v, want medium impact haptic", msg)
	}
}

func TestBridge_PageEventsDriveControls(t *testing.T) {
	controls := &fakeControls{}
	bridge := NewBridge(controls, nil, nil)
	conn := dialBridge(t, bridge)

	conn.WriteJSON(shellInit())
	readFrame(t, conn)
	readFrame(t, conn)
	readFrame(t, conn)

	conn.WriteJSON(inboundMessage{Type: "set_currency", Currency: "eur"})
	conn.WriteJSON(inboundMessage{Type: "refresh"})
	conn.WriteJSON(inboundMessage{Type: "main_button_clicked"})

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		c, refresh := controls.state()
		if c == domain.CurrencyEUR && refresh == 2 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	c, refresh := controls.state()
	t.Fatalf("controls state = (%s, %d), want (eur, 2: refresh + main button)", c, refresh)
}

func TestBridge_InvalidCurrencyIgnored(t *testing.T) {
	controls := &fakeControls{}
	bridge := NewBridge(controls, nil, nil)
	conn := dialBridge(t, bridge)

	conn.WriteJSON(inboundMessage{Type: "init"})
	readFrame(t, conn)

	conn.WriteJSON(inboundMessage{Type: "set_currency", Currency: "doubloons"})
	time.Sleep(50 * time.Millisecond)

	if c, _ := controls.state(); c != "" {
		t.Errorf("invalid currency reached controls: %s", c)
	}
}

func TestBridge_Broadcast(t *testing.T) {
	bridge := NewBridge(&fakeControls{}, nil, nil)
	shellConn := dialBridge(t, bridge)
	plainConn := dialBridge(t, bridge)

	shellConn.WriteJSON(shellInit())
	readFrame(t, shellConn)
	readFrame(t, shellConn)
	readFrame(t, shellConn)

	plainConn.WriteJSON(inboundMessage{Type: "init"})
	readFrame(t, plainConn)

	if got := bridge.SessionCount(); got != 2 {
		t.Fatalf("SessionCount = %d, want 2", got)
	}

	bridge.Broadcast("update", map[string]string{"state": "ready"})

	// Data frames reach every page, with or without a shell
	for _, conn := range []*websocket.Conn{shellConn, plainConn} {
		msg := readFrame(t, conn)
		if msg.Type != "update" {
			t.Errorf("frame = %q, want update", msg.Type)
		}
	}
}

func TestBridge_ThemeChanged(t *testing.T) {
	var attachedMu sync.Mutex
	var attached *Session
	bridge := NewBridge(&fakeControls{}, nil, func(s *Session) {
		attachedMu.Lock()
		attached = s
		attachedMu.Unlock()
	})
	conn := dialBridge(t, bridge)

	conn.WriteJSON(shellInit())
	readFrame(t, conn)
	readFrame(t, conn)
	readFrame(t, conn)

	conn.WriteJSON(inboundMessage{
		Type:  "theme_changed",
		Theme: &ThemeParams{BgColor: "#ffffff", TextColor: "#000000"},
	})

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		attachedMu.Lock()
		s := attached
		attachedMu.Unlock()
		if s != nil {
			if theme := s.Theme(); theme != nil && theme.BgColor == "#ffffff" {
				return
			}
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("theme change never applied")
}
