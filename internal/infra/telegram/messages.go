package telegram

import "encoding/json"

// ThemeParams mirrors the shell's theme color parameters
type ThemeParams struct {
	BgColor         string `json:"bg_color,omitempty"`
	TextColor       string `json:"text_color,omitempty"`
	HintColor       string `json:"hint_color,omitempty"`
	LinkColor       string `json:"link_color,omitempty"`
	ButtonColor     string `json:"button_color,omitempty"`
	ButtonTextColor string `json:"button_text_color,omitempty"`
}

// User is the shell-reported identity, captured once per session
type User struct {
	ID           int64  `json:"id"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name,omitempty"`
	Username     string `json:"username,omitempty"`
	LanguageCode string `json:"language_code,omitempty"`
}

// ShellInfo is what a page reports about its host shell on init.
// A session without it runs with every shell operation as a no-op.
type ShellInfo struct {
	Platform    string       `json:"platform,omitempty"`
	ColorScheme string       `json:"color_scheme,omitempty"` // "light" or "dark"
	Theme       *ThemeParams `json:"theme,omitempty"`
	User        *User        `json:"user,omitempty"`
}

// inboundMessage is one page-to-server frame
type inboundMessage struct {
	Type     string          `json:"type"` // init, theme_changed, set_currency, refresh, toggle_favorite, main_button_clicked
	Shell    *ShellInfo      `json:"shell,omitempty"`
	Theme    *ThemeParams    `json:"theme,omitempty"`
	Currency string          `json:"currency,omitempty"`
	AssetID  string          `json:"asset_id,omitempty"`
	Data     json.RawMessage `json:"data,omitempty"`
}

// outboundMessage is one server-to-page frame
type outboundMessage struct {
	Type       string             `json:"type"` // ready, expand, haptic, main_button, update, favorite
	Haptic     *hapticCommand     `json:"haptic,omitempty"`
	MainButton *mainButtonCommand `json:"main_button,omitempty"`
	Data       any                `json:"data,omitempty"`
}

// hapticCommand asks the shell for haptic feedback
type hapticCommand struct {
	Event    string `json:"event"`              // "success", "error", "selection", "impact"
	Strength string `json:"strength,omitempty"` // impact only: "light", "medium", "heavy"
}

// mainButtonCommand drives the shell's primary action button
type mainButtonCommand struct {
	Action string `json:"action"` // "show" or "hide"
	Text   string `json:"text,omitempty"`
}
