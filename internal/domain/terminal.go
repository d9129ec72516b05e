package domain

import "time"

// Terminal is a configured physical payment terminal belonging to a winery
type Terminal struct {
	ID         string
	WineryID   string
	Name       string
	TPN        string // terminal processing number assigned by the processor
	RegisterID string
	AuthKeyRef string // secret-manager path holding the terminal auth key
	CreatedAt  time.Time
}

// TerminalCredentials carries the identity every gateway request must present
type TerminalCredentials struct {
	TPN        string
	RegisterID string
	AuthKey    string
}
