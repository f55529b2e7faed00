package dto

import "time"

// SaveConnectionRequest carries the result of the OAuth consent exchange.
type SaveConnectionRequest struct {
	AccountID    string `json:"account_id"`
	Email        string `json:"email"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"` // seconds
}

type ConnectionResponse struct {
	Key         string    `json:"key"`
	Email       string    `json:"email"`
	IsDefault   bool      `json:"is_default"`
	ConnectedAt time.Time `json:"connected_at"`
}

type ConnectionListResponse struct {
	Connections []ConnectionResponse `json:"connections"`
}

type DisconnectResponse struct {
	Removed         string `json:"removed"`
	PromotedDefault string `json:"promoted_default,omitempty"`
}

type BusyResponse struct {
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	Source string    `json:"source"`
	Title  string    `json:"title"`
}
