package dto

import "time"

type BlockRequest struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// SaveBlocksRequest replaces the host's availability with Blocks.
type SaveBlocksRequest struct {
	Blocks []BlockRequest `json:"blocks"`
}

type BlockResponse struct {
	ID    string    `json:"id"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}
