package models

// Channel is a static chat channel definition. The channel set is fixed at
// deploy time; it is configuration, not data.
type Channel struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	Icon         string `json:"icon"`
	IsRestricted bool   `json:"is_restricted"`
}

// ChannelWithAccess decorates a channel with the caller's access decision.
type ChannelWithAccess struct {
	Channel
	Allowed bool `json:"allowed"`
}
