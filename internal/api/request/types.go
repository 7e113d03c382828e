package request

// CreateRoomRequest is the request body for creating a room
type CreateRoomRequest struct {
	Name     string `json:"name"`
	Capacity int    `json:"capacity,omitempty"`
}

// JoinRoomRequest is the request body for joining a room
type JoinRoomRequest struct {
	PlayerID    string `json:"player_id"`
	DisplayName string `json:"display_name"`
}

// PlayerRequest is the request body for actions that only identify the caller
type PlayerRequest struct {
	PlayerID string `json:"player_id"`
}

// MessageRequest is the request body for posting a chat message or guess
type MessageRequest struct {
	PlayerID string `json:"player_id"`
	Text     string `json:"text"`
	IsGuess  bool   `json:"is_guess"`
}

// FrameRequest is the request body for submitting a canvas frame
type FrameRequest struct {
	PlayerID string `json:"player_id"`
	Data     string `json:"data"`
}
