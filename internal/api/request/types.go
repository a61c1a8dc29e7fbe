package request

// CreateRoomRequest is the request body for creating a room
type CreateRoomRequest struct {
	ShuffleFactor *int `json:"shuffle_factor,omitempty"`
}

// JoinRequest is the request body for joining a room
type JoinRequest struct {
	Name string `json:"name"`
}

// ShuffleRequest is the request body for changing the shuffle factor
type ShuffleRequest struct {
	ShuffleFactor int `json:"shuffle_factor"`
}

// QRRequest is the request body for setting the join URL
type QRRequest struct {
	URL string `json:"url"`
}
