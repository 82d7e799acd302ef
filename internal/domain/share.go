package domain

// Position is a point in the shared 3D space. Last write wins.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Share is the descriptor of an active screen-share: the shared media
// track and where the screen floats in the room. At most one per client.
type Share struct {
	TrackID  string   `json:"trackId"`
	Position Position `json:"position"`
}
