package api

// User is the identity record returned by GET /users/me.
type User struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	CreationDate string `json:"creationDate,omitempty"`
}

// Reservation is a server-owned booking record. The client holds
// read-only copies fetched per view; the server enforces the one
// reservation per (date, slotNumber) invariant.
type Reservation struct {
	ID              int64  `json:"id"`
	UserID          int64  `json:"userId"`
	UserName        string `json:"userName"`
	SlotNumber      int    `json:"slotNumber"`
	Date            string `json:"date"`
	Gender          string `json:"gender"`
	BringOwnFood    bool   `json:"bringOwnFood"`
	DecorationStyle string `json:"decorationStyle"`
	MusicType       string `json:"musicType"`
}

// CreateReservationRequest is the booking payload. The request-side
// field names (decorations, music) intentionally differ from the
// response-side names; that is the server's contract.
type CreateReservationRequest struct {
	SlotNumber   int    `json:"slotNumber"`
	Date         string `json:"date"`
	Gender       string `json:"gender"`
	BringOwnFood bool   `json:"bringOwnFood"`
	Decorations  string `json:"decorations"`
	Music        string `json:"music"`
}

// AvailableSlot is a server-computed slot in a date range, returned by
// the available-slots and booked-slots range queries.
type AvailableSlot struct {
	ID         int64  `json:"id"`
	Date       string `json:"date"`
	SlotNumber int    `json:"slotNumber"`
	Available  bool   `json:"available"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResult is the JWT response from POST /users/login.
type LoginResult struct {
	Token    string `json:"token"`
	Type     string `json:"type"`
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}
