// Package session persists the logged-in user's identity and bearer
// token to a local JSON file, the client-side analogue of the "user"
// record the browser front end keeps in localStorage.
package session

// Session is the persisted login state: who the user is and the bearer
// token the API issued for them. It is created by login/register,
// destroyed by logout, and read-only everywhere else.
type Session struct {
	UserID   int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Token    string `json:"token"`
}
