// Package bookingtest provides a mock reservation API server for
// testing. It implements the subset of the playground reservation
// endpoints the client talks to.
package bookingtest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/drewfead/slotbook/internal/api"
	"github.com/drewfead/slotbook/internal/calendar"
)

// signingKey signs the stub's JWTs. Tests never verify signatures, but
// issuing real tokens lets the client's unverified-claims path run.
var signingKey = []byte("bookingtest")

type userRecord struct {
	id       int64
	username string
	email    string
	password string
}

// Server is a mock reservation API server for testing.
type Server struct {
	*httptest.Server
	mu           sync.RWMutex
	users        map[string]*userRecord // username -> user
	tokens       map[string]int64       // bearer token -> user id
	reservations map[int64]*api.Reservation
	nextUserID   int64
	nextResID    int64
}

// NewServer creates a mock reservation API server.
func NewServer() *Server {
	s := &Server{
		users:        make(map[string]*userRecord),
		tokens:       make(map[string]int64),
		reservations: make(map[int64]*api.Reservation),
		nextUserID:   1,
		nextResID:    1,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/users/register", s.register)
	mux.HandleFunc("POST /api/users/login", s.login)
	mux.HandleFunc("GET /api/users/me", s.currentUser)
	mux.HandleFunc("GET /api/users/check-username", s.checkUsername)
	mux.HandleFunc("GET /api/users/check-email", s.checkEmail)
	mux.HandleFunc("GET /api/reservations", s.listReservations)
	mux.HandleFunc("POST /api/reservations", s.createReservation)
	mux.HandleFunc("GET /api/reservations/user/{userId}", s.listUserReservations)
	mux.HandleFunc("DELETE /api/reservations/{id}", s.deleteReservation)
	mux.HandleFunc("GET /api/reservations/available-slots", s.availableSlots)
	mux.HandleFunc("GET /api/reservations/booked-slots", s.bookedSlots)

	s.Server = httptest.NewServer(mux)
	return s
}

// BaseURL returns the API base URL (including the /api prefix) to hand
// to the client under test.
func (s *Server) BaseURL() string {
	return s.URL + "/api"
}

// register handles POST /api/users/register
func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid JSON: %v", err), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[req.Username]; exists {
		http.Error(w, "Username is already taken!", http.StatusBadRequest)
		return
	}
	for _, u := range s.users {
		if u.email == req.Email {
			http.Error(w, "Email is already in use!", http.StatusBadRequest)
			return
		}
	}

	user := &userRecord{
		id:       s.nextUserID,
		username: req.Username,
		email:    req.Email,
		password: req.Password,
	}
	s.nextUserID++
	s.users[req.Username] = user

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(api.User{ID: user.id, Username: user.username, Email: user.email})
}

// login handles POST /api/users/login
func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid JSON: %v", err), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[req.Username]
	if !ok || user.password != req.Password {
		http.Error(w, "Invalid username or password", http.StatusUnauthorized)
		return
	}

	token := s.mintToken(user)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(api.LoginResult{
		Token:    token,
		Type:     "Bearer",
		ID:       user.id,
		Username: user.username,
		Email:    user.email,
	})
}

// currentUser handles GET /api/users/me
func (s *Server) currentUser(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user := s.authedUser(r)
	if user == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(api.User{ID: user.id, Username: user.username, Email: user.email})
}

// checkUsername handles GET /api/users/check-username
func (s *Server) checkUsername(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, taken := s.users[r.URL.Query().Get("username")]
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(!taken)
}

// checkEmail handles GET /api/users/check-email
func (s *Server) checkEmail(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	email := r.URL.Query().Get("email")
	taken := false
	for _, u := range s.users {
		if u.email == email {
			taken = true
			break
		}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(!taken)
}

// listReservations handles GET /api/reservations
func (s *Server) listReservations(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	s.writeReservations(w, func(*api.Reservation) bool { return true })
}

// listUserReservations handles GET /api/reservations/user/{userId}
func (s *Server) listUserReservations(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(r.PathValue("userId"), 10, 64)
	if err != nil {
		http.Error(w, "invalid user id", http.StatusBadRequest)
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	s.writeReservations(w, func(res *api.Reservation) bool { return res.UserID == userID })
}

// createReservation handles POST /api/reservations
func (s *Server) createReservation(w http.ResponseWriter, r *http.Request) {
	var req api.CreateReservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid JSON: %v", err), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	user := s.authedUser(r)
	if user == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	if req.Date == "" || req.SlotNumber < 0 || req.SlotNumber >= calendar.SlotsPerDay {
		writeMessage(w, http.StatusBadRequest, "invalid slot")
		return
	}
	for _, res := range s.reservations {
		if res.Date == req.Date && res.SlotNumber == req.SlotNumber {
			writeMessage(w, http.StatusConflict, "Slot is already reserved")
			return
		}
	}

	res := &api.Reservation{
		ID:              s.nextResID,
		UserID:          user.id,
		UserName:        user.username,
		SlotNumber:      req.SlotNumber,
		Date:            req.Date,
		Gender:          req.Gender,
		BringOwnFood:    req.BringOwnFood,
		DecorationStyle: req.Decorations,
		MusicType:       req.Music,
	}
	s.nextResID++
	s.reservations[res.ID] = res

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(res)
}

// deleteReservation handles DELETE /api/reservations/{id}
func (s *Server) deleteReservation(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid reservation id", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.authedUser(r) == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if s.reservations[id] == nil {
		writeMessage(w, http.StatusNotFound, "Reservation not found")
		return
	}

	delete(s.reservations, id)
	w.WriteHeader(http.StatusNoContent)
}

// availableSlots handles GET /api/reservations/available-slots
func (s *Server) availableSlots(w http.ResponseWriter, r *http.Request) {
	s.slotRange(w, r, true)
}

// bookedSlots handles GET /api/reservations/booked-slots
func (s *Server) bookedSlots(w http.ResponseWriter, r *http.Request) {
	s.slotRange(w, r, false)
}

func (s *Server) slotRange(w http.ResponseWriter, r *http.Request, wantAvailable bool) {
	start, err := time.Parse(calendar.DateFormat, r.URL.Query().Get("startDate"))
	if err != nil {
		http.Error(w, "invalid startDate", http.StatusBadRequest)
		return
	}
	end, err := time.Parse(calendar.DateFormat, r.URL.Query().Get("endDate"))
	if err != nil {
		http.Error(w, "invalid endDate", http.StatusBadRequest)
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	booked := make(map[string]bool, len(s.reservations))
	for _, res := range s.reservations {
		booked[fmt.Sprintf("%s|%d", res.Date, res.SlotNumber)] = true
	}

	slots := []api.AvailableSlot{}
	var id int64 = 1
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		date := day.Format(calendar.DateFormat)
		for n := 0; n < calendar.SlotsPerDay; n++ {
			isBooked := booked[fmt.Sprintf("%s|%d", date, n)]
			if isBooked == wantAvailable {
				continue
			}
			slots = append(slots, api.AvailableSlot{
				ID:         id,
				Date:       date,
				SlotNumber: n,
				Available:  !isBooked,
			})
			id++
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(slots)
}

// writeMessage writes a JSON error body in the server's
// {"message": ...} shape.
func writeMessage(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"message": message})
}

// writeReservations writes the matching reservations sorted by id.
// Caller holds at least a read lock.
func (s *Server) writeReservations(w http.ResponseWriter, match func(*api.Reservation) bool) {
	out := []api.Reservation{}
	for _, res := range s.reservations {
		if match(res) {
			out = append(out, *res)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out)
}

// authedUser resolves the bearer token on the request. Caller holds at
// least a read lock.
func (s *Server) authedUser(r *http.Request) *userRecord {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return nil
	}
	userID, ok := s.tokens[token]
	if !ok {
		return nil
	}
	for _, u := range s.users {
		if u.id == userID {
			return u
		}
	}
	return nil
}

// mintToken issues a signed JWT for the user and registers it. Caller
// holds the write lock.
func (s *Server) mintToken(user *userRecord) string {
	claims := jwt.MapClaims{
		"sub": user.username,
		"iat": jwt.NewNumericDate(time.Now()),
		"exp": jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(signingKey)
	if err != nil {
		// HS256 signing of a map claim set cannot fail at runtime.
		panic(err)
	}
	s.tokens[token] = user.id
	return token
}

// AddUser registers a user directly (for test setup) and returns its id.
func (s *Server) AddUser(username, email, password string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	user := &userRecord{
		id:       s.nextUserID,
		username: username,
		email:    email,
		password: password,
	}
	s.nextUserID++
	s.users[username] = user
	return user.id
}

// Authenticate mints a token for an existing user without going through
// the login endpoint (for test setup).
func (s *Server) Authenticate(username string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[username]
	if !ok {
		return "", fmt.Errorf("bookingtest: unknown user %q", username)
	}
	return s.mintToken(user), nil
}

// AddReservation stores a pre-configured reservation (for test setup).
func (s *Server) AddReservation(res api.Reservation) api.Reservation {
	s.mu.Lock()
	defer s.mu.Unlock()

	if res.ID == 0 {
		res.ID = s.nextResID
		s.nextResID++
	}
	s.reservations[res.ID] = &res
	return res
}

// Reservations returns all stored reservations sorted by id (for test
// assertions).
func (s *Server) Reservations() []api.Reservation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]api.Reservation, 0, len(s.reservations))
	for _, res := range s.reservations {
		out = append(out, *res)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Reset clears all users, tokens and reservations.
func (s *Server) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.users = make(map[string]*userRecord)
	s.tokens = make(map[string]int64)
	s.reservations = make(map[int64]*api.Reservation)
	s.nextUserID = 1
	s.nextResID = 1
}
