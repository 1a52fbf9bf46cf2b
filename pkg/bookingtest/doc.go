// Package bookingtest provides a mock reservation API server for testing.
//
// The mock server implements the subset of the playground reservation
// API the client talks to, allowing tests to run without a real backend
// or network access.
//
// # Supported Operations
//
//   - Register: POST /api/users/register
//   - Login: POST /api/users/login (issues signed JWTs)
//   - Current user: GET /api/users/me
//   - Availability checks: GET /api/users/check-username, /api/users/check-email
//   - List reservations: GET /api/reservations, /api/reservations/user/{userId}
//   - Create reservation: POST /api/reservations (409 on a taken slot)
//   - Cancel reservation: DELETE /api/reservations/{id} (404 when gone)
//   - Slot ranges: GET /api/reservations/available-slots, /api/reservations/booked-slots
//
// # Basic Usage
//
//	// Create mock server
//	server := bookingtest.NewServer()
//	defer server.Close()
//
//	// Point the client at it
//	ctx := context.Background()
//	client := api.NewClient(ctx, server.BaseURL(), nil)
//
//	// Use the client normally
//	server.AddUser("alice", "alice@example.com", "pw")
//	result, err := client.Login(ctx, "alice", "pw")
//
// # Test Helpers
//
// The server provides helper methods for test setup and assertions:
//
//	// Pre-populate state
//	server.AddUser("bob", "bob@example.com", "pw")
//	server.AddReservation(api.Reservation{Date: "2024-06-10", SlotNumber: 1})
//
//	// Mint a token without logging in
//	token, err := server.Authenticate("bob")
//
//	// Inspect stored reservations
//	all := server.Reservations()
//
//	// Clear all data between tests
//	server.Reset()
//
// # Features
//
//   - Thread-safe: uses a mutex for concurrent access
//   - Bearer auth: reservations require a token minted by login or Authenticate
//   - Conflict detection: one reservation per (date, slotNumber)
//   - Automatic ID generation: sequential user and reservation ids
package bookingtest
