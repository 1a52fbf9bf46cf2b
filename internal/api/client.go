// Package api is the gateway to the reservation REST service. It wraps
// net/http with bearer-token auth, JSON codecs and a typed error for
// non-2xx responses.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/drewfead/slotbook/internal/session"
)

// Client issues calls against the reservation API. A zero Client is not
// usable; construct one with NewClient.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates an API client for the given base URL (including the
// /api prefix). When sess is non-nil, the underlying HTTP client
// attaches "Authorization: Bearer <token>" to every outgoing request.
func NewClient(ctx context.Context, baseURL string, sess *session.Session) *Client {
	httpClient := http.DefaultClient
	if sess != nil {
		src := oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: sess.Token,
			TokenType:   "Bearer",
		})
		httpClient = oauth2.NewClient(ctx, src)
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// Login exchanges credentials for a token and the user's identity.
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	result := &LoginResult{}
	err := c.do(ctx, http.MethodPost, "/users/login", loginRequest{
		Username: username,
		Password: password,
	}, result)
	if err != nil {
		return nil, fmt.Errorf("unable to log in: %w", err)
	}
	return result, nil
}

// Register creates a new user account.
func (c *Client) Register(ctx context.Context, username, email, password string) error {
	err := c.do(ctx, http.MethodPost, "/users/register", registerRequest{
		Username: username,
		Email:    email,
		Password: password,
	}, nil)
	if err != nil {
		return fmt.Errorf("unable to register: %w", err)
	}
	return nil
}

// CheckUsername reports whether the username is still free.
func (c *Client) CheckUsername(ctx context.Context, username string) (bool, error) {
	var available bool
	path := "/users/check-username?username=" + url.QueryEscape(username)
	if err := c.do(ctx, http.MethodGet, path, nil, &available); err != nil {
		return false, fmt.Errorf("unable to check username: %w", err)
	}
	return available, nil
}

// CheckEmail reports whether the email address is still free.
func (c *Client) CheckEmail(ctx context.Context, email string) (bool, error) {
	var available bool
	path := "/users/check-email?email=" + url.QueryEscape(email)
	if err := c.do(ctx, http.MethodGet, path, nil, &available); err != nil {
		return false, fmt.Errorf("unable to check email: %w", err)
	}
	return available, nil
}

// CurrentUser fetches the identity behind the attached token.
func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	user := &User{}
	if err := c.do(ctx, http.MethodGet, "/users/me", nil, user); err != nil {
		return nil, fmt.Errorf("unable to fetch current user: %w", err)
	}
	return user, nil
}

// ListReservations fetches every reservation, across all users.
func (c *Client) ListReservations(ctx context.Context) ([]Reservation, error) {
	var reservations []Reservation
	if err := c.do(ctx, http.MethodGet, "/reservations", nil, &reservations); err != nil {
		return nil, fmt.Errorf("unable to list reservations: %w", err)
	}
	return reservations, nil
}

// ListUserReservations fetches the reservations owned by one user.
func (c *Client) ListUserReservations(ctx context.Context, userID int64) ([]Reservation, error) {
	var reservations []Reservation
	path := fmt.Sprintf("/reservations/user/%d", userID)
	if err := c.do(ctx, http.MethodGet, path, nil, &reservations); err != nil {
		return nil, fmt.Errorf("unable to list user reservations: %w", err)
	}
	return reservations, nil
}

// CreateReservation books a slot. The server rejects a slot that is
// already taken; the client never pre-checks.
func (c *Client) CreateReservation(ctx context.Context, req CreateReservationRequest) (*Reservation, error) {
	reservation := &Reservation{}
	if err := c.do(ctx, http.MethodPost, "/reservations", req, reservation); err != nil {
		return nil, fmt.Errorf("unable to create reservation: %w", err)
	}
	return reservation, nil
}

// CancelReservation deletes a reservation by id. A reservation that no
// longer exists answers 404.
func (c *Client) CancelReservation(ctx context.Context, id int64) error {
	path := fmt.Sprintf("/reservations/%d", id)
	if err := c.do(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("unable to cancel reservation: %w", err)
	}
	return nil
}

// AvailableSlots fetches the free slots in the inclusive date range.
func (c *Client) AvailableSlots(ctx context.Context, startDate, endDate string) ([]AvailableSlot, error) {
	return c.slotRange(ctx, "/reservations/available-slots", startDate, endDate)
}

// BookedSlots fetches the taken slots in the inclusive date range.
func (c *Client) BookedSlots(ctx context.Context, startDate, endDate string) ([]AvailableSlot, error) {
	return c.slotRange(ctx, "/reservations/booked-slots", startDate, endDate)
}

func (c *Client) slotRange(ctx context.Context, path, startDate, endDate string) ([]AvailableSlot, error) {
	var slots []AvailableSlot
	query := fmt.Sprintf("%s?startDate=%s&endDate=%s", path, url.QueryEscape(startDate), url.QueryEscape(endDate))
	if err := c.do(ctx, http.MethodGet, query, nil, &slots); err != nil {
		return nil, fmt.Errorf("unable to fetch slot range: %w", err)
	}
	return slots, nil
}

// do performs one round trip: encode body, attach headers, decode the
// response into out (when non-nil), or into an *Error for non-2xx.
// Failures surface once to the caller; nothing is retried.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("unable to encode request: %w", err)
		}
		reqBody = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("unable to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("unable to decode response: %w", err)
	}
	return nil
}

// decodeError turns a non-2xx response into a typed *Error. The server
// answers sometimes with {"message": ...} and sometimes with a bare
// string body; both are accepted.
func decodeError(resp *http.Response) error {
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return &Error{StatusCode: resp.StatusCode}
	}

	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil && payload.Message != "" {
		return &Error{StatusCode: resp.StatusCode, Message: payload.Message}
	}

	return &Error{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
}
