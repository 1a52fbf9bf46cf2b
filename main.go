package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/drewfead/slotbook/internal/api"
	"github.com/drewfead/slotbook/internal/booking"
	"github.com/drewfead/slotbook/internal/calendar"
	"github.com/drewfead/slotbook/internal/config"
	"github.com/drewfead/slotbook/internal/session"
	"github.com/drewfead/slotbook/internal/view"
)

const monthFormat = "2006-01"

type bookingService struct {
	cfg    *config.Config
	store  *session.Store
	sess   *session.Session
	client *api.Client // reservation API client (initialized lazily)
}

// newBookingService creates a service with lazy initialization. The
// session file is read and the API client built only when a command
// first needs them.
func newBookingService(cfg *config.Config) *bookingService {
	return &bookingService{cfg: cfg}
}

// ensureInitialized lazily binds the session store and the API client
// on first use. The client carries the stored bearer token when a
// session exists.
func (s *bookingService) ensureInitialized(ctx context.Context) error {
	if s.client != nil {
		return nil
	}

	store, err := s.sessionStore()
	if err != nil {
		return err
	}
	s.store = store
	s.sess = store.Load()
	s.client = api.NewClient(ctx, s.cfg.APIBaseURL, s.sess)
	return nil
}

func (s *bookingService) sessionStore() (*session.Store, error) {
	path := s.cfg.SessionPath
	if path == "" {
		if err := config.EnsureConfigDir(); err != nil {
			return nil, fmt.Errorf("failed to create config directory: %w", err)
		}
		defaultPath, err := config.GetSessionPath()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve session path: %w", err)
		}
		path = defaultPath
	}
	return session.NewStore(path), nil
}

// rebindClient rebuilds the API client after the session changed.
func (s *bookingService) rebindClient(ctx context.Context) {
	s.client = api.NewClient(ctx, s.cfg.APIBaseURL, s.sess)
}

func (s *bookingService) login(ctx context.Context, cmd *cli.Command) error {
	if err := s.ensureInitialized(ctx); err != nil {
		return err
	}

	username := cmd.String("username")
	password := cmd.String("password")

	result, err := s.client.Login(ctx, username, password)
	if err != nil {
		if api.IsUnauthorized(err) {
			// Generic message; never reveal which part was wrong.
			return errors.New("invalid username or password")
		}
		return friendly(err)
	}

	s.sess = &session.Session{
		UserID:   result.ID,
		Username: result.Username,
		Email:    result.Email,
		Token:    result.Token,
	}
	if err := s.store.Save(s.sess); err != nil {
		return fmt.Errorf("logged in, but failed to persist session: %w", err)
	}
	s.rebindClient(ctx)

	fmt.Println(view.RenderNav(s.sess).Line())
	return nil
}

func (s *bookingService) register(ctx context.Context, cmd *cli.Command) error {
	if err := s.ensureInitialized(ctx); err != nil {
		return err
	}

	username := cmd.String("username")
	email := cmd.String("email")

	// Pre-check availability so the failing field is reported inline,
	// the way the registration form does.
	if free, err := s.client.CheckUsername(ctx, username); err == nil && !free {
		return fmt.Errorf("username: %q is already taken", username)
	}
	if free, err := s.client.CheckEmail(ctx, email); err == nil && !free {
		return fmt.Errorf("email: %q is already in use", email)
	}

	if err := s.client.Register(ctx, username, email, cmd.String("password")); err != nil {
		return friendly(err)
	}

	fmt.Printf("Registered %s. Run 'slotbook login' to sign in.\n", username)
	return nil
}

func (s *bookingService) logout(ctx context.Context, _ *cli.Command) error {
	if err := s.ensureInitialized(ctx); err != nil {
		return err
	}

	if err := s.store.Clear(); err != nil {
		return err
	}
	s.sess = nil
	s.rebindClient(ctx)

	fmt.Println(view.RenderNav(nil).Line())
	return nil
}

func (s *bookingService) whoami(ctx context.Context, _ *cli.Command) error {
	if err := s.ensureInitialized(ctx); err != nil {
		return err
	}
	if s.sess == nil {
		fmt.Println(view.RenderNav(nil).Line())
		return nil
	}

	user, err := s.client.CurrentUser(ctx)
	if err != nil {
		if api.IsUnauthorized(err) {
			// The server rejected the stored token; drop the session.
			if clearErr := s.store.Clear(); clearErr != nil {
				slog.Warn("failed to clear rejected session", "error", clearErr)
			}
			s.sess = nil
			return errors.New("session expired, please log in again")
		}
		return friendly(err)
	}

	fmt.Println(view.RenderNav(s.sess).Line())
	fmt.Printf("id=%d username=%s email=%s\n", user.ID, user.Username, user.Email)

	if info, err := session.InspectToken(s.sess); err == nil && !info.ExpiresAt.IsZero() {
		fmt.Printf("token expires %s\n", info.ExpiresAt.Format(time.RFC3339))
	}
	return nil
}

func (s *bookingService) showCalendar(ctx context.Context, cmd *cli.Command) error {
	if err := s.ensureInitialized(ctx); err != nil {
		return err
	}

	state, err := monthState(cmd.String("month"))
	if err != nil {
		return err
	}

	grid, err := s.renderMonth(ctx, state)
	if err != nil {
		return err
	}

	fmt.Println(view.RenderNav(s.sess).Line())
	fmt.Print(calendar.RenderMonth(grid))

	if dayArg := cmd.String("day"); dayArg != "" {
		dayNum, err := strconv.Atoi(dayArg)
		if err != nil || dayNum < 1 {
			return fmt.Errorf("invalid day %q", dayArg)
		}
		date := time.Date(state.Year, state.Month, dayNum, 0, 0, 0, 0, time.UTC).Format(calendar.DateFormat)
		day := grid.FindDay(date)
		if day == nil {
			return fmt.Errorf("day %d is not part of %s %d", dayNum, state.Month, state.Year)
		}
		fmt.Print(calendar.RenderDay(*day))
	}

	if cmd.Bool("free") {
		first := time.Date(state.Year, state.Month, 1, 0, 0, 0, 0, time.UTC)
		last := first.AddDate(0, 1, -1)
		free, err := s.client.AvailableSlots(ctx,
			first.Format(calendar.DateFormat), last.Format(calendar.DateFormat))
		if err != nil {
			return friendly(err)
		}
		fmt.Printf("%d slots free in %s %d\n", len(free), state.Month, state.Year)
	}

	return nil
}

// renderMonth builds the grid for the visible month and reconciles the
// fetched reservations onto it. On a failed fetch the error propagates
// and no half-rendered grid is shown.
func (s *bookingService) renderMonth(ctx context.Context, state view.State) (calendar.Month, error) {
	reservations, err := s.client.ListReservations(ctx)
	if err != nil {
		return calendar.Month{}, friendly(err)
	}

	grid := calendar.MonthGrid(state.Year, state.Month, time.Now())
	return calendar.Reconcile(grid, reservations), nil
}

func (s *bookingService) listMine(ctx context.Context, _ *cli.Command) error {
	if err := s.ensureInitialized(ctx); err != nil {
		return err
	}
	if s.sess == nil {
		return errors.New("please log in to see your reservations")
	}

	reservations, err := s.client.ListUserReservations(ctx, s.sess.UserID)
	if err != nil {
		return friendly(err)
	}

	if len(reservations) == 0 {
		fmt.Println("No reservations found.")
		return nil
	}
	for _, res := range reservations {
		fmt.Printf("#%d  %s  %s\n", res.ID, res.Date, calendar.SlotLabel(res.SlotNumber))
	}
	return nil
}

func (s *bookingService) book(ctx context.Context, cmd *cli.Command) error {
	if err := s.ensureInitialized(ctx); err != nil {
		return err
	}

	date := cmd.String("date")
	day, err := calendar.ParseDate(date)
	if err != nil {
		return err
	}
	slotNum, err := strconv.Atoi(cmd.String("slot"))
	if err != nil || slotNum < 0 || slotNum >= calendar.SlotsPerDay {
		return fmt.Errorf("invalid slot %q (expected 0, 1 or 2)", cmd.String("slot"))
	}

	state := view.State{Year: day.Year(), Month: day.Month()}
	grid, err := s.renderMonth(ctx, state)
	if err != nil {
		return err
	}
	cell := grid.FindDay(date)
	if cell == nil {
		return fmt.Errorf("date %s is not on the calendar", date)
	}
	slot := cell.Slots[slotNum]

	flow := booking.NewFlow(s.client)
	flow.OnBooked(func(ctx context.Context, created *api.Reservation) error {
		// Refresh strictly after the create resolved, so the view
		// shows the just-written booking.
		refreshed, err := s.renderMonth(ctx, state)
		if err != nil {
			return err
		}
		if day := refreshed.FindDay(created.Date); day != nil {
			fmt.Print(calendar.RenderDay(*day))
		}
		return nil
	})

	if err := flow.Select(s.sess, slot); err != nil {
		return err
	}

	created, err := flow.Submit(ctx, booking.Form{
		Gender:       cmd.String("gender"),
		BringOwnFood: cmd.Bool("own-food"),
		Decorations:  cmd.String("decorations"),
		Music:        cmd.String("music"),
	})
	if err != nil {
		var invalid *booking.ValidationError
		if errors.As(err, &invalid) {
			return err
		}
		if api.IsConflict(err) {
			flow.Cancel()
			return fmt.Errorf("that slot was just booked by someone else")
		}
		flow.Cancel()
		return friendly(err)
	}

	fmt.Printf("Reservation #%d confirmed for %s, %s.\n",
		created.ID, created.Date, calendar.SlotLabel(created.SlotNumber))
	return nil
}

func (s *bookingService) cancel(ctx context.Context, cmd *cli.Command) error {
	if err := s.ensureInitialized(ctx); err != nil {
		return err
	}
	if s.sess == nil {
		return errors.New("please log in to cancel a reservation")
	}

	id, err := strconv.ParseInt(cmd.String("id"), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid reservation id %q", cmd.String("id"))
	}

	if err := s.client.CancelReservation(ctx, id); err != nil {
		if api.IsNotFound(err) {
			// Nothing to undo; the rest of the booked state is
			// untouched.
			return fmt.Errorf("reservation #%d no longer exists", id)
		}
		return friendly(err)
	}

	fmt.Printf("Reservation #%d cancelled.\n", id)

	// Refresh the user's list after the cancel resolved.
	return s.listMine(ctx, cmd)
}

// friendly maps transport failures onto the retry-later message and
// passes typed API errors through with the server's wording.
func friendly(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		return err
	}
	slog.Debug("request failed", "error", err)
	return errors.New("could not reach the reservation service - please try again later")
}

func monthState(arg string) (view.State, error) {
	if arg == "" {
		return view.NewState(time.Now()), nil
	}
	t, err := time.Parse(monthFormat, arg)
	if err != nil {
		return view.State{}, fmt.Errorf("invalid month %q (expected YYYY-MM): %w", arg, err)
	}
	return view.State{Year: t.Year(), Month: t.Month()}, nil
}

func main() {
	ctx := context.Background()

	cfg := config.Load()
	svc := newBookingService(cfg)

	cmd := &cli.Command{
		Name:  "slotbook",
		Usage: "book venue time slots from the terminal",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "log in and persist the session",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "username", Aliases: []string{"u"}, Required: true},
					&cli.StringFlag{Name: "password", Aliases: []string{"p"}, Required: true},
				},
				Action: svc.login,
			},
			{
				Name:  "register",
				Usage: "create a new account",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "username", Aliases: []string{"u"}, Required: true},
					&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Required: true},
					&cli.StringFlag{Name: "password", Aliases: []string{"p"}, Required: true},
				},
				Action: svc.register,
			},
			{
				Name:   "logout",
				Usage:  "drop the persisted session",
				Action: svc.logout,
			},
			{
				Name:   "whoami",
				Usage:  "show the logged-in identity",
				Action: svc.whoami,
			},
			{
				Name:  "calendar",
				Usage: "show the month calendar with booked slots",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "month", Aliases: []string{"m"}, Usage: "visible month (YYYY-MM)"},
					&cli.StringFlag{Name: "day", Aliases: []string{"d"}, Usage: "show the slots of one day"},
					&cli.BoolFlag{Name: "free", Usage: "also report how many slots are free"},
				},
				Action: svc.showCalendar,
			},
			{
				Name:   "mine",
				Usage:  "list your reservations",
				Action: svc.listMine,
			},
			{
				Name:  "book",
				Usage: "reserve a slot",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "date", Required: true, Usage: "calendar day (YYYY-MM-DD)"},
					&cli.StringFlag{Name: "slot", Required: true, Usage: "slot number: 0 (8-12), 1 (13-17), 2 (18-22)"},
					&cli.StringFlag{Name: "gender", Usage: "MALE, FEMALE or OTHER"},
					&cli.StringFlag{Name: "decorations", Usage: "decoration style"},
					&cli.StringFlag{Name: "music", Usage: "music type"},
					&cli.BoolFlag{Name: "own-food", Usage: "bring your own food"},
				},
				Action: svc.book,
			},
			{
				Name:  "cancel",
				Usage: "cancel one of your reservations",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "id", Required: true, Usage: "reservation id"},
				},
				Action: svc.cancel,
			},
		},
	}

	if err := cmd.Run(ctx, os.Args); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}
