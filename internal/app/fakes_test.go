package app

import (
	"context"
	"sort"
	"sync"
	"time"

	"padel_notifier/internal/domain/booking"
	"padel_notifier/internal/domain/location"
	"padel_notifier/internal/domain/notification"
	"padel_notifier/internal/domain/push"
	"padel_notifier/internal/domain/tournament"
	"padel_notifier/internal/domain/user"
	idb "padel_notifier/internal/infra/database"
	"padel_notifier/internal/infra/logger"
)

var testLogger = logger.Discard()

type fakeUsers struct {
	users   map[string]*user.User
	errs    map[string]error
	listErr error
}

func newFakeUsers(users ...*user.User) *fakeUsers {
	f := &fakeUsers{users: map[string]*user.User{}, errs: map[string]error{}}
	for _, u := range users {
		f.users[u.ID] = u
	}
	return f
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*user.User, error) {
	if err, ok := f.errs[id]; ok {
		return nil, err
	}
	u, ok := f.users[id]
	if !ok {
		return nil, idb.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUsers) ListByRoles(_ context.Context, roles []user.Role) ([]*user.User, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []*user.User
	for _, id := range sortedKeys(f.users) {
		for _, r := range roles {
			if f.users[id].Role == r {
				out = append(out, f.users[id])
			}
		}
	}
	return out, nil
}

func (f *fakeUsers) SetToken(_ context.Context, userID string, platform push.Platform, token string) error {
	u, ok := f.users[userID]
	if !ok {
		return idb.ErrUserNotFound
	}
	removeKey(u, string(platform))
	u.Tokens = append(u.Tokens, user.TokenRecord{Platform: platform, RawPlatform: string(platform), Token: token})
	return nil
}

func (f *fakeUsers) RemoveToken(_ context.Context, userID string, platform push.Platform) error {
	u, ok := f.users[userID]
	if !ok {
		return idb.ErrUserNotFound
	}
	removeKey(u, string(platform))
	return nil
}

func (f *fakeUsers) RemoveMatchingToken(_ context.Context, userID string, platform push.Platform, token string) error {
	u, ok := f.users[userID]
	if !ok {
		return idb.ErrDeviceNotFound
	}
	if rec, ok := u.Token(platform); !ok || rec.Token != token {
		return idb.ErrDeviceNotFound
	}
	removeKey(u, string(platform))
	return nil
}

func removeKey(u *user.User, key string) {
	kept := u.Tokens[:0]
	for _, rec := range u.Tokens {
		if rec.RawPlatform != key {
			kept = append(kept, rec)
		}
	}
	u.Tokens = kept
}

func sortedKeys(m map[string]*user.User) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

type fakeLocations struct {
	byID map[string]*location.Location
}

func newFakeLocations(locs ...*location.Location) *fakeLocations {
	f := &fakeLocations{byID: map[string]*location.Location{}}
	for _, l := range locs {
		f.byID[l.ID] = l
	}
	return f
}

func (f *fakeLocations) GetByID(_ context.Context, id string) (*location.Location, error) {
	if l, ok := f.byID[id]; ok {
		return l, nil
	}
	return nil, idb.ErrLocationNotFound
}

func (f *fakeLocations) GetByName(_ context.Context, name string) (*location.Location, error) {
	for _, l := range f.byID {
		if l.Name == name {
			return l, nil
		}
	}
	return nil, idb.ErrLocationNotFound
}

type fakeBookings struct {
	mu       sync.Mutex
	bookings []*booking.Booking
	listErr  error
}

func (f *fakeBookings) Create(_ context.Context, b *booking.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *b
	f.bookings = append(f.bookings, &cp)
	return nil
}

func (f *fakeBookings) GetByID(_ context.Context, id string) (*booking.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.bookings {
		if b.ID == id {
			cp := *b
			return &cp, nil
		}
	}
	return nil, idb.ErrBookingNotFound
}

func (f *fakeBookings) Update(_ context.Context, b *booking.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, existing := range f.bookings {
		if existing.ID == b.ID {
			cp := *b
			f.bookings[i] = &cp
			return nil
		}
	}
	return idb.ErrBookingNotFound
}

func (f *fakeBookings) ListByStatusAndType(_ context.Context, status booking.Status, typ booking.Type) ([]*booking.Booking, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*booking.Booking
	for _, b := range f.bookings {
		if b.Status == status && b.Type == typ {
			cp := *b
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeBookings) ListByLocationAndDate(_ context.Context, locationID, date string) ([]*booking.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*booking.Booking
	for _, b := range f.bookings {
		if b.LocationID == locationID && b.Date == date {
			cp := *b
			out = append(out, &cp)
		}
	}
	return out, nil
}

type fakeTournaments struct {
	tournaments  []*tournament.Tournament
	participants map[string][]string
}

func (f *fakeTournaments) ListByStatuses(_ context.Context, statuses []tournament.Status) ([]*tournament.Tournament, error) {
	var out []*tournament.Tournament
	for _, t := range f.tournaments {
		for _, s := range statuses {
			if t.Status == s {
				out = append(out, t)
			}
		}
	}
	return out, nil
}

func (f *fakeTournaments) ListApprovedParticipants(_ context.Context, id string) ([]string, error) {
	return f.participants[id], nil
}

type fakeNotifications struct {
	mu      sync.Mutex
	intents []notification.Intent
}

func (f *fakeNotifications) Create(_ context.Context, n *notification.Intent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.intents = append(f.intents, *n)
	return nil
}

func (f *fakeNotifications) GetByID(_ context.Context, id string) (*notification.Intent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, n := range f.intents {
		if n.ID == id {
			cp := n
			return &cp, nil
		}
	}
	return nil, idb.ErrNotificationNotFound
}

// fakeTransport records messages and fails the tokens listed in fail.
type fakeTransport struct {
	mu   sync.Mutex
	sent []push.Message
	fail map[string]error
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{fail: map[string]error{}}
}

func (f *fakeTransport) Send(ctx context.Context, msg push.Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.fail[msg.Device.Token]; ok {
		return "", err
	}
	f.sent = append(f.sent, msg)
	return "msg-" + msg.Device.Token, nil
}

func (f *fakeTransport) messages() []push.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]push.Message(nil), f.sent...)
}

func (f *fakeTransport) tokens() []string {
	var out []string
	for _, m := range f.messages() {
		out = append(out, m.Device.Token)
	}
	return out
}

func withTokens(u *user.User, tokens map[push.Platform]string) *user.User {
	u.Tokens = nil
	for p, tok := range tokens {
		u.Tokens = append(u.Tokens, user.TokenRecord{Platform: p, RawPlatform: string(p), Token: tok})
	}
	return u
}

type fakeLinkCodes struct {
	mu    sync.Mutex
	codes map[string]user.LinkCode
}

func newFakeLinkCodes() *fakeLinkCodes {
	return &fakeLinkCodes{codes: map[string]user.LinkCode{}}
}

func (f *fakeLinkCodes) Create(_ context.Context, code user.LinkCode) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.codes[code.Code] = code
	return nil
}

func (f *fakeLinkCodes) Redeem(_ context.Context, code string, now time.Time) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.codes[code]
	if !ok || !c.ExpiresAt.After(now) {
		return "", idb.ErrLinkCodeNotFound
	}
	delete(f.codes, code)
	return c.UserID, nil
}
