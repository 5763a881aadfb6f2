// internal/app/recipient_resolver.go
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"padel_notifier/internal/domain/location"
	"padel_notifier/internal/domain/push"
	"padel_notifier/internal/domain/user"
	idb "padel_notifier/internal/infra/database"
)

// Subject is who a notification is for: a set of users, or an admin
// broadcast scoped to a venue.
type Subject struct {
	UserIDs   []string
	Broadcast bool
	Venue     string
}

func UserSubject(ids ...string) Subject {
	return Subject{UserIDs: ids}
}

func AdminBroadcast(venue string) Subject {
	return Subject{Broadcast: true, Venue: venue}
}

func (s Subject) String() string {
	if s.Broadcast {
		return fmt.Sprintf("admins(venue=%q)", s.Venue)
	}
	return fmt.Sprintf("users%v", s.UserIDs)
}

// RecipientResolver turns a subject into deliverable devices. An empty result
// is not an error.
type RecipientResolver interface {
	Resolve(ctx context.Context, subject Subject) ([]push.Device, error)
}

type RecipientResolverImpl struct {
	users     user.Repository
	locations location.Repository
	logger    logrus.FieldLogger
}

func NewRecipientResolver(users user.Repository, locations location.Repository, logger logrus.FieldLogger) *RecipientResolverImpl {
	return &RecipientResolverImpl{users: users, locations: locations, logger: logger}
}

func (r *RecipientResolverImpl) Resolve(ctx context.Context, subject Subject) ([]push.Device, error) {
	if subject.Broadcast {
		return r.resolveBroadcast(ctx, subject.Venue)
	}
	return r.resolveUsers(ctx, subject.UserIDs)
}

// resolveUsers skips missing users. Store failures are only returned when
// they leave nothing to deliver to.
func (r *RecipientResolverImpl) resolveUsers(ctx context.Context, ids []string) ([]push.Device, error) {
	set := newDeviceSet()
	var errs *multierror.Error
	for _, id := range ids {
		u, err := r.users.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, idb.ErrUserNotFound) {
				r.logger.WithField("user_id", id).Debug("recipient user not found, skipping")
				continue
			}
			errs = multierror.Append(errs, fmt.Errorf("user %s: %w", id, err))
			continue
		}
		set.addUser(u)
	}

	if err := errs.ErrorOrNil(); err != nil {
		if set.empty() {
			return nil, err
		}
		r.logger.WithError(err).Warn("some recipients could not be loaded")
	}
	return set.devices, nil
}

func (r *RecipientResolverImpl) resolveBroadcast(ctx context.Context, venue string) ([]push.Device, error) {
	admins, err := r.users.ListByRoles(ctx, []user.Role{user.RoleAdmin, user.RoleSubAdmin})
	if err != nil {
		return nil, fmt.Errorf("failed to list admins: %w", err)
	}

	venueLoc := r.lookupVenue(ctx, venue)

	set := newDeviceSet()
	for _, u := range admins {
		switch u.Role {
		case user.RoleAdmin:
			set.addUser(u)
		case user.RoleSubAdmin:
			if venueLoc == nil {
				continue
			}
			if u.IsAssignedTo(venueLoc.ID, venueLoc.Name) {
				set.addUser(u)
			} else {
				r.logger.WithFields(logrus.Fields{"user_id": u.ID, "venue": venue}).Debug("sub-admin not assigned to venue, skipping")
			}
		}
	}
	return set.devices, nil
}

// lookupVenue returns nil when the venue is blank or unknown; the broadcast
// then only reaches full admins.
func (r *RecipientResolverImpl) lookupVenue(ctx context.Context, venue string) *location.Location {
	if venue == "" {
		return nil
	}
	loc, err := r.locations.GetByName(ctx, venue)
	if err != nil {
		entry := r.logger.WithField("venue", venue)
		if errors.Is(err, idb.ErrLocationNotFound) {
			entry.Info("venue not found, broadcasting to admins only")
		} else {
			entry.WithError(err).Warn("venue lookup failed, broadcasting to admins only")
		}
		return nil
	}
	return loc
}

// platformOrder fixes the order devices of one user are listed in.
var platformOrder = []push.Platform{
	push.PlatformIOS,
	push.PlatformAndroid,
	push.PlatformWeb,
	push.PlatformTelegram,
	push.PlatformUnknown,
	push.PlatformLegacy,
}

// MergeTokens lists a user's devices: structured tokens first, then the
// legacy token unless it repeats one of them.
func MergeTokens(u *user.User) []push.Device {
	set := newDeviceSet()
	set.addUser(u)
	return set.devices
}

type deviceSet struct {
	seen    map[string]struct{}
	devices []push.Device
}

func newDeviceSet() *deviceSet {
	return &deviceSet{seen: map[string]struct{}{}}
}

func (s *deviceSet) add(d push.Device) {
	if d.Token == "" {
		return
	}
	if _, dup := s.seen[d.Token]; dup {
		return
	}
	s.seen[d.Token] = struct{}{}
	s.devices = append(s.devices, d)
}

func (s *deviceSet) addUser(u *user.User) {
	for _, p := range platformOrder {
		for _, rec := range u.Tokens {
			if rec.Platform == p {
				s.add(push.Device{UserID: u.ID, Platform: p, Token: rec.Token})
			}
		}
	}
	s.add(push.Device{UserID: u.ID, Platform: push.PlatformLegacy, Token: u.LegacyToken})
}

func (s *deviceSet) empty() bool {
	return len(s.devices) == 0
}
