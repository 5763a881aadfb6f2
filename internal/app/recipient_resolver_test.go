package app

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"padel_notifier/internal/domain/location"
	"padel_notifier/internal/domain/push"
	"padel_notifier/internal/domain/user"
)

func TestMergeTokensDeduplicatesLegacy(t *testing.T) {
	u := withTokens(&user.User{ID: "u1", LegacyToken: "tokenA"}, map[push.Platform]string{
		push.PlatformIOS:     "tokenA",
		push.PlatformAndroid: "tokenB",
	})

	got := MergeTokens(u)

	assert.Equal(t, []push.Device{
		{UserID: "u1", Platform: push.PlatformIOS, Token: "tokenA"},
		{UserID: "u1", Platform: push.PlatformAndroid, Token: "tokenB"},
	}, got)
}

func TestMergeTokensKeepsEveryStoredKey(t *testing.T) {
	u := &user.User{ID: "u1", LegacyToken: "b", Tokens: []user.TokenRecord{
		{Platform: push.PlatformIOS, RawPlatform: "iOS", Token: "a"},
		{Platform: push.PlatformIOS, RawPlatform: "ios", Token: "b"},
		{Platform: push.PlatformUnknown, RawPlatform: "ipad", Token: "c"},
		{Platform: push.PlatformUnknown, RawPlatform: "macos", Token: "d"},
	}}

	assert.Equal(t, []push.Device{
		{UserID: "u1", Platform: push.PlatformIOS, Token: "a"},
		{UserID: "u1", Platform: push.PlatformIOS, Token: "b"},
		{UserID: "u1", Platform: push.PlatformUnknown, Token: "c"},
		{UserID: "u1", Platform: push.PlatformUnknown, Token: "d"},
	}, MergeTokens(u))
}

func TestMergeTokensLegacyOnly(t *testing.T) {
	got := MergeTokens(&user.User{ID: "u1", LegacyToken: "old"})
	assert.Equal(t, []push.Device{{UserID: "u1", Platform: push.PlatformLegacy, Token: "old"}}, got)

	assert.Empty(t, MergeTokens(&user.User{ID: "u2"}))
}

func TestResolveUsers(t *testing.T) {
	users := newFakeUsers(
		withTokens(&user.User{ID: "u1"}, map[push.Platform]string{push.PlatformIOS: "shared"}),
		withTokens(&user.User{ID: "u2", LegacyToken: "shared"}, map[push.Platform]string{push.PlatformWeb: "w2"}),
	)
	r := NewRecipientResolver(users, newFakeLocations(), testLogger)

	devices, err := r.Resolve(context.Background(), UserSubject("u1", "missing", "u2"))
	require.NoError(t, err)

	tokens := make([]string, 0, len(devices))
	for _, d := range devices {
		tokens = append(tokens, d.Token)
	}
	assert.Equal(t, []string{"shared", "w2"}, tokens)
}

func TestResolveMissingUserIsEmpty(t *testing.T) {
	r := NewRecipientResolver(newFakeUsers(), newFakeLocations(), testLogger)

	devices, err := r.Resolve(context.Background(), UserSubject("ghost"))
	require.NoError(t, err)
	assert.Empty(t, devices)
}

func TestResolveStoreFailureWithNothingResolved(t *testing.T) {
	users := newFakeUsers()
	users.errs["u1"] = errors.New("connection refused")
	r := NewRecipientResolver(users, newFakeLocations(), testLogger)

	_, err := r.Resolve(context.Background(), UserSubject("u1"))
	assert.Error(t, err)
}

func TestResolveBroadcastScopesSubAdmins(t *testing.T) {
	users := newFakeUsers(
		withTokens(&user.User{ID: "admin", Role: user.RoleAdmin}, map[push.Platform]string{push.PlatformIOS: "admin-ios"}),
		withTokens(&user.User{ID: "sub", Role: user.RoleSubAdmin, AssignedLocations: []string{"Venue X"}},
			map[push.Platform]string{push.PlatformAndroid: "sub-android"}),
		withTokens(&user.User{ID: "sub-by-id", Role: user.RoleSubAdmin, AssignedLocations: []string{"loc-y"}},
			map[push.Platform]string{push.PlatformAndroid: "suby-android"}),
		withTokens(&user.User{ID: "player", Role: user.RoleUser}, map[push.Platform]string{push.PlatformIOS: "player-ios"}),
	)
	locations := newFakeLocations(
		&location.Location{ID: "loc-x", Name: "Venue X"},
		&location.Location{ID: "loc-y", Name: "Venue Y"},
	)
	r := NewRecipientResolver(users, locations, testLogger)

	tests := []struct {
		name  string
		venue string
		want  []string
	}{
		{name: "assigned by name", venue: "Venue X", want: []string{"admin-ios", "sub-android"}},
		{name: "assigned by id", venue: "Venue Y", want: []string{"admin-ios", "suby-android"}},
		{name: "unknown venue", venue: "Venue Z", want: []string{"admin-ios"}},
		{name: "no venue", venue: "", want: []string{"admin-ios"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			devices, err := r.Resolve(context.Background(), AdminBroadcast(tt.venue))
			require.NoError(t, err)
			var got []string
			for _, d := range devices {
				got = append(got, d.Token)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveBroadcastListFailure(t *testing.T) {
	users := newFakeUsers()
	users.listErr = errors.New("timeout")
	r := NewRecipientResolver(users, newFakeLocations(), testLogger)

	_, err := r.Resolve(context.Background(), AdminBroadcast("Venue X"))
	assert.Error(t, err)
}
