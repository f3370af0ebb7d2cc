package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SumukhChakkirala/chatApp/internal/core/domain"
)

func TestRegisterCreatesUser(t *testing.T) {
	repo := newMemUserRepo()
	svc := NewUserService(testLogger(), repo)

	user, err := svc.Register(context.Background(), "alice", "secret123", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.True(t, strings.HasPrefix(user.UserTag, "alice#"))
	assert.NotEqual(t, "secret123", user.PasswordHash)

	stored, err := repo.GetUserByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, user.ID, stored.ID)
}

func TestRegisterValidation(t *testing.T) {
	svc := NewUserService(testLogger(), newMemUserRepo())
	ctx := context.Background()

	cases := []struct {
		name     string
		username string
		password string
		confirm  string
	}{
		{"empty username", "", "secret123", "secret123"},
		{"empty password", "alice", "", ""},
		{"mismatch", "alice", "secret123", "secret124"},
		{"too short", "alice", "abc", "abc"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tc.username, tc.password, tc.confirm)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	repo := newMemUserRepo()
	svc := NewUserService(testLogger(), repo)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "secret123", "secret123")
	require.NoError(t, err)
	_, err = svc.Register(ctx, "alice", "other1234", "other1234")
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestLoginSuccess(t *testing.T) {
	repo := newMemUserRepo()
	svc := NewUserService(testLogger(), repo)
	ctx := context.Background()

	created, err := svc.Register(ctx, "bob", "secret123", "secret123")
	require.NoError(t, err)

	user, err := svc.Login(ctx, "bob", "secret123")
	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)
}

func TestLoginWrongPasswordAndUnknownUserLookAlike(t *testing.T) {
	repo := newMemUserRepo()
	svc := NewUserService(testLogger(), repo)
	ctx := context.Background()

	_, err := svc.Register(ctx, "bob", "secret123", "secret123")
	require.NoError(t, err)

	_, errWrong := svc.Login(ctx, "bob", "nope12345")
	_, errUnknown := svc.Login(ctx, "nobody", "secret123")

	require.ErrorIs(t, errWrong, domain.ErrUnauthorized)
	require.ErrorIs(t, errUnknown, domain.ErrUnauthorized)
	assert.Equal(t, errWrong.Error(), errUnknown.Error())
}

func TestSearchExcludesSelfAndEmptyQuery(t *testing.T) {
	repo := newMemUserRepo()
	svc := NewUserService(testLogger(), repo)
	ctx := context.Background()

	me := repo.add("me", "me#00001")
	repo.add("other", "other#00002")

	results, err := svc.Search(ctx, me.ID, "  ")
	require.NoError(t, err)
	assert.Empty(t, results)

	results, err = svc.Search(ctx, me.ID, "o")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "other", results[0].Username)
	assert.NotEqual(t, me.ID, results[0].ID)
}
