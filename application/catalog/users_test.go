package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frankkinuthian/lms-v3/domain/model"
	"github.com/frankkinuthian/lms-v3/pkg/errors"
)

func TestRegisterUser_Success(t *testing.T) {
	store := newStubStore()
	svc, pub := newTestService(store)

	user, err := svc.RegisterUser(context.Background(), RegisterUserInput{
		Email:          "ada@example.com",
		FullName:       "Ada Lovelace",
		Role:           model.RoleStudent,
		HashedPassword: "hash",
	})

	require.NoError(t, err)
	assert.Equal(t, "id-1", user.UserID)
	assert.True(t, user.IsActive)

	// Profile and email reservation commit together or not at all.
	require.Len(t, store.writeSets, 1)
	assert.Equal(t, 2, store.writeSets[0].Len())
	assert.Equal(t, []string{model.EventUserRegistered}, pub.eventTypes())
}

func TestRegisterUser_DuplicateEmail(t *testing.T) {
	store := newStubStore()
	store.transactErr = errors.NewConstraintViolationError("a transaction guard failed")
	svc, pub := newTestService(store)

	_, err := svc.RegisterUser(context.Background(), RegisterUserInput{
		Email:          "taken@example.com",
		FullName:       "Second Comer",
		Role:           model.RoleStudent,
		HashedPassword: "hash",
	})

	require.Error(t, err)
	assert.True(t, errors.IsConstraintViolation(err))
	assert.Contains(t, err.Error(), "email address is already registered")
	assert.Empty(t, pub.events)
}

func TestRegisterUser_InvalidEmail(t *testing.T) {
	store := newStubStore()
	svc, _ := newTestService(store)

	_, err := svc.RegisterUser(context.Background(), RegisterUserInput{
		Email:    "not-an-address",
		FullName: "Nobody",
		Role:     model.RoleStudent,
	})

	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
	assert.Empty(t, store.writeSets)
}

func TestRegisterUser_InvalidRole(t *testing.T) {
	store := newStubStore()
	svc, _ := newTestService(store)

	_, err := svc.RegisterUser(context.Background(), RegisterUserInput{
		Email:    "a@b.com",
		FullName: "Nobody",
		Role:     model.Role("superuser"),
	})

	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
}

func TestGetUserProfile_NotFound(t *testing.T) {
	svc, _ := newTestService(newStubStore())

	_, err := svc.GetUserProfile(context.Background(), "missing")

	assert.True(t, errors.IsNotFound(err))
}

func TestGetUserByEmail(t *testing.T) {
	store := newStubStore().seed(activeStudent("u1", "ada@example.com"))
	svc, _ := newTestService(store)

	user, err := svc.GetUserByEmail(context.Background(), "ada@example.com")

	require.NoError(t, err)
	assert.Equal(t, "u1", user.UserID)
}

func TestGetUserByEmail_Unknown(t *testing.T) {
	svc, _ := newTestService(newStubStore())

	_, err := svc.GetUserByEmail(context.Background(), "nobody@example.com")

	assert.True(t, errors.IsNotFound(err))
}

func TestDeactivateUser_IsIdempotent(t *testing.T) {
	store := newStubStore().seed(activeStudent("u1", "ada@example.com"))
	svc, _ := newTestService(store)

	user, err := svc.DeactivateUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.False(t, user.IsActive)
	assert.Len(t, store.puts, 1)

	// Second call observes the already-inactive profile and writes nothing.
	user, err = svc.DeactivateUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.False(t, user.IsActive)
	assert.Len(t, store.puts, 1)
}
