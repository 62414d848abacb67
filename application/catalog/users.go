package catalog

import (
	"context"

	"go.uber.org/zap"

	"github.com/frankkinuthian/lms-v3/domain/model"
	dynamo "github.com/frankkinuthian/lms-v3/infrastructure/persistence/dynamodb"
	"github.com/frankkinuthian/lms-v3/pkg/errors"
)

// RegisterUserInput carries the fields needed to open an account.
type RegisterUserInput struct {
	Email          string
	FullName       string
	Role           model.Role
	HashedPassword string
}

// RegisterUser creates a user account. The profile and its email reservation
// are written in one transaction, both guarded against existing items, so two
// concurrent registrations with the same email cannot both succeed.
func (s *Service) RegisterUser(ctx context.Context, input RegisterUserInput) (*model.User, error) {
	user := &model.User{
		UserID:         s.newID(),
		Email:          input.Email,
		FullName:       input.FullName,
		Role:           input.Role,
		HashedPassword: input.HashedPassword,
		IsActive:       true,
	}
	if err := user.Validate(); err != nil {
		return nil, err
	}

	guard := &model.EmailGuard{
		Email:  user.Email,
		UserID: user.UserID,
	}

	ws := dynamo.NewWriteSet().
		Create(user).
		Create(guard)

	if err := s.store.TransactWrite(ctx, ws); err != nil {
		if errors.IsConstraintViolation(err) {
			return nil, errors.NewConstraintViolationError("email address is already registered")
		}
		return nil, err
	}

	s.logger.Info("user registered",
		zap.String("userId", user.UserID),
		zap.String("role", string(user.Role)))
	s.publish(ctx, model.NewUserRegistered(user.UserID, user.Email, user.Role))

	return user, nil
}

// GetUserProfile reads one user by identifier.
func (s *Service) GetUserProfile(ctx context.Context, userID string) (*model.User, error) {
	key, err := dynamo.UserKey(userID)
	if err != nil {
		return nil, err
	}
	entity, err := s.store.GetByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	user, ok := entity.(*model.User)
	if !ok {
		return nil, errors.NewMalformedItemError("item at user key is not a user")
	}
	return user, nil
}

// GetUserByEmail resolves a user through the email entry of the secondary
// index. The guard item never appears there; only the profile is projected.
func (s *Service) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	if email == "" {
		return nil, errors.NewInvalidIdentityError("user", "email")
	}

	page, err := s.store.ScanSecondaryIndex(ctx, dynamo.PrefixEmail+email, dynamo.PrefixUser, dynamo.PageRequest{Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(page.Entities) == 0 {
		return nil, errors.NewNotFoundError("user")
	}
	user, ok := page.Entities[0].(*model.User)
	if !ok {
		return nil, errors.NewMalformedItemError("item at email index entry is not a user")
	}
	return user, nil
}

// DeactivateUser soft-deletes an account. The profile stays so enrollments
// and transactions keep a valid referent; the email reservation stays too, so
// the address cannot be re-registered while history references it.
func (s *Service) DeactivateUser(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.GetUserProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return user, nil
	}

	user.IsActive = false
	if err := s.store.PutItem(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user deactivated", zap.String("userId", userID))
	return user, nil
}
