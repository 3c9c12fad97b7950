package services

import (
	"fmt"
	"strings"

	"reviewhub/internal/apperrors"
	"reviewhub/internal/models"
	"reviewhub/internal/repositories"
)

// ProfileUpdate carries a partial update of a user record; nil fields stay
// unchanged. Role is only honored on the administrative path — the
// self-service path rejects it outright so an account can never escalate
// itself.
type ProfileUpdate struct {
	Username  *string `json:"username" validate:"omitempty,max=150,username"`
	Email     *string `json:"email" validate:"omitempty,email,max=254"`
	FirstName *string `json:"first_name" validate:"omitempty,max=150"`
	LastName  *string `json:"last_name" validate:"omitempty,max=150"`
	Bio       *string `json:"bio"`
	Role      *string `json:"role"`
}

// UserService handles administrative user management and the self-service
// profile path.
type UserService struct {
	userRepo repositories.UserRepository
}

// NewUserService creates a new UserService.
func NewUserService(userRepo repositories.UserRepository) *UserService {
	return &UserService{
		userRepo: userRepo,
	}
}

// ListUsers retrieves users, optionally filtered by a username substring.
func (s *UserService) ListUsers(search string, limit, offset int) ([]models.User, error) {
	return s.userRepo.List(search, limit, offset)
}

// GetUser retrieves a user by username.
func (s *UserService) GetUser(username string) (*models.User, error) {
	return s.userRepo.GetByUsername(username)
}

// CreateUser creates an account on behalf of an admin, optionally with a
// role other than the default.
func (s *UserService) CreateUser(user *models.User) error {
	if strings.EqualFold(user.Username, "me") {
		return apperrors.ErrReservedUsername
	}
	if !usernamePattern.MatchString(user.Username) {
		return fmt.Errorf("username may only contain letters, digits and @/./+/-/_: %w", apperrors.ErrValidation)
	}
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	if !models.ValidRole(string(user.Role)) {
		return fmt.Errorf("unknown role %q: %w", user.Role, apperrors.ErrValidation)
	}
	return s.userRepo.Create(user)
}

// UpdateUser applies a partial update on the administrative path, where
// role changes are allowed.
func (s *UserService) UpdateUser(username string, upd ProfileUpdate) (*models.User, error) {
	user, err := s.userRepo.GetByUsername(username)
	if err != nil {
		return nil, err
	}
	if upd.Role != nil {
		if !models.ValidRole(*upd.Role) {
			return nil, fmt.Errorf("unknown role %q: %w", *upd.Role, apperrors.ErrValidation)
		}
		user.Role = models.UserRole(*upd.Role)
	}
	return s.applyProfile(user, upd)
}

// UpdateOwnProfile applies a partial update on the self-service path. Any
// attempt to change the role field is rejected rather than silently
// ignored, and the reserved username "me" cannot be claimed.
func (s *UserService) UpdateOwnProfile(username string, upd ProfileUpdate) (*models.User, error) {
	if upd.Role != nil {
		return nil, fmt.Errorf("role cannot be changed on the profile path: %w", apperrors.ErrValidation)
	}
	user, err := s.userRepo.GetByUsername(username)
	if err != nil {
		return nil, err
	}
	return s.applyProfile(user, upd)
}

// DeleteUser removes a user and cascades to their reviews and comments.
func (s *UserService) DeleteUser(username string) error {
	return s.userRepo.Delete(username)
}

func (s *UserService) applyProfile(user *models.User, upd ProfileUpdate) (*models.User, error) {
	if upd.Username != nil {
		if strings.EqualFold(*upd.Username, "me") {
			return nil, apperrors.ErrReservedUsername
		}
		if !usernamePattern.MatchString(*upd.Username) {
			return nil, fmt.Errorf("username may only contain letters, digits and @/./+/-/_: %w", apperrors.ErrValidation)
		}
		user.Username = *upd.Username
	}
	if upd.Email != nil {
		user.Email = *upd.Email
	}
	if upd.FirstName != nil {
		user.FirstName = *upd.FirstName
	}
	if upd.LastName != nil {
		user.LastName = *upd.LastName
	}
	if upd.Bio != nil {
		user.Bio = *upd.Bio
	}
	if err := s.userRepo.Save(user); err != nil {
		return nil, err
	}
	return user, nil
}
