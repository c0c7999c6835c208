package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// Service covers the signed-in user's own profile and the admin user console.
type Service interface {
	GetProfile(ctx context.Context, actor auth.Actor) (*UserDTO, error)
	UpdateProfile(ctx context.Context, actor auth.Actor, input UpdateProfileInput) (*UserDTO, error)
	ChangePassword(ctx context.Context, actor auth.Actor, input ChangePasswordInput) error

	ListUsers(ctx context.Context, page pagination.Params) (types.PageEnvelope[UserDTO], error)
	GetUser(ctx context.Context, userID uuid.UUID) (*UserDetailDTO, error)
	SetUserStatus(ctx context.Context, userID uuid.UUID, isActive bool) (*UserDTO, error)
	VerifyUser(ctx context.Context, userID uuid.UUID) (*UserDTO, error)
	DeleteUser(ctx context.Context, userID uuid.UUID) error

	// Principal resolves the live user behind an access token.
	Principal(ctx context.Context, userID uuid.UUID) (*Principal, error)
}

// PasswordHasher is the subset of security.Hasher the service needs.
type PasswordHasher interface {
	CheckPolicy(password string) error
	Hash(password string) (string, error)
	Verify(password, encoded string) (bool, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type ServiceParams struct {
	Repo   *Repository
	Tx     txRunner
	Hasher PasswordHasher
	Logger *logger.Logger
}

type service struct {
	repo   *Repository
	tx     txRunner
	hasher PasswordHasher
	logg   *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Hasher == nil {
		return nil, fmt.Errorf("password hasher required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{repo: params.Repo, tx: params.Tx, hasher: params.Hasher, logg: logg}, nil
}

// NormalizeEmail is the canonical form emails are stored and looked up in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *service) GetProfile(ctx context.Context, actor auth.Actor) (*UserDTO, error) {
	user, err := s.repo.FindByID(ctx, actor.UserID)
	if err != nil {
		return nil, mapStoreErr(err, "load user")
	}
	return FromModel(user), nil
}

func (s *service) UpdateProfile(ctx context.Context, actor auth.Actor, input UpdateProfileInput) (*UserDTO, error) {
	values := map[string]any{}
	if input.FullName != nil {
		name := strings.TrimSpace(*input.FullName)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "fullName cannot be empty")
		}
		values["full_name"] = name
	}
	if input.Email != nil {
		email := NormalizeEmail(*input.Email)
		if email == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "email cannot be empty")
		}
		taken, err := s.repo.EmailTaken(ctx, email, actor.UserID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: check email")
		}
		if taken {
			return nil, emailConflict()
		}
		values["email"] = email
	}

	if len(values) > 0 {
		affected, err := s.repo.UpdateColumns(ctx, actor.UserID, values)
		if err != nil {
			if db.IsUniqueViolation(err, "") {
				return nil, emailConflict()
			}
			return nil, mapStoreErr(err, "update profile")
		}
		if affected == 0 {
			return nil, userNotFound()
		}
	}
	return s.GetProfile(ctx, actor)
}

func (s *service) ChangePassword(ctx context.Context, actor auth.Actor, input ChangePasswordInput) error {
	if input.CurrentPassword == "" || input.NewPassword == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "currentPassword and newPassword are required")
	}
	if input.NewPassword != input.ConfirmPassword {
		return pkgerrors.New(pkgerrors.CodeValidation, "new password and confirmation do not match")
	}
	if err := s.hasher.CheckPolicy(input.NewPassword); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error())
	}

	user, err := s.repo.FindByID(ctx, actor.UserID)
	if err != nil {
		return mapStoreErr(err, "load user")
	}
	ok, err := s.hasher.Verify(input.CurrentPassword, user.PasswordHash)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "current password is incorrect")
	}

	hash, err := s.hasher.Hash(input.NewPassword)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	if _, err := s.repo.UpdateColumns(ctx, user.ID, map[string]any{"password_hash": hash}); err != nil {
		return mapStoreErr(err, "update password")
	}
	s.logg.Info(s.logg.WithUserID(ctx, user.ID.String()), "password changed")
	return nil
}

func (s *service) ListUsers(ctx context.Context, page pagination.Params) (types.PageEnvelope[UserDTO], error) {
	page = page.Normalize()
	rows, total, err := s.repo.List(ctx, page.Offset(), page.Limit)
	if err != nil {
		return types.PageEnvelope[UserDTO]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list users")
	}
	items := make([]UserDTO, 0, len(rows))
	for i := range rows {
		items = append(items, *FromModel(&rows[i]))
	}
	return pagination.NewPage(items, page, total), nil
}

func (s *service) GetUser(ctx context.Context, userID uuid.UUID) (*UserDetailDTO, error) {
	user, err := s.repo.FindWithBankDetails(ctx, userID)
	if err != nil {
		return nil, mapStoreErr(err, "load user")
	}
	return detailFromModel(user), nil
}

func (s *service) SetUserStatus(ctx context.Context, userID uuid.UUID, isActive bool) (*UserDTO, error) {
	if err := s.touch(ctx, userID, map[string]any{"is_active": isActive}); err != nil {
		return nil, err
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"target_user_id": userID.String(),
		"is_active":      isActive,
	}), "user status changed")
	return s.reload(ctx, userID)
}

func (s *service) VerifyUser(ctx context.Context, userID uuid.UUID) (*UserDTO, error) {
	if err := s.touch(ctx, userID, map[string]any{"is_user_verified": true}); err != nil {
		return nil, err
	}
	return s.reload(ctx, userID)
}

func (s *service) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.FindByID(ctx, userID); err != nil {
			return mapStoreErr(err, "load user")
		}
		orders, err := repo.CountOrders(ctx, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: count orders")
		}
		if orders > 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "user has orders; deactivate the account instead").
				WithDetails(map[string]any{"orders": orders})
		}
		if _, err := repo.Delete(ctx, userID); err != nil {
			if db.IsForeignKeyViolation(err) {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "user is still referenced")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete user")
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logg.Info(s.logg.WithField(ctx, "target_user_id", userID.String()), "user deleted")
	return nil
}

func (s *service) Principal(ctx context.Context, userID uuid.UUID) (*Principal, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, mapStoreErr(err, "load user")
	}
	return &Principal{ID: user.ID, Email: user.Email, IsAdmin: user.IsAdmin, IsActive: user.IsActive}, nil
}

func (s *service) touch(ctx context.Context, userID uuid.UUID, values map[string]any) error {
	affected, err := s.repo.UpdateColumns(ctx, userID, values)
	if err != nil {
		return mapStoreErr(err, "update user")
	}
	if affected == 0 {
		return userNotFound()
	}
	return nil
}

func (s *service) reload(ctx context.Context, userID uuid.UUID) (*UserDTO, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, mapStoreErr(err, "load user")
	}
	return FromModel(user), nil
}

func userNotFound() error {
	return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
}

func emailConflict() error {
	return pkgerrors.New(pkgerrors.CodeConflict, "email already in use")
}

func mapStoreErr(err error, step string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return userNotFound()
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: "+step)
}
