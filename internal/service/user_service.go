package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/sma-admin-core/internal/models"
	appErrors "github.com/noah-isme/sma-admin-core/pkg/errors"
)

type userRepository interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.UserListItem, int, error)
	FindByID(ctx context.Context, id int64) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindDetail(ctx context.Context, id int64) (*models.UserDetail, error)
	Create(ctx context.Context, input models.NewUser) (*models.User, error)
	Update(ctx context.Context, id int64, changes models.UserChanges) error
	ResetPassword(ctx context.Context, id int64, passwordHash string) (bool, error)
	Delete(ctx context.Context, id int64) error
}

// UserService manages user accounts and their role sub-records.
type UserService struct {
	repo      userRepository
	validator *UserValidator
	hooks     WriteHooks
	logger    *zap.Logger
	hashCost  int
}

// NewUserService constructs a UserService.
func NewUserService(repo userRepository, validate *UserValidator, hooks WriteHooks, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{repo: repo, validator: validate, hooks: hooks, logger: logger, hashCost: bcrypt.DefaultCost}
}

// List returns a page of users with their role names.
func (s *UserService) List(ctx context.Context, actor models.Actor, filter models.UserFilter) ([]models.UserListItem, *models.Pagination, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, nil, err
	}
	if filter.Role != nil && !filter.Role.Valid() {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "unknown role filter")
	}
	filter.Search = strings.TrimSpace(filter.Search)
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.PageSize > 100 {
		filter.PageSize = 100
	}
	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list users")
	}
	return users, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// Get returns a user with its sub-record and links.
func (s *UserService) Get(ctx context.Context, actor models.Actor, id int64) (*models.UserDetail, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	detail, err := s.repo.FindDetail(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "user not found", "failed to load user")
	}
	return detail, nil
}

// Create validates the payload and stores the user with its role sub-record.
func (s *UserService) Create(ctx context.Context, actor models.Actor, payload models.UserPayload) (*models.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	payload.UserID = 0
	if err := s.validator.Validate(ctx, payload, false); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(*payload.Password), s.hashCost)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to hash password")
	}

	input := models.NewUser{
		Username:     *payload.Username,
		PasswordHash: string(hash),
		Role:         *payload.Role,
	}
	switch input.Role {
	case models.RoleStudent:
		dob, err := parseDate(*payload.DOB)
		if err != nil {
			return nil, err
		}
		input.Student = &models.Student{
			FirstName: strings.TrimSpace(*payload.FirstName),
			LastName:  strings.TrimSpace(*payload.LastName),
			DOB:       dob,
			ClassCode: *payload.ClassCode,
		}
	case models.RoleTeacher:
		input.SubjectIDs = payload.SubjectIDs
	case models.RoleParent:
		input.StudentIDs = payload.StudentIDs
	}

	user, err := s.repo.Create(ctx, input)
	if err != nil {
		return nil, mapRepoError(err, "user not found", "failed to create user")
	}

	s.hooks.written(ctx, actor, models.AuditActionCreate, models.AuditResourceUser, user.ID,
		map[string]interface{}{"username": user.Username, "role": user.Role})
	return user, nil
}

// Update changes the username and the sub-record of the stored role. The
// role itself cannot be reassigned.
func (s *UserService) Update(ctx context.Context, actor models.Actor, id int64, payload models.UserPayload) (*models.UserDetail, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	stored, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "user not found", "failed to load user")
	}
	if payload.Role == nil {
		role := stored.Role
		payload.Role = &role
	}
	if *payload.Role != stored.Role {
		return nil, appErrors.Clone(appErrors.ErrValidation, "role cannot be changed")
	}
	if payload.Password != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "password can only be changed through a password reset")
	}

	payload.UserID = id
	if err := s.validator.Validate(ctx, payload, true); err != nil {
		return nil, err
	}

	var changes models.UserChanges
	if *payload.Username != stored.Username {
		changes.Username = payload.Username
	}
	switch stored.Role {
	case models.RoleStudent:
		changes.FirstName = trimmed(payload.FirstName)
		changes.LastName = trimmed(payload.LastName)
		changes.ClassCode = payload.ClassCode
		if payload.DOB != nil {
			dob, err := parseDate(*payload.DOB)
			if err != nil {
				return nil, err
			}
			changes.DOB = &dob
		}
	case models.RoleTeacher:
		changes.SubjectIDs = payload.SubjectIDs
	case models.RoleParent:
		changes.StudentIDs = payload.StudentIDs
	}

	if changes.Empty() {
		return s.Get(ctx, actor, id)
	}
	if err := s.repo.Update(ctx, id, changes); err != nil {
		return nil, mapRepoError(err, "user not found", "failed to update user")
	}

	s.hooks.written(ctx, actor, models.AuditActionUpdate, models.AuditResourceUser, id,
		map[string]interface{}{"username": *payload.Username})
	return s.Get(ctx, actor, id)
}

// Delete removes the user after the guards of its role pass.
func (s *UserService) Delete(ctx context.Context, actor models.Actor, id int64) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if actor.UserID == id {
		return appErrors.Clone(appErrors.ErrForbidden, "you cannot delete your own account")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		s.hooks.deleteFailed(ctx, models.AuditResourceUser, err)
		return mapRepoError(err, "user not found", "failed to delete user")
	}
	s.hooks.written(ctx, actor, models.AuditActionDelete, models.AuditResourceUser, id, nil)
	return nil
}

// ResetPassword overwrites the password of user id. It reports false when
// the user does not exist.
func (s *UserService) ResetPassword(ctx context.Context, actor models.Actor, id int64, password string) (bool, error) {
	if err := requireAdmin(actor); err != nil {
		return false, err
	}
	if password == "" {
		return false, appErrors.Clone(appErrors.ErrRequiredField, "password is required")
	}
	if err := s.validator.Policy().Check(password); err != nil {
		return false, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return false, appErrors.Internal(err, "failed to hash password")
	}
	ok, err := s.repo.ResetPassword(ctx, id, string(hash))
	if err != nil {
		return false, appErrors.Internal(err, "failed to reset password")
	}
	if ok {
		s.hooks.written(ctx, actor, models.AuditActionResetPassword, models.AuditResourceUser, id, nil)
	}
	return ok, nil
}

// ResetPasswordByUsername resolves username and resets its password.
func (s *UserService) ResetPasswordByUsername(ctx context.Context, actor models.Actor, username, password string) (bool, error) {
	if err := requireAdmin(actor); err != nil {
		return false, err
	}
	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		mapped := mapRepoError(err, "user not found", "failed to load user")
		if appErrors.FromError(mapped).Code == appErrors.ErrNotFound.Code {
			return false, nil
		}
		return false, mapped
	}
	return s.ResetPassword(ctx, actor, user.ID, password)
}

func parseDate(raw string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, appErrors.Clone(appErrors.ErrFormat, "dob must be a date in YYYY-MM-DD format")
	}
	return t, nil
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
