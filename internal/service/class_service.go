package service

import (
	"context"

	"github.com/noah-isme/sma-admin-core/internal/models"
	appErrors "github.com/noah-isme/sma-admin-core/pkg/errors"
)

type classRepository interface {
	List(ctx context.Context) ([]models.ClassListItem, error)
	FindByID(ctx context.Context, id int64) (*models.Class, error)
	Create(ctx context.Context, class *models.Class) error
	Update(ctx context.Context, id int64, changes models.ClassRequest) error
	Delete(ctx context.Context, id int64) error
}

// ClassService manages homeroom classes.
type ClassService struct {
	repo      classRepository
	checker   ExistenceChecker
	validator *Validator
	hooks     WriteHooks
}

// NewClassService constructs a ClassService.
func NewClassService(repo classRepository, checker ExistenceChecker, validate *Validator, hooks WriteHooks) *ClassService {
	if validate == nil {
		validate = NewValidator()
	}
	return &ClassService{repo: repo, checker: checker, validator: validate, hooks: hooks}
}

// List returns classes with homeroom teacher, subject and student counts.
func (s *ClassService) List(ctx context.Context, actor models.Actor) ([]models.ClassListItem, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	classes, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list classes")
	}
	return classes, nil
}

// Get returns a class by id.
func (s *ClassService) Get(ctx context.Context, actor models.Actor, id int64) (*models.Class, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	class, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "class not found", "failed to load class")
	}
	return class, nil
}

// Create stores a class. The class code must be unused.
func (s *ClassService) Create(ctx context.Context, actor models.Actor, req models.ClassRequest) (*models.Class, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if blank(req.ClassCode) {
		return nil, appErrors.Clone(appErrors.ErrRequiredField, "class_code is required")
	}
	if blank(req.Title) {
		return nil, appErrors.Clone(appErrors.ErrRequiredField, "title is required")
	}
	req.ClassCode = trimmed(req.ClassCode)
	req.Title = trimmed(req.Title)
	if err := s.validate(ctx, req); err != nil {
		return nil, err
	}

	class := &models.Class{ClassCode: *req.ClassCode, Title: *req.Title, HomeroomTeacherID: req.HomeroomTeacherID}
	if err := s.repo.Create(ctx, class); err != nil {
		return nil, mapRepoError(err, "class not found", "failed to create class")
	}
	s.hooks.written(ctx, actor, models.AuditActionCreate, models.AuditResourceClass, class.ID, class)
	return class, nil
}

// Update applies the non-nil fields of req.
func (s *ClassService) Update(ctx context.Context, actor models.Actor, id int64, req models.ClassRequest) (*models.Class, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return nil, mapRepoError(err, "class not found", "failed to load class")
	}
	if req.ClassCode != nil && blank(req.ClassCode) {
		return nil, appErrors.Clone(appErrors.ErrRequiredField, "class_code is required")
	}
	if req.Title != nil && blank(req.Title) {
		return nil, appErrors.Clone(appErrors.ErrRequiredField, "title is required")
	}
	req.ClassCode = trimmed(req.ClassCode)
	req.Title = trimmed(req.Title)
	if err := s.validate(ctx, req); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, id, req); err != nil {
		return nil, mapRepoError(err, "class not found", "failed to update class")
	}
	updated, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "class not found", "failed to load class")
	}
	s.hooks.written(ctx, actor, models.AuditActionUpdate, models.AuditResourceClass, id, updated)
	return updated, nil
}

// Delete removes a class without enrollments or assignments.
func (s *ClassService) Delete(ctx context.Context, actor models.Actor, id int64) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		s.hooks.deleteFailed(ctx, models.AuditResourceClass, err)
		return mapRepoError(err, "class not found", "failed to delete class")
	}
	s.hooks.written(ctx, actor, models.AuditActionDelete, models.AuditResourceClass, id, nil)
	return nil
}

// validate checks req against stored state. Class codes are shared labels
// and may repeat across sections.
func (s *ClassService) validate(ctx context.Context, req models.ClassRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return err
	}
	if req.ClearHomeroom && req.HomeroomTeacherID != nil {
		return appErrors.Clone(appErrors.ErrValidation, "homeroom_teacher_id cannot be set while clearing the homeroom teacher")
	}
	if req.HomeroomTeacherID != nil {
		exists, err := s.checker.TeacherExists(ctx, *req.HomeroomTeacherID)
		if err != nil {
			return appErrors.Internal(err, "failed to check teacher")
		}
		if !exists {
			return appErrors.Clone(appErrors.ErrValidation, "homeroom_teacher_id references an unknown teacher")
		}
	}
	return nil
}
