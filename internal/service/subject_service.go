package service

import (
	"context"
	"strings"

	"github.com/noah-isme/sma-admin-core/internal/models"
	appErrors "github.com/noah-isme/sma-admin-core/pkg/errors"
)

type subjectRepository interface {
	List(ctx context.Context) ([]models.SubjectListItem, error)
	FindByID(ctx context.Context, id int64) (*models.Subject, error)
	ExistsByName(ctx context.Context, name string, excludeID int64) (bool, error)
	Create(ctx context.Context, subject *models.Subject) error
	Update(ctx context.Context, subject *models.Subject) error
	Delete(ctx context.Context, id int64) error
}

// SubjectService manages subjects.
type SubjectService struct {
	repo      subjectRepository
	validator *Validator
	hooks     WriteHooks
}

// NewSubjectService constructs a SubjectService.
func NewSubjectService(repo subjectRepository, validate *Validator, hooks WriteHooks) *SubjectService {
	if validate == nil {
		validate = NewValidator()
	}
	return &SubjectService{repo: repo, validator: validate, hooks: hooks}
}

// List returns every subject with the titles of the classes teaching it.
func (s *SubjectService) List(ctx context.Context, actor models.Actor) ([]models.SubjectListItem, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	subjects, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list subjects")
	}
	return subjects, nil
}

// Get returns a subject by id.
func (s *SubjectService) Get(ctx context.Context, actor models.Actor, id int64) (*models.Subject, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	subject, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "subject not found", "failed to load subject")
	}
	return subject, nil
}

// Create stores a new subject. Names are unique ignoring case.
func (s *SubjectService) Create(ctx context.Context, actor models.Actor, req models.SubjectRequest) (*models.Subject, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	name, err := s.validateName(ctx, req, 0)
	if err != nil {
		return nil, err
	}
	subject := &models.Subject{Name: name}
	if err := s.repo.Create(ctx, subject); err != nil {
		return nil, mapRepoError(err, "subject not found", "failed to create subject")
	}
	s.hooks.written(ctx, actor, models.AuditActionCreate, models.AuditResourceSubject, subject.ID, subject)
	return subject, nil
}

// Update renames a subject.
func (s *SubjectService) Update(ctx context.Context, actor models.Actor, id int64, req models.SubjectRequest) (*models.Subject, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return nil, mapRepoError(err, "subject not found", "failed to load subject")
	}
	name, err := s.validateName(ctx, req, id)
	if err != nil {
		return nil, err
	}
	subject := &models.Subject{ID: id, Name: name}
	if err := s.repo.Update(ctx, subject); err != nil {
		return nil, mapRepoError(err, "subject not found", "failed to update subject")
	}
	s.hooks.written(ctx, actor, models.AuditActionUpdate, models.AuditResourceSubject, id, subject)
	return subject, nil
}

// Delete removes a subject no class still teaches.
func (s *SubjectService) Delete(ctx context.Context, actor models.Actor, id int64) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		s.hooks.deleteFailed(ctx, models.AuditResourceSubject, err)
		return mapRepoError(err, "subject not found", "failed to delete subject")
	}
	s.hooks.written(ctx, actor, models.AuditActionDelete, models.AuditResourceSubject, id, nil)
	return nil
}

func (s *SubjectService) validateName(ctx context.Context, req models.SubjectRequest, excludeID int64) (string, error) {
	if blank(req.Name) {
		return "", appErrors.Clone(appErrors.ErrRequiredField, "name is required")
	}
	if err := s.validator.Struct(req); err != nil {
		return "", err
	}
	name := strings.TrimSpace(*req.Name)
	exists, err := s.repo.ExistsByName(ctx, name, excludeID)
	if err != nil {
		return "", appErrors.Internal(err, "failed to check subject name")
	}
	if exists {
		return "", appErrors.Clone(appErrors.ErrUniqueness, "subject name already exists")
	}
	return name, nil
}
