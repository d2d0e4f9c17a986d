package service

import (
	"context"

	"github.com/noah-isme/sma-admin-core/internal/models"
	appErrors "github.com/noah-isme/sma-admin-core/pkg/errors"
)

type classSubjectRepository interface {
	List(ctx context.Context, filter models.ClassSubjectFilter) ([]models.ClassSubjectListItem, error)
	FindByID(ctx context.Context, id int64) (*models.ClassSubject, error)
	ExistsPair(ctx context.Context, classID, subjectID, excludeID int64) (bool, error)
	Create(ctx context.Context, assignment *models.ClassSubject) error
	Update(ctx context.Context, assignment *models.ClassSubject) error
	Delete(ctx context.Context, id int64) error
}

// ClassSubjectService manages which teacher teaches which subject to which class.
type ClassSubjectService struct {
	repo      classSubjectRepository
	checker   ExistenceChecker
	validator *Validator
	hooks     WriteHooks
}

// NewClassSubjectService constructs a ClassSubjectService.
func NewClassSubjectService(repo classSubjectRepository, checker ExistenceChecker, validate *Validator, hooks WriteHooks) *ClassSubjectService {
	if validate == nil {
		validate = NewValidator()
	}
	return &ClassSubjectService{repo: repo, checker: checker, validator: validate, hooks: hooks}
}

// List returns assignments with display names, optionally filtered.
func (s *ClassSubjectService) List(ctx context.Context, actor models.Actor, filter models.ClassSubjectFilter) ([]models.ClassSubjectListItem, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	items, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list class subjects")
	}
	return items, nil
}

// Get returns one assignment.
func (s *ClassSubjectService) Get(ctx context.Context, actor models.Actor, id int64) (*models.ClassSubject, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	assignment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "class subject not found", "failed to load class subject")
	}
	return assignment, nil
}

// Create assigns a subject and teacher to a class.
func (s *ClassSubjectService) Create(ctx context.Context, actor models.Actor, req models.ClassSubjectRequest) (*models.ClassSubject, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	switch {
	case req.ClassID == nil:
		return nil, appErrors.Clone(appErrors.ErrRequiredField, "class_id is required")
	case req.SubjectID == nil:
		return nil, appErrors.Clone(appErrors.ErrRequiredField, "subject_id is required")
	case req.TeacherID == nil:
		return nil, appErrors.Clone(appErrors.ErrRequiredField, "teacher_id is required")
	}
	assignment := &models.ClassSubject{
		ClassID:   *req.ClassID,
		SubjectID: *req.SubjectID,
		TeacherID: *req.TeacherID,
		Schedule:  req.Schedule,
	}
	if err := s.validate(ctx, req, assignment); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, assignment); err != nil {
		return nil, mapRepoError(err, "class subject not found", "failed to create class subject")
	}
	s.hooks.written(ctx, actor, models.AuditActionCreate, models.AuditResourceClassSubject, assignment.ID, assignment)
	return assignment, nil
}

// Update changes the non-nil fields of an assignment.
func (s *ClassSubjectService) Update(ctx context.Context, actor models.Actor, id int64, req models.ClassSubjectRequest) (*models.ClassSubject, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	assignment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "class subject not found", "failed to load class subject")
	}
	if req.ClassID != nil {
		assignment.ClassID = *req.ClassID
	}
	if req.SubjectID != nil {
		assignment.SubjectID = *req.SubjectID
	}
	if req.TeacherID != nil {
		assignment.TeacherID = *req.TeacherID
	}
	if req.Schedule != nil {
		assignment.Schedule = req.Schedule
	}
	if err := s.validate(ctx, req, assignment); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, assignment); err != nil {
		return nil, mapRepoError(err, "class subject not found", "failed to update class subject")
	}
	s.hooks.written(ctx, actor, models.AuditActionUpdate, models.AuditResourceClassSubject, id, assignment)
	return assignment, nil
}

// Delete removes an assignment without grade items or periods.
func (s *ClassSubjectService) Delete(ctx context.Context, actor models.Actor, id int64) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		s.hooks.deleteFailed(ctx, models.AuditResourceClassSubject, err)
		return mapRepoError(err, "class subject not found", "failed to delete class subject")
	}
	s.hooks.written(ctx, actor, models.AuditActionDelete, models.AuditResourceClassSubject, id, nil)
	return nil
}

// validate checks the merged assignment: referenced rows exist and the
// (class, subject) pair is free.
func (s *ClassSubjectService) validate(ctx context.Context, req models.ClassSubjectRequest, assignment *models.ClassSubject) error {
	if err := s.validator.Struct(req); err != nil {
		return err
	}
	checks := []struct {
		field string
		id    int64
		fn    func(context.Context, int64) (bool, error)
	}{
		{"class_id", assignment.ClassID, s.checker.ClassExists},
		{"subject_id", assignment.SubjectID, s.checker.SubjectExists},
		{"teacher_id", assignment.TeacherID, s.checker.TeacherExists},
	}
	for _, check := range checks {
		ok, err := check.fn(ctx, check.id)
		if err != nil {
			return appErrors.Internal(err, "failed to check "+check.field)
		}
		if !ok {
			return appErrors.Clone(appErrors.ErrValidation, check.field+" references an unknown record")
		}
	}
	taken, err := s.repo.ExistsPair(ctx, assignment.ClassID, assignment.SubjectID, assignment.ID)
	if err != nil {
		return appErrors.Internal(err, "failed to check class subject")
	}
	if taken {
		return appErrors.Clone(appErrors.ErrUniqueness, "subject is already assigned to this class")
	}
	return nil
}
