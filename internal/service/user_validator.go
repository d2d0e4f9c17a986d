package service

import (
	"context"
	"strings"
	"unicode"

	"github.com/noah-isme/sma-admin-core/internal/models"
	appErrors "github.com/noah-isme/sma-admin-core/pkg/errors"
)

// ExistenceChecker answers the read-only lookups validation depends on.
type ExistenceChecker interface {
	UsernameExists(ctx context.Context, username string, excludeUserID int64) (bool, error)
	ClassCodeExists(ctx context.Context, classCode string) (bool, error)
	SubjectsExist(ctx context.Context, ids []int64) (bool, error)
	StudentsExist(ctx context.Context, ids []int64) (bool, error)
	TeacherExists(ctx context.Context, teacherID int64) (bool, error)
	ClassExists(ctx context.Context, classID int64) (bool, error)
	SubjectExists(ctx context.Context, subjectID int64) (bool, error)
}

// PasswordPolicy describes what a new password must satisfy.
type PasswordPolicy struct {
	MinLength          int
	RequireLetterDigit bool
}

// Check returns a PASSWORD_POLICY error when password violates the policy.
func (p PasswordPolicy) Check(password string) error {
	if len([]rune(password)) < p.MinLength {
		return appErrors.Clone(appErrors.ErrPasswordPolicy, "password is too short")
	}
	if !p.RequireLetterDigit {
		return nil
	}
	var letter, digit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			letter = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !letter || !digit {
		return appErrors.Clone(appErrors.ErrPasswordPolicy, "password must contain a letter and a digit")
	}
	return nil
}

// UserValidator checks user create and update payloads.
type UserValidator struct {
	checker   ExistenceChecker
	validator *Validator
	policy    PasswordPolicy
}

// NewUserValidator constructs a UserValidator.
func NewUserValidator(checker ExistenceChecker, validate *Validator, policy PasswordPolicy) *UserValidator {
	if validate == nil {
		validate = NewValidator()
	}
	return &UserValidator{checker: checker, validator: validate, policy: policy}
}

// Policy returns the password policy in force.
func (v *UserValidator) Policy() PasswordPolicy {
	return v.policy
}

// Validate runs the required, format, uniqueness, password and role checks
// in that order and returns the first failure. Student fields are required
// on create only; updates leave absent fields untouched.
func (v *UserValidator) Validate(ctx context.Context, payload models.UserPayload, isUpdate bool) error {
	if blank(payload.Username) {
		return appErrors.Clone(appErrors.ErrRequiredField, "username is required")
	}
	if payload.Role == nil || *payload.Role == "" {
		return appErrors.Clone(appErrors.ErrRequiredField, "role is required")
	}
	if !isUpdate && (payload.Password == nil || *payload.Password == "") {
		return appErrors.Clone(appErrors.ErrRequiredField, "password is required")
	}

	if err := v.validator.Struct(payload); err != nil {
		return err
	}

	exists, err := v.checker.UsernameExists(ctx, *payload.Username, payload.UserID)
	if err != nil {
		return appErrors.Internal(err, "failed to check username")
	}
	if exists {
		return appErrors.Clone(appErrors.ErrUniqueness, "username already exists")
	}

	if !isUpdate {
		if err := v.policy.Check(*payload.Password); err != nil {
			return err
		}
	}

	switch *payload.Role {
	case models.RoleStudent:
		return v.validateStudent(ctx, payload, isUpdate)
	case models.RoleTeacher:
		if len(payload.SubjectIDs) == 0 {
			return nil
		}
		ok, err := v.checker.SubjectsExist(ctx, payload.SubjectIDs)
		if err != nil {
			return appErrors.Internal(err, "failed to check subjects")
		}
		if !ok {
			return appErrors.Clone(appErrors.ErrValidation, "subject_ids reference unknown subjects")
		}
	case models.RoleParent:
		if len(payload.StudentIDs) == 0 {
			return nil
		}
		ok, err := v.checker.StudentsExist(ctx, payload.StudentIDs)
		if err != nil {
			return appErrors.Internal(err, "failed to check students")
		}
		if !ok {
			return appErrors.Clone(appErrors.ErrValidation, "student_ids reference unknown students")
		}
	}
	return nil
}

func (v *UserValidator) validateStudent(ctx context.Context, payload models.UserPayload, isUpdate bool) error {
	required := []struct {
		name  string
		value *string
	}{
		{"first_name", payload.FirstName},
		{"last_name", payload.LastName},
		{"dob", payload.DOB},
		{"class_code", payload.ClassCode},
	}
	// On update an absent field keeps its stored value, a supplied one must not be blank.
	for _, field := range required {
		if isUpdate && field.value == nil {
			continue
		}
		if blank(field.value) {
			return appErrors.Clone(appErrors.ErrRequiredField, field.name+" is required")
		}
	}
	if payload.ClassCode == nil {
		return nil
	}
	ok, err := v.checker.ClassCodeExists(ctx, *payload.ClassCode)
	if err != nil {
		return appErrors.Internal(err, "failed to check class code")
	}
	if !ok {
		return appErrors.Clone(appErrors.ErrValidation, "class_code does not match an existing class")
	}
	return nil
}

func blank(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}
