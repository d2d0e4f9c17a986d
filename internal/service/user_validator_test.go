package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-admin-core/internal/models"
	appErrors "github.com/noah-isme/sma-admin-core/pkg/errors"
)

var defaultPolicy = PasswordPolicy{MinLength: 8, RequireLetterDigit: true}

func studentPayload() models.UserPayload {
	return models.UserPayload{
		Username:  strPtr("ana_p"),
		Password:  strPtr("secret123"),
		Role:      rolePtr(models.RoleStudent),
		FirstName: strPtr("Ana"),
		LastName:  strPtr("Putri"),
		DOB:       strPtr("2008-04-01"),
		ClassCode: strPtr("10A"),
	}
}

func TestUserValidatorCreate(t *testing.T) {
	checker := newFakeChecker()
	checker.usernames["taken"] = 9
	v := NewUserValidator(checker, NewValidator(), defaultPolicy)

	cases := []struct {
		name   string
		mutate func(p *models.UserPayload)
		code   string
	}{
		{"valid student", func(p *models.UserPayload) {}, ""},
		{"missing username", func(p *models.UserPayload) { p.Username = nil }, appErrors.ErrRequiredField.Code},
		{"missing role", func(p *models.UserPayload) { p.Role = nil }, appErrors.ErrRequiredField.Code},
		{"missing password", func(p *models.UserPayload) { p.Password = strPtr("") }, appErrors.ErrRequiredField.Code},
		{"required before format", func(p *models.UserPayload) { p.Username = strPtr("a b"); p.Password = nil }, appErrors.ErrRequiredField.Code},
		{"username too short", func(p *models.UserPayload) { p.Username = strPtr("ab") }, appErrors.ErrFormat.Code},
		{"username with symbols", func(p *models.UserPayload) { p.Username = strPtr("ana.p") }, appErrors.ErrFormat.Code},
		{"unknown role", func(p *models.UserPayload) { p.Role = rolePtr("JANITOR") }, appErrors.ErrFormat.Code},
		{"bad dob", func(p *models.UserPayload) { p.DOB = strPtr("01/04/2008") }, appErrors.ErrFormat.Code},
		{"format before uniqueness", func(p *models.UserPayload) { p.Username = strPtr("taken!") }, appErrors.ErrFormat.Code},
		{"duplicate username", func(p *models.UserPayload) { p.Username = strPtr("taken") }, appErrors.ErrUniqueness.Code},
		{"uniqueness before policy", func(p *models.UserPayload) { p.Username = strPtr("taken"); p.Password = strPtr("x") }, appErrors.ErrUniqueness.Code},
		{"short password", func(p *models.UserPayload) { p.Password = strPtr("abc1") }, appErrors.ErrPasswordPolicy.Code},
		{"password without digit", func(p *models.UserPayload) { p.Password = strPtr("abcdefghij") }, appErrors.ErrPasswordPolicy.Code},
		{"student without class code", func(p *models.UserPayload) { p.ClassCode = nil }, appErrors.ErrRequiredField.Code},
		{"student without dob", func(p *models.UserPayload) { p.DOB = nil }, appErrors.ErrRequiredField.Code},
		{"unknown class code", func(p *models.UserPayload) { p.ClassCode = strPtr("12Z") }, appErrors.ErrValidation.Code},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			payload := studentPayload()
			tc.mutate(&payload)
			err := v.Validate(context.Background(), payload, false)
			if tc.code == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tc.code, appErrors.FromError(err).Code)
		})
	}
}

func TestUserValidatorRoleLinks(t *testing.T) {
	v := NewUserValidator(newFakeChecker(), nil, defaultPolicy)

	teacher := models.UserPayload{Username: strPtr("budi"), Password: strPtr("secret123"), Role: rolePtr(models.RoleTeacher), SubjectIDs: []int64{1, 3}}
	err := v.Validate(context.Background(), teacher, false)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	teacher.SubjectIDs = []int64{1, 2}
	assert.NoError(t, v.Validate(context.Background(), teacher, false))

	parent := models.UserPayload{Username: strPtr("ibu_ana"), Password: strPtr("secret123"), Role: rolePtr(models.RoleParent), StudentIDs: []int64{404}}
	err = v.Validate(context.Background(), parent, false)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	parent.StudentIDs = []int64{}
	assert.NoError(t, v.Validate(context.Background(), parent, false))
}

func TestUserValidatorUpdateExcludesSelf(t *testing.T) {
	checker := newFakeChecker()
	checker.usernames["ana_p"] = 5
	v := NewUserValidator(checker, nil, defaultPolicy)

	payload := models.UserPayload{UserID: 5, Username: strPtr("ana_p"), Role: rolePtr(models.RoleStudent)}
	assert.NoError(t, v.Validate(context.Background(), payload, true))

	payload.UserID = 6
	err := v.Validate(context.Background(), payload, true)
	assert.Equal(t, appErrors.ErrUniqueness.Code, appErrors.FromError(err).Code)
}

func TestUserValidatorUpdateRejectsBlankStudentFields(t *testing.T) {
	checker := newFakeChecker()
	checker.usernames["ana_p"] = 5
	v := NewUserValidator(checker, nil, defaultPolicy)

	cases := []struct {
		name    string
		mutate  func(p *models.UserPayload)
		message string
	}{
		{"blank first name", func(p *models.UserPayload) { p.FirstName = strPtr("   ") }, "first_name is required"},
		{"empty last name", func(p *models.UserPayload) { p.LastName = strPtr("") }, "last_name is required"},
		{"empty dob", func(p *models.UserPayload) { p.DOB = strPtr("") }, "dob is required"},
		{"empty class code", func(p *models.UserPayload) { p.ClassCode = strPtr("") }, "class_code is required"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			payload := models.UserPayload{UserID: 5, Username: strPtr("ana_p"), Role: rolePtr(models.RoleStudent)}
			tc.mutate(&payload)
			err := v.Validate(context.Background(), payload, true)
			require.Error(t, err)
			appErr := appErrors.FromError(err)
			assert.Equal(t, appErrors.ErrRequiredField.Code, appErr.Code)
			assert.Equal(t, tc.message, appErr.Message)
		})
	}

	payload := models.UserPayload{UserID: 5, Username: strPtr("ana_p"), Role: rolePtr(models.RoleStudent), LastName: strPtr("Putri")}
	assert.NoError(t, v.Validate(context.Background(), payload, true))
}

func TestUserValidatorLookupFailureIsInternal(t *testing.T) {
	checker := newFakeChecker()
	checker.err = errors.New("connection reset")
	v := NewUserValidator(checker, nil, defaultPolicy)

	err := v.Validate(context.Background(), studentPayload(), false)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}

func TestValidatorMessagesUseJSONNames(t *testing.T) {
	err := NewValidator().Struct(models.UserPayload{Username: strPtr("no")})
	require.Error(t, err)
	assert.Equal(t, "username must be 3 to 50 letters, digits or underscores", appErrors.FromError(err).Message)
}

func TestPasswordPolicyWithoutComplexity(t *testing.T) {
	policy := PasswordPolicy{MinLength: 4}
	assert.NoError(t, policy.Check("abcd"))
	assert.Error(t, policy.Check("abc"))
}
