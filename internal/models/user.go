package models

import "time"

// Role names a user's role. Each role except ADMIN owns one sub-record table.
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleTeacher Role = "TEACHER"
	RoleStudent Role = "STUDENT"
	RoleParent  Role = "PARENT"
)

var roleIDs = map[Role]int16{
	RoleAdmin:   1,
	RoleTeacher: 2,
	RoleStudent: 3,
	RoleParent:  4,
}

// ID returns the seeded roles.role_id for r, or 0 when r is unknown.
func (r Role) ID() int16 {
	return roleIDs[r]
}

// Valid reports whether r is one of the seeded roles.
func (r Role) Valid() bool {
	_, ok := roleIDs[r]
	return ok
}

// RoleFromID maps a roles.role_id back to its name.
func RoleFromID(id int16) (Role, bool) {
	for role, roleID := range roleIDs {
		if roleID == id {
			return role, true
		}
	}
	return "", false
}

// Roles lists every role in role_id order.
func Roles() []Role {
	return []Role{RoleAdmin, RoleTeacher, RoleStudent, RoleParent}
}

// User represents an application user stored in the users table.
type User struct {
	ID           int64     `db:"user_id" json:"id"`
	Username     string    `db:"username" json:"username"`
	PasswordHash string    `db:"password_hash" json:"-"`
	RoleID       int16     `db:"role_id" json:"-"`
	Role         Role      `db:"role" json:"role"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Student is the sub-record of a STUDENT user.
type Student struct {
	ID        int64     `db:"student_id" json:"id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	FirstName string    `db:"first_name" json:"first_name"`
	LastName  string    `db:"last_name" json:"last_name"`
	DOB       time.Time `db:"dob" json:"dob"`
	ClassCode string    `db:"class_code" json:"class_code"`
}

// Teacher is the sub-record of a TEACHER user.
type Teacher struct {
	ID     int64 `db:"teacher_id" json:"id"`
	UserID int64 `db:"user_id" json:"user_id"`
}

// Parent is the sub-record of a PARENT user.
type Parent struct {
	ID     int64 `db:"parent_id" json:"id"`
	UserID int64 `db:"user_id" json:"user_id"`
}

// UserDetail is a user with its role sub-record and links.
type UserDetail struct {
	User
	Student    *Student `json:"student,omitempty"`
	Teacher    *Teacher `json:"teacher,omitempty"`
	Parent     *Parent  `json:"parent,omitempty"`
	SubjectIDs []int64  `json:"subject_ids,omitempty"`
	StudentIDs []int64  `json:"student_ids,omitempty"`
}

// UserPayload carries user create and update input. Nil pointers are fields
// the caller did not supply; a nil slice leaves links untouched while an
// empty one clears them.
type UserPayload struct {
	UserID     int64   `json:"-"`
	Username   *string `json:"username" validate:"omitempty,username"`
	Password   *string `json:"password,omitempty"`
	Role       *Role   `json:"role" validate:"omitempty,oneof=ADMIN TEACHER STUDENT PARENT"`
	FirstName  *string `json:"first_name" validate:"omitempty,max=100"`
	LastName   *string `json:"last_name" validate:"omitempty,max=100"`
	DOB        *string `json:"dob" validate:"omitempty,datetime=2006-01-02"`
	ClassCode  *string `json:"class_code" validate:"omitempty,max=50"`
	SubjectIDs []int64 `json:"subject_ids" validate:"omitempty,dive,gt=0"`
	StudentIDs []int64 `json:"student_ids" validate:"omitempty,dive,gt=0"`
}

// NewUser is the validated input used by the repository to insert a user.
type NewUser struct {
	Username     string
	PasswordHash string
	Role         Role
	Student      *Student
	SubjectIDs   []int64
	StudentIDs   []int64
}

// UserChanges lists the fields an update touches; nil means unchanged.
type UserChanges struct {
	Username   *string
	FirstName  *string
	LastName   *string
	DOB        *time.Time
	ClassCode  *string
	SubjectIDs []int64
	StudentIDs []int64
}

// Empty reports whether no field is set.
func (c UserChanges) Empty() bool {
	return c.Username == nil && c.FirstName == nil && c.LastName == nil && c.DOB == nil &&
		c.ClassCode == nil && c.SubjectIDs == nil && c.StudentIDs == nil
}

// UserListItem is a user listing row with its role name and, for students, the full name.
type UserListItem struct {
	ID          int64     `db:"user_id" json:"id"`
	Username    string    `db:"username" json:"username"`
	Role        Role      `db:"role" json:"role"`
	StudentName *string   `db:"student_name" json:"student_name,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role     *Role
	Search   string
	Page     int
	PageSize int
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

// ResetPasswordRequest carries the new password for an admin reset.
type ResetPasswordRequest struct {
	Password string `json:"password"`
}
