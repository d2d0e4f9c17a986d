package models

// Class represents a homeroom class.
type Class struct {
	ID                int64  `db:"class_id" json:"id"`
	ClassCode         string `db:"class_code" json:"class_code"`
	Title             string `db:"title" json:"title"`
	HomeroomTeacherID *int64 `db:"homeroom_teacher_id" json:"homeroom_teacher_id,omitempty"`
}

// ClassListItem extends a class with its homeroom teacher and counts.
type ClassListItem struct {
	Class
	HomeroomTeacherName *string `db:"homeroom_teacher_name" json:"homeroom_teacher_name,omitempty"`
	SubjectCount        int     `db:"subject_count" json:"subject_count"`
	StudentCount        int     `db:"student_count" json:"student_count"`
}

// ClassRequest is the create and update payload for classes. ClearHomeroom
// removes the homeroom teacher on update.
type ClassRequest struct {
	ClassCode         *string `json:"class_code" validate:"omitempty,min=1,max=50"`
	Title             *string `json:"title" validate:"omitempty,min=1,max=100"`
	HomeroomTeacherID *int64  `json:"homeroom_teacher_id" validate:"omitempty,gt=0"`
	ClearHomeroom     bool    `json:"clear_homeroom"`
}

// ClassSubject binds a class, a subject and the teacher teaching it.
type ClassSubject struct {
	ID        int64   `db:"class_subject_id" json:"id"`
	ClassID   int64   `db:"class_id" json:"class_id"`
	SubjectID int64   `db:"subject_id" json:"subject_id"`
	TeacherID int64   `db:"teacher_id" json:"teacher_id"`
	Schedule  *string `db:"schedule" json:"schedule,omitempty"`
}

// ClassSubjectListItem is an assignment with the display names of its parts.
type ClassSubjectListItem struct {
	ClassSubject
	ClassCode   string `db:"class_code" json:"class_code"`
	ClassTitle  string `db:"class_title" json:"class_title"`
	SubjectName string `db:"subject_name" json:"subject_name"`
	TeacherName string `db:"teacher_name" json:"teacher_name"`
}

// ClassSubjectFilter narrows assignment listings.
type ClassSubjectFilter struct {
	ClassID   *int64
	SubjectID *int64
	TeacherID *int64
}

// ClassSubjectRequest is the create and update payload for assignments.
type ClassSubjectRequest struct {
	ClassID   *int64  `json:"class_id" validate:"omitempty,gt=0"`
	SubjectID *int64  `json:"subject_id" validate:"omitempty,gt=0"`
	TeacherID *int64  `json:"teacher_id" validate:"omitempty,gt=0"`
	Schedule  *string `json:"schedule" validate:"omitempty,max=255"`
}
