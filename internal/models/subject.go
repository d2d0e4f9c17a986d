package models

import "github.com/lib/pq"

// Subject represents a taught subject.
type Subject struct {
	ID   int64  `db:"subject_id" json:"id"`
	Name string `db:"name" json:"name"`
}

// SubjectListItem is a subject with the titles of the classes it is taught in.
type SubjectListItem struct {
	Subject
	ClassTitles pq.StringArray `db:"class_titles" json:"class_titles"`
}

// SubjectRequest is the create and update payload for subjects.
type SubjectRequest struct {
	Name *string `json:"name" validate:"omitempty,min=1,max=100"`
}
