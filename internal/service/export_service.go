package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/noah-isme/sma-admin-core/internal/models"
	appErrors "github.com/noah-isme/sma-admin-core/pkg/errors"
	"github.com/noah-isme/sma-admin-core/pkg/export"
)

const exportPageSize = 100

type exportUserSource interface {
	List(ctx context.Context, actor models.Actor, filter models.UserFilter) ([]models.UserListItem, *models.Pagination, error)
}

type exportAssignmentSource interface {
	List(ctx context.Context, actor models.Actor, filter models.ClassSubjectFilter) ([]models.ClassSubjectListItem, error)
}

// ExportFile is a rendered download.
type ExportFile struct {
	Filename    string
	ContentType string
	Content     []byte
}

// ExportService renders listings as CSV or PDF downloads.
type ExportService struct {
	users       exportUserSource
	assignments exportAssignmentSource
	now         func() time.Time
}

// NewExportService constructs an ExportService over the listing services,
// which also enforce the actor check.
func NewExportService(users exportUserSource, assignments exportAssignmentSource) *ExportService {
	return &ExportService{users: users, assignments: assignments, now: time.Now}
}

// Users exports every user matching filter, across all pages.
func (s *ExportService) Users(ctx context.Context, actor models.Actor, filter models.UserFilter, format string) (*ExportFile, error) {
	renderer, err := export.ForFormat(format)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}

	table := export.Table{Title: "Users", Columns: []string{"ID", "Username", "Role", "Student name", "Created at"}}
	filter.PageSize = exportPageSize
	for page := 1; ; page++ {
		filter.Page = page
		users, pagination, err := s.users.List(ctx, actor, filter)
		if err != nil {
			return nil, err
		}
		for _, u := range users {
			name := ""
			if u.StudentName != nil {
				name = *u.StudentName
			}
			table.Rows = append(table.Rows, []string{
				strconv.FormatInt(u.ID, 10), u.Username, string(u.Role), name, u.CreatedAt.UTC().Format(time.RFC3339),
			})
		}
		if len(users) == 0 || page*pagination.PageSize >= pagination.TotalCount {
			break
		}
	}
	return s.render(renderer, "users", table)
}

// Assignments exports class subject assignments matching filter.
func (s *ExportService) Assignments(ctx context.Context, actor models.Actor, filter models.ClassSubjectFilter, format string) (*ExportFile, error) {
	renderer, err := export.ForFormat(format)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	items, err := s.assignments.List(ctx, actor, filter)
	if err != nil {
		return nil, err
	}

	table := export.Table{
		Title:   "Class subject assignments",
		Columns: []string{"ID", "Class code", "Class", "Subject", "Teacher", "Schedule"},
		Rows:    make([][]string, 0, len(items)),
	}
	for _, item := range items {
		schedule := ""
		if item.Schedule != nil {
			schedule = *item.Schedule
		}
		table.Rows = append(table.Rows, []string{
			strconv.FormatInt(item.ID, 10), item.ClassCode, item.ClassTitle, item.SubjectName, item.TeacherName, schedule,
		})
	}
	return s.render(renderer, "class-subjects", table)
}

func (s *ExportService) render(renderer export.Renderer, name string, table export.Table) (*ExportFile, error) {
	content, err := renderer.Render(table)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to render export")
	}
	return &ExportFile{
		Filename:    fmt.Sprintf("%s-%s.%s", name, s.now().UTC().Format("20060102-150405"), renderer.Extension()),
		ContentType: renderer.ContentType(),
		Content:     content,
	}, nil
}
