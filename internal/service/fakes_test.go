package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/noah-isme/sma-admin-core/internal/models"
	appErrors "github.com/noah-isme/sma-admin-core/pkg/errors"
)

var (
	adminActor   = models.Actor{UserID: 1, Role: models.RoleAdmin}
	teacherActor = models.Actor{UserID: 7, Role: models.RoleTeacher}
)

func strPtr(s string) *string { return &s }

func rolePtr(r models.Role) *models.Role { return &r }

func int64Ptr(v int64) *int64 { return &v }

type fakeChecker struct {
	usernames  map[string]int64
	classCodes map[string]bool
	subjects   map[int64]bool
	students   map[int64]bool
	teachers   map[int64]bool
	classes    map[int64]bool
	err        error
}

func newFakeChecker() *fakeChecker {
	return &fakeChecker{
		usernames:  map[string]int64{},
		classCodes: map[string]bool{"10A": true},
		subjects:   map[int64]bool{1: true, 2: true},
		students:   map[int64]bool{100: true},
		teachers:   map[int64]bool{50: true},
		classes:    map[int64]bool{10: true},
	}
}

func (f *fakeChecker) UsernameExists(ctx context.Context, username string, excludeUserID int64) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	id, ok := f.usernames[username]
	return ok && id != excludeUserID, nil
}

func (f *fakeChecker) ClassCodeExists(ctx context.Context, classCode string) (bool, error) {
	return f.classCodes[classCode], f.err
}

func (f *fakeChecker) SubjectsExist(ctx context.Context, ids []int64) (bool, error) {
	return allIn(f.subjects, ids), f.err
}

func (f *fakeChecker) StudentsExist(ctx context.Context, ids []int64) (bool, error) {
	return allIn(f.students, ids), f.err
}

func (f *fakeChecker) TeacherExists(ctx context.Context, teacherID int64) (bool, error) {
	return f.teachers[teacherID], f.err
}

func (f *fakeChecker) ClassExists(ctx context.Context, classID int64) (bool, error) {
	return f.classes[classID], f.err
}

func (f *fakeChecker) SubjectExists(ctx context.Context, subjectID int64) (bool, error) {
	return f.subjects[subjectID], f.err
}

func allIn(set map[int64]bool, ids []int64) bool {
	for _, id := range ids {
		if !set[id] {
			return false
		}
	}
	return true
}

type fakeAudit struct {
	mu   sync.Mutex
	logs []*models.AuditLog
	err  error
}

func (f *fakeAudit) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.logs = append(f.logs, log)
	return nil
}

func (f *fakeAudit) actions() []string {
	out := make([]string, 0, len(f.logs))
	for _, l := range f.logs {
		out = append(out, l.Action)
	}
	return out
}

type memoryCacheStore struct {
	items   map[string][]byte
	deleted []string
}

func newMemoryCacheStore() *memoryCacheStore {
	return &memoryCacheStore{items: map[string][]byte{}}
}

func (m *memoryCacheStore) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := m.items[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCacheStore) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.items[key] = raw
	return nil
}

func (m *memoryCacheStore) DeleteByPattern(ctx context.Context, pattern string) error {
	m.deleted = append(m.deleted, pattern)
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range m.items {
		if strings.HasPrefix(key, prefix) {
			delete(m.items, key)
		}
	}
	return nil
}

// memoryUserRepo mimics the users table, including its unique username index.
type memoryUserRepo struct {
	nextID    int64
	users     map[int64]*models.UserDetail
	blocked   map[int64]string
	createErr error
	changes   []models.UserChanges
}

func newMemoryUserRepo() *memoryUserRepo {
	return &memoryUserRepo{nextID: 1, users: map[int64]*models.UserDetail{}, blocked: map[int64]string{}}
}

func (m *memoryUserRepo) add(username string, role models.Role, hash string) *models.UserDetail {
	m.nextID++
	detail := &models.UserDetail{User: models.User{ID: m.nextID, Username: username, Role: role, RoleID: role.ID(), PasswordHash: hash}}
	m.users[detail.ID] = detail
	return detail
}

func (m *memoryUserRepo) List(ctx context.Context, filter models.UserFilter) ([]models.UserListItem, int, error) {
	items := []models.UserListItem{}
	for id := int64(0); id <= m.nextID; id++ {
		u, ok := m.users[id]
		if !ok || (filter.Role != nil && u.Role != *filter.Role) {
			continue
		}
		items = append(items, models.UserListItem{ID: u.ID, Username: u.Username, Role: u.Role})
	}
	total := len(items)
	start := (filter.Page - 1) * filter.PageSize
	if start > total {
		start = total
	}
	end := start + filter.PageSize
	if end > total {
		end = total
	}
	return items[start:end], total, nil
}

func (m *memoryUserRepo) FindByID(ctx context.Context, id int64) (*models.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := u.User
	return &copied, nil
}

func (m *memoryUserRepo) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	for _, u := range m.users {
		if u.Username == username {
			copied := u.User
			return &copied, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memoryUserRepo) FindDetail(ctx context.Context, id int64) (*models.UserDetail, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *u
	return &copied, nil
}

func (m *memoryUserRepo) Create(ctx context.Context, input models.NewUser) (*models.User, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	for _, u := range m.users {
		if u.Username == input.Username {
			return nil, appErrors.Clone(appErrors.ErrUniqueness, "username already exists")
		}
	}
	detail := m.add(input.Username, input.Role, input.PasswordHash)
	detail.Student = input.Student
	detail.SubjectIDs = input.SubjectIDs
	detail.StudentIDs = input.StudentIDs
	copied := detail.User
	return &copied, nil
}

func (m *memoryUserRepo) Update(ctx context.Context, id int64, changes models.UserChanges) error {
	u, ok := m.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	m.changes = append(m.changes, changes)
	if changes.Username != nil {
		u.Username = *changes.Username
	}
	if changes.StudentIDs != nil {
		u.StudentIDs = changes.StudentIDs
	}
	if changes.SubjectIDs != nil {
		u.SubjectIDs = changes.SubjectIDs
	}
	return nil
}

func (m *memoryUserRepo) ResetPassword(ctx context.Context, id int64, passwordHash string) (bool, error) {
	u, ok := m.users[id]
	if !ok {
		return false, nil
	}
	u.PasswordHash = passwordHash
	return true, nil
}

func (m *memoryUserRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := m.users[id]; !ok {
		return sql.ErrNoRows
	}
	if msg, ok := m.blocked[id]; ok {
		return appErrors.Clone(appErrors.ErrDependency, msg)
	}
	delete(m.users, id)
	return nil
}
