// Package inmem provides in-memory implementations of the store
// repositories. It backs the "memory" store driver used by tests and
// demo deployments without Postgres. Selection is explicit via
// configuration; it is never a fallback on connection errors.
package inmem

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/samvaad/apiserver/internal/store"
	"github.com/samvaad/apiserver/types"
)

// Store holds all records behind one mutex. The per-repository views
// returned by the accessor methods share it, so cross-entity rules
// (mobile uniqueness, session cascade) behave like the SQL schema.
type Store struct {
	mu sync.Mutex

	accounts map[int]types.Account
	requests map[int]types.Request
	students map[int]types.Student
	sessions map[int]types.Session

	nextAccountID int
	nextRequestID int
	nextStudentID int
	nextSessionID int
}

func NewStore() *Store {
	return &Store{
		accounts:      make(map[int]types.Account),
		requests:      make(map[int]types.Request),
		students:      make(map[int]types.Student),
		sessions:      make(map[int]types.Session),
		nextAccountID: 1,
		nextRequestID: 1,
		nextStudentID: 1,
		nextSessionID: 1,
	}
}

// Accounts returns the account repository view.
func (s *Store) Accounts() *AccountRepository { return &AccountRepository{store: s} }

// Requests returns the request repository view.
func (s *Store) Requests() *RequestRepository { return &RequestRepository{store: s} }

// Students returns the student repository view.
func (s *Store) Students() *StudentRepository { return &StudentRepository{store: s} }

// Sessions returns the session repository view.
func (s *Store) Sessions() *SessionRepository { return &SessionRepository{store: s} }

// AccountRepository is the in-memory counterpart of store.AccountRepository.
type AccountRepository struct {
	store *Store
}

func (r *AccountRepository) GetByID(ctx context.Context, id int) (types.Account, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	account, ok := r.store.accounts[id]
	if !ok {
		return types.Account{}, store.ErrNotFound
	}
	return account, nil
}

func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (types.Account, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	account, ok := r.store.findByEmail(email)
	if !ok {
		return types.Account{}, store.ErrNotFound
	}
	return account, nil
}

func (r *AccountRepository) Create(ctx context.Context, account types.Account) (types.Account, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	account.Email = strings.ToLower(strings.TrimSpace(account.Email))
	if _, exists := r.store.findByEmail(account.Email); exists {
		return types.Account{}, store.ErrDuplicate
	}

	now := time.Now()
	account.ID = r.store.nextAccountID
	account.CreatedAt = now
	account.UpdatedAt = now
	r.store.nextAccountID++
	r.store.accounts[account.ID] = account
	return account, nil
}

func (r *AccountRepository) UpdateStatus(ctx context.Context, id int, status types.AccountStatus) (types.Account, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	account, ok := r.store.accounts[id]
	if !ok {
		return types.Account{}, store.ErrNotFound
	}
	account.Status = status
	account.UpdatedAt = time.Now()
	r.store.accounts[id] = account
	return account, nil
}

func (r *AccountRepository) ListByRole(ctx context.Context, role types.Role) ([]types.Account, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	accounts := make([]types.Account, 0)
	for _, account := range r.store.accounts {
		if account.Role == role {
			accounts = append(accounts, account)
		}
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].ID > accounts[j].ID })
	return accounts, nil
}

func (s *Store) findByEmail(email string) (types.Account, bool) {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, account := range s.accounts {
		if account.Email == email {
			return account, true
		}
	}
	return types.Account{}, false
}

// RequestRepository is the in-memory counterpart of store.RequestRepository.
type RequestRepository struct {
	store *Store
}

func (r *RequestRepository) GetByID(ctx context.Context, id int) (types.Request, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	request, ok := r.store.requests[id]
	if !ok {
		return types.Request{}, store.ErrNotFound
	}
	return request, nil
}

func (r *RequestRepository) Create(ctx context.Context, request types.Request) (types.Request, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	request.ID = r.store.nextRequestID
	request.CreatedAt = time.Now()
	if request.Status == "" {
		request.Status = types.RequestNew
	}
	r.store.nextRequestID++
	r.store.requests[request.ID] = request
	return request, nil
}

func (r *RequestRepository) UpdateStatus(ctx context.Context, id int, status types.RequestStatus) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	request, ok := r.store.requests[id]
	if !ok {
		return store.ErrNotFound
	}
	request.Status = status
	r.store.requests[id] = request
	return nil
}

func (r *RequestRepository) LinkStudent(ctx context.Context, id, studentID int) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	request, ok := r.store.requests[id]
	if !ok {
		return store.ErrNotFound
	}
	request.StudentID = &studentID
	r.store.requests[id] = request
	return nil
}

func (r *RequestRepository) List(ctx context.Context) ([]types.Request, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	requests := make([]types.Request, 0, len(r.store.requests))
	for _, request := range r.store.requests {
		requests = append(requests, request)
	}
	sort.Slice(requests, func(i, j int) bool { return requests[i].ID > requests[j].ID })
	return requests, nil
}

// StudentRepository is the in-memory counterpart of store.StudentRepository.
type StudentRepository struct {
	store *Store
}

func (r *StudentRepository) GetByID(ctx context.Context, id int) (types.Student, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	student, ok := r.store.students[id]
	if !ok {
		return types.Student{}, store.ErrNotFound
	}
	return student, nil
}

func (r *StudentRepository) GetByMobile(ctx context.Context, mobile string) (types.Student, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, student := range r.store.students {
		if student.Mobile == mobile {
			return student, nil
		}
	}
	return types.Student{}, store.ErrNotFound
}

func (r *StudentRepository) Create(ctx context.Context, student types.Student) (types.Student, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, existing := range r.store.students {
		if existing.Mobile == student.Mobile {
			return types.Student{}, store.ErrDuplicate
		}
	}

	student.ID = r.store.nextStudentID
	student.JoinedAt = time.Now()
	r.store.nextStudentID++
	r.store.students[student.ID] = student
	return student, nil
}

func (r *StudentRepository) Delete(ctx context.Context, id int) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.students[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.store.students, id)

	// Cascade, mirroring the ON DELETE CASCADE in the SQL schema.
	for sessionID, session := range r.store.sessions {
		if session.StudentID == id {
			delete(r.store.sessions, sessionID)
		}
	}
	return nil
}

func (r *StudentRepository) List(ctx context.Context) ([]types.Student, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	students := make([]types.Student, 0, len(r.store.students))
	for _, student := range r.store.students {
		students = append(students, student)
	}
	sort.Slice(students, func(i, j int) bool { return students[i].ID > students[j].ID })
	return students, nil
}

// SessionRepository is the in-memory counterpart of store.SessionRepository.
type SessionRepository struct {
	store *Store
}

func (r *SessionRepository) Create(ctx context.Context, session types.Session) (types.Session, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	session.ID = r.store.nextSessionID
	session.OccurredAt = time.Now()
	r.store.nextSessionID++
	r.store.sessions[session.ID] = session
	return session, nil
}

func (r *SessionRepository) List(ctx context.Context, studentID int) ([]types.Session, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	sessions := make([]types.Session, 0)
	for _, session := range r.store.sessions {
		if studentID == 0 || session.StudentID == studentID {
			sessions = append(sessions, session)
		}
	}
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].ID > sessions[j].ID })
	return sessions, nil
}

func (r *SessionRepository) CountByStudent(ctx context.Context, studentID int) (int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	count := 0
	for _, session := range r.store.sessions {
		if session.StudentID == studentID {
			count++
		}
	}
	return count, nil
}
