package users

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository はユーザーをメモリ上に保持する Repository 実装です。
// DATABASE_URL が未設定のローカル開発とテストで使用します。
type MemoryRepository struct {
	mu         sync.RWMutex
	byID       map[string]*User
	byEmail    map[string]string // email -> id
	byUsername map[string]string // username -> id
}

// NewMemoryRepository は空の MemoryRepository を作成します。
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:       make(map[string]*User),
		byEmail:    make(map[string]string),
		byUsername: make(map[string]string),
	}
}

// Create はユーザーを保存します。IDはUUIDで採番します。
func (r *MemoryRepository) Create(ctx context.Context, user *User) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byEmail[user.Email]; ok {
		return nil, ErrDuplicateEmail
	}
	if _, ok := r.byUsername[user.Username]; ok {
		return nil, ErrDuplicateUsername
	}

	stored := *user
	stored.ID = uuid.NewString()
	stored.CreatedAt = time.Now().UTC()

	r.byID[stored.ID] = &stored
	r.byEmail[stored.Email] = stored.ID
	r.byUsername[stored.Username] = stored.ID

	result := stored
	return &result, nil
}

// FindByID はIDでユーザーを検索します。
func (r *MemoryRepository) FindByID(ctx context.Context, id string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	result := *user
	return &result, nil
}

// FindByEmail は正規化済みメールアドレスでユーザーを検索します。
func (r *MemoryRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return nil, ErrNotFound
	}
	result := *r.byID[id]
	return &result, nil
}

// FindByUsername はユーザー名でユーザーを検索します。
func (r *MemoryRepository) FindByUsername(ctx context.Context, username string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byUsername[username]
	if !ok {
		return nil, ErrNotFound
	}
	result := *r.byID[id]
	return &result, nil
}
