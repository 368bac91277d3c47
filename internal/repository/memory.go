package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/auth-service/internal/domain"
)

// MemoryStore keeps users and tokens in process memory. It enforces the same
// uniqueness rules as the Postgres schema and serializes all access through one
// mutex. Used when no database is configured.
type MemoryStore struct {
	mu    sync.Mutex
	state *memState
	now   func() time.Time
}

type memState struct {
	users  map[string]domain.User
	emails map[string]string
	tokens map[string]domain.Token
	values map[string]string
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		state: &memState{
			users:  make(map[string]domain.User),
			emails: make(map[string]string),
			tokens: make(map[string]domain.Token),
			values: make(map[string]string),
		},
		now: time.Now,
	}
}

// Users returns the user repository view of the store.
func (s *MemoryStore) Users() UserRepository {
	return &memoryUsers{store: s}
}

// Tokens returns the token repository view of the store.
func (s *MemoryStore) Tokens() TokenRepository {
	return &memoryTokens{with: s.locked}
}

// WithinTx runs fn under the store lock, journaling every token write so a
// failed or panicking fn leaves the state as it found it.
func (s *MemoryStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tokens TokenRepository) error) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	undo := newMemJournal()
	defer func() {
		if p := recover(); p != nil {
			undo.rollback(s.state)
			panic(p)
		}
		if err != nil {
			undo.rollback(s.state)
		}
	}()

	tokens := &memoryTokens{
		with:    func(apply func(*memState) error) error { return apply(s.state) },
		journal: undo,
	}
	return fn(ctx, tokens)
}

func (s *MemoryStore) locked(apply func(*memState) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return apply(s.state)
}

// memJournal remembers the first prior version of every token row and value
// index entry a transaction touches. A nil entry means the key was absent.
type memJournal struct {
	tokens map[string]*domain.Token
	values map[string]*string
}

func newMemJournal() *memJournal {
	return &memJournal{
		tokens: make(map[string]*domain.Token),
		values: make(map[string]*string),
	}
}

func (j *memJournal) saveToken(st *memState, id string) {
	if j == nil {
		return
	}
	if _, seen := j.tokens[id]; seen {
		return
	}
	if t, ok := st.tokens[id]; ok {
		prev := copyToken(t)
		j.tokens[id] = &prev
		return
	}
	j.tokens[id] = nil
}

func (j *memJournal) saveValue(st *memState, value string) {
	if j == nil {
		return
	}
	if _, seen := j.values[value]; seen {
		return
	}
	if id, ok := st.values[value]; ok {
		j.values[value] = &id
		return
	}
	j.values[value] = nil
}

func (j *memJournal) rollback(st *memState) {
	for id, prev := range j.tokens {
		if prev == nil {
			delete(st.tokens, id)
		} else {
			st.tokens[id] = *prev
		}
	}
	for value, id := range j.values {
		if id == nil {
			delete(st.values, value)
		} else {
			st.values[value] = *id
		}
	}
}

type memoryUsers struct {
	store *MemoryStore
}

func (r *memoryUsers) Create(_ context.Context, user *domain.User) error {
	return r.store.locked(func(st *memState) error {
		if _, exists := st.emails[user.Email]; exists {
			return ErrEmailTaken
		}
		if user.ID == "" {
			user.ID = uuid.NewString()
		}
		user.CreatedAt = r.store.now()
		st.users[user.ID] = *user
		st.emails[user.Email] = user.ID
		return nil
	})
}

func (r *memoryUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	var out *domain.User
	err := r.store.locked(func(st *memState) error {
		user, ok := st.users[id]
		if !ok {
			return ErrNotFound
		}
		out = &user
		return nil
	})
	return out, err
}

func (r *memoryUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	var out *domain.User
	err := r.store.locked(func(st *memState) error {
		id, ok := st.emails[email]
		if !ok {
			return ErrNotFound
		}
		user := st.users[id]
		out = &user
		return nil
	})
	return out, err
}

type memoryTokens struct {
	with    func(apply func(*memState) error) error
	journal *memJournal
}

func (r *memoryTokens) Create(_ context.Context, token *domain.Token) error {
	return r.with(func(st *memState) error {
		if _, exists := st.values[token.Value]; exists {
			return ErrDuplicateToken
		}
		if token.ID == "" {
			token.ID = uuid.NewString()
		}
		r.journal.saveToken(st, token.ID)
		r.journal.saveValue(st, token.Value)
		st.tokens[token.ID] = copyToken(*token)
		st.values[token.Value] = token.ID
		return nil
	})
}

func (r *memoryTokens) GetByValue(_ context.Context, value string) (*domain.Token, error) {
	var out *domain.Token
	err := r.with(func(st *memState) error {
		id, ok := st.values[value]
		if !ok {
			return ErrNotFound
		}
		token := copyToken(st.tokens[id])
		out = &token
		return nil
	})
	return out, err
}

func (r *memoryTokens) Update(_ context.Context, token *domain.Token, previous string) error {
	return r.with(func(st *memState) error {
		current, ok := st.tokens[token.ID]
		if !ok || current.Value != previous {
			return ErrNotFound
		}
		if owner, exists := st.values[token.Value]; exists && owner != token.ID {
			return ErrDuplicateToken
		}
		r.journal.saveToken(st, token.ID)
		r.journal.saveValue(st, current.Value)
		r.journal.saveValue(st, token.Value)
		delete(st.values, current.Value)
		current.Value = token.Value
		current.ExpiresAt = token.ExpiresAt
		st.tokens[token.ID] = copyToken(current)
		st.values[token.Value] = token.ID
		return nil
	})
}

func (r *memoryTokens) Delete(_ context.Context, id string) error {
	return r.with(func(st *memState) error {
		if current, ok := st.tokens[id]; ok {
			r.journal.saveToken(st, id)
			r.journal.saveValue(st, current.Value)
			delete(st.values, current.Value)
			delete(st.tokens, id)
		}
		return nil
	})
}

func (r *memoryTokens) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	var removed int64
	err := r.with(func(st *memState) error {
		for id, token := range st.tokens {
			if token.ExpiresAt != nil && token.ExpiresAt.Before(before) {
				r.journal.saveToken(st, id)
				r.journal.saveValue(st, token.Value)
				delete(st.values, token.Value)
				delete(st.tokens, id)
				removed++
			}
		}
		return nil
	})
	return removed, err
}

// copyToken detaches the expiry pointer so callers cannot mutate stored state.
func copyToken(t domain.Token) domain.Token {
	if t.ExpiresAt != nil {
		exp := *t.ExpiresAt
		t.ExpiresAt = &exp
	}
	return t
}
