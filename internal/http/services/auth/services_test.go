package auth

// Fakes en memoria compartidos por los tests de services.

import (
	"context"
	"testing"

	"github.com/dropDatabas3/gatekeep/internal/domain/repository"
	"github.com/dropDatabas3/gatekeep/internal/domain/types"
	"github.com/dropDatabas3/gatekeep/internal/queue"
	"github.com/dropDatabas3/gatekeep/internal/security/password"
	tokens "github.com/dropDatabas3/gatekeep/internal/security/token"
)

// Parámetros argon2 livianos para no pagar 64 MiB por hash en cada test.
var testHashParams = password.Params{Memory: 8 * 1024, Time: 1, Parallelism: 1, KeyLen: 32}

type memUsers struct {
	seq   int64
	users map[string]*types.User // por email
}

func newMemUsers() *memUsers {
	return &memUsers{users: map[string]*types.User{}}
}

func (m *memUsers) add(u *types.User) *types.User {
	m.seq++
	u.ID = m.seq
	m.users[u.Email] = u
	return u
}

func (m *memUsers) GetByID(_ context.Context, id int64) (*types.User, error) {
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*types.User, error) {
	if u, ok := m.users[email]; ok {
		return u, nil
	}
	return nil, repository.ErrNotFound
}

func (m *memUsers) GetByAPIKey(_ context.Context, apiKey string) (*types.User, error) {
	for _, u := range m.users {
		if u.APIKey != nil && *u.APIKey == apiKey {
			return u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memUsers) Create(_ context.Context, u *types.User) error {
	m.add(u)
	return nil
}

func (m *memUsers) byID(id int64) *types.User {
	u, _ := m.GetByID(context.Background(), id)
	return u
}

func (m *memUsers) SetVerified(_ context.Context, id int64, v bool) error {
	if u := m.byID(id); u != nil {
		u.Verified = v
	}
	return nil
}

func (m *memUsers) SetPassword(_ context.Context, id int64, hash string) error {
	if u := m.byID(id); u != nil {
		u.Password = &hash
	}
	return nil
}

func (m *memUsers) SetAPIKey(_ context.Context, id int64, key string) error {
	if u := m.byID(id); u != nil {
		u.APIKey = &key
	}
	return nil
}

func (m *memUsers) SetTfaSecret(_ context.Context, id int64, secret string) error {
	if u := m.byID(id); u != nil {
		u.TfaSecret = &secret
	}
	return nil
}

func (m *memUsers) SetTfaMethods(_ context.Context, id int64, methods []string) error {
	if u := m.byID(id); u != nil {
		u.TfaMethods = methods
	}
	return nil
}

type memSettings map[string]string

func (m memSettings) Get(_ context.Context, name string) (string, error) {
	if v, ok := m[name]; ok {
		return v, nil
	}
	return "", repository.ErrNotFound
}

type memRoles map[string][]string

func (m memRoles) GetPermissions(_ context.Context, role string) ([]string, error) {
	if p, ok := m[role]; ok {
		return p, nil
	}
	return nil, repository.ErrNotFound
}

type memTemplates map[string]string

func (m memTemplates) GetPath(_ context.Context, name string) (string, error) {
	if p, ok := m[name]; ok {
		return p, nil
	}
	return "", repository.ErrNotFound
}

// captureQueue registra los jobs encolados para que los tests los inspeccionen.
type captureQueue struct {
	emails     []queue.EmailJob
	notifyUser []queue.NotifyUserJob
	notifyRole []queue.NotifyRoleJob
}

func (q *captureQueue) EnqueueEmail(_ context.Context, job queue.EmailJob) {
	q.emails = append(q.emails, job)
}

func (q *captureQueue) EnqueueNotifyUser(_ context.Context, job queue.NotifyUserJob) {
	q.notifyUser = append(q.notifyUser, job)
}

func (q *captureQueue) EnqueueNotifyRole(_ context.Context, job queue.NotifyRoleJob) {
	q.notifyRole = append(q.notifyRole, job)
}

func mustHash(t *testing.T, plain string) *string {
	t.Helper()
	h, err := password.Hash(testHashParams, plain)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	return &h
}

func testCodec() *tokens.Codec {
	return tokens.NewCodec("test-secret")
}
