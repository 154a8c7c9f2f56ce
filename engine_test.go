package authgate

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/corvidlabs/authgate/password"
	"github.com/redis/go-redis/v9"
)

var testHS256Key = []byte("0123456789abcdef0123456789abcdef")

const testSecret = "correct horse battery staple"

type mockUserProvider struct {
	byID       map[string]*Principal
	byEmail    map[string]*Principal
	profiles   map[string]*Profile
	idCalls    int
	emailCalls int
	err        error
}

func (m *mockUserProvider) GetByIdentifier(ctx context.Context, identifier string) (*Principal, error) {
	return m.GetByEmail(ctx, identifier)
}

func (m *mockUserProvider) GetByID(_ context.Context, id string) (*Principal, error) {
	m.idCalls++
	if m.err != nil {
		return nil, m.err
	}
	return m.byID[id], nil
}

func (m *mockUserProvider) GetByEmail(_ context.Context, email string) (*Principal, error) {
	m.emailCalls++
	if m.err != nil {
		return nil, m.err
	}
	return m.byEmail[email], nil
}

func (m *mockUserProvider) Profile(_ context.Context, principalID string) (*Profile, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.profiles[principalID], nil
}

type mockRoleProvider struct {
	perms     map[string][]string
	roles     map[string][]Role
	roleByID  map[string]*Role
	permCalls int
	roleCalls int
	err       error
}

func (m *mockRoleProvider) RolesForPrincipal(_ context.Context, principalID string) ([]Role, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.roles[principalID], nil
}

func (m *mockRoleProvider) PermissionsForPrincipal(_ context.Context, principalID string) ([]string, error) {
	m.permCalls++
	if m.err != nil {
		return nil, m.err
	}
	return m.perms[principalID], nil
}

func (m *mockRoleProvider) RoleByID(_ context.Context, roleID string) (*Role, error) {
	m.roleCalls++
	if m.err != nil {
		return nil, m.err
	}
	return m.roleByID[roleID], nil
}

type engineFixture struct {
	engine *Engine
	mr     *miniredis.Miniredis
	rdb    *redis.Client
	users  *mockUserProvider
	roles  *mockRoleProvider
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Token.SigningMethod = "hs256"
	cfg.Token.PrivateKey = testHS256Key
	cfg.Token.AccessTTL = time.Minute
	cfg.Token.RefreshTTL = time.Hour
	cfg.Secret = SecretConfig{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   16,
	}
	return cfg
}

func testSecretHash(t *testing.T, cfg Config) string {
	t.Helper()
	hasher, err := password.NewArgon2(password.Config{
		Memory:      cfg.Secret.Memory,
		Time:        cfg.Secret.Time,
		Parallelism: cfg.Secret.Parallelism,
		SaltLength:  cfg.Secret.SaltLength,
		KeyLength:   cfg.Secret.KeyLength,
	})
	if err != nil {
		t.Fatalf("new hasher: %v", err)
	}
	hash, err := hasher.Hash(testSecret)
	if err != nil {
		t.Fatalf("hash test secret: %v", err)
	}
	return hash
}

func newEngineTest(t *testing.T, mutate ...func(*Builder)) *engineFixture {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	cfg := testConfig()
	hash := testSecretHash(t, cfg)

	alice := &Principal{ID: "u-alice", Email: "alice@example.com", SecretHash: hash, Active: true}
	bob := &Principal{ID: "u-bob", Email: "bob@example.com", SecretHash: hash, Active: false}
	users := &mockUserProvider{
		byID:    map[string]*Principal{alice.ID: alice, bob.ID: bob},
		byEmail: map[string]*Principal{alice.Email: alice, bob.Email: bob},
		profiles: map[string]*Profile{
			alice.ID: {PrincipalID: alice.ID, DisplayName: "Alice", Email: alice.Email},
		},
	}
	roles := &mockRoleProvider{
		perms: map[string][]string{
			alice.ID: {"billing:read", "reports:view"},
		},
		roles: map[string][]Role{
			alice.ID: {{ID: "r-member", Name: "member"}},
		},
		roleByID: map[string]*Role{
			"r-member": {ID: "r-member", Name: "member", Permissions: []string{"billing:read", "reports:view"}, PermissionsLoaded: true},
		},
	}

	b := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithUserProvider(users).
		WithRoleProvider(roles)
	for _, fn := range mutate {
		fn(b)
	}

	engine, err := b.Build()
	if err != nil {
		t.Fatalf("build engine: %v", err)
	}
	t.Cleanup(func() {
		engine.Close()
		rdb.Close()
		mr.Close()
	})

	return &engineFixture{engine: engine, mr: mr, rdb: rdb, users: users, roles: roles}
}

func loginAlice(t *testing.T, f *engineFixture) *AuthResult {
	t.Helper()
	ctx := WithClientIP(WithUserAgent(context.Background(), "test-agent"), "203.0.113.5")
	result, err := f.engine.Login(ctx, "alice@example.com", testSecret)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if !result.OK {
		t.Fatalf("login failed: %q", result.Message)
	}
	return result
}
