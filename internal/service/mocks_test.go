package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/auth"
	"cloud.google.com/go/auth/credentials"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"gsource-auth/internal/model"
	"gsource-auth/internal/pkg/crypto"
	"gsource-auth/internal/repository"
	"gsource-auth/internal/robot"
)

const testKey = `{"type":"service_account","project_id":"my-proj","client_email":"builder@my-proj.iam.gserviceaccount.com","private_key":"unused"}`

type mockRobotRepo struct {
	mock.Mock
}

func (m *mockRobotRepo) Create(ctx context.Context, c *model.RobotCredential) error {
	args := m.Called(ctx, c)
	if args.Error(0) == nil && c.ID == 0 {
		c.ID = 1
	}
	return args.Error(0)
}

func (m *mockRobotRepo) GetByID(ctx context.Context, id int64) (*model.RobotCredential, error) {
	args := m.Called(ctx, id)
	c, _ := args.Get(0).(*model.RobotCredential)
	return c, args.Error(1)
}

func (m *mockRobotRepo) Update(ctx context.Context, c *model.RobotCredential) error {
	return m.Called(ctx, c).Error(0)
}

func (m *mockRobotRepo) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockRobotRepo) List(ctx context.Context, scope string, projectID *int64) ([]*model.RobotCredential, error) {
	args := m.Called(ctx, scope, projectID)
	list, _ := args.Get(0).([]*model.RobotCredential)
	return list, args.Error(1)
}

func (m *mockRobotRepo) Page(ctx context.Context, page, pageSize int, scope, keyword string, projectID *int64) ([]*model.RobotCredential, int64, error) {
	args := m.Called(ctx, page, pageSize, scope, keyword, projectID)
	list, _ := args.Get(0).([]*model.RobotCredential)
	return list, int64(args.Int(1)), args.Error(2)
}

func (m *mockRobotRepo) ListVisible(ctx context.Context, projectID *int64) ([]*model.RobotCredential, error) {
	args := m.Called(ctx, projectID)
	list, _ := args.Get(0).([]*model.RobotCredential)
	return list, args.Error(1)
}

func (m *mockRobotRepo) UpdateProbe(ctx context.Context, id int64, status, message string, at time.Time) error {
	return m.Called(ctx, id, status, message, at).Error(0)
}

type mockBuildRepo struct {
	mock.Mock
	// saved 最近一次写入的构建
	saved *model.Build
}

func (m *mockBuildRepo) Create(ctx context.Context, b *model.Build) error {
	args := m.Called(ctx, b)
	if args.Error(0) == nil {
		if b.ID == 0 {
			b.ID = 100
		}
		m.saved = b
	}
	return args.Error(0)
}

func (m *mockBuildRepo) FindByID(ctx context.Context, id int64, opts ...repository.QueryOption) (*model.Build, error) {
	args := m.Called(ctx, id)
	if fn, ok := args.Get(0).(func(context.Context, int64) *model.Build); ok {
		return fn(ctx, id), args.Error(1)
	}
	b, _ := args.Get(0).(*model.Build)
	return b, args.Error(1)
}

func (m *mockBuildRepo) FindByJobAndNumber(ctx context.Context, job string, number int) (*model.Build, error) {
	args := m.Called(ctx, job, number)
	b, _ := args.Get(0).(*model.Build)
	return b, args.Error(1)
}

func (m *mockBuildRepo) Update(ctx context.Context, b *model.Build) error {
	err := m.Called(ctx, b).Error(0)
	if err == nil {
		m.saved = b
	}
	return err
}

type txMarker struct{}

// fakeTx 记录事务次数，fn 失败时执行 rollback
type fakeTx struct {
	calls    int
	rollback func()
}

func (f *fakeTx) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	f.calls++
	if err := fn(context.WithValue(ctx, txMarker{}, true)); err != nil {
		if f.rollback != nil {
			f.rollback()
		}
		return err
	}
	return nil
}

func inTx(ctx context.Context) bool {
	v, _ := ctx.Value(txMarker{}).(bool)
	return v
}

// memorySourceRepo 内存中的来源仓储
type memorySourceRepo struct {
	rows    []*model.SourceMetadata
	deleted []int64
	err     error
	// outsideTx 事务之外发生的写操作次数
	outsideTx int
}

// snapshot 返回恢复当前内容的函数
func (r *memorySourceRepo) snapshot() func() {
	rows := append([]*model.SourceMetadata(nil), r.rows...)
	return func() { r.rows = rows }
}

func (r *memorySourceRepo) Add(ctx context.Context, m *model.SourceMetadata) error {
	if !inTx(ctx) {
		r.outsideTx++
	}
	if r.err != nil {
		return r.err
	}
	r.rows = append(r.rows, m)
	return nil
}

func (r *memorySourceRepo) ListByBuild(_ context.Context, buildID int64) ([]*model.SourceMetadata, error) {
	var out []*model.SourceMetadata
	for _, m := range r.rows {
		if m.BuildID == buildID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *memorySourceRepo) DeleteByBuild(ctx context.Context, buildID int64) error {
	if !inTx(ctx) {
		r.outsideTx++
	}
	r.deleted = append(r.deleted, buildID)
	kept := r.rows[:0]
	for _, m := range r.rows {
		if m.BuildID != buildID {
			kept = append(kept, m)
		}
	}
	r.rows = kept
	return nil
}

var errInvalidGrant = errors.New("invalid_grant")

type tokenProviderFunc func(ctx context.Context) (*auth.Token, error)

func (f tokenProviderFunc) Token(ctx context.Context) (*auth.Token, error) {
	return f(ctx)
}

// fakeDetector 按 scope 返回 token，scope 在 fail 中时失败
type fakeDetector struct {
	calls int
	fail  map[string]bool
}

func (d *fakeDetector) detect(opts *credentials.DetectOptions) (*auth.Credentials, error) {
	d.calls++
	scopes := opts.Scopes
	return auth.NewCredentials(&auth.CredentialsOptions{
		TokenProvider: tokenProviderFunc(func(context.Context) (*auth.Token, error) {
			for _, s := range scopes {
				if d.fail[s] {
					return nil, errInvalidGrant
				}
			}
			return &auth.Token{Value: "ya29." + scopes[0], Expiry: time.Now().Add(time.Hour)}, nil
		}),
	}), nil
}

func newTestCipher(t *testing.T) *crypto.Cipher {
	t.Helper()
	c, err := crypto.NewCipher("unit-test-secret", "unit-test-salt")
	require.NoError(t, err)
	return c
}

func newTestFactory(d *fakeDetector) *robot.Factory {
	return robot.NewFactory(d.detect, func(context.Context) (string, error) {
		return "default@my-proj.iam.gserviceaccount.com", nil
	})
}

func newTestStore(t *testing.T, repo *mockRobotRepo, d *fakeDetector) *RobotStore {
	return NewRobotStore(repo, newTestCipher(t), newTestFactory(d), zap.NewNop())
}

// saRecord 加密后的 service_account 记录
func saRecord(t *testing.T, id int64, allowed ...string) *model.RobotCredential {
	t.Helper()
	enc, err := newTestCipher(t).Encrypt([]byte(testKey))
	require.NoError(t, err)
	c := &model.RobotCredential{
		Scope:         model.ScopeGlobal,
		Name:          "builder",
		Kind:          "service_account",
		EncryptedData: enc,
		AllowedScopes: allowed,
	}
	c.ID = id
	return c
}
