package source

import (
	"context"
	"errors"
	"time"

	"github.com/stretchr/testify/mock"
)

// fakeRobot 内存中的 robot 凭据
type fakeRobot struct {
	id       string
	username string
	token    string
	tokenErr error

	tokenCalls  int
	remoteCalls int
	lastScope   DomainRequirement
}

func (f *fakeRobot) ID() string {
	return f.id
}

func (f *fakeRobot) Username(context.Context) (string, error) {
	return f.username, nil
}

func (f *fakeRobot) AccessToken(_ context.Context, scope DomainRequirement) (Secret, error) {
	f.tokenCalls++
	f.lastScope = scope
	if f.tokenErr != nil {
		return Secret{}, f.tokenErr
	}
	return NewSecret(f.token), nil
}

func (f *fakeRobot) ForRemote(_ context.Context, scope DomainRequirement) (RobotCredential, error) {
	f.remoteCalls++
	if f.tokenErr != nil {
		return nil, f.tokenErr
	}
	return NewRemoteToken(f.id, f.username, scope, NewSecret(f.token), time.Now().Add(time.Hour)), nil
}

// mockStore testify mock 实现的凭据仓库
type mockStore struct {
	mock.Mock
}

func (m *mockStore) LookupRobots(ctx context.Context, q RobotQuery) ([]RobotCredential, error) {
	args := m.Called(ctx, q)
	robots, _ := args.Get(0).([]RobotCredential)
	return robots, args.Error(1)
}

func (m *mockStore) GetRobot(ctx context.Context, credentialsID string) (RobotCredential, error) {
	args := m.Called(ctx, credentialsID)
	robot, _ := args.Get(0).(RobotCredential)
	return robot, args.Error(1)
}

// mapStore 按 ID 保存的简单仓库，用于不关心调用细节的用例
type mapStore struct {
	robots map[string]RobotCredential
}

func newMapStore(robots ...RobotCredential) *mapStore {
	s := &mapStore{robots: map[string]RobotCredential{}}
	for _, r := range robots {
		s.robots[r.ID()] = r
	}
	return s
}

func (s *mapStore) LookupRobots(context.Context, RobotQuery) ([]RobotCredential, error) {
	out := make([]RobotCredential, 0, len(s.robots))
	for _, r := range s.robots {
		out = append(out, r)
	}
	return out, nil
}

func (s *mapStore) GetRobot(_ context.Context, id string) (RobotCredential, error) {
	r, ok := s.robots[id]
	if !ok {
		return nil, credentialUnavailable(id, errors.New("not found"))
	}
	return r, nil
}

func gerritURL() []DomainRequirement {
	return RequirementsFromURI("https://chromium.googlesource.com/chromium/src")
}

func cloudURL() []DomainRequirement {
	return RequirementsFromURI("https://source.developers.google.com/p/proj/r/repo")
}
