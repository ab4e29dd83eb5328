package source

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLiveCredential(t *testing.T) {
	ctx := context.Background()
	robot := &fakeRobot{id: "42", username: "bot@proj.iam.gserviceaccount.com", token: "ya29.a"}
	host := Host{Store: newMapStore(robot)}

	gerrit := NewLiveCredential("42", StrategyGerrit, host)
	assert.Equal(t, "source:42", gerrit.ID())
	assert.Equal(t, TypeRobotUsernamePassword, gerrit.Type())
	assert.True(t, gerrit.Matches(gerritURL()))
	assert.False(t, gerrit.Matches(cloudURL()))

	name, err := gerrit.Username(ctx)
	require.NoError(t, err)
	assert.Equal(t, "git", name)

	pw, err := gerrit.Password(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ya29.a", pw.PlainText())
	assert.Equal(t, "bot@proj.iam.gserviceaccount.com", gerrit.Description(ctx))

	cloud := NewLiveCredential("42", StrategyCloudPlatform, host)
	name, err = cloud.Username(ctx)
	require.NoError(t, err)
	assert.Equal(t, "bot@proj.iam.gserviceaccount.com", name)
}

func TestLiveCredentialReResolvesEachCall(t *testing.T) {
	ctx := context.Background()
	robot := &fakeRobot{id: "1", token: "t"}
	store := newMapStore(robot)
	c := NewLiveCredential("1", StrategyGerrit, Host{Store: store})

	_, err := c.Password(ctx)
	require.NoError(t, err)

	delete(store.robots, "1")
	_, err = c.Password(ctx)
	assert.ErrorIs(t, err, ErrCredentialUnavailable)
	_, err = c.Username(ctx)
	assert.ErrorIs(t, err, ErrCredentialUnavailable)
	assert.Empty(t, c.Description(ctx))
}

func TestLiveCredentialWithoutStore(t *testing.T) {
	c := NewLiveCredential("1", StrategyGerrit, AgentHost())
	_, err := c.Password(context.Background())
	assert.ErrorIs(t, err, ErrCredentialUnavailable)
}

func TestForRemote(t *testing.T) {
	ctx := context.Background()
	robot := &fakeRobot{id: "9", username: "bot@x", token: "tok"}
	live := NewLiveCredential("9", StrategyCloudPlatform, Host{Store: newMapStore(robot)})

	liveName, err := live.Username(ctx)
	require.NoError(t, err)

	snap, err := ForRemote(ctx, live)
	require.NoError(t, err)
	assert.Equal(t, FormSnapshot, snap.Form())
	assert.NotSame(t, live, snap)
	assert.Equal(t, live.ID(), snap.ID())
	assert.Equal(t, 1, robot.remoteCalls)

	snapName, err := snap.Username(ctx)
	require.NoError(t, err)
	assert.Equal(t, liveName, snapName)

	pw, err := snap.Password(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok", pw.PlainText())

	again, err := ForRemote(ctx, snap)
	require.NoError(t, err)
	assert.Same(t, snap, again)
	assert.Equal(t, 1, robot.remoteCalls)

	remote, ok := snap.Remote()
	require.True(t, ok)
	assert.Equal(t, []string{ScopeSourceReadWrite}, remote.(*RemoteToken).Scopes)
	_, ok = live.Remote()
	assert.False(t, ok)
}

func TestForRemoteGerritIdentity(t *testing.T) {
	ctx := context.Background()
	robot := &fakeRobot{id: "9", username: "bot@x", token: "tok"}
	snap, err := ForRemote(ctx, NewLiveCredential("9", StrategyGerrit, Host{Store: newMapStore(robot)}))
	require.NoError(t, err)

	name, err := snap.Username(ctx)
	require.NoError(t, err)
	assert.Equal(t, "git", name)
	assert.Equal(t, "bot@x", snap.Description(ctx))
}

func TestForRemoteFailure(t *testing.T) {
	ctx := context.Background()
	cause := errors.New("metadata server unreachable")
	robot := &fakeRobot{id: "9", username: "bot@x", tokenErr: cause}

	_, err := ForRemote(ctx, NewLiveCredential("9", StrategyGerrit, Host{Store: newMapStore(robot)}))
	assert.ErrorIs(t, err, ErrAuthenticationFailure)
	assert.ErrorIs(t, err, cause)

	_, err = ForRemote(ctx, NewLiveCredential("missing", StrategyGerrit, Host{Store: newMapStore()}))
	assert.ErrorIs(t, err, ErrCredentialUnavailable)
}

func TestSnapshotTokenScopeIsBound(t *testing.T) {
	ctx := context.Background()
	robot := &fakeRobot{id: "9", username: "bot@x", token: "tok"}
	snap, err := ForRemote(ctx, NewLiveCredential("9", StrategyGerrit, Host{Store: newMapStore(robot)}))
	require.NoError(t, err)

	remote, _ := snap.Remote()
	_, err = remote.AccessToken(ctx, StrategyCloudPlatform.Scope())
	assert.ErrorIs(t, err, ErrAuthenticationFailure)
}

func TestSecretFormatting(t *testing.T) {
	s := NewSecret("hunter2")
	assert.Equal(t, "******", s.String())
	assert.NotContains(t, fmt.Sprintf("%v %s %+v %#v", s, s, s, s), "hunter2")
	assert.True(t, NewSecret("").IsEmpty())
}
