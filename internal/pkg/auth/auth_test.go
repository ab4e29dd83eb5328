package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"gsource-auth/internal/core/source"
)

func TestAllow(t *testing.T) {
	assert.True(t, Allow([]string{"admin"}, PermRobotDelete))
	assert.True(t, Allow([]string{"system"}, PermSourceResolve))
	assert.False(t, Allow([]string{"system"}, PermRobotCreate))
	assert.True(t, Allow([]string{"builder"}, PermSourceLookup))
	assert.False(t, Allow([]string{"builder"}, PermSourceResolve))
	assert.True(t, Allow([]string{"viewer"}, PermRobotView))
	assert.True(t, Allow([]string{"viewer"}, PermBuildView))
	assert.False(t, Allow([]string{"viewer"}, PermBuildNotify))
	assert.False(t, Allow(nil, PermBuildView))
	assert.False(t, Allow([]string{"unknown"}, PermBuildView))
	assert.True(t, Allow([]string{"viewer", "builder"}, PermBuildNotify))
}

func TestActingIdentity(t *testing.T) {
	assert.Equal(t, source.SystemIdentity, ActingIdentity("ci", []string{"builder", "system"}))
	assert.Equal(t, source.Identity("user:alice"), ActingIdentity("alice", []string{"admin"}))

	// subject 与系统身份同名时仍是普通调用方
	acting := ActingIdentity(string(source.SystemIdentity), []string{"admin"})
	assert.NotEqual(t, source.SystemIdentity, acting)
	assert.Equal(t, source.Identity("user:SYSTEM"), acting)
	assert.NotEqual(t, source.SystemIdentity, ActingIdentity("", nil))
}
