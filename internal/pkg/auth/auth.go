package auth

import (
	"strings"

	"github.com/samber/lo"

	"gsource-auth/internal/core/source"
)

// Role 内置角色
type Role string

const (
	// RoleSystem 以系统身份查询桥接凭据，通常是 CI 控制器
	RoleSystem Role = "system"
	// RoleAdmin 管理 robot 凭据
	RoleAdmin Role = "admin"
	// RoleBuilder 上报构建、读取构建来源
	RoleBuilder Role = "builder"
	// RoleViewer 只读
	RoleViewer Role = "viewer"
)

// Permission 内置权限
type Permission string

const (
	PermRobotCreate Permission = "robot:create"
	PermRobotUpdate Permission = "robot:update"
	PermRobotDelete Permission = "robot:delete"
	PermRobotView   Permission = "robot:view"
	PermRobotProbe  Permission = "robot:probe"

	PermSourceLookup  Permission = "source:lookup"
	PermSourceResolve Permission = "source:resolve"
	PermSourceVerify  Permission = "source:verify"

	PermBuildNotify Permission = "build:notify"
	PermBuildView   Permission = "build:view"
)

// RolePermissions 每个角色拥有的权限集合
var RolePermissions = map[Role][]Permission{
	RoleSystem: {
		"source:*",
		"build:*",
	},
	RoleAdmin: {
		"*",
	},
	RoleBuilder: {
		"source:lookup",
		"build:*",
	},
	RoleViewer: {
		"*:view",
	},
}

// UserIdentityPrefix 非系统调用方身份的前缀，subject 无法冒充系统身份
const UserIdentityPrefix = "user:"

// ActingIdentity 持有 system 角色的调用方以系统身份执行，其余调用方以 user:<subject> 执行
func ActingIdentity(subject string, roles []string) source.Identity {
	for _, r := range roles {
		if Role(r) == RoleSystem {
			return source.SystemIdentity
		}
	}
	return source.Identity(UserIdentityPrefix + subject)
}

// Allow 判断一组角色是否包含所需权限，支持通配符
func Allow(roles []string, need Permission) bool {
	for _, p := range collectPermissions(roles) {
		if match(p, need) {
			return true
		}
	}
	return false
}

func collectPermissions(roles []string) []Permission {
	return lo.FlatMap(roles, func(r string, _ int) []Permission {
		return RolePermissions[Role(r)]
	})
}

// match 按段比较，"*" 段匹配任意单段，末尾的 "*" 匹配剩余全部段
func match(have, need Permission) bool {
	if have == "*" || have == need {
		return true
	}
	hp := strings.Split(string(have), ":")
	np := strings.Split(string(need), ":")
	for i, part := range hp {
		if i >= len(np) {
			return false
		}
		if part == "*" {
			if i == len(hp)-1 {
				return true
			}
			continue
		}
		if part != np[i] {
			return false
		}
	}
	return len(hp) == len(np)
}
