package source

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/gobwas/glob"
)

// RequirementKind 域要求的种类
type RequirementKind string

const (
	KindScheme   RequirementKind = "scheme"
	KindHostname RequirementKind = "hostname"
	KindPath     RequirementKind = "path"
	KindScope    RequirementKind = "oauth_scope"
)

// DomainRequirement 调用方给出的上下文约束，例如 scheme=https、hostname=x.googlesource.com
type DomainRequirement struct {
	Kind   RequirementKind `json:"kind" yaml:"kind"`
	Value  string          `json:"value,omitempty" yaml:"value,omitempty"`
	Scopes []string        `json:"scopes,omitempty" yaml:"scopes,omitempty"`
}

func SchemeRequirement(scheme string) DomainRequirement {
	return DomainRequirement{Kind: KindScheme, Value: scheme}
}

func HostnameRequirement(hostname string) DomainRequirement {
	return DomainRequirement{Kind: KindHostname, Value: hostname}
}

func PathRequirement(path string) DomainRequirement {
	return DomainRequirement{Kind: KindPath, Value: path}
}

// ScopeRequirement OAuth scope 要求，传给凭据仓库过滤 robot 凭据
func ScopeRequirement(scopes ...string) DomainRequirement {
	return DomainRequirement{Kind: KindScope, Scopes: append([]string(nil), scopes...)}
}

// scpLike git 的 scp 风格地址：[user@]host:path，冒号前不含斜杠
var scpLike = regexp.MustCompile(`^(?:[^@/:]+@)?([A-Za-z0-9][A-Za-z0-9.-]*):(.*)$`)

// RequirementsFromURI 根据仓库地址生成 scheme/hostname/path 要求
// scp 风格地址按 ssh 处理；无法解析的地址返回空集合，调用方需自行拒绝
func RequirementsFromURI(rawURL string) []DomainRequirement {
	rawURL = strings.TrimSpace(rawURL)
	if !strings.Contains(rawURL, "://") {
		if m := scpLike.FindStringSubmatch(rawURL); m != nil {
			reqs := []DomainRequirement{SchemeRequirement("ssh"), HostnameRequirement(strings.ToLower(m[1]))}
			if path := m[2]; path != "" {
				if !strings.HasPrefix(path, "/") {
					path = "/" + path
				}
				reqs = append(reqs, PathRequirement(path))
			}
			return reqs
		}
		return nil
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" {
		return nil
	}
	reqs := []DomainRequirement{SchemeRequirement(u.Scheme)}
	if host := u.Hostname(); host != "" {
		reqs = append(reqs, HostnameRequirement(strings.ToLower(host)))
	}
	if u.Path != "" {
		reqs = append(reqs, PathRequirement(u.Path))
	}
	return reqs
}

// ScopesOf 汇总要求集合中的 OAuth scope
func ScopesOf(reqs []DomainRequirement) []string {
	var out []string
	for _, r := range reqs {
		if r.Kind == KindScope {
			out = append(out, r.Scopes...)
		}
	}
	return out
}

// hostnameSpec 主机名规格：逗号分隔的 glob，忽略大小写
type hostnameSpec struct {
	raw      string
	includes []glob.Glob
}

func newHostnameSpec(patterns string) hostnameSpec {
	spec := hostnameSpec{raw: patterns}
	for _, p := range strings.Split(patterns, ",") {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		spec.includes = append(spec.includes, glob.MustCompile(p))
	}
	return spec
}

func (h hostnameSpec) test(hostname string) bool {
	hostname = strings.ToLower(hostname)
	for _, g := range h.includes {
		if g.Match(hostname) {
			return true
		}
	}
	return false
}

// DomainPattern 策略适用的域，创建后不可变
type DomainPattern struct {
	name    string
	schemes []string
	host    hostnameSpec
}

// NewDomainPattern 创建域规格，hostPatterns 为逗号分隔的主机 glob
func NewDomainPattern(name string, schemes []string, hostPatterns string) DomainPattern {
	lowered := make([]string, 0, len(schemes))
	for _, s := range schemes {
		lowered = append(lowered, strings.ToLower(s))
	}
	return DomainPattern{
		name:    name,
		schemes: lowered,
		host:    newHostnameSpec(hostPatterns),
	}
}

func (d DomainPattern) Name() string {
	return d.name
}

func (d DomainPattern) Schemes() []string {
	return append([]string(nil), d.schemes...)
}

func (d DomainPattern) HostPatterns() string {
	return d.host.raw
}

// Test 判断要求集合是否满足该域
// 要求集合中未出现的种类不构成约束；出现的 scheme/hostname 要求必须全部满足
func (d DomainPattern) Test(reqs []DomainRequirement) bool {
	for _, r := range reqs {
		switch r.Kind {
		case KindScheme:
			if !d.testScheme(r.Value) {
				return false
			}
		case KindHostname:
			if !d.host.test(r.Value) {
				return false
			}
		}
	}
	return true
}

func (d DomainPattern) testScheme(scheme string) bool {
	scheme = strings.ToLower(scheme)
	for _, s := range d.schemes {
		if s == scheme {
			return true
		}
	}
	return false
}
