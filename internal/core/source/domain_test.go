package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequirementsFromURI(t *testing.T) {
	reqs := RequirementsFromURI("https://Chromium.googlesource.com/chromium/src")
	assert.Equal(t, []DomainRequirement{
		SchemeRequirement("https"),
		HostnameRequirement("chromium.googlesource.com"),
		PathRequirement("/chromium/src"),
	}, reqs)

	assert.Empty(t, RequirementsFromURI("not a url"))
	assert.Empty(t, RequirementsFromURI("::"))
	assert.Empty(t, RequirementsFromURI("github.com/foo/bar"))
	assert.Empty(t, RequirementsFromURI(""))
}

func TestRequirementsFromSCPStyleURI(t *testing.T) {
	assert.Equal(t, []DomainRequirement{
		SchemeRequirement("ssh"),
		HostnameRequirement("github.com"),
		PathRequirement("/foo/bar.git"),
	}, RequirementsFromURI("git@GitHub.com:foo/bar.git"))

	assert.Equal(t, []DomainRequirement{
		SchemeRequirement("ssh"),
		HostnameRequirement("chromium.googlesource.com"),
		PathRequirement("/src"),
	}, RequirementsFromURI("chromium.googlesource.com:src"))

	// https only strategies never match an ssh remote
	reg := DefaultRegistry()
	_, ok := reg.FirstMatching(RequirementsFromURI("git@chromium.googlesource.com:src"))
	assert.False(t, ok)
	_, ok = reg.FirstMatching(RequirementsFromURI("git@github.com:foo/bar"))
	assert.False(t, ok)
}

func TestScopesOf(t *testing.T) {
	reqs := []DomainRequirement{
		SchemeRequirement("https"),
		ScopeRequirement("a", "b"),
		ScopeRequirement("c"),
	}
	assert.Equal(t, []string{"a", "b", "c"}, ScopesOf(reqs))
	assert.Empty(t, ScopesOf(nil))
}

func TestDomainPatternTest(t *testing.T) {
	p := NewDomainPattern("gerrit", []string{"HTTPS"}, "*.googlesource.com")

	tests := []struct {
		name string
		reqs []DomainRequirement
		want bool
	}{
		{"empty set is unconstrained", nil, true},
		{"scheme only", []DomainRequirement{SchemeRequirement("https")}, true},
		{"scheme case insensitive", []DomainRequirement{SchemeRequirement("HTTPS")}, true},
		{"wrong scheme", []DomainRequirement{SchemeRequirement("ssh")}, false},
		{"host glob", []DomainRequirement{HostnameRequirement("a.b.googlesource.com")}, true},
		{"host case insensitive", []DomainRequirement{HostnameRequirement("Foo.GoogleSource.com")}, true},
		{"bare domain does not match", []DomainRequirement{HostnameRequirement("googlesource.com")}, false},
		{"other host", []DomainRequirement{HostnameRequirement("github.com")}, false},
		{"path is ignored", []DomainRequirement{PathRequirement("/x")}, true},
		{"scope is ignored", []DomainRequirement{ScopeRequirement("s")}, true},
		{"one failing requirement rejects", []DomainRequirement{
			SchemeRequirement("https"), HostnameRequirement("github.com"),
		}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Test(tt.reqs))
		})
	}
}

func TestDomainPatternMultipleHosts(t *testing.T) {
	p := NewDomainPattern("cloud", []string{"https"}, "code.google.com, source.developers.google.com")
	assert.True(t, p.Test([]DomainRequirement{HostnameRequirement("code.google.com")}))
	assert.True(t, p.Test([]DomainRequirement{HostnameRequirement("source.developers.google.com")}))
	assert.False(t, p.Test([]DomainRequirement{HostnameRequirement("developers.google.com")}))
	assert.Equal(t, "cloud", p.Name())
	assert.Equal(t, []string{"https"}, p.Schemes())
}
