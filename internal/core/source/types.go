package source

// CredentialType 凭据类型，按继承关系组织，用于 lookup 的快速拒绝
type CredentialType string

const (
	TypeCredentials            CredentialType = "credentials"
	TypeStandard               CredentialType = "standard"
	TypeUsernamePassword       CredentialType = "username_password"
	TypeRobotUsernamePassword  CredentialType = "robot_username_password"
	TypeGoogleRobot            CredentialType = "google_robot"
	TypeSSHUserPrivateKey      CredentialType = "ssh_key"
	TypeCertificateCredentials CredentialType = "certificate"
)

// credentialTypeParents 每个类型的直接父类型
var credentialTypeParents = map[CredentialType]CredentialType{
	TypeStandard:               TypeCredentials,
	TypeUsernamePassword:       TypeStandard,
	TypeRobotUsernamePassword:  TypeUsernamePassword,
	TypeGoogleRobot:            TypeStandard,
	TypeSSHUserPrivateKey:      TypeStandard,
	TypeCertificateCredentials: TypeStandard,
}

// AssignableFrom 判断 other 类型的凭据能否作为 t 类型返回（t 是 other 自身或其祖先）
func (t CredentialType) AssignableFrom(other CredentialType) bool {
	for cur, ok := other, true; ok; cur, ok = credentialTypeParents[cur] {
		if cur == t {
			return true
		}
	}
	return false
}

// Known 是否为已知类型
func (t CredentialType) Known() bool {
	if t == TypeCredentials {
		return true
	}
	_, ok := credentialTypeParents[t]
	return ok
}

// Identity 调用方身份
type Identity string

// SystemIdentity 系统身份，只有它能拿到桥接凭据
const SystemIdentity Identity = "SYSTEM"

// ItemScope 查询上下文，ProjectID 为空表示全局
type ItemScope struct {
	ProjectID *int64
}

// GlobalScope 全局上下文
func GlobalScope() ItemScope {
	return ItemScope{}
}

// ProjectScope 项目上下文
func ProjectScope(projectID int64) ItemScope {
	return ItemScope{ProjectID: &projectID}
}

// Secret 敏感字符串，格式化输出时打码
type Secret struct {
	value string
}

// NewSecret 包装明文
func NewSecret(plain string) Secret {
	return Secret{value: plain}
}

// PlainText 返回明文
func (s Secret) PlainText() string {
	return s.value
}

// IsEmpty 是否为空
func (s Secret) IsEmpty() bool {
	return s.value == ""
}

func (s Secret) String() string {
	if s.value == "" {
		return ""
	}
	return "******"
}

// GoString 防止 %#v 泄露明文
func (s Secret) GoString() string {
	return s.String()
}
