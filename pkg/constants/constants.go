package constants

// Robot 凭据类型
const (
	RobotKindServiceAccount     = "service_account"     // 服务账号 JSON 密钥
	RobotKindApplicationDefault = "application_default" // ADC / GCE metadata 身份
)

// Probe 状态
const (
	ProbeStatusSuccess = "success"
	ProbeStatusFailed  = "failed"
)

// SCM 插件名称
const (
	SCMPluginGit       = "git"
	SCMPluginMercurial = "mercurial"
	SCMPluginMultiSCM  = "multiple-scms"
)

// JWT 相关
const (
	JWTTypeAccess = "access"
)

// Gin context key
const (
	ContextKeyActing = "acting_identity"
	ContextKeyRoles  = "roles"
)

// HTTP Header
const (
	HeaderAuthorization = "Authorization"
	HeaderBearerPrefix  = "Bearer "
)

// 凭据快照分发
const (
	EnvSnapshotFile   = "GSOURCE_SNAPSHOT_FILE"
	EnvControllerURL  = "GSOURCE_CONTROLLER_URL"
	EnvControllerAuth = "GSOURCE_TOKEN"
)
