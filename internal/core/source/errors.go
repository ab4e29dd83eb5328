package source

import (
	"fmt"

	pkgErrors "gsource-auth/pkg/errors"
)

// 对外暴露的哨兵错误，按错误码与 errors.Is 比较
var (
	ErrCredentialUnavailable = pkgErrors.ErrCredentialUnavailable
	ErrAuthenticationFailure = pkgErrors.ErrAuthenticationFailure
	ErrCodec                 = pkgErrors.ErrCodec
)

// credentialUnavailable robot 凭据 ID 无法解析
func credentialUnavailable(credentialsID string, cause error) error {
	return pkgErrors.Wrap(pkgErrors.CodeCredentialUnavailable,
		fmt.Sprintf("robot 凭据 %q 不可用", credentialsID), cause)
}

// authenticationFailure 获取 access token 失败，原样携带下层错误
func authenticationFailure(credentialsID string, cause error) error {
	return pkgErrors.Wrap(pkgErrors.CodeAuthenticationFailure,
		fmt.Sprintf("robot 凭据 %q 获取访问令牌失败", credentialsID), cause)
}

// AuthenticationFailure 供 robot 实现使用，统一错误码
func AuthenticationFailure(credentialsID string, cause error) error {
	return authenticationFailure(credentialsID, cause)
}
