package errors

import (
	stderrors "errors"
	"fmt"
)

// 错误码
const (
	CodeSuccess         = 2000000
	CodeBadRequest      = 4000000
	CodeUnauthorized    = 4010000
	CodeForbidden       = 4030000
	CodeNotFound        = 4040000
	CodeConflict        = 4009000
	CodeInternalError   = 5000000
	CodeDatabaseError   = 5001000
	CodeAuthError       = 5002000
	CodeValidationError = 5003000

	// 凭据桥接相关
	CodeCredentialUnavailable = 4041001 // 底层 robot 凭据无法解析
	CodeAuthenticationFailure = 5002001 // 获取 OAuth access token 失败
	CodeStoreError            = 5001001 // 凭据仓库查询失败
	CodeCodecError            = 4000001 // 凭据编解码失败
)

// AppError 应用错误
type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap 返回被包装的原始错误
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is 按错误码比较，使 errors.Is(Wrap(code, ...), ErrXxx) 成立
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New 创建新错误
func New(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap 包装错误
func Wrap(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// CodeOf 提取错误码，非 AppError 返回 CodeInternalError
func CodeOf(err error) int {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternalError
}

// 预定义错误
var (
	ErrBadRequest      = New(CodeBadRequest, "请求参数错误")
	ErrUnauthorized    = New(CodeUnauthorized, "未授权")
	ErrForbidden       = New(CodeForbidden, "禁止访问")
	ErrNotFound        = New(CodeNotFound, "资源不存在")
	ErrConflict        = New(CodeConflict, "资源冲突")
	ErrInternalError   = New(CodeInternalError, "内部服务器错误")
	ErrDatabaseError   = New(CodeDatabaseError, "数据库错误")
	ErrAuthError       = New(CodeAuthError, "认证失败")
	ErrValidationError = New(CodeValidationError, "数据验证失败")

	ErrInvalidParams  = New(CodeBadRequest, "请求参数错误")
	ErrInvalidToken   = New(CodeUnauthorized, "无效的Token")
	ErrTokenExpired   = New(CodeUnauthorized, "Token已过期")
	ErrRecordNotFound = New(CodeNotFound, "记录不存在")
	ErrRecordExists   = New(CodeConflict, "记录已存在")

	ErrCredentialUnavailable = New(CodeCredentialUnavailable, "robot 凭据不可用")
	ErrAuthenticationFailure = New(CodeAuthenticationFailure, "获取访问令牌失败")
	ErrCodec                 = New(CodeCodecError, "凭据编解码失败")
)
