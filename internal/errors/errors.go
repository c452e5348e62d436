package errors

import (
	"errors"
	"fmt"
)

// AppError 应用错误类型
// 用于统一管理业务错误，包含错误码和错误消息
type AppError struct {
	Code    int    // 错误码
	Message string // 用户可见的错误消息
	Err     error  // 原始错误（可选，用于调试）
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap 支持 errors.Unwrap
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewError 创建新错误
func NewError(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap 包装原始错误
func (e *AppError) Wrap(err error) *AppError {
	return &AppError{
		Code:    e.Code,
		Message: e.Message,
		Err:     err,
	}
}

// Is 判断是否为指定错误
func Is(err error, target *AppError) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == target.Code
	}
	return false
}

// GetCode 获取错误码，如果不是 AppError 返回默认错误码
func GetCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeServerError // 默认返回服务器错误
}

// GetMessage 获取错误消息
func GetMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "Erro interno do servidor"
}

// ============== 错误码定义 ==============

const (
	CodeSuccess = 0

	// 认证相关 10000-10999
	CodeUnauthorized = 10001

	// 网关相关 20000-20999
	CodeGatewayError        = 20001
	CodeGatewayDisconnected = 20002
	CodeSendFailed          = 20003
	CodeMediaUnavailable    = 20004

	// 会话相关 21000-21999
	CodeChatNotFound  = 21001
	CodeInvalidParams = 21002

	// 线索相关 22000-22999
	CodeNoPipelineStage = 22001
	CodeAmbiguousPhone  = 22002

	// 系统错误 50000-50999
	CodeServerError   = 50001
	CodeDBError       = 50002
	CodeTooManyReqest = 50003
)

// ============== 预定义错误 ==============

// 认证相关
var (
	ErrUnauthorized = NewError(CodeUnauthorized, "Não autorizado")
)

// 网关相关
var (
	ErrGatewayError        = NewError(CodeGatewayError, "Falha ao comunicar com o gateway")
	ErrGatewayDisconnected = NewError(CodeGatewayDisconnected, "WhatsApp desconectado")
	ErrSendFailed          = NewError(CodeSendFailed, "Falha ao enviar mensagem")
	ErrMediaUnavailable    = NewError(CodeMediaUnavailable, "Mídia indisponível")
)

// 会话相关
var (
	ErrChatNotFound  = NewError(CodeChatNotFound, "Conversa não encontrada")
	ErrInvalidParams = NewError(CodeInvalidParams, "Parâmetros inválidos")
)

// 线索相关
var (
	ErrNoPipelineStage = NewError(CodeNoPipelineStage, "Nenhuma fase de pipeline encontrada")
	ErrAmbiguousPhone  = NewError(CodeAmbiguousPhone, "Telefone ambíguo, requer revisão manual")
)

// 系统相关
var (
	ErrServerError    = NewError(CodeServerError, "Erro interno do servidor")
	ErrDBError        = NewError(CodeDBError, "Erro de banco de dados")
	ErrTooManyRequest = NewError(CodeTooManyReqest, "Muitas requisições, tente novamente mais tarde")
)
