package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "sudooom.clinic.sync/internal/errors"
)

// Response 统一响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// 错误码常量（使用 internal/errors 包的定义）
const (
	CodeSuccess = apperrors.CodeSuccess

	// 认证相关 10000-10999
	CodeUnauthorized = apperrors.CodeUnauthorized

	// 网关相关 20000-20999
	CodeGatewayError        = apperrors.CodeGatewayError
	CodeGatewayDisconnected = apperrors.CodeGatewayDisconnected
	CodeSendFailed          = apperrors.CodeSendFailed
	CodeMediaUnavailable    = apperrors.CodeMediaUnavailable

	// 会话相关 21000-21999
	CodeChatNotFound  = apperrors.CodeChatNotFound
	CodeInvalidParams = apperrors.CodeInvalidParams

	// 线索相关 22000-22999
	CodeNoPipelineStage = apperrors.CodeNoPipelineStage
	CodeAmbiguousPhone  = apperrors.CodeAmbiguousPhone

	// 系统错误 50000-50999
	CodeServerError = apperrors.CodeServerError
	CodeDBError     = apperrors.CodeDBError
)

var codeMessages = map[int]string{
	CodeSuccess:             "success",
	CodeUnauthorized:        "Não autorizado",
	CodeGatewayError:        "Falha ao comunicar com o gateway",
	CodeGatewayDisconnected: "WhatsApp desconectado",
	CodeSendFailed:          "Falha ao enviar mensagem",
	CodeMediaUnavailable:    "Mídia indisponível",
	CodeChatNotFound:        "Conversa não encontrada",
	CodeInvalidParams:       "Parâmetros inválidos",
	CodeNoPipelineStage:     "Nenhuma fase de pipeline encontrada",
	CodeAmbiguousPhone:      "Telefone ambíguo, requer revisão manual",
	CodeServerError:         "Erro interno do servidor",
	CodeDBError:             "Erro de banco de dados",
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    CodeSuccess,
		Message: "success",
		Data:    data,
	})
}

// Error 错误响应
func Error(c *gin.Context, code int) {
	message := codeMessages[code]
	if message == "" {
		message = "unknown error"
	}
	c.JSON(http.StatusOK, Response{
		Code:    code,
		Message: message,
		Data:    nil,
	})
}

// ErrorWithMsg 自定义错误消息
func ErrorWithMsg(c *gin.Context, code int, message string) {
	c.JSON(http.StatusOK, Response{
		Code:    code,
		Message: message,
		Data:    nil,
	})
}

// ErrorFromAppError 从 AppError 生成错误响应
func ErrorFromAppError(c *gin.Context, err error) {
	code := apperrors.GetCode(err)
	message := apperrors.GetMessage(err)
	c.JSON(http.StatusOK, Response{
		Code:    code,
		Message: message,
		Data:    nil,
	})
}

// Unauthorized 未认证
func Unauthorized(c *gin.Context) {
	c.JSON(http.StatusUnauthorized, Response{
		Code:    CodeUnauthorized,
		Message: codeMessages[CodeUnauthorized],
		Data:    nil,
	})
}
