package handler

import (
	"github.com/gin-gonic/gin"

	"sudooom.clinic.sync/internal/service"
	"sudooom.clinic.sync/pkg/response"
)

// InstanceHandler 实例处理器
type InstanceHandler struct {
	instanceService *service.InstanceService
}

// NewInstanceHandler 创建实例处理器
func NewInstanceHandler(instanceService *service.InstanceService) *InstanceHandler {
	return &InstanceHandler{instanceService: instanceService}
}

// Status 查询连接状态
// GET /api/v1/instance/status
func (h *InstanceHandler) Status(c *gin.Context) {
	status, err := h.instanceService.Status(c.Request.Context())
	if err != nil {
		response.ErrorFromAppError(c, err)
		return
	}
	response.Success(c, gin.H{"status": status})
}

// Connect 创建/连接实例并返回配对二维码
// POST /api/v1/instance/connect
func (h *InstanceHandler) Connect(c *gin.Context) {
	payload, err := h.instanceService.Connect(c.Request.Context())
	if err != nil {
		response.ErrorFromAppError(c, err)
		return
	}

	data := gin.H{"instance_name": payload.Instance.InstanceName}
	if payload.QRCode != nil {
		data["qrcode"] = gin.H{
			"base64":       payload.QRCode.Base64,
			"code":         payload.QRCode.Code,
			"pairing_code": payload.QRCode.PairingCode,
		}
	}
	response.Success(c, data)
}

// Disconnect 删除实例
// DELETE /api/v1/instance
func (h *InstanceHandler) Disconnect(c *gin.Context) {
	if err := h.instanceService.Disconnect(c.Request.Context()); err != nil {
		response.ErrorFromAppError(c, err)
		return
	}
	response.Success(c, nil)
}
