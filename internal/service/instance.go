package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "sudooom.clinic.sync/internal/errors"
	"sudooom.clinic.sync/internal/gateway"
)

// stateCacheTTL 连接状态探测结果的缓存时长
const stateCacheTTL = 10 * time.Second

// InstanceService 实例连接生命周期
//
// 连接状态带短缓存，避免每个请求都打到网关。断连只作为状态指示
// 对外暴露，不清除任何已有会话数据。
type InstanceService struct {
	gw           *gateway.Client
	redisClient  *redis.Client
	instanceName string
	logger       *slog.Logger
}

// NewInstanceService 创建实例服务
func NewInstanceService(gw *gateway.Client, redisClient *redis.Client, instanceName string) *InstanceService {
	return &InstanceService{
		gw:           gw,
		redisClient:  redisClient,
		instanceName: instanceName,
		logger:       slog.Default(),
	}
}

func (s *InstanceService) stateKey() string {
	return "clinic:gateway:state:" + s.instanceName
}

// Status 查询连接状态，返回 connected / disconnected
func (s *InstanceService) Status(ctx context.Context) (string, error) {
	if cached, err := s.redisClient.Get(ctx, s.stateKey()).Result(); err == nil && cached != "" {
		return cached, nil
	}

	state, err := s.gw.ConnectionState(ctx, s.instanceName)
	if err != nil {
		// 探测失败按断连处理，不向上抛错
		s.logger.Warn("Connection state probe failed", "error", err)
		return "disconnected", nil
	}

	status := "disconnected"
	if state == gateway.StateOpen {
		status = "connected"
	}

	if err := s.redisClient.Set(ctx, s.stateKey(), status, stateCacheTTL).Err(); err != nil {
		s.logger.Debug("State cache write failed", "error", err)
	}
	return status, nil
}

// Connect 创建或连接实例，返回配对二维码
func (s *InstanceService) Connect(ctx context.Context) (*gateway.InstancePayload, error) {
	payload, err := s.gw.CreateInstance(ctx, s.instanceName)
	if err != nil {
		return nil, apperrors.ErrGatewayError.Wrap(err)
	}

	// 状态缓存立即失效，下次查询走真实探测
	if err := s.redisClient.Del(ctx, s.stateKey()).Err(); err != nil {
		s.logger.Debug("State cache invalidation failed", "error", err)
	}
	return payload, nil
}

// Disconnect 删除网关实例
func (s *InstanceService) Disconnect(ctx context.Context) error {
	if err := s.gw.DeleteInstance(ctx, s.instanceName); err != nil {
		return apperrors.ErrGatewayError.Wrap(err)
	}

	if err := s.redisClient.Del(ctx, s.stateKey()).Err(); err != nil {
		s.logger.Debug("State cache invalidation failed", "error", err)
	}
	return nil
}
