package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"

	"sudooom.clinic.sync/internal/gateway"
)

// Status 健康状态
type Status struct {
	Gateway  string `json:"gateway"`
	NATS     string `json:"nats"`
	Redis    string `json:"redis"`
	Database string `json:"database"`
}

// Checker 健康检查器
type Checker struct {
	gw           *gateway.Client
	instanceName string
	nc           *nats.Conn
	redisClient  *redis.Client
	db           *pgxpool.Pool
}

// NewChecker 创建健康检查器
func NewChecker(gw *gateway.Client, instanceName string, nc *nats.Conn,
	redisClient *redis.Client, db *pgxpool.Pool) *Checker {
	return &Checker{
		gw:           gw,
		instanceName: instanceName,
		nc:           nc,
		redisClient:  redisClient,
		db:           db,
	}
}

// Check 执行健康检查
func (h *Checker) Check(ctx context.Context) *Status {
	status := &Status{}

	// 检查网关
	gwCtx, gwCancel := context.WithTimeout(ctx, 3*time.Second)
	defer gwCancel()

	state, err := h.gw.ConnectionState(gwCtx, h.instanceName)
	switch {
	case err != nil:
		status.Gateway = "unreachable"
	case state == gateway.StateOpen:
		status.Gateway = "connected"
	default:
		status.Gateway = "disconnected"
	}

	// 检查 NATS
	if h.nc.IsConnected() {
		status.NATS = "connected"
	} else {
		status.NATS = "disconnected"
	}

	// 检查 Redis
	redisCtx, redisCancel := context.WithTimeout(ctx, 2*time.Second)
	defer redisCancel()

	if err := h.redisClient.Ping(redisCtx).Err(); err == nil {
		status.Redis = "connected"
	} else {
		status.Redis = "disconnected"
	}

	// 检查 PostgreSQL
	dbCtx, dbCancel := context.WithTimeout(ctx, 2*time.Second)
	defer dbCancel()

	if err := h.db.Ping(dbCtx); err == nil {
		status.Database = "connected"
	} else {
		status.Database = "disconnected"
	}

	return status
}

// IsHealthy 检查是否健康
// 网关断连是正常运行状态（作为连接指示对外暴露），不影响就绪判断
func (h *Checker) IsHealthy(ctx context.Context) bool {
	return h.Check(ctx).healthy()
}

func (s *Status) healthy() bool {
	return s.NATS == "connected" &&
		s.Redis == "connected" &&
		s.Database == "connected"
}

// ServeHTTP HTTP 健康检查端点
func (h *Checker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	status := h.Check(r.Context())

	w.Header().Set("Content-Type", "application/json")
	if status.healthy() {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(status)
}
