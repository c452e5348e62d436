package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrInstanceNotFound = errors.New("instance not found")

// InstanceRepository 网关实例数据访问
type InstanceRepository struct {
	db *pgxpool.Pool
}

// NewInstanceRepository 创建实例仓库
func NewInstanceRepository(db *pgxpool.Pool) *InstanceRepository {
	return &InstanceRepository{db: db}
}

// Ensure 确保实例行存在，返回内部 UUID
// 会话/消息表通过该 UUID 关联，而不是实例名
func (r *InstanceRepository) Ensure(ctx context.Context, clinicID, instanceName string) (string, error) {
	query := `
		INSERT INTO whatsapp_instances (clinica_id, name, instance_id, status)
		VALUES ($1, $2, $2, 'connected')
		ON CONFLICT (instance_id)
		DO UPDATE SET status = EXCLUDED.status
		RETURNING id
	`

	var id string
	err := r.db.QueryRow(ctx, query, clinicID, instanceName).Scan(&id)
	return id, err
}

// FindByName 按实例名查找内部 UUID
func (r *InstanceRepository) FindByName(ctx context.Context, instanceName string) (string, error) {
	query := `SELECT id FROM whatsapp_instances WHERE instance_id = $1`

	var id string
	err := r.db.QueryRow(ctx, query, instanceName).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrInstanceNotFound
	}
	return id, err
}

// UpdateStatus 更新实例连接状态
func (r *InstanceRepository) UpdateStatus(ctx context.Context, instanceID, status string) error {
	query := `UPDATE whatsapp_instances SET status = $2 WHERE id = $1`
	_, err := r.db.Exec(ctx, query, instanceID, status)
	return err
}
