package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"sudooom.clinic.sync/internal/model"
)

var ErrNoPipelineStage = errors.New("no pipeline stage configured")

// LeadRepository 线索数据访问
type LeadRepository struct {
	db *pgxpool.Pool
}

// NewLeadRepository 创建线索仓库
func NewLeadRepository(db *pgxpool.Pool) *LeadRepository {
	return &LeadRepository{db: db}
}

// ListPhones 读取诊所全部线索的电话号码
func (r *LeadRepository) ListPhones(ctx context.Context, clinicID string) ([]string, error) {
	query := `SELECT telefone FROM leads WHERE clinica_id = $1`

	rows, err := r.db.Query(ctx, query, clinicID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var phones []string
	for rows.Next() {
		var phone string
		if err := rows.Scan(&phone); err != nil {
			return nil, err
		}
		phones = append(phones, phone)
	}
	return phones, rows.Err()
}

// DefaultStageID 取排序最靠前的漏斗阶段，新导入的线索落在这里
func (r *LeadRepository) DefaultStageID(ctx context.Context, clinicID string) (string, error) {
	query := `
		SELECT id FROM pipeline_stages
		WHERE clinica_id = $1
		ORDER BY ordem ASC
		LIMIT 1
	`

	var id string
	err := r.db.QueryRow(ctx, query, clinicID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNoPipelineStage
	}
	return id, err
}

// InsertLeads 批量插入新线索
func (r *LeadRepository) InsertLeads(ctx context.Context, leads []model.Lead) error {
	if len(leads) == 0 {
		return nil
	}

	query := `
		INSERT INTO leads (clinica_id, nome, telefone, stage_id, status, origem)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	batch := &pgx.Batch{}
	for _, lead := range leads {
		batch.Queue(query, lead.ClinicID, lead.Name, lead.Phone, lead.StageID, lead.Status, lead.Source)
	}

	results := r.db.SendBatch(ctx, batch)
	defer results.Close()

	for range leads {
		if _, err := results.Exec(); err != nil {
			return err
		}
	}
	return nil
}
