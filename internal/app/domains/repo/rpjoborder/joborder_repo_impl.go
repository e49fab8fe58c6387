package rpjoborder

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"jobsvc/internal/app/domains/entity/etjoborder"
	"jobsvc/internal/common/entity"
)

// JobOrderRepositoryImpl 任务单仓储实现（MySQL）
type JobOrderRepositoryImpl struct {
	db *gorm.DB
}

// NewJobOrderRepository 创建任务单仓储实例
func NewJobOrderRepository(db *gorm.DB) JobOrderRepository {
	return &JobOrderRepositoryImpl{db: db}
}

// AutoMigrate 建表（仅开发环境使用）
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&entity.JobOrder{})
}

// Create 分配 UUID 后落库
func (r *JobOrderRepositoryImpl) Create(ctx context.Context, order *etjoborder.JobOrder) (*etjoborder.JobOrder, error) {
	stored := order.Clone()
	stored.ID = uuid.New().String()
	now := time.Now().UTC()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now

	po, err := toGormModel(stored)
	if err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Create(po).Error; err != nil {
		return nil, err
	}
	return stored, nil
}

// Find 根据 ID 查询
func (r *JobOrderRepositoryImpl) Find(ctx context.Context, id string) (*etjoborder.JobOrder, error) {
	return r.find(r.db.WithContext(ctx), id)
}

func (r *JobOrderRepositoryImpl) find(tx *gorm.DB, id string) (*etjoborder.JobOrder, error) {
	var po entity.JobOrder
	if err := tx.Where("id = ?", id).First(&po).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return toDomainModel(&po)
}

// SetStatus 以 status 作为条件更新，影响行数为 0 说明状态已被并发修改
func (r *JobOrderRepositoryImpl) SetStatus(ctx context.Context, id string, from, to etjoborder.JobStatus, runs ...etjoborder.JobRun) (*etjoborder.JobOrder, error) {
	if err := validateRuns(runs); err != nil {
		return nil, err
	}

	var updated *etjoborder.JobOrder
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := r.find(tx, id)
		if err != nil {
			return err
		}
		if current.Status != from {
			return ErrStatusConflict
		}

		updates := map[string]interface{}{
			"status":     string(to),
			"updated_at": time.Now().UTC(),
		}
		if len(runs) > 0 {
			current.Runs = append(current.Runs, runs...)
			runsJSON, err := json.Marshal(current.Runs)
			if err != nil {
				return err
			}
			updates["runs"] = runsJSON
		}

		result := tx.Model(&entity.JobOrder{}).
			Where("id = ? AND status = ?", id, string(from)).
			Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrStatusConflict
		}

		updated, err = r.find(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete 删除任务单
func (r *JobOrderRepositoryImpl) Delete(ctx context.Context, id string) (bool, error) {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&entity.JobOrder{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// List 分页查询任务单列表
func (r *JobOrderRepositoryImpl) List(ctx context.Context, filter ListFilter) ([]*etjoborder.JobOrder, int64, error) {
	var total int64
	var pos []entity.JobOrder

	query := r.db.WithContext(ctx).Model(&entity.JobOrder{})
	if filter.Status != "" {
		query = query.Where("status = ?", string(filter.Status))
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order("created_at DESC")
	if filter.Pagination.Limit > 0 {
		query = query.Offset(filter.Pagination.Offset()).Limit(filter.Pagination.Limit)
	}
	if err := query.Find(&pos).Error; err != nil {
		return nil, 0, err
	}

	orders, err := toDomainModels(pos)
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// ListExpired 使用 idx_status_expires 索引扫描过期的 pending 任务单
func (r *JobOrderRepositoryImpl) ListExpired(ctx context.Context, asOf time.Time, limit int) ([]*etjoborder.JobOrder, error) {
	var pos []entity.JobOrder
	query := r.db.WithContext(ctx).
		Where("status = ? AND expires_at IS NOT NULL AND expires_at <= ?", string(etjoborder.JobStatusPending), asOf.UTC()).
		Order("expires_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&pos).Error; err != nil {
		return nil, err
	}
	return toDomainModels(pos)
}

func toDomainModels(pos []entity.JobOrder) ([]*etjoborder.JobOrder, error) {
	orders := make([]*etjoborder.JobOrder, 0, len(pos))
	for i := range pos {
		order, err := toDomainModel(&pos[i])
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, nil
}

// toGormModel 领域对象转换为 GORM 模型
func toGormModel(order *etjoborder.JobOrder) (*entity.JobOrder, error) {
	payloadJSON, err := json.Marshal(order.Payload)
	if err != nil {
		return nil, err
	}
	paramsJSON, err := json.Marshal(order.Params)
	if err != nil {
		return nil, err
	}
	runs := order.Runs
	if runs == nil {
		runs = []etjoborder.JobRun{}
	}
	runsJSON, err := json.Marshal(runs)
	if err != nil {
		return nil, err
	}

	return &entity.JobOrder{
		ID:        order.ID,
		Type:      order.Type,
		Payload:   payloadJSON,
		Params:    paramsJSON,
		Runs:      runsJSON,
		Status:    string(order.Status),
		ExpiresAt: order.Params.ExpiresAt,
		CreatedAt: order.CreatedAt,
		UpdatedAt: order.UpdatedAt,
	}, nil
}

// toDomainModel GORM 模型转换为领域对象
func toDomainModel(po *entity.JobOrder) (*etjoborder.JobOrder, error) {
	order := &etjoborder.JobOrder{
		ID:        po.ID,
		Type:      po.Type,
		Status:    etjoborder.JobStatus(po.Status),
		Runs:      []etjoborder.JobRun{},
		CreatedAt: po.CreatedAt,
		UpdatedAt: po.UpdatedAt,
	}
	if len(po.Payload) > 0 {
		if err := json.Unmarshal(po.Payload, &order.Payload); err != nil {
			return nil, err
		}
	}
	if order.Payload == nil {
		order.Payload = map[string]interface{}{}
	}
	if len(po.Params) > 0 {
		if err := json.Unmarshal(po.Params, &order.Params); err != nil {
			return nil, err
		}
	}
	if len(po.Runs) > 0 {
		if err := json.Unmarshal(po.Runs, &order.Runs); err != nil {
			return nil, err
		}
	}
	return order, nil
}
