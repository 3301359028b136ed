package service

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/supertrooper/backend/internal/model"
)

type AuditService struct {
	db *gorm.DB
}

func NewAuditService(db *gorm.DB) *AuditService {
	return &AuditService{db: db}
}

func (s *AuditService) Record(ctx context.Context, log *model.OperationLog) error {
	return s.db.WithContext(ctx).Create(log).Error
}

type AuditFilter struct {
	UserID       *uint
	Action       string
	ResourceType string
	StartTime    *time.Time
	EndTime      *time.Time
}

func (s *AuditService) List(ctx context.Context, f AuditFilter, page, pageSize int) ([]model.OperationLog, int64, error) {
	query := s.db.WithContext(ctx).Model(&model.OperationLog{})
	if f.UserID != nil {
		query = query.Where("user_id = ?", *f.UserID)
	}
	if f.Action != "" {
		query = query.Where("action = ?", f.Action)
	}
	if f.ResourceType != "" {
		query = query.Where("resource_type = ?", f.ResourceType)
	}
	if f.StartTime != nil {
		query = query.Where("created_at >= ?", *f.StartTime)
	}
	if f.EndTime != nil {
		query = query.Where("created_at <= ?", *f.EndTime)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var logs []model.OperationLog
	if err := query.Order("id desc").Offset((page - 1) * pageSize).Limit(pageSize).Find(&logs).Error; err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}

// Stats feeds the metrics gauges.
type Stats struct {
	ProjectsByStatus map[model.ProjectStatus]int64
	UsersByRole      map[model.Role]int64
}

func (s *AuditService) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{
		ProjectsByStatus: map[model.ProjectStatus]int64{},
		UsersByRole:      map[model.Role]int64{},
	}
	var projectRows []struct {
		Status model.ProjectStatus
		Count  int64
	}
	if err := s.db.WithContext(ctx).Model(&model.Project{}).
		Select("status, count(*) as count").Group("status").Scan(&projectRows).Error; err != nil {
		return nil, err
	}
	for _, r := range projectRows {
		stats.ProjectsByStatus[r.Status] = r.Count
	}

	var userRows []struct {
		Role  model.Role
		Count int64
	}
	if err := s.db.WithContext(ctx).Model(&model.User{}).
		Select("role, count(*) as count").Group("role").Scan(&userRows).Error; err != nil {
		return nil, err
	}
	for _, r := range userRows {
		stats.UsersByRole[r.Role] = r.Count
	}
	return stats, nil
}
