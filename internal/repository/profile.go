package repository

import (
	"errors"
	"time"

	"github.com/user/aniview/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProfileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// RoleOf 解析用户角色。没有资料记录时按普通用户处理，不报错
func (r *ProfileRepository) RoleOf(userID int) (string, error) {
	var profile model.Profile
	err := r.db.Where("user_id = ?", userID).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.RoleUser, nil
	}
	if err != nil {
		return "", err
	}
	if profile.Role == "" {
		return model.RoleUser, nil
	}
	return profile.Role, nil
}

// SetRole 设置用户角色（不存在则创建资料记录）
func (r *ProfileRepository) SetRole(userID int, role string) error {
	profile := &model.Profile{
		UserID:    userID,
		Role:      role,
		UpdatedAt: time.Now(),
	}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"role", "updated_at"}),
	}).Create(profile).Error
}
