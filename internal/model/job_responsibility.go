package model

import (
	"time"

	"compliance-hub/backend/internal/weighting"
)

// JobResponsibility 岗位职责分配表，对应 job_responsibilities
// 创建后不再修改，只能按 ID 删除
type JobResponsibility struct {
	AssignmentID     string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"assignment_id"`
	JobID            string     `gorm:"type:uuid;not null"                             json:"job_id"`
	ResponsibilityID string     `gorm:"type:uuid;not null"                             json:"responsibility_id"`
	Weighting        int        `gorm:"type:smallint;not null"                         json:"weighting"` // 1-100
	StartDate        time.Time  `gorm:"type:date;not null"                             json:"start_date"`
	EndDate          *time.Time `gorm:"type:date"                                      json:"end_date,omitempty"` // nil = 长期有效
	CreatedAt        time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
	CreatedBy        *string    `gorm:"type:uuid"                                      json:"created_by,omitempty"`

	// 关联
	Responsibility *Responsibility `gorm:"foreignKey:ResponsibilityID;references:ResponsibilityID" json:"responsibility,omitempty"`
}

// TableName 指定表名
func (JobResponsibility) TableName() string { return "job_responsibilities" }

// Entry 转换为权重校验使用的记录
func (a *JobResponsibility) Entry() weighting.Entry {
	return weighting.Entry{
		ResponsibilityID: a.ResponsibilityID,
		Weight:           a.Weighting,
		StartDate:        weighting.Day(a.StartDate),
		EndDate:          a.EndDate,
	}
}

// Entries 批量转换
func Entries(assignments []JobResponsibility) []weighting.Entry {
	entries := make([]weighting.Entry, 0, len(assignments))
	for i := range assignments {
		entries = append(entries, assignments[i].Entry())
	}
	return entries
}
