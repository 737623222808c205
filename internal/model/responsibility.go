package model

// Responsibility 职责表，对应 responsibilities
type Responsibility struct {
	ResponsibilityID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"responsibility_id"`
	Name             string `gorm:"type:varchar(200);not null"                     json:"name"`
	Category         string `gorm:"type:varchar(100)"                              json:"category,omitempty"`
	Description      string `gorm:"type:varchar(1000)"                             json:"description,omitempty"`
	IsActive         bool   `gorm:"not null;default:true"                          json:"is_active"`
	VersionedModel
}

// TableName 指定表名
func (Responsibility) TableName() string { return "responsibilities" }
