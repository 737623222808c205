package model

// Job 岗位表，对应 jobs
type Job struct {
	JobID       string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"job_id"`
	Code        string `gorm:"type:varchar(50);not null"                      json:"code"`
	Title       string `gorm:"type:varchar(200);not null"                     json:"title"`
	Department  string `gorm:"type:varchar(100)"                              json:"department,omitempty"`
	Description string `gorm:"type:varchar(1000)"                             json:"description,omitempty"`
	IsActive    bool   `gorm:"not null;default:true"                          json:"is_active"`
	VersionedModel
}

// TableName 指定表名
func (Job) TableName() string { return "jobs" }
