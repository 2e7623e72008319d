package model

import (
	"time"

	"gorm.io/datatypes"
)

// ImportLog 每次成功导入落一条审计记录
// swagger:model ImportLog
type ImportLog struct {
	BaseModel
	BatchID          string         `gorm:"size:36;uniqueIndex;not null" json:"batchId"`
	ImportedAt       time.Time      `gorm:"index;not null" json:"importedAt"`
	Kind             string         `gorm:"size:20;not null" json:"kind"` // reading, listening
	Summary          datatypes.JSON `gorm:"type:json" json:"summary"`
	AffectedPaperIDs datatypes.JSON `gorm:"type:json" json:"affectedPaperIds"`
	UserID           uint           `gorm:"index" json:"userId"`
}

func (ImportLog) TableName() string {
	return "import_logs"
}
