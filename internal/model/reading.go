package model

import "gorm.io/datatypes"

// ReadingPaper 一套完整阅读试卷，标题全库唯一
// swagger:model ReadingPaper
type ReadingPaper struct {
	BaseModel
	Title     string `gorm:"size:255;uniqueIndex;not null" json:"title"`
	Type      string `gorm:"size:20;not null" json:"type"` // academic, general
	Status    string `gorm:"size:20;default:'draft'" json:"status"`
	CreatedBy uint   `gorm:"index" json:"createdBy"`
	UpdatedBy uint   `json:"updatedBy"`

	Passages []ReadingPassage `gorm:"constraint:OnDelete:CASCADE" json:"passages,omitempty"`
}

func (ReadingPaper) TableName() string {
	return "reading_papers"
}

// swagger:model ReadingPassage
type ReadingPassage struct {
	BaseModel
	PaperID            uint   `gorm:"index;not null" json:"paperId"`
	PassageNumber      int    `gorm:"not null" json:"passageNumber"`
	Title              string `gorm:"size:255" json:"title"`
	Body               string `gorm:"type:longtext" json:"body"`
	SectionInstruction string `gorm:"type:text" json:"sectionInstruction"`
	Status             string `gorm:"size:20;default:'draft'" json:"status"`

	Questions []ReadingQuestion `gorm:"constraint:OnDelete:CASCADE" json:"questions,omitempty"`
}

func (ReadingPassage) TableName() string {
	return "reading_passages"
}

// swagger:model ReadingQuestion
type ReadingQuestion struct {
	BaseModel
	PaperID        uint           `gorm:"index;not null" json:"paperId"`
	PassageID      uint           `gorm:"index;not null" json:"passageId"`
	QuestionNumber int            `gorm:"not null" json:"questionNumber"`
	QuestionType   string         `gorm:"size:50;not null" json:"questionType"`
	Text           string         `gorm:"type:text;not null" json:"text"`
	Instruction    string         `gorm:"type:text" json:"instruction"`
	Answer         string         `gorm:"type:text" json:"answer"` // 标量原文或 JSON 数组字面量，入库前已定型
	Options        datatypes.JSON `gorm:"type:json" json:"options"`
	Status         string         `gorm:"size:20;default:'draft'" json:"status"`
}

func (ReadingQuestion) TableName() string {
	return "reading_questions"
}
