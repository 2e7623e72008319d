package model

import "gorm.io/datatypes"

// ListeningTest 听力试卷，结构与阅读平行（passage -> section），
// 另带音频对象信息
// swagger:model ListeningTest
type ListeningTest struct {
	BaseModel
	Title         string  `gorm:"size:255;uniqueIndex;not null" json:"title"`
	Type          string  `gorm:"size:20;not null" json:"type"`
	Status        string  `gorm:"size:20;default:'draft'" json:"status"`
	AudioURL      string  `gorm:"size:512" json:"audioUrl"`
	AudioDuration float64 `json:"audioDuration"` // 秒，ffprobe 探测
	CreatedBy     uint    `gorm:"index" json:"createdBy"`
	UpdatedBy     uint    `json:"updatedBy"`

	Sections []ListeningSection `gorm:"constraint:OnDelete:CASCADE" json:"sections,omitempty"`
}

func (ListeningTest) TableName() string {
	return "listening_tests"
}

// swagger:model ListeningSection
type ListeningSection struct {
	BaseModel
	TestID             uint   `gorm:"index;not null" json:"testId"`
	SectionNumber      int    `gorm:"not null" json:"sectionNumber"`
	Title              string `gorm:"size:255" json:"title"`
	Transcript         string `gorm:"type:longtext" json:"transcript"`
	SectionInstruction string `gorm:"type:text" json:"sectionInstruction"`
	Status             string `gorm:"size:20;default:'draft'" json:"status"`

	Questions []ListeningQuestion `gorm:"constraint:OnDelete:CASCADE" json:"questions,omitempty"`
}

func (ListeningSection) TableName() string {
	return "listening_sections"
}

// swagger:model ListeningQuestion
type ListeningQuestion struct {
	BaseModel
	TestID         uint           `gorm:"index;not null" json:"testId"`
	SectionID      uint           `gorm:"index;not null" json:"sectionId"`
	QuestionNumber int            `gorm:"not null" json:"questionNumber"`
	QuestionType   string         `gorm:"size:50;not null" json:"questionType"`
	Text           string         `gorm:"type:text;not null" json:"text"`
	Instruction    string         `gorm:"type:text" json:"instruction"`
	Answer         string         `gorm:"type:text" json:"answer"`
	Options        datatypes.JSON `gorm:"type:json" json:"options"`
	Status         string         `gorm:"size:20;default:'draft'" json:"status"`
}

func (ListeningQuestion) TableName() string {
	return "listening_questions"
}
