package importer

import "encoding/json"

// Paper 导入会话中的内存草稿，解析/AI产出/人工编辑共用同一结构，
// 校验通过后整体交给持久化层。
type Paper struct {
	Title    string    `json:"title"`
	Type     string    `json:"type"` // academic | general
	Status   string    `json:"status"`
	Passages []Passage `json:"passages"`
}

type Passage struct {
	PassageNumber      int        `json:"passage_number"`
	Title              string     `json:"title"`
	Body               string     `json:"body,omitempty"`
	SectionInstruction string     `json:"section_instruction,omitempty"`
	Questions          []Question `json:"questions"`
}

type Question struct {
	QuestionNumber int      `json:"question_number"`
	QuestionType   string   `json:"question_type"`
	QuestionText   string   `json:"question_text"`
	Instruction    string   `json:"instruction,omitempty"`
	Options        []string `json:"options,omitempty"`
	CorrectAnswer  Answer   `json:"correct_answer"`
	Status         string   `json:"status,omitempty"`
}

// ListeningTest 听力草稿，结构与阅读平行（passage -> section）
type ListeningTest struct {
	Title    string    `json:"title"`
	Type     string    `json:"type"`
	Status   string    `json:"status"`
	Sections []Section `json:"sections"`
}

type Section struct {
	SectionNumber      int        `json:"section_number"`
	Title              string     `json:"title"`
	Transcript         string     `json:"transcript,omitempty"`
	SectionInstruction string     `json:"section_instruction,omitempty"`
	Questions          []Question `json:"questions"`
}

// UnmarshalJSON 兼容旧字段别名：text -> question_text, answer -> correct_answer
func (q *Question) UnmarshalJSON(data []byte) error {
	type alias Question
	aux := struct {
		*alias
		LegacyText   string          `json:"text"`
		LegacyAnswer json.RawMessage `json:"answer"`
	}{alias: (*alias)(q)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if q.QuestionText == "" && aux.LegacyText != "" {
		q.QuestionText = aux.LegacyText
	}
	if q.CorrectAnswer.IsEmpty() && len(aux.LegacyAnswer) > 0 {
		var a Answer
		if err := json.Unmarshal(aux.LegacyAnswer, &a); err != nil {
			return err
		}
		q.CorrectAnswer = a
	}
	return nil
}
