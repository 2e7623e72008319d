package importer

import (
	"fmt"
	"strings"
)

// ValidationError 带坐标的结构校验错误，直接展示给运营人员
type ValidationError struct {
	PassageNumber  int    `json:"passage_number,omitempty"`
	QuestionNumber int    `json:"question_number,omitempty"`
	Field          string `json:"field,omitempty"`
	Message        string `json:"message"`
}

func (e ValidationError) Error() string {
	var b strings.Builder
	if e.PassageNumber > 0 {
		fmt.Fprintf(&b, "passage %d: ", e.PassageNumber)
	}
	if e.QuestionNumber > 0 {
		fmt.Fprintf(&b, "question %d: ", e.QuestionNumber)
	}
	b.WriteString(e.Message)
	return b.String()
}

// Validate 对整卷草稿做纯数据校验，不触网。返回空列表即通过，
// 任何错误都会阻断后续入库。
func Validate(paper *Paper) []ValidationError {
	var errs []ValidationError

	if strings.TrimSpace(paper.Title) == "" {
		errs = append(errs, ValidationError{Field: "title", Message: "paper title is required"})
	}
	if strings.TrimSpace(paper.Type) == "" {
		errs = append(errs, ValidationError{Field: "type", Message: "paper type is required (academic or general)"})
	}
	if len(paper.Passages) == 0 {
		errs = append(errs, ValidationError{Field: "passages", Message: "paper must contain at least one passage"})
		return errs
	}

	seenPassages := map[int]bool{}
	for _, p := range paper.Passages {
		if p.PassageNumber <= 0 {
			errs = append(errs, ValidationError{
				PassageNumber: p.PassageNumber,
				Field:         "passage_number",
				Message:       "passage_number must be a positive integer",
			})
		} else if seenPassages[p.PassageNumber] {
			errs = append(errs, ValidationError{
				PassageNumber: p.PassageNumber,
				Field:         "passage_number",
				Message:       fmt.Sprintf("duplicate passage_number %d", p.PassageNumber),
			})
		}
		seenPassages[p.PassageNumber] = true

		errs = append(errs, validatePassage(p)...)
	}
	return errs
}

// ValidateListening 听力草稿走同一套规则，坐标换成 section
func ValidateListening(test *ListeningTest) []ValidationError {
	paper := &Paper{Title: test.Title, Type: test.Type, Status: test.Status}
	for _, s := range test.Sections {
		paper.Passages = append(paper.Passages, Passage{
			PassageNumber:      s.SectionNumber,
			Title:              s.Title,
			Body:               s.Transcript,
			SectionInstruction: s.SectionInstruction,
			Questions:          s.Questions,
		})
	}
	return Validate(paper)
}

func validatePassage(p Passage) []ValidationError {
	var errs []ValidationError

	if len(p.Questions) == 0 {
		errs = append(errs, ValidationError{
			PassageNumber: p.PassageNumber,
			Field:         "questions",
			Message:       "passage must contain at least one question",
		})
		return errs
	}

	seen := map[int]bool{}
	for _, q := range p.Questions {
		if q.QuestionNumber <= 0 {
			errs = append(errs, ValidationError{
				PassageNumber:  p.PassageNumber,
				QuestionNumber: q.QuestionNumber,
				Field:          "question_number",
				Message:        "question_number must be a positive integer",
			})
		} else if seen[q.QuestionNumber] {
			errs = append(errs, ValidationError{
				PassageNumber:  p.PassageNumber,
				QuestionNumber: q.QuestionNumber,
				Field:          "question_number",
				Message:        fmt.Sprintf("duplicate question_number %d", q.QuestionNumber),
			})
		}
		seen[q.QuestionNumber] = true

		errs = append(errs, validateQuestion(p.PassageNumber, q)...)
	}
	return errs
}

func validateQuestion(passageNum int, q Question) []ValidationError {
	var errs []ValidationError

	coord := func(field, msg string) ValidationError {
		return ValidationError{
			PassageNumber:  passageNum,
			QuestionNumber: q.QuestionNumber,
			Field:          field,
			Message:        msg,
		}
	}

	qt, known := ResolveType(q.QuestionType)
	switch {
	case strings.TrimSpace(q.QuestionType) == "":
		errs = append(errs, coord("question_type", "question_type is required"))
	case !known:
		if note := RetiredTypeNote(q.QuestionType); note != "" {
			errs = append(errs, coord("question_type",
				fmt.Sprintf("question_type %q is retired (%s)", q.QuestionType, note)))
		} else if suggestion, _ := SuggestType(q.QuestionType); suggestion != "" {
			errs = append(errs, coord("question_type",
				fmt.Sprintf("unknown question_type %q, did you mean %q?", q.QuestionType, suggestion)))
		} else {
			errs = append(errs, coord("question_type",
				fmt.Sprintf("unknown question_type %q", q.QuestionType)))
		}
	}

	// 基础必填项对所有题型生效，题型未识别时也照常检查
	if strings.TrimSpace(q.QuestionText) == "" {
		errs = append(errs, coord("question_text", "question_text is required"))
	}
	if q.CorrectAnswer.IsEmpty() {
		errs = append(errs, coord("correct_answer", "correct_answer is required"))
	}

	if known && RequiresOptions(qt) {
		if len(q.Options) == 0 {
			errs = append(errs, coord("options",
				fmt.Sprintf("options must be non-empty for question_type %q", string(qt))))
		}
	}
	return errs
}
