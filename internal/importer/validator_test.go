package importer

import (
	"strings"
	"testing"
)

func validDraft() *Paper {
	return &Paper{
		Title: "Cambridge 18 Test 1",
		Type:  "academic",
		Passages: []Passage{
			{
				PassageNumber: 1,
				Title:         "Ocean Life",
				Body:          "The ocean covers most of the planet.",
				Questions: []Question{
					{
						QuestionNumber: 1,
						QuestionType:   string(TrueFalseNotGiven),
						QuestionText:   "The ocean is mostly unexplored.",
						CorrectAnswer:  ScalarAnswer("True"),
					},
					{
						QuestionNumber: 2,
						QuestionType:   string(MultipleChoice),
						QuestionText:   "What does the passage mainly discuss?",
						Options:        []string{"A", "B", "C", "D"},
						CorrectAnswer:  ScalarAnswer("B"),
					},
				},
			},
		},
	}
}

func hasError(errs []ValidationError, field, substr string) bool {
	for _, e := range errs {
		if e.Field == field && strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}

func TestValidateAcceptsValidDraft(t *testing.T) {
	if errs := Validate(validDraft()); len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
}

func TestValidateRequiredPaperFields(t *testing.T) {
	draft := validDraft()
	draft.Title = "  "
	draft.Type = ""

	errs := Validate(draft)
	if !hasError(errs, "title", "required") {
		t.Errorf("missing title error, got %v", errs)
	}
	if !hasError(errs, "type", "required") {
		t.Errorf("missing type error, got %v", errs)
	}
}

func TestValidateEmptyPassages(t *testing.T) {
	draft := validDraft()
	draft.Passages = nil

	errs := Validate(draft)
	if !hasError(errs, "passages", "at least one passage") {
		t.Fatalf("got %v", errs)
	}
}

func TestValidateDuplicatePassageNumberReportedOnce(t *testing.T) {
	draft := validDraft()
	dup := draft.Passages[0]
	dup.Questions = []Question{{
		QuestionNumber: 3,
		QuestionType:   string(ShortAnswer),
		QuestionText:   "How deep is the trench?",
		CorrectAnswer:  ScalarAnswer("11km"),
	}}
	draft.Passages = append(draft.Passages, dup, dup)

	errs := Validate(draft)
	count := 0
	for _, e := range errs {
		if e.Field == "passage_number" && strings.Contains(e.Message, "duplicate") {
			count++
		}
	}
	// 三个同号 passage，第一个算正主，后两个各报一次
	if count != 2 {
		t.Fatalf("duplicate passage errors = %d, want 2: %v", count, errs)
	}
}

func TestValidateDuplicateQuestionNumber(t *testing.T) {
	draft := validDraft()
	draft.Passages[0].Questions[1].QuestionNumber = 1

	errs := Validate(draft)
	if !hasError(errs, "question_number", "duplicate question_number 1") {
		t.Fatalf("got %v", errs)
	}
}

func TestValidateQuestionRequiredFields(t *testing.T) {
	draft := validDraft()
	draft.Passages[0].Questions[0].QuestionText = ""
	draft.Passages[0].Questions[0].CorrectAnswer = Answer{}

	errs := Validate(draft)
	if !hasError(errs, "question_text", "required") {
		t.Errorf("missing question_text error: %v", errs)
	}
	if !hasError(errs, "correct_answer", "required") {
		t.Errorf("missing correct_answer error: %v", errs)
	}
}

func TestValidateOptionsRequiredForOptionTypes(t *testing.T) {
	draft := validDraft()
	draft.Passages[0].Questions[1].Options = nil

	errs := Validate(draft)
	if !hasError(errs, "options", "must be non-empty") {
		t.Fatalf("got %v", errs)
	}
}

func TestValidateRetiredType(t *testing.T) {
	draft := validDraft()
	draft.Passages[0].Questions[0].QuestionType = "Note/Table/Flow-Chart Completion"

	errs := Validate(draft)
	if !hasError(errs, "question_type", "retired") {
		t.Fatalf("got %v", errs)
	}
}

func TestValidateSuggestsSimilarType(t *testing.T) {
	draft := validDraft()
	draft.Passages[0].Questions[0].QuestionType = "Multiple Choise"

	errs := Validate(draft)
	if !hasError(errs, "question_type", `did you mean "Multiple Choice"`) {
		t.Fatalf("got %v", errs)
	}
}

func TestValidateLegacyAliasAccepted(t *testing.T) {
	draft := validDraft()
	draft.Passages[0].Questions[0].QuestionType = "Matching Paragraph Information"
	draft.Passages[0].Questions[0].Options = []string{"A", "B"}

	if errs := Validate(draft); len(errs) != 0 {
		t.Fatalf("alias rejected: %v", errs)
	}
}

func TestValidateReportsAllErrors(t *testing.T) {
	draft := &Paper{
		Passages: []Passage{{
			PassageNumber: 1,
			Questions: []Question{{
				QuestionNumber: 0,
				QuestionType:   "",
				QuestionText:   "",
			}},
		}},
	}

	errs := Validate(draft)
	// title, type, question_number, question_type, question_text, correct_answer
	if len(errs) < 6 {
		t.Fatalf("errors = %d, want all of them: %v", len(errs), errs)
	}
}

func TestValidateListeningMapsSectionCoordinates(t *testing.T) {
	test := &ListeningTest{
		Title: "Listening Test 1",
		Type:  "academic",
		Sections: []Section{{
			SectionNumber: 2,
			Title:         "Section 2",
			Questions: []Question{{
				QuestionNumber: 1,
				QuestionType:   string(ShortAnswer),
				QuestionText:   "What time does it open?",
			}},
		}},
	}

	errs := ValidateListening(test)
	if len(errs) != 1 {
		t.Fatalf("errors = %d, want 1: %v", len(errs), errs)
	}
	if errs[0].Field != "correct_answer" || errs[0].PassageNumber != 2 {
		t.Fatalf("got %+v", errs[0])
	}
}

// 解析器嗅探不出的题型最终要在校验环节被拦下来
func TestParseThenValidatePipeline(t *testing.T) {
	paper := Parse(sampleReadingText)
	paper.Title = "Ocean Life Mock Test"
	paper.Type = "academic"

	errs := Validate(paper)
	if len(errs) == 0 {
		t.Fatal("raw parse output passed validation, answers were never filled")
	}

	if !hasError(errs, "correct_answer", "required") {
		t.Errorf("missing correct_answer errors: %v", errs)
	}
	if !hasError(errs, "question_type", "unknown") {
		t.Errorf("missing unknown question_type error: %v", errs)
	}
}
