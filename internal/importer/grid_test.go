package importer

import (
	"bytes"
	"strings"
	"testing"
)

func TestToGridFlattens(t *testing.T) {
	draft := validDraft()
	rows := ToGrid(draft)

	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if rows[0].PassageTitle != "Ocean Life" || rows[0].QuestionNumber != 1 {
		t.Errorf("row 0 = %+v", rows[0])
	}
	if rows[1].Options != "A; B; C; D" {
		t.Errorf("options = %q", rows[1].Options)
	}
}

func TestFromGridGroupsAndSorts(t *testing.T) {
	rows := []GridRow{
		{PassageNumber: 2, PassageTitle: "Second", QuestionNumber: 5, QuestionText: "q5", QuestionType: string(ShortAnswer), CorrectAnswer: "x"},
		{PassageNumber: 1, PassageTitle: "First", QuestionNumber: 1, QuestionText: "q1", QuestionType: string(ShortAnswer), CorrectAnswer: "a"},
		{PassageNumber: 1, PassageTitle: "First", QuestionNumber: 2, QuestionText: "q2", QuestionType: string(ShortAnswer), CorrectAnswer: "b; c"},
	}

	draft := FromGrid(rows)
	if len(draft.Passages) != 2 {
		t.Fatalf("passages = %d, want 2", len(draft.Passages))
	}
	if draft.Passages[0].PassageNumber != 1 || draft.Passages[1].PassageNumber != 2 {
		t.Errorf("passage order: %d, %d", draft.Passages[0].PassageNumber, draft.Passages[1].PassageNumber)
	}
	if len(draft.Passages[0].Questions) != 2 {
		t.Fatalf("passage 1 questions = %d", len(draft.Passages[0].Questions))
	}

	// 多值单元格还原回列表答案
	q2 := draft.Passages[0].Questions[1]
	if !q2.CorrectAnswer.IsList() {
		t.Errorf("q2 answer not a list: %q", q2.CorrectAnswer.Scalar())
	}
	q1 := draft.Passages[0].Questions[0]
	if q1.CorrectAnswer.IsList() || q1.CorrectAnswer.Scalar() != "a" {
		t.Errorf("q1 answer = %q list=%v", q1.CorrectAnswer.Scalar(), q1.CorrectAnswer.IsList())
	}
}

func TestGridCSVRoundTrip(t *testing.T) {
	rows := ToGrid(validDraft())

	var buf bytes.Buffer
	if err := WriteCSV(&buf, rows); err != nil {
		t.Fatal(err)
	}

	got, err := ReadCSV(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(rows) {
		t.Fatalf("rows = %d, want %d", len(got), len(rows))
	}
	for i := range rows {
		if got[i] != rows[i] {
			t.Errorf("row %d = %+v, want %+v", i, got[i], rows[i])
		}
	}
}

func TestReadCSVRejectsWrongHeader(t *testing.T) {
	in := "passage_number,passage_title,question_number\n1,Ocean,1\n"
	if _, err := ReadCSV(strings.NewReader(in)); err == nil {
		t.Fatal("short header accepted")
	}

	in = "a,b,c,d,e,f,g\n"
	if _, err := ReadCSV(strings.NewReader(in)); err == nil {
		t.Fatal("wrong column names accepted")
	}
}

func TestReadCSVRejectsBadNumbers(t *testing.T) {
	in := strings.Join(GridColumns, ",") + "\nnope,Ocean,1,text,Short-answer Questions,,True\n"
	if _, err := ReadCSV(strings.NewReader(in)); err == nil {
		t.Fatal("non-numeric passage_number accepted")
	}
}

func TestSplitList(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"  ", 0},
		{"single", 1},
		{"a; b; c", 3},
		{"a, b", 2},
		{"a; b, c", 2}, // 有分号就只按分号拆
	}
	for _, tc := range cases {
		if got := SplitList(tc.in); len(got) != tc.want {
			t.Errorf("SplitList(%q) = %v, want %d parts", tc.in, got, tc.want)
		}
	}
}
