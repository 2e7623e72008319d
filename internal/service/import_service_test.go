package service

import (
	"context"
	"errors"
	"testing"

	"ielts_edu_backend/internal/importer"
	"ielts_edu_backend/internal/model"
	"ielts_edu_backend/internal/util"
)

// fakeReadingStore 内存假仓库，failQuestionAt 指定第几次插题时报错（从1计）
type fakeReadingStore struct {
	nextID        uint
	titles        map[string]bool
	papers        map[uint]*model.ReadingPaper
	passages      []*model.ReadingPassage
	questions     map[uint]*model.ReadingQuestion
	deletedPapers []uint
	deletedQIDs   []uint

	failQuestionAt int
	questionCalls  int
}

func newFakeReadingStore() *fakeReadingStore {
	return &fakeReadingStore{
		titles:    map[string]bool{},
		papers:    map[uint]*model.ReadingPaper{},
		questions: map[uint]*model.ReadingQuestion{},
	}
}

func (f *fakeReadingStore) id() uint {
	f.nextID++
	return f.nextID
}

func (f *fakeReadingStore) PaperTitleExists(ctx context.Context, title string) (bool, error) {
	return f.titles[title], nil
}

func (f *fakeReadingStore) CreatePaper(ctx context.Context, paper *model.ReadingPaper) error {
	paper.ID = f.id()
	f.papers[paper.ID] = paper
	f.titles[paper.Title] = true
	return nil
}

func (f *fakeReadingStore) CreatePassage(ctx context.Context, passage *model.ReadingPassage) error {
	passage.ID = f.id()
	f.passages = append(f.passages, passage)
	return nil
}

func (f *fakeReadingStore) CreateQuestion(ctx context.Context, question *model.ReadingQuestion) error {
	f.questionCalls++
	if f.failQuestionAt > 0 && f.questionCalls == f.failQuestionAt {
		return errors.New("deadlock found when trying to get lock")
	}
	question.ID = f.id()
	f.questions[question.ID] = question
	return nil
}

func (f *fakeReadingStore) DeletePaper(ctx context.Context, paperID uint) error {
	f.deletedPapers = append(f.deletedPapers, paperID)
	if p, ok := f.papers[paperID]; ok {
		delete(f.titles, p.Title)
		delete(f.papers, paperID)
	}
	// 级联清理
	for id, q := range f.questions {
		if q.PaperID == paperID {
			delete(f.questions, id)
		}
	}
	return nil
}

func (f *fakeReadingStore) DeleteQuestions(ctx context.Context, ids []uint) error {
	f.deletedQIDs = append(f.deletedQIDs, ids...)
	for _, id := range ids {
		delete(f.questions, id)
	}
	return nil
}

type fakeListeningStore struct {
	nextID       uint
	titles       map[string]bool
	tests        map[uint]*model.ListeningTest
	sections     []*model.ListeningSection
	questions    map[uint]*model.ListeningQuestion
	deletedTests []uint
	audioURL     string
	audioDur     float64

	failSectionAt int
	sectionCalls  int
}

func newFakeListeningStore() *fakeListeningStore {
	return &fakeListeningStore{
		titles:    map[string]bool{},
		tests:     map[uint]*model.ListeningTest{},
		questions: map[uint]*model.ListeningQuestion{},
	}
}

func (f *fakeListeningStore) id() uint {
	f.nextID++
	return f.nextID
}

func (f *fakeListeningStore) TestTitleExists(ctx context.Context, title string) (bool, error) {
	return f.titles[title], nil
}

func (f *fakeListeningStore) CreateTest(ctx context.Context, test *model.ListeningTest) error {
	test.ID = f.id()
	f.tests[test.ID] = test
	f.titles[test.Title] = true
	return nil
}

func (f *fakeListeningStore) CreateSection(ctx context.Context, section *model.ListeningSection) error {
	f.sectionCalls++
	if f.failSectionAt > 0 && f.sectionCalls == f.failSectionAt {
		return errors.New("connection reset by peer")
	}
	section.ID = f.id()
	f.sections = append(f.sections, section)
	return nil
}

func (f *fakeListeningStore) CreateQuestion(ctx context.Context, question *model.ListeningQuestion) error {
	question.ID = f.id()
	f.questions[question.ID] = question
	return nil
}

func (f *fakeListeningStore) DeleteTest(ctx context.Context, testID uint) error {
	f.deletedTests = append(f.deletedTests, testID)
	delete(f.tests, testID)
	return nil
}

func (f *fakeListeningStore) DeleteQuestions(ctx context.Context, ids []uint) error {
	for _, id := range ids {
		delete(f.questions, id)
	}
	return nil
}

func (f *fakeListeningStore) UpdateTestAudio(ctx context.Context, testID uint, url string, duration float64) error {
	f.audioURL = url
	f.audioDur = duration
	return nil
}

type fakeLogStore struct {
	entries []*model.ImportLog
}

func (f *fakeLogStore) Create(ctx context.Context, log *model.ImportLog) error {
	f.entries = append(f.entries, log)
	return nil
}

func (f *fakeLogStore) List(ctx context.Context, kind string, page, limit int) ([]model.ImportLog, int64, error) {
	var out []model.ImportLog
	for _, e := range f.entries {
		if kind == "" || e.Kind == kind {
			out = append(out, *e)
		}
	}
	return out, int64(len(out)), nil
}

func readingDraft() *importer.Paper {
	return &importer.Paper{
		Title: "Cambridge 18 Test 1",
		Type:  "academic",
		Passages: []importer.Passage{
			{
				PassageNumber: 1,
				Title:         "Ocean Life",
				Body:          "The ocean covers most of the planet.",
				Questions: []importer.Question{
					{QuestionNumber: 1, QuestionType: "True/False/Not Given", QuestionText: "q1", CorrectAnswer: importer.ScalarAnswer("True")},
					{QuestionNumber: 2, QuestionType: "Short-answer Questions", QuestionText: "q2", CorrectAnswer: importer.ScalarAnswer("plankton")},
				},
			},
			{
				PassageNumber: 2,
				Title:         "Deep Sea Mining",
				Body:          "Mining the sea floor is controversial.",
				Questions: []importer.Question{
					{QuestionNumber: 3, QuestionType: "Sentence Completion", QuestionText: "q3", CorrectAnswer: importer.ListAnswer([]string{"cobalt", "nickel"})},
				},
			},
		},
	}
}

func TestImportReadingSuccess(t *testing.T) {
	reading := newFakeReadingStore()
	logs := &fakeLogStore{}
	svc := NewImportService(reading, newFakeListeningStore(), logs)

	result, err := svc.ImportReading(context.Background(), 7, readingDraft(), nil)
	if err != nil {
		t.Fatal(err)
	}

	if result.PassageCount != 2 || result.QuestionCount != 3 {
		t.Errorf("result = %+v", result)
	}
	if len(result.InsertedQuestionIDs) != 3 {
		t.Fatalf("inserted ids = %v", result.InsertedQuestionIDs)
	}
	if len(reading.questions) != 3 {
		t.Errorf("stored questions = %d", len(reading.questions))
	}

	// 列表答案存 JSON 数组字面量
	q3 := reading.questions[result.InsertedQuestionIDs[2]]
	if q3.Answer != `["cobalt","nickel"]` {
		t.Errorf("stored answer = %q", q3.Answer)
	}

	if len(logs.entries) != 1 || logs.entries[0].Kind != "reading" || logs.entries[0].UserID != 7 {
		t.Errorf("log entries = %+v", logs.entries)
	}
	if result.BatchID == "" || logs.entries[0].BatchID != result.BatchID {
		t.Errorf("batch id = %q, log batch id = %q", result.BatchID, logs.entries[0].BatchID)
	}
}

func TestImportReadingDuplicateTitleFastFail(t *testing.T) {
	reading := newFakeReadingStore()
	reading.titles["Cambridge 18 Test 1"] = true
	svc := NewImportService(reading, newFakeListeningStore(), &fakeLogStore{})

	_, err := svc.ImportReading(context.Background(), 1, readingDraft(), nil)
	if !errors.Is(err, util.ErrDuplicatePaperTitle) {
		t.Fatalf("err = %v, want ErrDuplicatePaperTitle", err)
	}
	if len(reading.papers) != 0 {
		t.Error("paper inserted despite duplicate title")
	}
}

func TestImportReadingRejectsInvalidDraft(t *testing.T) {
	reading := newFakeReadingStore()
	svc := NewImportService(reading, newFakeListeningStore(), &fakeLogStore{})

	draft := readingDraft()
	draft.Passages[0].Questions[0].CorrectAnswer = importer.Answer{}

	_, err := svc.ImportReading(context.Background(), 1, draft, nil)
	if !errors.Is(err, util.ErrDraftInvalid) {
		t.Fatalf("err = %v, want ErrDraftInvalid", err)
	}
	if len(reading.papers) != 0 || len(reading.questions) != 0 {
		t.Error("rows inserted despite invalid draft")
	}
}

// 最后一题插入失败也不能留下半卷
func TestImportReadingCompensatesOnFailure(t *testing.T) {
	reading := newFakeReadingStore()
	reading.failQuestionAt = 3
	svc := NewImportService(reading, newFakeListeningStore(), &fakeLogStore{})

	_, err := svc.ImportReading(context.Background(), 1, readingDraft(), nil)
	if err == nil {
		t.Fatal("expected error")
	}

	var perr *PersistenceError
	if !errors.As(err, &perr) {
		t.Fatalf("err = %T, want *PersistenceError", err)
	}
	if perr.Op != "insert question" {
		t.Errorf("op = %q", perr.Op)
	}

	if len(reading.deletedPapers) != 1 {
		t.Fatalf("compensating delete not issued: %v", reading.deletedPapers)
	}
	if len(reading.papers) != 0 || len(reading.questions) != 0 {
		t.Error("orphaned rows left behind")
	}
	// 补偿后标题可复用
	if reading.titles["Cambridge 18 Test 1"] {
		t.Error("title still reserved after compensation")
	}
}

func TestImportReadingProgressMonotonic(t *testing.T) {
	svc := NewImportService(newFakeReadingStore(), newFakeListeningStore(), &fakeLogStore{})

	var calls [][2]int
	progress := func(inserted, total int) {
		calls = append(calls, [2]int{inserted, total})
	}

	if _, err := svc.ImportReading(context.Background(), 1, readingDraft(), progress); err != nil {
		t.Fatal(err)
	}

	if len(calls) != 3 {
		t.Fatalf("progress calls = %d, want 3", len(calls))
	}
	for i, c := range calls {
		if c[0] != i+1 || c[1] != 3 {
			t.Errorf("call %d = %v, want {%d 3}", i, c, i+1)
		}
	}
}

func TestImportReadingNormalizesLegacyTypes(t *testing.T) {
	reading := newFakeReadingStore()
	svc := NewImportService(reading, newFakeListeningStore(), &fakeLogStore{})

	draft := readingDraft()
	draft.Passages[0].Questions[0].QuestionType = "Short-Answer Questions"

	result, err := svc.ImportReading(context.Background(), 1, draft, nil)
	if err != nil {
		t.Fatal(err)
	}
	q := reading.questions[result.InsertedQuestionIDs[0]]
	if q.QuestionType != "Short-answer Questions" {
		t.Errorf("stored type = %q, want canonical name", q.QuestionType)
	}
}

func TestUndoReadingQuestions(t *testing.T) {
	reading := newFakeReadingStore()
	svc := NewImportService(reading, newFakeListeningStore(), &fakeLogStore{})

	result, err := svc.ImportReading(context.Background(), 1, readingDraft(), nil)
	if err != nil {
		t.Fatal(err)
	}

	if err := svc.UndoReadingQuestions(context.Background(), result.InsertedQuestionIDs); err != nil {
		t.Fatal(err)
	}
	if len(reading.questions) != 0 {
		t.Errorf("questions remain after undo: %d", len(reading.questions))
	}
	// 只撤题：试卷和文章保留
	if len(reading.papers) != 1 {
		t.Errorf("paper removed by undo")
	}
	if len(reading.passages) != 2 {
		t.Errorf("passages removed by undo")
	}
}

func listeningDraft() *importer.ListeningTest {
	return &importer.ListeningTest{
		Title: "Listening Test 1",
		Type:  "academic",
		Sections: []importer.Section{
			{
				SectionNumber: 1,
				Title:         "Section 1",
				Transcript:    "A conversation about library hours.",
				Questions: []importer.Question{
					{QuestionNumber: 1, QuestionType: "Short-answer Questions", QuestionText: "q1", CorrectAnswer: importer.ScalarAnswer("9am")},
				},
			},
			{
				SectionNumber: 2,
				Title:         "Section 2",
				Transcript:    "A talk about campus facilities.",
				Questions: []importer.Question{
					{QuestionNumber: 2, QuestionType: "Sentence Completion", QuestionText: "q2", CorrectAnswer: importer.ScalarAnswer("gym")},
				},
			},
		},
	}
}

func TestImportListeningSuccess(t *testing.T) {
	listening := newFakeListeningStore()
	logs := &fakeLogStore{}
	svc := NewImportService(newFakeReadingStore(), listening, logs)

	result, err := svc.ImportListening(context.Background(), 3, listeningDraft(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if result.PassageCount != 2 || result.QuestionCount != 2 {
		t.Errorf("result = %+v", result)
	}
	if len(logs.entries) != 1 || logs.entries[0].Kind != "listening" {
		t.Errorf("log entries = %+v", logs.entries)
	}
}

func TestImportListeningCompensatesOnFailure(t *testing.T) {
	listening := newFakeListeningStore()
	listening.failSectionAt = 2
	svc := NewImportService(newFakeReadingStore(), listening, &fakeLogStore{})

	_, err := svc.ImportListening(context.Background(), 1, listeningDraft(), nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if len(listening.deletedTests) != 1 {
		t.Fatalf("compensating delete not issued: %v", listening.deletedTests)
	}
	if len(listening.tests) != 0 {
		t.Error("orphaned test row left behind")
	}
}

func TestUpdateListeningAudio(t *testing.T) {
	listening := newFakeListeningStore()
	svc := NewImportService(newFakeReadingStore(), listening, &fakeLogStore{})

	if err := svc.UpdateListeningAudio(context.Background(), 5, "/uploads/listening/5/audio.mp3", 1803.5); err != nil {
		t.Fatal(err)
	}
	if listening.audioURL != "/uploads/listening/5/audio.mp3" || listening.audioDur != 1803.5 {
		t.Errorf("audio = %q %v", listening.audioURL, listening.audioDur)
	}
}

func TestListLogsFiltersByKind(t *testing.T) {
	logs := &fakeLogStore{}
	svc := NewImportService(newFakeReadingStore(), newFakeListeningStore(), logs)

	if _, err := svc.ImportReading(context.Background(), 1, readingDraft(), nil); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.ImportListening(context.Background(), 1, listeningDraft(), nil); err != nil {
		t.Fatal(err)
	}

	got, total, err := svc.ListLogs(context.Background(), "reading", 1, 10)
	if err != nil {
		t.Fatal(err)
	}
	if total != 1 || len(got) != 1 || got[0].Kind != "reading" {
		t.Errorf("logs = %v total = %d", got, total)
	}
}
