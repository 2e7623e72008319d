package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ielts_edu_backend/internal/importer"
	"ielts_edu_backend/internal/model"
	"ielts_edu_backend/internal/util"
	"ielts_edu_backend/pkg/logger"
	"ielts_edu_backend/pkg/monitoring"

	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// ReadingStore / ListeningStore 持久化依赖抽象，repository 实现；
// 测试用内存假实现注入失败点。
type ReadingStore interface {
	PaperTitleExists(ctx context.Context, title string) (bool, error)
	CreatePaper(ctx context.Context, paper *model.ReadingPaper) error
	CreatePassage(ctx context.Context, passage *model.ReadingPassage) error
	CreateQuestion(ctx context.Context, question *model.ReadingQuestion) error
	DeletePaper(ctx context.Context, paperID uint) error
	DeleteQuestions(ctx context.Context, ids []uint) error
}

type ListeningStore interface {
	TestTitleExists(ctx context.Context, title string) (bool, error)
	CreateTest(ctx context.Context, test *model.ListeningTest) error
	CreateSection(ctx context.Context, section *model.ListeningSection) error
	CreateQuestion(ctx context.Context, question *model.ListeningQuestion) error
	DeleteTest(ctx context.Context, testID uint) error
	DeleteQuestions(ctx context.Context, ids []uint) error
	UpdateTestAudio(ctx context.Context, testID uint, url string, duration float64) error
}

type ImportLogStore interface {
	Create(ctx context.Context, log *model.ImportLog) error
	List(ctx context.Context, kind string, page, limit int) ([]model.ImportLog, int64, error)
}

// PersistenceError 入库失败的上下文：卡在哪一步、涉及哪张卷
type PersistenceError struct {
	Op      string
	PaperID uint
	Err     error
}

func (e *PersistenceError) Error() string {
	if e.PaperID > 0 {
		return fmt.Sprintf("import %s (paper %d): %v", e.Op, e.PaperID, e.Err)
	}
	return fmt.Sprintf("import %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// ImportResult 成功导入的产物；InsertedQuestionIDs 顺序与文档顺序一致，
// 供手工撤销使用
type ImportResult struct {
	BatchID             string `json:"batchId"`
	PaperID             uint   `json:"paperId"`
	PassageCount        int    `json:"passageCount"`
	QuestionCount       int    `json:"questionCount"`
	InsertedQuestionIDs []uint `json:"insertedQuestionIds"`
}

// ProgressFunc 导入进度回调（已插入题数 / 总题数）
type ProgressFunc func(inserted, total int)

type ImportService struct {
	Reading   ReadingStore
	Listening ListeningStore
	Logs      ImportLogStore
}

func NewImportService(reading ReadingStore, listening ListeningStore, logs ImportLogStore) *ImportService {
	return &ImportService{Reading: reading, Listening: listening, Logs: logs}
}

// ImportReading 整卷入库：查重 -> 校验 -> 题型归一 -> 逐行顺序插入
// paper/passage/question -> 审计日志。中途失败补偿删除试卷行（级联
// 清掉子表），不留半卷。这是 saga 不是事务：补偿删除前进程崩溃会留
// 下孤儿试卷行。
func (s *ImportService) ImportReading(ctx context.Context, userID uint, draft *importer.Paper, progress ProgressFunc) (*ImportResult, error) {
	exists, err := s.Reading.PaperTitleExists(ctx, draft.Title)
	if err != nil {
		return nil, &PersistenceError{Op: "title check", Err: err}
	}
	if exists {
		return nil, &PersistenceError{Op: "title check", Err: fmt.Errorf("%w: %q", util.ErrDuplicatePaperTitle, draft.Title)}
	}

	if errs := importer.Validate(draft); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %d errors, first: %s", util.ErrDraftInvalid, len(errs), errs[0].Error())
	}

	normalizeDraftTypes(draft)

	total := 0
	for _, p := range draft.Passages {
		total += len(p.Questions)
	}

	start := time.Now()
	status := draft.Status
	if status == "" {
		status = "draft"
	}

	paper := &model.ReadingPaper{
		Title:     draft.Title,
		Type:      draft.Type,
		Status:    status,
		CreatedBy: userID,
		UpdatedBy: userID,
	}
	if err := s.Reading.CreatePaper(ctx, paper); err != nil {
		return nil, &PersistenceError{Op: "insert paper", Err: err}
	}

	result := &ImportResult{PaperID: paper.ID, InsertedQuestionIDs: []uint{}}

	// 逐行顺序插入：吞吐有限，但插入顺序与文档顺序一致，
	// 撤销用的 id 列表是确定的
	for _, pd := range draft.Passages {
		passage := &model.ReadingPassage{
			PaperID:            paper.ID,
			PassageNumber:      pd.PassageNumber,
			Title:              pd.Title,
			Body:               pd.Body,
			SectionInstruction: pd.SectionInstruction,
			Status:             status,
		}
		if err := s.Reading.CreatePassage(ctx, passage); err != nil {
			return nil, s.compensateReading(ctx, paper.ID, "insert passage", err)
		}
		result.PassageCount++

		for _, qd := range pd.Questions {
			question := &model.ReadingQuestion{
				PaperID:        paper.ID,
				PassageID:      passage.ID,
				QuestionNumber: qd.QuestionNumber,
				QuestionType:   qd.QuestionType,
				Text:           qd.QuestionText,
				Instruction:    qd.Instruction,
				Answer:         qd.CorrectAnswer.StoreValue(),
				Status:         questionStatus(qd),
			}
			if len(qd.Options) > 0 {
				raw, _ := json.Marshal(qd.Options)
				question.Options = datatypes.JSON(raw)
			}
			if err := s.Reading.CreateQuestion(ctx, question); err != nil {
				return nil, s.compensateReading(ctx, paper.ID, "insert question", err)
			}
			result.InsertedQuestionIDs = append(result.InsertedQuestionIDs, question.ID)
			result.QuestionCount++
			if progress != nil {
				progress(result.QuestionCount, total)
			}
		}
	}

	s.writeLog(ctx, "reading", userID, paper.ID, result)
	monitoring.ImportSuccess.WithLabelValues("reading").Inc()
	monitoring.ImportDuration.WithLabelValues("reading").Observe(time.Since(start).Seconds())
	logger.Log.Info("reading paper imported",
		zap.Uint("paperId", paper.ID),
		zap.Int("passages", result.PassageCount),
		zap.Int("questions", result.QuestionCount))
	return result, nil
}

// ImportListening 与阅读同构：test -> section -> question
func (s *ImportService) ImportListening(ctx context.Context, userID uint, draft *importer.ListeningTest, progress ProgressFunc) (*ImportResult, error) {
	exists, err := s.Listening.TestTitleExists(ctx, draft.Title)
	if err != nil {
		return nil, &PersistenceError{Op: "title check", Err: err}
	}
	if exists {
		return nil, &PersistenceError{Op: "title check", Err: fmt.Errorf("%w: %q", util.ErrDuplicatePaperTitle, draft.Title)}
	}

	if errs := importer.ValidateListening(draft); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %d errors, first: %s", util.ErrDraftInvalid, len(errs), errs[0].Error())
	}

	for i := range draft.Sections {
		normalizeQuestionTypes(draft.Sections[i].Questions)
	}

	total := 0
	for _, sec := range draft.Sections {
		total += len(sec.Questions)
	}

	start := time.Now()
	status := draft.Status
	if status == "" {
		status = "draft"
	}

	test := &model.ListeningTest{
		Title:     draft.Title,
		Type:      draft.Type,
		Status:    status,
		CreatedBy: userID,
		UpdatedBy: userID,
	}
	if err := s.Listening.CreateTest(ctx, test); err != nil {
		return nil, &PersistenceError{Op: "insert test", Err: err}
	}

	result := &ImportResult{PaperID: test.ID, InsertedQuestionIDs: []uint{}}

	for _, sd := range draft.Sections {
		section := &model.ListeningSection{
			TestID:             test.ID,
			SectionNumber:      sd.SectionNumber,
			Title:              sd.Title,
			Transcript:         sd.Transcript,
			SectionInstruction: sd.SectionInstruction,
			Status:             status,
		}
		if err := s.Listening.CreateSection(ctx, section); err != nil {
			return nil, s.compensateListening(ctx, test.ID, "insert section", err)
		}
		result.PassageCount++

		for _, qd := range sd.Questions {
			question := &model.ListeningQuestion{
				TestID:         test.ID,
				SectionID:      section.ID,
				QuestionNumber: qd.QuestionNumber,
				QuestionType:   qd.QuestionType,
				Text:           qd.QuestionText,
				Instruction:    qd.Instruction,
				Answer:         qd.CorrectAnswer.StoreValue(),
				Status:         questionStatus(qd),
			}
			if len(qd.Options) > 0 {
				raw, _ := json.Marshal(qd.Options)
				question.Options = datatypes.JSON(raw)
			}
			if err := s.Listening.CreateQuestion(ctx, question); err != nil {
				return nil, s.compensateListening(ctx, test.ID, "insert question", err)
			}
			result.InsertedQuestionIDs = append(result.InsertedQuestionIDs, question.ID)
			result.QuestionCount++
			if progress != nil {
				progress(result.QuestionCount, total)
			}
		}
	}

	s.writeLog(ctx, "listening", userID, test.ID, result)
	monitoring.ImportSuccess.WithLabelValues("listening").Inc()
	monitoring.ImportDuration.WithLabelValues("listening").Observe(time.Since(start).Seconds())
	logger.Log.Info("listening test imported",
		zap.Uint("testId", test.ID),
		zap.Int("sections", result.PassageCount),
		zap.Int("questions", result.QuestionCount))
	return result, nil
}

// UndoReadingQuestions 按 id 批量删题。只撤题，不撤卷/篇：
// 篇章常被复用，题才是修正的基本单位。
func (s *ImportService) UndoReadingQuestions(ctx context.Context, ids []uint) error {
	if err := s.Reading.DeleteQuestions(ctx, ids); err != nil {
		return &PersistenceError{Op: "undo questions", Err: err}
	}
	return nil
}

func (s *ImportService) UndoListeningQuestions(ctx context.Context, ids []uint) error {
	if err := s.Listening.DeleteQuestions(ctx, ids); err != nil {
		return &PersistenceError{Op: "undo questions", Err: err}
	}
	return nil
}

func (s *ImportService) ListLogs(ctx context.Context, kind string, page, limit int) ([]model.ImportLog, int64, error) {
	return s.Logs.List(ctx, kind, page, limit)
}

func (s *ImportService) UpdateListeningAudio(ctx context.Context, testID uint, url string, duration float64) error {
	if err := s.Listening.UpdateTestAudio(ctx, testID, url, duration); err != nil {
		return &PersistenceError{Op: "update audio", PaperID: testID, Err: err}
	}
	return nil
}

// compensateReading 补偿删除，删除本身失败只记日志，原始错误照常上抛
func (s *ImportService) compensateReading(ctx context.Context, paperID uint, op string, cause error) error {
	monitoring.ImportFailure.WithLabelValues("reading").Inc()
	if err := s.Reading.DeletePaper(ctx, paperID); err != nil {
		logger.Log.Error("compensating delete failed, orphaned paper row left behind",
			zap.Uint("paperId", paperID), zap.Error(err))
	}
	return &PersistenceError{Op: op, PaperID: paperID, Err: cause}
}

func (s *ImportService) compensateListening(ctx context.Context, testID uint, op string, cause error) error {
	monitoring.ImportFailure.WithLabelValues("listening").Inc()
	if err := s.Listening.DeleteTest(ctx, testID); err != nil {
		logger.Log.Error("compensating delete failed, orphaned test row left behind",
			zap.Uint("testId", testID), zap.Error(err))
	}
	return &PersistenceError{Op: op, PaperID: testID, Err: cause}
}

func (s *ImportService) writeLog(ctx context.Context, kind string, userID, paperID uint, result *ImportResult) {
	summary, _ := json.Marshal(map[string]int{
		"passages":  result.PassageCount,
		"questions": result.QuestionCount,
	})
	affected, _ := json.Marshal([]uint{paperID})

	result.BatchID = model.GenerateUUID()
	entry := &model.ImportLog{
		BatchID:          result.BatchID,
		ImportedAt:       time.Now(),
		Kind:             kind,
		Summary:          datatypes.JSON(summary),
		AffectedPaperIDs: datatypes.JSON(affected),
		UserID:           userID,
	}
	// 审计日志失败不回滚导入，记一条错误即可
	if err := s.Logs.Create(ctx, entry); err != nil {
		logger.Log.Error("failed to write import log", zap.Error(err))
	}
}

// normalizeDraftTypes 旧题型别名在入库阶段统一成规范名。
// 放在这里而不是解析器里：历史存量数据和AI输出都会经过这条路。
func normalizeDraftTypes(draft *importer.Paper) {
	for i := range draft.Passages {
		normalizeQuestionTypes(draft.Passages[i].Questions)
	}
}

func normalizeQuestionTypes(questions []importer.Question) {
	for i := range questions {
		if t, ok := importer.ResolveType(questions[i].QuestionType); ok {
			questions[i].QuestionType = string(t)
		}
	}
}

func questionStatus(q importer.Question) string {
	if q.Status != "" {
		return q.Status
	}
	return "draft"
}
