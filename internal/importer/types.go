package importer

import (
	"strings"

	"github.com/agext/levenshtein"
)

// QuestionType 阅读/听力题型（固定枚举）
type QuestionType string

const (
	MatchingHeadings        QuestionType = "Matching Headings"
	MatchingInformation     QuestionType = "Matching Information"
	MatchingFeatures        QuestionType = "Matching Features"
	MatchingSentenceEndings QuestionType = "Matching Sentence Endings"
	TrueFalseNotGiven       QuestionType = "True/False/Not Given"
	YesNoNotGiven           QuestionType = "Yes/No/Not Given"
	MultipleChoice          QuestionType = "Multiple Choice"
	ListOfOptions           QuestionType = "List of Options"
	ChooseATitle            QuestionType = "Choose a Title"
	ShortAnswer             QuestionType = "Short-answer Questions"
	SentenceCompletion      QuestionType = "Sentence Completion"
	SummaryCompletion       QuestionType = "Summary Completion"
	TableCompletion         QuestionType = "Table Completion"
	FlowChartCompletion     QuestionType = "Flow-Chart Completion"
	DiagramCompletion       QuestionType = "Diagram Completion"
)

// AllQuestionTypes 枚举全集，校验与模糊提示都以此为准
var AllQuestionTypes = []QuestionType{
	MatchingHeadings,
	MatchingInformation,
	MatchingFeatures,
	MatchingSentenceEndings,
	TrueFalseNotGiven,
	YesNoNotGiven,
	MultipleChoice,
	ListOfOptions,
	ChooseATitle,
	ShortAnswer,
	SentenceCompletion,
	SummaryCompletion,
	TableCompletion,
	FlowChartCompletion,
	DiagramCompletion,
}

// legacyAliases 旧题型名 -> 规范名，入库时做一次兼容归一
// 注意：归一发生在持久化阶段而不是解析阶段（历史数据与AI输出会带旧名）
var legacyAliases = map[string]QuestionType{
	"Matching Paragraph Information": MatchingInformation,
	"Short-Answer Questions":         ShortAnswer,
	"Short-answer":                   ShortAnswer,
	"Summary/Note Completion":        SummaryCompletion,
	"Flow Chart Completion":          FlowChartCompletion,
}

// retiredTypes 已废弃题型，校验时直接报错并点名旧值，不做静默迁移
var retiredTypes = map[string]string{
	"Note/Table/Flow-Chart Completion": "split into Table Completion / Flow-Chart Completion",
	"Identifying Information":          "renamed to True/False/Not Given",
	"Identifying Writer's Views":       "renamed to Yes/No/Not Given",
}

// requiredOptions 需要有限选项集的题型
var requiredOptions = map[QuestionType]bool{
	MatchingHeadings:        true,
	MatchingInformation:     true,
	MatchingFeatures:        true,
	MatchingSentenceEndings: true,
	MultipleChoice:          true,
	ListOfOptions:           true,
	ChooseATitle:            true,
}

// ResolveType 按别名表解析题型名。返回 canonical 题型与是否命中枚举。
func ResolveType(name string) (QuestionType, bool) {
	if t, ok := legacyAliases[name]; ok {
		return t, true
	}
	qt := QuestionType(name)
	for _, t := range AllQuestionTypes {
		if qt == t {
			return t, true
		}
	}
	return "", false
}

// RetiredTypeNote 旧题型说明，非废弃题型返回空串
func RetiredTypeNote(name string) string {
	return retiredTypes[name]
}

// RequiresOptions 该题型是否要求非空 options
func RequiresOptions(t QuestionType) bool {
	return requiredOptions[t]
}

// SuggestType 对未识别的题型名做相似度匹配，给出 "did you mean" 候选。
// 相似度低于阈值时返回空串（提示没有意义）。
func SuggestType(name string) (string, float64) {
	const threshold = 0.3

	best := ""
	bestScore := 0.0
	for _, t := range AllQuestionTypes {
		score := levenshtein.Similarity(strings.ToLower(name), strings.ToLower(string(t)), nil)
		if score > bestScore {
			bestScore = score
			best = string(t)
		}
	}
	if bestScore <= threshold {
		return "", bestScore
	}
	return best, bestScore
}
