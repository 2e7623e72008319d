package importer

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// 启发式解析只负责把生肉文本切成结构，从不报错：
// 匹配不到的字段留空，交给后面的校验器拦截。

var (
	sectionMarkerRe  = regexp.MustCompile(`Section\s+(\d+)`)
	questionMarkerRe = regexp.MustCompile(`Question\s+(\d+)[.:)]?\s*`)
	passageTitleRe   = regexp.MustCompile(`based on Reading Passage[^\n]*\n\s*([^\n]+)`)
	instructionRe    = regexp.MustCompile(`(?m)^\s*Instructions?:\s*(.+)$`)
	blankLineRe      = regexp.MustCompile(`\n\s*\n`)
	whitespaceRe     = regexp.MustCompile(`\s+`)

	// 题干若以命令句开头，拆成单独的 instruction
	leadingInstructionRe = regexp.MustCompile(`^((?:Choose|Select|Write|Complete|Answer|Match|Label|Decide)\b[^.?]*\.)\s*(.*)`)
)

// typeKeywordRules 按整块文本做关键词嗅探，命中即定型。
// 已知问题：关键词出现在块内任意位置都会让整段题目被同样归类，
// 行为保持与线上一致，待产品确认后再改为按题粒度判断。
var typeKeywordRules = []struct {
	keyword string
	qtype   QuestionType
}{
	{"headings", MatchingHeadings},
	{"features", MatchingFeatures},
	{"information", MatchingInformation},
	{"sentence endings", MatchingSentenceEndings},
}

const UnknownType = "Unknown"

// Parse 把原始试卷文本解析成阅读草稿。Section 标记有几个就产出几个
// passage，没有标记则产出空卷。
func Parse(rawText string) *Paper {
	paper := &Paper{Status: "draft"}

	for i, block := range splitBlocks(rawText) {
		paper.Passages = append(paper.Passages, parsePassage(block, i+1))
	}
	return paper
}

// ParseListening 听力文本走同一套切块逻辑，passage 换成 section。
func ParseListening(rawText string) *ListeningTest {
	test := &ListeningTest{Status: "draft"}

	for i, block := range splitBlocks(rawText) {
		p := parsePassage(block, i+1)
		if p.Title == fmt.Sprintf("Passage %d", i+1) {
			p.Title = fmt.Sprintf("Section %d", i+1)
		}
		test.Sections = append(test.Sections, Section{
			SectionNumber:      p.PassageNumber,
			Title:              p.Title,
			Transcript:         p.Body,
			SectionInstruction: p.SectionInstruction,
			Questions:          p.Questions,
		})
	}
	return test
}

// splitBlocks 以 Section N 为界切块，块内容为该标记到下一标记之间的文本
func splitBlocks(rawText string) []string {
	marks := sectionMarkerRe.FindAllStringIndex(rawText, -1)
	if len(marks) == 0 {
		return nil
	}

	blocks := make([]string, 0, len(marks))
	for i, m := range marks {
		end := len(rawText)
		if i+1 < len(marks) {
			end = marks[i+1][0]
		}
		blocks = append(blocks, rawText[m[1]:end])
	}
	return blocks
}

func parsePassage(block string, number int) Passage {
	p := Passage{
		PassageNumber: number,
		Title:         fmt.Sprintf("Passage %d", number),
	}

	bodyStart := 0
	if m := passageTitleRe.FindStringSubmatchIndex(block); m != nil {
		p.Title = strings.TrimSpace(block[m[2]:m[3]])
		bodyStart = m[3]
	}
	p.Body = extractBody(block[bodyStart:])

	if m := instructionRe.FindStringSubmatch(block); m != nil {
		p.SectionInstruction = strings.TrimSpace(m[1])
	}

	qtype := sniffQuestionType(block)
	p.Questions = extractQuestions(block, qtype)
	return p
}

// extractBody 取题干区之前的正文：到下一个 Question 标记或空行为止，
// 内部换行折叠成空格
func extractBody(text string) string {
	// 块首的空行不算正文分隔
	text = strings.TrimLeft(text, " \t\r\n")
	cut := len(text)
	if m := questionMarkerRe.FindStringIndex(text); m != nil {
		cut = m[0]
	}
	if m := blankLineRe.FindStringIndex(text[:cut]); m != nil {
		cut = m[0]
	}
	return collapseSpace(text[:cut])
}

// extractQuestions 反复匹配 Question N 标记，题干为两个标记之间的文本。
// 题号按出现顺序产出，不重排。
func extractQuestions(block string, qtype string) []Question {
	marks := questionMarkerRe.FindAllStringSubmatchIndex(block, -1)
	if len(marks) == 0 {
		return nil
	}

	questions := make([]Question, 0, len(marks))
	for i, m := range marks {
		end := len(block)
		if i+1 < len(marks) {
			end = marks[i+1][0]
		}

		num, _ := strconv.Atoi(block[m[2]:m[3]])
		text := collapseSpace(block[m[1]:end])

		q := Question{
			QuestionNumber: num,
			QuestionType:   qtype,
			QuestionText:   text,
			CorrectAnswer:  ScalarAnswer(""),
			Status:         "draft",
		}

		// 二次匹配：以已捕获的题干为输入拆出题内指令
		if im := leadingInstructionRe.FindStringSubmatch(text); im != nil && strings.TrimSpace(im[2]) != "" {
			q.Instruction = strings.TrimSpace(im[1])
			q.QuestionText = strings.TrimSpace(im[2])
		}

		questions = append(questions, q)
	}
	return questions
}

// sniffQuestionType 整块关键词嗅探，未命中返回 Unknown，
// 答案永远不在这里推断
func sniffQuestionType(block string) string {
	lower := strings.ToLower(block)
	for _, rule := range typeKeywordRules {
		if strings.Contains(lower, rule.keyword) {
			return string(rule.qtype)
		}
	}
	return UnknownType
}

func collapseSpace(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}
