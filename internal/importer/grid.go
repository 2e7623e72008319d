package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// GridRow 扁平化的一题一行视图，只用于表格审阅和 CSV 批量上传，
// 不是数据源头
type GridRow struct {
	PassageNumber  int    `json:"passage_number"`
	PassageTitle   string `json:"passage_title"`
	QuestionNumber int    `json:"question_number"`
	QuestionText   string `json:"question_text"`
	QuestionType   string `json:"question_type"`
	Options        string `json:"options"`
	CorrectAnswer  string `json:"correct_answer"`
}

// GridColumns CSV 列契约，上传和导出共用
var GridColumns = []string{
	"passage_number", "passage_title", "question_number",
	"question_text", "question_type", "options", "correct_answer",
}

const listJoinDelimiter = "; "

// ToGrid 把草稿摊平成行，列表字段用分号拼接
func ToGrid(paper *Paper) []GridRow {
	var rows []GridRow
	for _, p := range paper.Passages {
		for _, q := range p.Questions {
			rows = append(rows, GridRow{
				PassageNumber:  p.PassageNumber,
				PassageTitle:   p.Title,
				QuestionNumber: q.QuestionNumber,
				QuestionText:   q.QuestionText,
				QuestionType:   q.QuestionType,
				Options:        strings.Join(q.Options, listJoinDelimiter),
				CorrectAnswer:  strings.Join(q.CorrectAnswer.Values(), listJoinDelimiter),
			})
		}
	}
	return rows
}

// FromGrid 按 passage_number 归组还原草稿。行序不可靠（表格可被随意
// 编辑），按编号排序后重建。
func FromGrid(rows []GridRow) *Paper {
	byPassage := map[int]*Passage{}
	var order []int

	for _, row := range rows {
		p, ok := byPassage[row.PassageNumber]
		if !ok {
			p = &Passage{
				PassageNumber: row.PassageNumber,
				Title:         row.PassageTitle,
			}
			byPassage[row.PassageNumber] = p
			order = append(order, row.PassageNumber)
		}
		if p.Title == "" {
			p.Title = row.PassageTitle
		}

		q := Question{
			QuestionNumber: row.QuestionNumber,
			QuestionText:   row.QuestionText,
			QuestionType:   row.QuestionType,
			Status:         "draft",
		}
		if opts := SplitList(row.Options); len(opts) > 0 {
			q.Options = opts
		}
		if vals := SplitList(row.CorrectAnswer); len(vals) > 1 {
			q.CorrectAnswer = ListAnswer(vals)
		} else {
			q.CorrectAnswer = ScalarAnswer(strings.TrimSpace(row.CorrectAnswer))
		}
		p.Questions = append(p.Questions, q)
	}

	sort.Ints(order)
	paper := &Paper{Status: "draft"}
	for _, n := range order {
		paper.Passages = append(paper.Passages, *byPassage[n])
	}
	return paper
}

// WriteCSV 按列契约输出
func WriteCSV(w io.Writer, rows []GridRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(GridColumns); err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{
			strconv.Itoa(r.PassageNumber),
			r.PassageTitle,
			strconv.Itoa(r.QuestionNumber),
			r.QuestionText,
			r.QuestionType,
			r.Options,
			r.CorrectAnswer,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV 解析上传的 CSV，列名必须与契约一致
func ReadCSV(r io.Reader) ([]GridRow, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	if len(header) != len(GridColumns) {
		return nil, fmt.Errorf("unexpected csv header %v, want %v", header, GridColumns)
	}
	for i, col := range GridColumns {
		if strings.TrimSpace(strings.ToLower(header[i])) != col {
			return nil, fmt.Errorf("unexpected csv column %q at position %d, want %q", header[i], i+1, col)
		}
	}

	var rows []GridRow
	line := 1
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line+1, err)
		}
		line++

		pn, err := strconv.Atoi(strings.TrimSpace(record[0]))
		if err != nil {
			return nil, fmt.Errorf("csv line %d: invalid passage_number %q", line, record[0])
		}
		qn, err := strconv.Atoi(strings.TrimSpace(record[2]))
		if err != nil {
			return nil, fmt.Errorf("csv line %d: invalid question_number %q", line, record[2])
		}

		rows = append(rows, GridRow{
			PassageNumber:  pn,
			PassageTitle:   record[1],
			QuestionNumber: qn,
			QuestionText:   record[3],
			QuestionType:   record[4],
			Options:        record[5],
			CorrectAnswer:  record[6],
		})
	}
	return rows, nil
}

// SplitList 把分号或逗号拼接的标量串拆回列表
func SplitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	sep := ";"
	if !strings.Contains(s, ";") {
		sep = ","
	}
	parts := strings.Split(s, sep)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}
