package importer

import (
	"encoding/json"
	"strings"
)

// Answer 标准化后的答案：标量或列表，在反序列化时一次定型，
// 之后不再从序列化文本里重新嗅探。
type Answer struct {
	values []string
	list   bool
}

func ScalarAnswer(v string) Answer {
	if v == "" {
		return Answer{}
	}
	return Answer{values: []string{v}}
}

func ListAnswer(vs []string) Answer {
	return Answer{values: vs, list: true}
}

func (a Answer) IsList() bool { return a.list }

func (a Answer) IsEmpty() bool {
	for _, v := range a.values {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// Scalar 标量视图；列表答案返回用分号拼接的形式
func (a Answer) Scalar() string {
	if len(a.values) == 0 {
		return ""
	}
	if a.list {
		return strings.Join(a.values, "; ")
	}
	return a.values[0]
}

func (a Answer) Values() []string {
	out := make([]string, len(a.values))
	copy(out, a.values)
	return out
}

// StoreValue 入库形式：列表存 JSON 数组字面量，标量存原文
func (a Answer) StoreValue() string {
	if a.list {
		b, _ := json.Marshal(a.values)
		return string(b)
	}
	return a.Scalar()
}

func (a Answer) MarshalJSON() ([]byte, error) {
	if a.list {
		return json.Marshal(a.values)
	}
	return json.Marshal(a.Scalar())
}

func (a *Answer) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*a = ScalarAnswer(s)
		return nil
	}
	var vs []string
	if err := json.Unmarshal(data, &vs); err != nil {
		return err
	}
	*a = ListAnswer(vs)
	return nil
}
