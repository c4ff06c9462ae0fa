package annotation

import (
	"fmt"
	"sort"
)

type Label string

const (
	LabelSportsName      Label = "SPORTS_NAME"
	LabelWinningPosition Label = "WINNING_POSITION"
	LabelOrgYear         Label = "ORG_YEAR"
)

// Labels lists every label the custom-field tagger is trained on.
var Labels = []Label{LabelSportsName, LabelWinningPosition, LabelOrgYear}

func (l Label) Valid() bool {
	for _, label := range Labels {
		if l == label {
			return true
		}
	}
	return false
}

/*
Entity 标注的一个实体片段，Start/End 为 Text 中的 UTF-8 字节下标，左闭右开。
*/
type Entity struct {
	Start int   `msgpack:"s" json:"start"`
	End   int   `msgpack:"e" json:"end"`
	Label Label `msgpack:"l" json:"label"`
}

/*
Record 一条人工标注记录。

	Text 原始句子；
	Entities 按文档顺序排列的实体；
	Source 来源文件；
	Index 在来源文件中的序号。
*/
type Record struct {
	Text     string
	Entities []Entity
	Source   string
	Index    int
}

// Validate checks 0 <= start < end <= len(text), known labels and that no two spans overlap.
func (r *Record) Validate() error {
	for i, ent := range r.Entities {
		if !ent.Label.Valid() {
			return fmt.Errorf("entity %d has unknown label %q", i, ent.Label)
		}
		if ent.Start < 0 || ent.Start >= ent.End || ent.End > len(r.Text) {
			return fmt.Errorf("entity %d span [%d,%d) out of bounds for text of %d bytes", i, ent.Start, ent.End, len(r.Text))
		}
	}

	sorted := make([]Entity, len(r.Entities))
	copy(sorted, r.Entities)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start < sorted[j].Start
	})

	for i := 1; i < len(sorted); i++ {
		if sorted[i].Start < sorted[i-1].End {
			return fmt.Errorf("spans [%d,%d) and [%d,%d) overlap",
				sorted[i-1].Start, sorted[i-1].End, sorted[i].Start, sorted[i].End)
		}
	}

	return nil
}
