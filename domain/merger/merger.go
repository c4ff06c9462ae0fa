package merger

import (
	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/domain/annotation"
	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/domain/tagger"
)

// Person labels accepted from the PERSON engine.
var personLabels = map[string]struct{}{"PER": {}, "PERSON": {}}

/*
Record 一行文本合并后的结构化结果。

字段为 nil 表示未识别到；非 nil 时恰好等于 SourceText 中对应片段的文本。
Error 非空表示该行抽取失败，此时所有字段均为 nil。
*/
type Record struct {
	SourceText      string  `json:"source_text"`
	ParticipantName *string `json:"participant_name"`
	SportName       *string `json:"sport_name"`
	WinningPosition *string `json:"winning_position"`
	OrgYear         *string `json:"org_year"`
	Error           string  `json:"error,omitempty"`
}

// Failed builds the record of a row whose extraction failed.
func Failed(text string, err error) Record {
	return Record{SourceText: text, Error: err.Error()}
}

/*
Merge 将两个标注器的片段合并为一条记录，纯函数。

每个自定义字段只从 CUSTOM 片段中选取，人名只从标签为 PER/PERSON 的 PERSON 片段中选取。
同一字段有多个候选时取起点最小者，起点相同取更长者，再相同取输入中靠前者。
越界或空的片段被忽略。
*/
func Merge(text string, spans []tagger.Span) Record {
	ret := Record{SourceText: text}

	ret.SportName = pick(text, spans, func(s *tagger.Span) bool {
		return s.Engine == tagger.EngineCustom && s.Label == string(annotation.LabelSportsName)
	})
	ret.WinningPosition = pick(text, spans, func(s *tagger.Span) bool {
		return s.Engine == tagger.EngineCustom && s.Label == string(annotation.LabelWinningPosition)
	})
	ret.OrgYear = pick(text, spans, func(s *tagger.Span) bool {
		return s.Engine == tagger.EngineCustom && s.Label == string(annotation.LabelOrgYear)
	})
	ret.ParticipantName = pick(text, spans, func(s *tagger.Span) bool {
		_, ok := personLabels[s.Label]
		return s.Engine == tagger.EnginePerson && ok
	})

	return ret
}

func pick(text string, spans []tagger.Span, accept func(s *tagger.Span) bool) *string {
	best := -1

	for i := range spans {
		s := &spans[i]
		if !accept(s) || s.Start < 0 || s.Start >= s.End || s.End > len(text) {
			continue
		}
		if best < 0 || before(s, &spans[best]) {
			best = i
		}
	}

	if best < 0 {
		return nil
	}

	value := text[spans[best].Start:spans[best].End]
	return &value
}

// before reports whether a wins over b; equal spans keep the earlier one.
func before(a, b *tagger.Span) bool {
	if a.Start != b.Start {
		return a.Start < b.Start
	}
	return a.End-a.Start > b.End-b.Start
}
