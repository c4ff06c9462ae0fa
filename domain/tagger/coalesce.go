package tagger

import (
	"strings"

	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/utils"
)

// predictToken is one token prediction from a tagger sidecar. Offsets are character offsets.
type predictToken struct {
	Index       int     `json:"index"`
	Word        string  `json:"word"`
	Entity      string  `json:"entity"`
	EntityGroup string  `json:"entity_group"`
	Start       int     `json:"start"`
	End         int     `json:"end"`
	Score       float64 `json:"score"`
}

func (t *predictToken) tag() string {
	if len(t.Entity) != 0 {
		return t.Entity
	}
	return t.EntityGroup
}

type charSpan struct {
	start int
	end   int
	label string
}

// splitTag returns ("O", "") for outside tokens, ("B"|"I", label) for BIO tags and ("", label) for plain labels.
func splitTag(tag string) (string, string) {
	if len(tag) == 0 || tag == "O" {
		return "O", ""
	}
	if len(tag) > 2 && (tag[0] == 'B' || tag[0] == 'I') && (tag[1] == '-' || tag[1] == '_') {
		return tag[:1], tag[2:]
	}
	return "", tag
}

func adjacent(prev, cur *predictToken) bool {
	if prev.Index > 0 && cur.Index > 0 {
		return cur.Index == prev.Index+1
	}
	return cur.Start <= prev.End+1
}

/*
coalesce 将逐 token 的 BIO 预测合并为实体片段：

	B-X 开始新片段；
	I-X 在前一 token 属于同标签的片段且位置相邻时延长该片段，否则开始新片段；
	O、位置不相邻或新的 B- 都会结束当前片段；
	不带 BIO 前缀的标签视为独立片段。
*/
func coalesce(tokens []predictToken) []charSpan {
	var ret []charSpan
	open := -1
	var prev *predictToken

	for i := range tokens {
		tok := &tokens[i]
		prefix, label := splitTag(tok.tag())

		switch prefix {
		case "O":
			open = -1

		case "B":
			ret = append(ret, charSpan{start: tok.Start, end: tok.End, label: label})
			open = len(ret) - 1

		case "I":
			if open >= 0 && ret[open].label == label && prev != nil && adjacent(prev, tok) {
				ret[open].end = tok.End
			} else {
				ret = append(ret, charSpan{start: tok.Start, end: tok.End, label: label})
				open = len(ret) - 1
			}

		default:
			ret = append(ret, charSpan{start: tok.Start, end: tok.End, label: label})
			open = -1
		}

		prev = tok
	}

	return ret
}

// toByteSpans converts character spans of chunk into byte spans of the full text; spans that do not fit are dropped.
func toByteSpans(chunk utils.Chunk, spans []charSpan, engine Engine) ([]Span, int) {
	index := utils.NewRuneIndex(chunk.Text)

	ret := make([]Span, 0, len(spans))
	dropped := 0

	for _, span := range spans {
		start, ok1 := index.ToByte(span.start)
		end, ok2 := index.ToByte(span.end)
		if !ok1 || !ok2 || start >= end {
			dropped++
			continue
		}

		// sidecars sometimes include the leading space of a word piece
		for start < end && chunk.Text[start] == ' ' {
			start++
		}
		if start >= end || len(strings.TrimSpace(chunk.Text[start:end])) == 0 {
			dropped++
			continue
		}

		ret = append(ret, Span{
			Start:  chunk.Offset + start,
			End:    chunk.Offset + end,
			Label:  span.label,
			Engine: engine,
		})
	}

	return ret, dropped
}
