package annotation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/domain/errs"
	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/utils"
)

// annotationDocument is the export format of the span annotation tool.
type annotationDocument struct {
	Classes     []string          `json:"classes"`
	Annotations []json.RawMessage `json:"annotations"`
}

type entityHolder struct {
	Entities [][]json.RawMessage `json:"entities"`
}

// LoadFile reads one annotation document. Offsets in the file are character offsets.
func LoadFile(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &errs.CorpusBuildError{Op: "read " + path, Err: err}
	}

	return Parse(path, data)
}

// LoadFiles reads the documents in order and concatenates their records.
func LoadFiles(paths ...string) ([]Record, error) {
	var ret []Record
	for _, path := range paths {
		records, err := LoadFile(path)
		if err != nil {
			return nil, utils.WrapErrorf(err, "load annotations [%s] fail", path)
		}
		ret = append(ret, records...)
	}
	return ret, nil
}

/*
Parse 解析标注文档，支持两种格式：

	[[text, {"entities": [[start, end, label], ...]}], ...]
	{"classes": [...], "annotations": [[text, {"entities": [...]}], ...]}

null 项表示标注工具中跳过的句子，忽略。任意一条记录格式错误都会使整个文档失败。
*/
func Parse(source string, data []byte) ([]Record, error) {
	pairs, err := splitPairs(data)
	if err != nil {
		return nil, &errs.AnnotationFormatError{File: source, Index: -1, Reason: "malformed document", Err: err}
	}

	ret := make([]Record, 0, len(pairs))
	for i, raw := range pairs {
		if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			continue
		}

		record, reason, err := parsePair(raw)
		if err == nil {
			record.Source = source
			record.Index = i
			err = record.Validate()
			if err != nil {
				reason = "invalid spans"
			}
		}
		if err != nil {
			return nil, &errs.AnnotationFormatError{File: source, Index: i, Reason: reason, Err: err}
		}

		ret = append(ret, record)
	}

	return ret, nil
}

func splitPairs(data []byte) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty document")
	}

	if trimmed[0] == '{' {
		var doc annotationDocument
		if err := json.Unmarshal(trimmed, &doc); err != nil {
			return nil, err
		}
		return doc.Annotations, nil
	}

	var pairs []json.RawMessage
	if err := json.Unmarshal(trimmed, &pairs); err != nil {
		return nil, err
	}
	return pairs, nil
}

func parsePair(raw json.RawMessage) (Record, string, error) {
	var pair []json.RawMessage
	if err := json.Unmarshal(raw, &pair); err != nil {
		return Record{}, "record is not a [text, annotations] pair", err
	}
	if len(pair) != 2 {
		return Record{}, "record is not a [text, annotations] pair", fmt.Errorf("got %d elements", len(pair))
	}

	var text string
	if err := json.Unmarshal(pair[0], &text); err != nil {
		return Record{}, "text is not a string", err
	}

	var holder entityHolder
	if err := json.Unmarshal(pair[1], &holder); err != nil {
		return Record{}, "annotations object malformed", err
	}

	index := utils.NewRuneIndex(text)
	entities := make([]Entity, 0, len(holder.Entities))

	for i, triple := range holder.Entities {
		ent, err := parseEntity(triple, index)
		if err != nil {
			return Record{}, fmt.Sprintf("entity %d malformed", i), err
		}
		entities = append(entities, ent)
	}

	return Record{Text: text, Entities: entities}, "", nil
}

func parseEntity(triple []json.RawMessage, index *utils.RuneIndex) (Entity, error) {
	if len(triple) != 3 {
		return Entity{}, fmt.Errorf("expect [start, end, label], got %d elements", len(triple))
	}

	var start, end int
	var label string
	if err := json.Unmarshal(triple[0], &start); err != nil {
		return Entity{}, utils.WrapError(err, "start is not an integer")
	}
	if err := json.Unmarshal(triple[1], &end); err != nil {
		return Entity{}, utils.WrapError(err, "end is not an integer")
	}
	if err := json.Unmarshal(triple[2], &label); err != nil {
		return Entity{}, utils.WrapError(err, "label is not a string")
	}

	if start < 0 || start >= end || end > index.Len() {
		return Entity{}, fmt.Errorf("span [%d,%d) out of bounds for text of %d characters", start, end, index.Len())
	}

	begin, _ := index.ToByte(start)
	finish, _ := index.ToByte(end)

	return Entity{Start: begin, End: finish, Label: Label(label)}, nil
}
