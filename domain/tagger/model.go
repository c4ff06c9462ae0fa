package tagger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/utils"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	MetaFileName  = "meta.json"
	ModelFileName = "gazetteer.msgpack"

	PipelineGazetteer = "gazetteer"
	PipelineExternal  = "external"
)

type LabelScore struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

type Scores struct {
	LabelScore
	PerLabel map[string]LabelScore `json:"per_label,omitempty"`
}

/*
Meta 模型目录下的 meta.json。

Complete 为 true 表示该目录已完整写出；只有 Complete 的模型目录才可以被加载。
Pipeline 为 gazetteer 时目录中还包含 gazetteer.msgpack，可以由 CustomTagger 在进程内加载；
其他取值来自外部训练过程，只能由远程标注器服务。
*/
type Meta struct {
	Name      string    `json:"name"`
	Pipeline  string    `json:"pipeline"`
	Tokenizer string    `json:"tokenizer,omitempty"`
	Labels    []string  `json:"labels"`
	RunID     string    `json:"run_id,omitempty"`
	Complete  bool      `json:"complete"`
	CreatedAt time.Time `json:"created_at"`
	Scores    *Scores   `json:"scores,omitempty"`
}

func ReadMeta(dir string) (*Meta, error) {
	data, err := os.ReadFile(filepath.Join(dir, MetaFileName))
	if err != nil {
		return nil, utils.WrapErrorf(err, "read meta in [%s] fail", dir)
	}

	var meta Meta
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, utils.WrapErrorf(err, "parse meta in [%s] fail", dir)
	}

	return &meta, nil
}

// WriteMeta is written last when saving a model directory.
func WriteMeta(dir string, meta *Meta) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return utils.WrapError(err, "marshal meta fail")
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return utils.WrapErrorf(err, "mkdir [%s] fail", dir)
	}

	return utils.WrapError(os.WriteFile(filepath.Join(dir, MetaFileName), data, 0o644), "write meta fail")
}

/*
Model 进程内的短语词典模型。

	Phrases 归一化后的短语到标签的映射，短语为分词结果以空格连接；
	Shapes 含数字的短语形状到标签的映射，例如 "dxx position"、"dddd"；
	MaxTokens 词典中最长短语的分词个数。
*/
type Model struct {
	Tokenizer string            `msgpack:"tok"`
	Lowercase bool              `msgpack:"lc"`
	Phrases   map[string]string `msgpack:"ph"`
	Shapes    map[string]string `msgpack:"sh"`
	MaxTokens int               `msgpack:"mt"`
}

func (m *Model) Save(dir string) error {
	data, err := msgpack.Marshal(m)
	if err != nil {
		return utils.WrapError(err, "marshal model fail")
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return utils.WrapErrorf(err, "mkdir [%s] fail", dir)
	}

	return utils.WrapError(os.WriteFile(filepath.Join(dir, ModelFileName), data, 0o644), "write model fail")
}

func LoadModel(dir string) (*Model, error) {
	data, err := os.ReadFile(filepath.Join(dir, ModelFileName))
	if err != nil {
		return nil, utils.WrapErrorf(err, "read model in [%s] fail", dir)
	}

	var model Model
	if err := msgpack.Unmarshal(data, &model); err != nil {
		return nil, utils.WrapErrorf(err, "decode model in [%s] fail", dir)
	}

	return &model, nil
}

// Match scans tokens left to right, taking the longest phrase or shape at each position.
func (m *Model) Match(tokens []Token) []Span {
	var ret []Span

	for i := 0; i < len(tokens); {
		matched := 0
		label := ""

		longest := m.MaxTokens
		if rest := len(tokens) - i; longest > rest {
			longest = rest
		}

		for n := longest; n > 0; n-- {
			window := tokens[i : i+n]

			if l, ok := m.Phrases[phraseKey(window, m.Lowercase)]; ok {
				matched, label = n, l
				break
			}
			if key, ok := shapeKey(window, m.Lowercase); ok {
				if l, ok := m.Shapes[key]; ok {
					matched, label = n, l
					break
				}
			}
		}

		if matched == 0 {
			i++
			continue
		}

		ret = append(ret, Span{
			Start:  tokens[i].Start,
			End:    tokens[i+matched-1].End,
			Label:  label,
			Engine: EngineCustom,
		})
		i += matched
	}

	return ret
}

func normalize(s string, lowercase bool) string {
	if lowercase {
		return strings.ToLower(s)
	}
	return s
}

func phraseKey(tokens []Token, lowercase bool) string {
	parts := make([]string, len(tokens))
	for i, tok := range tokens {
		parts[i] = normalize(tok.Text, lowercase)
	}
	return strings.Join(parts, " ")
}

// shapeKey replaces every token containing a digit by its shape; ok is false when no token does.
func shapeKey(tokens []Token, lowercase bool) (string, bool) {
	parts := make([]string, len(tokens))
	hasDigit := false

	for i, tok := range tokens {
		if strings.IndexFunc(tok.Text, unicode.IsDigit) < 0 {
			parts[i] = normalize(tok.Text, lowercase)
			continue
		}
		hasDigit = true
		parts[i] = tokenShape(tok.Text, lowercase)
	}

	return strings.Join(parts, " "), hasDigit
}

func tokenShape(s string, lowercase bool) string {
	var b strings.Builder
	for _, ch := range s {
		switch {
		case unicode.IsDigit(ch):
			b.WriteByte('d')
		case unicode.IsUpper(ch) && !lowercase:
			b.WriteByte('X')
		case unicode.IsLetter(ch):
			b.WriteByte('x')
		default:
			b.WriteRune(ch)
		}
	}
	return b.String()
}

func (m *Model) String() string {
	return fmt.Sprintf("gazetteer(tokenizer=%s, phrases=%d, shapes=%d)", m.Tokenizer, len(m.Phrases), len(m.Shapes))
}
