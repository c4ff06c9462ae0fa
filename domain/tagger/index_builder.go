package tagger

import (
	"fmt"
	"sort"

	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/domain/corpus"
	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/utils"
)

type ModelOptions struct {
	Tokenizer     string
	Lowercase     bool
	MinShapeCount int
}

type indexBuilder struct {
	// inputs
	tokenizer     Tokenizer
	lowercase     bool
	minShapeCount int

	// outputs
	phraseIndex map[string]string
	shapeIndex  map[string]string
	maxTokens   int
}

// BuildModel learns phrases and digit shapes per label from the training examples.
func BuildModel(examples []corpus.Example, options ModelOptions) (*Model, error) {
	tokenizer, err := NewTokenizer(options.Tokenizer)
	if err != nil {
		return nil, utils.WrapError(err, "create tokenizer fail")
	}

	builder := indexBuilder{
		tokenizer:     tokenizer,
		lowercase:     options.Lowercase,
		minShapeCount: options.MinShapeCount,
	}

	err = builder.Build(examples)
	if err != nil {
		return nil, utils.WrapError(err, "build index fail")
	}

	name := options.Tokenizer
	if len(name) == 0 {
		name = TokenizerWord
	}

	return &Model{
		Tokenizer: name,
		Lowercase: options.Lowercase,
		Phrases:   builder.phraseIndex,
		Shapes:    builder.shapeIndex,
		MaxTokens: builder.maxTokens,
	}, nil
}

func (b *indexBuilder) Build(examples []corpus.Example) error {
	b.phraseIndex = make(map[string]string)
	b.shapeIndex = make(map[string]string)
	b.maxTokens = 0

	phraseCount := make(map[string]map[string]int)
	shapeCount := make(map[string]map[string]int)

	for i := range examples {
		text := examples[i].Text

		for _, span := range examples[i].Spans {
			if span.Start < 0 || span.End > len(text) || span.Start >= span.End {
				return fmt.Errorf("example %d: span [%d,%d) out of bounds", i, span.Start, span.End)
			}

			tokens := b.tokenizer.Tokenize(text[span.Start:span.End])
			if len(tokens) == 0 {
				continue
			}
			if len(tokens) > b.maxTokens {
				b.maxTokens = len(tokens)
			}

			label := string(span.Label)
			increase(phraseCount, phraseKey(tokens, b.lowercase), label)

			if key, ok := shapeKey(tokens, b.lowercase); ok {
				increase(shapeCount, key, label)
			}
		}
	}

	for phrase, counts := range phraseCount {
		label, _ := majority(counts)
		b.phraseIndex[phrase] = label
	}

	for shape, counts := range shapeCount {
		label, count := majority(counts)
		if count < b.minShapeCount {
			continue
		}
		b.shapeIndex[shape] = label
	}

	return nil
}

func increase(index map[string]map[string]int, key, label string) {
	counts, ok := index[key]
	if !ok {
		counts = make(map[string]int)
		index[key] = counts
	}
	counts[label]++
}

// majority picks the most frequent label, ties broken by the smaller label.
func majority(counts map[string]int) (string, int) {
	labels := make([]string, 0, len(counts))
	for label := range counts {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	best, bestCount := "", 0
	for _, label := range labels {
		if counts[label] > bestCount {
			best, bestCount = label, counts[label]
		}
	}
	return best, bestCount
}
