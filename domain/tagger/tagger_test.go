package tagger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/domain/annotation"
	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/domain/corpus"
	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/domain/errs"
	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const certificate = "Meera Nair secured 3rd Position in Chess during 2021."

func trainingExamples() []corpus.Example {
	return []corpus.Example{
		{
			Text: "Ravi Kumar secured 1st Position in Basketball during 2012 championship.",
			Spans: []annotation.Entity{
				{Start: 19, End: 31, Label: annotation.LabelWinningPosition},
				{Start: 35, End: 45, Label: annotation.LabelSportsName},
				{Start: 53, End: 57, Label: annotation.LabelOrgYear},
			},
		},
		{
			Text: "Anita won 2nd Position in Chess during 2015.",
			Spans: []annotation.Entity{
				{Start: 10, End: 22, Label: annotation.LabelWinningPosition},
				{Start: 26, End: 31, Label: annotation.LabelSportsName},
				{Start: 39, End: 43, Label: annotation.LabelOrgYear},
			},
		},
	}
}

func testSetting(t *testing.T) *TagSetting {
	logging.SetDefaultConfig(logging.GenerateTestConfig(t))
	return &TagSetting{Logger: logging.NewLogger(), HTTPTimeout: 5 * time.Second}
}

func TestTokenizer_Word(t *testing.T) {
	tokenizer, err := NewTokenizer(TokenizerWord)
	require.Nil(t, err)

	text := "José won 1st, in Fútbol!"
	tokens := tokenizer.Tokenize(text)

	var words []string
	for _, tok := range tokens {
		assert.Equal(t, tok.Text, text[tok.Start:tok.End])
		words = append(words, tok.Text)
	}
	assert.Equal(t, []string{"José", "won", "1st", ",", "in", "Fútbol", "!"}, words)
}

func TestTokenizer_JiebaTokenize(t *testing.T) {
	tokenizer, err := NewTokenizer(TokenizerJieba)
	require.Nil(t, err)

	text := "李明在2019年全国象棋锦标赛中获得第一名"
	tokens := tokenizer.Tokenize(text)
	require.NotEmpty(t, tokens)

	for i, tok := range tokens {
		t.Logf("[%d]%s", i, tok.Text)
		assert.Equal(t, tok.Text, text[tok.Start:tok.End])
	}
}

func TestTokenizer_Unknown(t *testing.T) {
	_, err := NewTokenizer("bpe")
	assert.NotNil(t, err)
}

func TestBuildModel_Match(t *testing.T) {
	model, err := BuildModel(trainingExamples(), ModelOptions{
		Tokenizer:     TokenizerWord,
		Lowercase:     true,
		MinShapeCount: 2,
	})
	require.Nil(t, err)

	assert.Equal(t, 2, model.MaxTokens)
	assert.Equal(t, string(annotation.LabelSportsName), model.Phrases["basketball"])
	assert.Equal(t, string(annotation.LabelWinningPosition), model.Shapes["dxx position"])
	assert.Equal(t, string(annotation.LabelOrgYear), model.Shapes["dddd"])

	tokenizer, _ := NewTokenizer(TokenizerWord)
	spans := model.Match(tokenizer.Tokenize(certificate))

	assert.Equal(t, []Span{
		{Start: 19, End: 31, Label: string(annotation.LabelWinningPosition), Engine: EngineCustom},
		{Start: 35, End: 40, Label: string(annotation.LabelSportsName), Engine: EngineCustom},
		{Start: 48, End: 52, Label: string(annotation.LabelOrgYear), Engine: EngineCustom},
	}, spans)
}

func TestBuildModel_ShapeThreshold(t *testing.T) {
	model, err := BuildModel(trainingExamples()[:1], ModelOptions{Tokenizer: TokenizerWord, Lowercase: true, MinShapeCount: 2})
	require.Nil(t, err)
	assert.Empty(t, model.Shapes)

	model, err = BuildModel(trainingExamples()[:1], ModelOptions{Tokenizer: TokenizerWord, Lowercase: true, MinShapeCount: 1})
	require.Nil(t, err)
	assert.Len(t, model.Shapes, 2)
}

func TestMajority(t *testing.T) {
	label, count := majority(map[string]int{"SPORTS_NAME": 2, "ORG_YEAR": 2, "WINNING_POSITION": 1})
	assert.Equal(t, "ORG_YEAR", label)
	assert.Equal(t, 2, count)
}

func TestCustomTagger_Load(t *testing.T) {
	setting := testSetting(t)
	dir := t.TempDir()

	model, err := BuildModel(trainingExamples(), ModelOptions{Tokenizer: TokenizerWord, Lowercase: true, MinShapeCount: 2})
	require.Nil(t, err)
	require.Nil(t, model.Save(dir))

	ctx := context.Background()
	tagger := newCustomTagger(setting, dir)

	// meta.json not written yet
	err = tagger.Load(ctx)
	var loadErr *errs.ModelLoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, string(EngineCustom), loadErr.Engine)

	_, err = tagger.Predict(ctx, certificate)
	assert.True(t, errors.As(err, &loadErr))

	require.Nil(t, WriteMeta(dir, &Meta{
		Name:      "test",
		Pipeline:  PipelineGazetteer,
		Tokenizer: TokenizerWord,
		Labels:    []string{"SPORTS_NAME", "WINNING_POSITION", "ORG_YEAR"},
		Complete:  true,
	}))

	require.Nil(t, tagger.Load(ctx))
	require.Nil(t, tagger.Load(ctx))

	spans, err := tagger.Predict(ctx, certificate)
	require.Nil(t, err)
	require.Len(t, spans, 3)
	assert.Equal(t, "Chess", certificate[spans[1].Start:spans[1].End])
}

func TestCustomTagger_RejectsExternalPipeline(t *testing.T) {
	dir := t.TempDir()
	require.Nil(t, WriteMeta(dir, &Meta{Name: "external", Pipeline: "transformer", Complete: true}))

	err := newCustomTagger(testSetting(t), dir).Load(context.Background())
	var loadErr *errs.ModelLoadError
	assert.True(t, errors.As(err, &loadErr))
}
