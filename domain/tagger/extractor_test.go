package tagger

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/domain/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCapability struct {
	loadErr error
	loads   int32
	predict func(text string) ([]Span, error)
}

func (f *fakeCapability) Load(ctx context.Context) error {
	atomic.AddInt32(&f.loads, 1)
	return f.loadErr
}

func (f *fakeCapability) Predict(ctx context.Context, text string) ([]Span, error) {
	return f.predict(text)
}

func fixedSpans(spans ...Span) func(string) ([]Span, error) {
	return func(string) ([]Span, error) {
		ret := make([]Span, len(spans))
		copy(ret, spans)
		return ret, nil
	}
}

func TestDualEngineExtractor_LoadOnce(t *testing.T) {
	custom := &fakeCapability{predict: fixedSpans(Span{Start: 35, End: 40, Label: "SPORTS_NAME"})}
	person := &fakeCapability{predict: fixedSpans(Span{Start: 0, End: 10, Label: "PER"})}
	extractor := newDualEngineExtractor(testSetting(t), custom, person)
	ctx := context.Background()

	_, err := extractor.Extract(ctx, certificate)
	require.True(t, errors.Is(err, ErrNotLoaded))
	var loadErr *errs.ModelLoadError
	assert.False(t, errors.As(err, &loadErr))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Nil(t, extractor.Load(ctx))
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), custom.loads)
	assert.Equal(t, int32(1), person.loads)

	spans, err := extractor.Extract(ctx, certificate)
	require.Nil(t, err)
	assert.Equal(t, []Span{
		{Start: 35, End: 40, Label: "SPORTS_NAME", Engine: EngineCustom},
		{Start: 0, End: 10, Label: "PER", Engine: EnginePerson},
	}, spans)
}

func TestDualEngineExtractor_LoadFailure(t *testing.T) {
	custom := &fakeCapability{predict: fixedSpans()}
	person := &fakeCapability{loadErr: errors.New("connection refused"), predict: fixedSpans()}
	extractor := newDualEngineExtractor(testSetting(t), custom, person)

	err := extractor.Load(context.Background())
	var loadErr *errs.ModelLoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, string(EnginePerson), loadErr.Engine)

	_, err = extractor.Extract(context.Background(), certificate)
	assert.True(t, errors.As(err, &loadErr))
}

func TestDualEngineExtractor_RowFailures(t *testing.T) {
	custom := &fakeCapability{predict: func(text string) ([]Span, error) {
		switch text {
		case "panic":
			panic("index out of range")
		case "broken":
			return nil, errors.New("tensor shape mismatch")
		}
		return nil, nil
	}}
	person := &fakeCapability{predict: fixedSpans()}
	extractor := newDualEngineExtractor(testSetting(t), custom, person)
	ctx := context.Background()
	require.Nil(t, extractor.Load(ctx))

	spans, err := extractor.Extract(ctx, "   \n\t")
	assert.Nil(t, err)
	assert.Empty(t, spans)

	for _, text := range []string{"panic", "broken", "caf\xe9"} {
		spans, err = extractor.Extract(ctx, text)
		var rowErr *errs.RowExtractionError
		assert.True(t, errors.As(err, &rowErr), text)
		assert.Empty(t, spans, text)
	}

	// the extractor keeps working after a panic
	_, err = extractor.Extract(ctx, certificate)
	assert.Nil(t, err)
}
