package tagger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/domain/errs"
	"github.com/sirupsen/logrus"
)

// ErrNotLoaded is returned by Extract before any Load attempt.
var ErrNotLoaded = errors.New("extractor not loaded")

/*
DualEngineExtractor 组合两个互不相交的标注器：自定义字段标注器（CUSTOM）与人名标注器（PERSON）。

Load 只会成功一次，可并发调用；加载失败会被记录，Extract 在加载成功前直接返回该错误。
单条文本的失败只影响该文本，返回 errs.RowExtractionError。
*/
type DualEngineExtractor struct {
	custom Capability
	person Capability
	logger *logrus.Logger

	lock    sync.RWMutex
	loaded  bool
	loadErr error
}

func newDualEngineExtractor(setting *TagSetting, custom, person Capability) *DualEngineExtractor {
	return &DualEngineExtractor{
		custom: custom,
		person: person,
		logger: setting.Logger,
	}
}

func (e *DualEngineExtractor) Load(ctx context.Context) error {
	e.lock.Lock()
	defer e.lock.Unlock()

	if e.loaded {
		return nil
	}

	e.loadErr = loadEngine(ctx, EngineCustom, e.custom)
	if e.loadErr == nil {
		e.loadErr = loadEngine(ctx, EnginePerson, e.person)
	}
	if e.loadErr != nil {
		return e.loadErr
	}

	e.loaded = true
	return nil
}

func loadEngine(ctx context.Context, engine Engine, c Capability) error {
	if c == nil {
		return &errs.ModelLoadError{Engine: string(engine), Err: fmt.Errorf("no capability configured")}
	}
	err := c.Load(ctx)
	if err == nil {
		return nil
	}
	var loadErr *errs.ModelLoadError
	if errors.As(err, &loadErr) {
		return err
	}
	return &errs.ModelLoadError{Engine: string(engine), Err: err}
}

// Extract returns CUSTOM spans followed by PERSON spans, all in byte offsets of text.
func (e *DualEngineExtractor) Extract(ctx context.Context, text string) ([]Span, error) {
	e.lock.RLock()
	loaded, loadErr := e.loaded, e.loadErr
	e.lock.RUnlock()

	if !loaded {
		if loadErr != nil {
			return nil, loadErr
		}
		return nil, ErrNotLoaded
	}

	if len(strings.TrimSpace(text)) == 0 {
		return nil, nil
	}
	if !utf8.ValidString(text) {
		return nil, &errs.RowExtractionError{Row: -1, Err: fmt.Errorf("text is not valid UTF-8")}
	}

	custom, err := e.predict(ctx, EngineCustom, e.custom, text)
	if err != nil {
		return nil, &errs.RowExtractionError{Row: -1, Err: err}
	}

	person, err := e.predict(ctx, EnginePerson, e.person, text)
	if err != nil {
		return nil, &errs.RowExtractionError{Row: -1, Err: err}
	}

	return append(custom, person...), nil
}

func (e *DualEngineExtractor) predict(ctx context.Context, engine Engine, c Capability, text string) (spans []Span, err error) {
	defer func() {
		if r := recover(); r != nil {
			spans = nil
			err = fmt.Errorf("%s tagger panic: %v", engine, r)
			if e.logger != nil {
				e.logger.Errorf("%s tagger panic on text of %d bytes: %v", engine, len(text), r)
			}
		}
	}()

	spans, err = c.Predict(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%s tagger: %w", engine, err)
	}

	for i := range spans {
		spans[i].Engine = engine
	}
	return spans, nil
}
