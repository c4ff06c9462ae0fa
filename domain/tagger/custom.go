package tagger

import (
	"context"
	"fmt"
	"sync"

	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/domain/errs"
	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/utils"
	"github.com/sirupsen/logrus"
)

/*
CustomTagger 在进程内加载 model-best/ 下的短语词典模型，识别 SPORTS_NAME、WINNING_POSITION、ORG_YEAR。
*/
type CustomTagger struct {
	dir    string
	logger *logrus.Logger

	lock      sync.RWMutex
	model     *Model
	tokenizer Tokenizer
}

func newCustomTagger(setting *TagSetting, modelDir string) *CustomTagger {
	return &CustomTagger{
		dir:    modelDir,
		logger: setting.Logger,
	}
}

func (t *CustomTagger) Load(ctx context.Context) error {
	t.lock.Lock()
	defer t.lock.Unlock()

	if t.model != nil {
		return nil
	}

	meta, err := ReadMeta(t.dir)
	if err != nil {
		return &errs.ModelLoadError{Engine: string(EngineCustom), Err: err}
	}
	if !meta.Complete {
		return &errs.ModelLoadError{Engine: string(EngineCustom), Err: fmt.Errorf("model in [%s] is incomplete", t.dir)}
	}
	if meta.Pipeline != PipelineGazetteer {
		return &errs.ModelLoadError{
			Engine: string(EngineCustom),
			Err:    fmt.Errorf("pipeline %q cannot be loaded in process, use the remote custom engine", meta.Pipeline),
		}
	}

	model, err := LoadModel(t.dir)
	if err != nil {
		return &errs.ModelLoadError{Engine: string(EngineCustom), Err: err}
	}

	tokenizer, err := NewTokenizer(model.Tokenizer)
	if err != nil {
		return &errs.ModelLoadError{Engine: string(EngineCustom), Err: utils.WrapError(err, "create tokenizer fail")}
	}

	t.model = model
	t.tokenizer = tokenizer

	if t.logger != nil {
		t.logger.Infof("custom tagger loaded from [%s]: %s", t.dir, model)
	}

	return nil
}

func (t *CustomTagger) Predict(ctx context.Context, text string) ([]Span, error) {
	t.lock.RLock()
	model, tokenizer := t.model, t.tokenizer
	t.lock.RUnlock()

	if model == nil {
		return nil, &errs.ModelLoadError{Engine: string(EngineCustom), Err: fmt.Errorf("not loaded")}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return model.Match(tokenizer.Tokenize(text)), nil
}
