package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/domain/annotation"
	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/domain/corpus"
	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/domain/tagger"
	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/domain/trainer"
	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/repository/metadata"
	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/utils"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	StageTransforming = metadata.RunStateTransforming
	StageTraining     = metadata.RunStateTraining
)

var ErrRunInProgress = errors.New("another training run is in progress")

// StageError names the stage a training run failed in.
type StageError struct {
	RunID string
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("training run %s failed at %s: %v", e.RunID, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// ModelTrainer is satisfied by *trainer.Trainer.
type ModelTrainer interface {
	Procedure() trainer.Procedure
	Train(ctx context.Context, cfg trainer.TrainConfig) (*trainer.Artifact, error)
}

type Result struct {
	RunID       string         `json:"run_id"`
	ArtifactDir string         `json:"artifact_dir"`
	BestPath    string         `json:"best_path"`
	CorpusDir   string         `json:"corpus_dir"`
	TrainCount  int            `json:"train_count"`
	TestCount   int            `json:"test_count"`
	Scores      *tagger.Scores `json:"scores,omitempty"`
}

/*
Orchestrator 驱动一次完整的训练：INIT → TRANSFORMING → TRAINING → DONE，任一阶段失败进入 FAILED。

每次运行都会生成新的训练号与模型目录并重新构建语料，不复用之前的中间产物。
同一进程内同时只允许一次运行，其余调用直接返回 ErrRunInProgress。
*/
type Orchestrator struct {
	setting *OrchestratorSetting
	trainer ModelTrainer
	logger  *logrus.Logger

	lock sync.Mutex
}

func newOrchestrator(setting *OrchestratorSetting, modelTrainer ModelTrainer) *Orchestrator {
	return &Orchestrator{
		setting: setting,
		trainer: modelTrainer,
		logger:  setting.Logger,
	}
}

type runContext struct {
	o      *Orchestrator
	run    *metadata.TrainingRun
	result Result
}

func (o *Orchestrator) Run(ctx context.Context) (*Result, error) {
	if !o.lock.TryLock() {
		return nil, ErrRunInProgress
	}
	defer o.lock.Unlock()

	runID := uuid.NewString()
	r := &runContext{
		o: o,
		run: &metadata.TrainingRun{
			RunID:       runID,
			State:       metadata.RunStateInit,
			Procedure:   o.trainer.Procedure().Name(),
			CorpusDir:   o.setting.Corpus.Dir,
			ArtifactDir: trainer.NewArtifactDir(o.setting.Training.ArtifactRoot, runID, time.Now()),
		},
	}
	r.result.RunID = runID
	r.result.ArtifactDir = r.run.ArtifactDir
	r.result.CorpusDir = r.run.CorpusDir

	if err := o.setting.GetMetadataDatabase().Create(r.run).Error; err != nil {
		return nil, utils.WrapError(err, "create training run fail")
	}
	o.logger.Infof("run [%s]: start, artifact dir [%s]", runID, r.run.ArtifactDir)

	paths, err := r.transform()
	if err != nil {
		return nil, r.fail(StageTransforming, err)
	}

	artifact, err := r.train(ctx, paths)
	if err != nil {
		return nil, r.fail(StageTraining, err)
	}

	r.done(artifact)
	return &r.result, nil
}

func (r *runContext) transform() (corpus.Paths, error) {
	r.transit(metadata.RunStateTransforming)

	annotationSetting := &r.o.setting.Annotation
	records, err := annotation.LoadFiles(annotationSetting.TrainFile, annotationSetting.TestFile)
	if err != nil {
		return corpus.Paths{}, err
	}

	builder := corpus.NewBuilder(corpus.BuildSetting{
		Dir:        r.o.setting.Corpus.Dir,
		TrainRatio: r.o.setting.Corpus.TrainRatio,
		Seed:       r.o.setting.Corpus.Seed,
		Logger:     r.o.logger,
	})
	built, paths, err := builder.BuildToDir(records)
	if err != nil {
		return corpus.Paths{}, err
	}
	if len(built.Train) == 0 || len(built.Test) == 0 {
		return corpus.Paths{}, &corpusEmptyError{train: len(built.Train), test: len(built.Test)}
	}

	r.run.TrainCount = len(built.Train)
	r.run.TestCount = len(built.Test)
	r.result.TrainCount = r.run.TrainCount
	r.result.TestCount = r.run.TestCount

	r.o.logger.Infof("run [%s]: corpus built, %d train / %d test", r.run.RunID, r.run.TrainCount, r.run.TestCount)
	return paths, nil
}

func (r *runContext) train(ctx context.Context, paths corpus.Paths) (*trainer.Artifact, error) {
	r.transit(metadata.RunStateTraining)

	training := &r.o.setting.Training
	return r.o.trainer.Train(ctx, trainer.TrainConfig{
		RunID:            r.run.RunID,
		BaseConfigPath:   training.BaseConfigPath,
		OutputConfigPath: training.OutputConfigPath,
		TrainCorpusPath:  paths.Train,
		TestCorpusPath:   paths.Test,
		ArtifactDir:      r.run.ArtifactDir,
	})
}

func (r *runContext) done(artifact *trainer.Artifact) {
	r.result.BestPath = artifact.BestPath
	if artifact.Meta != nil && artifact.Meta.Scores != nil {
		r.result.Scores = artifact.Meta.Scores
		r.run.Set(metadata.ExtraTypeScores, toSchemaScores(artifact.Meta.Scores))
	}

	now := time.Now()
	r.run.FinishedAt = &now
	r.transit(metadata.RunStateDone)

	r.o.logger.Infof("run [%s]: done", r.run.RunID)
	r.o.notify(r.run, nil)
}

func (r *runContext) fail(stage string, err error) error {
	stageErr := &StageError{RunID: r.run.RunID, Stage: stage, Err: err}

	now := time.Now()
	r.run.FinishedAt = &now
	r.run.FailedStage = stage
	r.run.Cause = err.Error()
	r.transit(metadata.RunStateFailed)

	r.o.logger.WithError(err).Errorf("run [%s]: failed at %s", r.run.RunID, stage)
	r.o.notify(r.run, stageErr)

	return stageErr
}

// transit persists the new state; a metadata failure does not stop the run.
func (r *runContext) transit(state string) {
	r.run.State = state
	if err := r.o.setting.GetMetadataDatabase().Save(r.run).Error; err != nil {
		r.o.logger.WithError(err).Warnf("run [%s]: persist state %s fail", r.run.RunID, state)
	}
}

type corpusEmptyError struct {
	train int
	test  int
}

func (e *corpusEmptyError) Error() string {
	return fmt.Sprintf("corpus partition empty: %d train / %d test", e.train, e.test)
}

func toSchemaScores(scores *tagger.Scores) *metadata.SchemaRunScores {
	ret := &metadata.SchemaRunScores{
		LabelScore: metadata.LabelScore(scores.LabelScore),
	}
	if len(scores.PerLabel) != 0 {
		ret.PerLabel = make(map[string]metadata.LabelScore, len(scores.PerLabel))
		for label, score := range scores.PerLabel {
			ret.PerLabel[label] = metadata.LabelScore(score)
		}
	}
	return ret
}
