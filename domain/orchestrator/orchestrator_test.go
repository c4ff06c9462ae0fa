package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/config"
	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/domain/errs"
	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/domain/trainer"
	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/logging"
	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/repository/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const baseConfig = `paths:
  train: null
  dev: null
  output: null
training:
  tokenizer: word
  lowercase: true
  min_shape_count: 2
`

var sports = []string{"Chess", "Tennis", "Basketball", "Kabaddi"}

// writeAnnotations writes n records in the bare-array document format.
func writeAnnotations(t *testing.T, path string, n int) {
	var doc []interface{}
	for i := 0; i < n; i++ {
		sport := sports[i%len(sports)]
		text := fmt.Sprintf("Player %02d won Gold in %s during %d.", i, sport, 2010+i)
		span := func(value, label string) []interface{} {
			start := strings.Index(text, value)
			return []interface{}{start, start + len(value), label}
		}
		doc = append(doc, []interface{}{
			text,
			map[string]interface{}{"entities": []interface{}{
				span("Gold", "WINNING_POSITION"),
				span(sport, "SPORTS_NAME"),
				span(fmt.Sprint(2010+i), "ORG_YEAR"),
			}},
		})
	}

	data, err := json.Marshal(doc)
	require.Nil(t, err)
	require.Nil(t, os.WriteFile(path, data, 0o644))
}

type sentMail struct {
	address string
	subject string
	content string
}

type fixture struct {
	setting *OrchestratorSetting
	db      *gorm.DB
	mails   []sentMail
}

func newFixture(t *testing.T) *fixture {
	logging.SetDefaultConfig(logging.GenerateTestConfig(t))
	logger := logging.NewLogger()

	db, err := metadata.CreateDatabase(metadata.GenerateTestConfig())
	require.Nil(t, err)

	dir := t.TempDir()
	base := filepath.Join(dir, "base_config.yaml")
	require.Nil(t, os.WriteFile(base, []byte(baseConfig), 0o644))

	f := &fixture{db: db}
	f.setting = &OrchestratorSetting{
		Logger:              logger,
		GetMetadataDatabase: func() *gorm.DB { return db },
		SendMail: func(address, subject, htmlContent string) error {
			f.mails = append(f.mails, sentMail{address, subject, htmlContent})
			return nil
		},
		Annotation: config.AnnotationSettings{
			TrainFile: filepath.Join(dir, "train.json"),
			TestFile:  filepath.Join(dir, "test.json"),
		},
		Corpus: config.CorpusSettings{
			Dir:        filepath.Join(dir, "corpus"),
			TrainRatio: 0.8,
			Seed:       42,
		},
		Training: config.TrainingSettings{
			BaseConfigPath:   base,
			OutputConfigPath: filepath.Join(dir, "config.yaml"),
			ArtifactRoot:     filepath.Join(dir, "output"),
			NotifyEmail:      "ops@example.com",
		},
	}

	writeAnnotations(t, f.setting.Annotation.TrainFile, 8)
	writeAnnotations(t, f.setting.Annotation.TestFile, 2)
	return f
}

func (f *fixture) loadRun(t *testing.T, runID string) *metadata.TrainingRun {
	var run metadata.TrainingRun
	require.Nil(t, f.db.Where("run_id = ?", runID).First(&run).Error)
	return &run
}

type fakeProcedure struct{}

func (fakeProcedure) Name() string { return "fake" }

func (fakeProcedure) Invoke(ctx context.Context, job *trainer.Job) error { return nil }

// fakeTrainer counts calls and optionally blocks until released.
type fakeTrainer struct {
	lock    sync.Mutex
	calls   int
	err     error
	entered chan struct{}
	release chan struct{}
}

func (f *fakeTrainer) Procedure() trainer.Procedure { return fakeProcedure{} }

func (f *fakeTrainer) Train(ctx context.Context, cfg trainer.TrainConfig) (*trainer.Artifact, error) {
	f.lock.Lock()
	f.calls++
	f.lock.Unlock()

	if f.entered != nil {
		f.entered <- struct{}{}
		<-f.release
	}
	if f.err != nil {
		return nil, f.err
	}
	return &trainer.Artifact{RunID: cfg.RunID, Dir: cfg.ArtifactDir, BestPath: filepath.Join(cfg.ArtifactDir, trainer.ModelBestDir)}, nil
}

func TestRun_Done(t *testing.T) {
	f := newFixture(t)
	trainer.Init(&trainer.TrainerSetting{Logger: f.setting.Logger})
	o := newOrchestrator(f.setting, trainer.NewTrainer(trainer.NewGazetteerProcedure(f.setting.Logger)))

	result, err := o.Run(context.Background())
	require.Nil(t, err)

	assert.NotEmpty(t, result.RunID)
	assert.True(t, strings.HasSuffix(result.ArtifactDir, "-"+result.RunID))
	assert.Equal(t, 8, result.TrainCount)
	assert.Equal(t, 2, result.TestCount)
	require.NotNil(t, result.Scores)
	assert.FileExists(t, filepath.Join(result.BestPath, "meta.json"))

	latest, err := trainer.ResolveLatest(f.setting.Training.ArtifactRoot)
	require.Nil(t, err)
	assert.Equal(t, result.RunID, latest.RunID)

	run := f.loadRun(t, result.RunID)
	assert.Equal(t, metadata.RunStateDone, run.State)
	assert.Equal(t, "gazetteer", run.Procedure)
	assert.NotNil(t, run.FinishedAt)

	var scores metadata.SchemaRunScores
	require.True(t, run.Get(metadata.ExtraTypeScores, &scores))
	assert.Equal(t, result.Scores.F1, scores.F1)

	require.Len(t, f.mails, 1)
	assert.Equal(t, "ops@example.com", f.mails[0].address)
	assert.Contains(t, f.mails[0].subject, "完成")
	assert.Contains(t, f.mails[0].content, result.RunID)
}

func TestRun_FreshRunEachTime(t *testing.T) {
	f := newFixture(t)
	o := newOrchestrator(f.setting, &fakeTrainer{})

	first, err := o.Run(context.Background())
	require.Nil(t, err)
	second, err := o.Run(context.Background())
	require.Nil(t, err)

	assert.NotEqual(t, first.RunID, second.RunID)
	assert.NotEqual(t, first.ArtifactDir, second.ArtifactDir)
}

func TestRun_TransformingFailureSkipsTraining(t *testing.T) {
	f := newFixture(t)
	overlap := `[["Gold in Chess", {"entities": [[0, 4, "WINNING_POSITION"], [2, 7, "SPORTS_NAME"]]}]]`
	require.Nil(t, os.WriteFile(f.setting.Annotation.TestFile, []byte(overlap), 0o644))

	modelTrainer := &fakeTrainer{}
	o := newOrchestrator(f.setting, modelTrainer)

	result, err := o.Run(context.Background())
	assert.Nil(t, result)

	var stageErr *StageError
	require.True(t, errors.As(err, &stageErr))
	assert.Equal(t, StageTransforming, stageErr.Stage)

	var formatErr *errs.AnnotationFormatError
	assert.True(t, errors.As(err, &formatErr))
	assert.Equal(t, 0, modelTrainer.calls)

	run := f.loadRun(t, stageErr.RunID)
	assert.Equal(t, metadata.RunStateFailed, run.State)
	assert.Equal(t, StageTransforming, run.FailedStage)
	assert.NotEmpty(t, run.Cause)

	require.Len(t, f.mails, 1)
	assert.Contains(t, f.mails[0].subject, "失败")
}

func TestRun_TooFewRecords(t *testing.T) {
	f := newFixture(t)
	writeAnnotations(t, f.setting.Annotation.TrainFile, 1)
	require.Nil(t, os.WriteFile(f.setting.Annotation.TestFile, []byte(`[]`), 0o644))

	modelTrainer := &fakeTrainer{}
	_, err := newOrchestrator(f.setting, modelTrainer).Run(context.Background())

	var buildErr *errs.CorpusBuildError
	require.True(t, errors.As(err, &buildErr))
	assert.Equal(t, 0, modelTrainer.calls)
}

func TestRun_TrainingFailure(t *testing.T) {
	f := newFixture(t)
	f.setting.Training.NotifyEmail = ""

	modelTrainer := &fakeTrainer{err: &errs.TrainingInvocationError{RunID: "x", Err: errors.New("exit status 1")}}
	_, err := newOrchestrator(f.setting, modelTrainer).Run(context.Background())

	var stageErr *StageError
	require.True(t, errors.As(err, &stageErr))
	assert.Equal(t, StageTraining, stageErr.Stage)

	var invocationErr *errs.TrainingInvocationError
	assert.True(t, errors.As(err, &invocationErr))

	run := f.loadRun(t, stageErr.RunID)
	assert.Equal(t, metadata.RunStateFailed, run.State)
	assert.Equal(t, StageTraining, run.FailedStage)
	assert.Equal(t, 8, run.TrainCount)
	assert.Empty(t, f.mails)
}

func TestRun_InProgress(t *testing.T) {
	f := newFixture(t)
	modelTrainer := &fakeTrainer{entered: make(chan struct{}, 1), release: make(chan struct{})}
	o := newOrchestrator(f.setting, modelTrainer)

	done := make(chan error, 1)
	go func() {
		_, err := o.Run(context.Background())
		done <- err
	}()

	select {
	case <-modelTrainer.entered:
	case <-time.After(10 * time.Second):
		t.Fatal("first run never reached training")
	}

	_, err := o.Run(context.Background())
	assert.ErrorIs(t, err, ErrRunInProgress)

	close(modelTrainer.release)
	assert.Nil(t, <-done)

	_, err = o.Run(context.Background())
	assert.Nil(t, err)
}

func TestRenderScores(t *testing.T) {
	content := renderScores(&metadata.SchemaRunScores{
		LabelScore: metadata.LabelScore{Precision: 1, Recall: 0.5, F1: 0.667, Support: 4},
		PerLabel: map[string]metadata.LabelScore{
			"SPORTS_NAME": {Precision: 1, Recall: 1, F1: 1, Support: 2},
			"ORG_YEAR":    {Support: 2},
		},
	})
	assert.Equal(t,
		"overall: P=1.000 R=0.500 F1=0.667 (support 4)<br/>"+
			"ORG_YEAR: P=0.000 R=0.000 F1=0.000 (support 2)<br/>"+
			"SPORTS_NAME: P=1.000 R=1.000 F1=1.000 (support 2)",
		content)
}
