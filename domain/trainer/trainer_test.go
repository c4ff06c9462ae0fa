package trainer

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/domain/annotation"
	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/domain/corpus"
	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/domain/errs"
	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/domain/tagger"
	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const baseConfig = `paths:
  train: null
  dev: null
  output: null
training:
  tokenizer: word
  lowercase: true
  min_shape_count: 1
`

type nopProcedure struct {
	err   error
	calls int
}

func (p *nopProcedure) Name() string { return "nop" }

func (p *nopProcedure) Invoke(ctx context.Context, job *Job) error {
	p.calls++
	return p.err
}

func testSetting(t *testing.T) *TrainerSetting {
	logging.SetDefaultConfig(logging.GenerateTestConfig(t))
	return &TrainerSetting{Logger: logging.NewLogger()}
}

func prepare(t *testing.T) (string, TrainConfig) {
	dir := t.TempDir()

	base := filepath.Join(dir, "base_config.yaml")
	require.Nil(t, os.WriteFile(base, []byte(baseConfig), 0o644))

	paths := corpus.PathsIn(filepath.Join(dir, "corpus"))
	require.Nil(t, corpus.Save(paths.Train, corpus.PartitionTrain, []corpus.Example{
		{
			Text: "Ravi Kumar secured 1st Position in Basketball during 2012 championship.",
			Spans: []annotation.Entity{
				{Start: 19, End: 31, Label: annotation.LabelWinningPosition},
				{Start: 35, End: 45, Label: annotation.LabelSportsName},
				{Start: 53, End: 57, Label: annotation.LabelOrgYear},
			},
		},
	}))
	require.Nil(t, corpus.Save(paths.Test, corpus.PartitionTest, []corpus.Example{
		{
			Text: "Anita won 2nd Position in Basketball during 2015.",
			Spans: []annotation.Entity{
				{Start: 10, End: 22, Label: annotation.LabelWinningPosition},
				{Start: 26, End: 36, Label: annotation.LabelSportsName},
				{Start: 44, End: 48, Label: annotation.LabelOrgYear},
			},
		},
	}))

	root := filepath.Join(dir, "output")
	return root, TrainConfig{
		RunID:            "run-1",
		BaseConfigPath:   base,
		OutputConfigPath: filepath.Join(dir, "config.yaml"),
		TrainCorpusPath:  paths.Train,
		TestCorpusPath:   paths.Test,
		ArtifactDir:      NewArtifactDir(root, "run-1", time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)),
	}
}

func TestResolveConfig_Deterministic(t *testing.T) {
	_, cfg := prepare(t)

	_, err := resolveConfig(&cfg)
	require.Nil(t, err)
	first, err := os.ReadFile(cfg.OutputConfigPath)
	require.Nil(t, err)

	_, err = resolveConfig(&cfg)
	require.Nil(t, err)
	second, err := os.ReadFile(cfg.OutputConfigPath)
	require.Nil(t, err)

	assert.Equal(t, first, second)

	var parsed struct {
		Paths struct {
			Train  string `yaml:"train"`
			Dev    string `yaml:"dev"`
			Output string `yaml:"output"`
		} `yaml:"paths"`
	}
	require.Nil(t, yaml.Unmarshal(first, &parsed))
	assert.Equal(t, cfg.TrainCorpusPath, parsed.Paths.Train)
	assert.Equal(t, cfg.TestCorpusPath, parsed.Paths.Dev)
	assert.Equal(t, cfg.ArtifactDir, parsed.Paths.Output)
}

func TestTrainer_Gazetteer(t *testing.T) {
	setting := testSetting(t)
	root, cfg := prepare(t)

	trainer := newTrainer(setting, NewGazetteerProcedure(setting.Logger))
	artifact, err := trainer.Train(context.Background(), cfg)
	require.Nil(t, err)

	assert.Equal(t, "run-1", artifact.RunID)
	assert.Equal(t, filepath.Join(cfg.ArtifactDir, ModelBestDir), artifact.BestPath)
	assert.True(t, artifact.Meta.Complete)
	require.NotNil(t, artifact.Meta.Scores)
	assert.Equal(t, 1.0, artifact.Meta.Scores.PerLabel["SPORTS_NAME"].Recall)
	assert.Equal(t, 1.0, artifact.Meta.Scores.F1)

	_, err = os.Stat(filepath.Join(cfg.ArtifactDir, ModelLastDir, tagger.ModelFileName))
	assert.Nil(t, err)

	latest, err := ResolveLatest(root)
	require.Nil(t, err)
	assert.Equal(t, cfg.ArtifactDir, latest.Dir)

	// artifact directories are never reused
	_, err = trainer.Train(context.Background(), cfg)
	var trainErr *errs.TrainingInvocationError
	assert.True(t, errors.As(err, &trainErr))
}

func TestTrainer_PostCondition(t *testing.T) {
	root, cfg := prepare(t)
	procedure := &nopProcedure{}

	_, err := newTrainer(testSetting(t), procedure).Train(context.Background(), cfg)

	var trainErr *errs.TrainingInvocationError
	require.True(t, errors.As(err, &trainErr))
	assert.Equal(t, "run-1", trainErr.RunID)
	assert.Equal(t, 1, procedure.calls)

	_, err = ResolveLatest(root)
	var loadErr *errs.ModelLoadError
	assert.True(t, errors.As(err, &loadErr))
}

func TestTrainer_ProcedureFailure(t *testing.T) {
	_, cfg := prepare(t)
	procedure := &nopProcedure{err: errors.New("out of memory")}

	_, err := newTrainer(testSetting(t), procedure).Train(context.Background(), cfg)

	var trainErr *errs.TrainingInvocationError
	require.True(t, errors.As(err, &trainErr))
	assert.Contains(t, err.Error(), "out of memory")
}

func TestTrainer_MissingTemplate(t *testing.T) {
	_, cfg := prepare(t)
	cfg.BaseConfigPath = filepath.Join(t.TempDir(), "missing.yaml")
	procedure := &nopProcedure{}

	_, err := newTrainer(testSetting(t), procedure).Train(context.Background(), cfg)

	var trainErr *errs.TrainingInvocationError
	assert.True(t, errors.As(err, &trainErr))
	assert.Equal(t, 0, procedure.calls)
}

func TestCommandProcedure(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	setting := testSetting(t)
	_, cfg := prepare(t)

	procedure := NewCommandProcedure([]string{
		"sh", "-c",
		`mkdir -p {output}/model-best && echo training {train} && printf '{"pipeline":"external","complete":true}' > {output}/model-best/meta.json`,
	}, setting.Logger)

	artifact, err := newTrainer(setting, procedure).Train(context.Background(), cfg)
	require.Nil(t, err)
	assert.Equal(t, "external", artifact.Meta.Pipeline)
	assert.Equal(t, "run-1", artifact.RunID)
}

func TestCommandProcedure_MarksExternalMetaComplete(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	setting := testSetting(t)
	_, cfg := prepare(t)

	procedure := NewCommandProcedure([]string{
		"sh", "-c",
		`mkdir -p {output}/model-best && printf '{"lang":"en","pipeline":["tok2vec","ner"]}' > {output}/model-best/meta.json`,
	}, setting.Logger)

	artifact, err := newTrainer(setting, procedure).Train(context.Background(), cfg)
	require.Nil(t, err)
	assert.True(t, artifact.Meta.Complete)
	assert.Equal(t, tagger.PipelineExternal, artifact.Meta.Pipeline)
	assert.Equal(t, "run-1", artifact.Meta.RunID)

	data, err := os.ReadFile(filepath.Join(artifact.BestPath, tagger.MetaFileName))
	require.Nil(t, err)
	var raw map[string]interface{}
	require.Nil(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "en", raw["lang"])
	assert.Equal(t, []interface{}{"tok2vec", "ner"}, raw["components"])
}

func TestCommandProcedure_NoMetaFails(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	setting := testSetting(t)
	_, cfg := prepare(t)

	procedure := NewCommandProcedure([]string{"sh", "-c", "mkdir -p {output}/model-best"}, setting.Logger)

	_, err := newTrainer(setting, procedure).Train(context.Background(), cfg)
	var trainErr *errs.TrainingInvocationError
	assert.True(t, errors.As(err, &trainErr))
}

func TestNewTrainer_NilLogger(t *testing.T) {
	_, cfg := prepare(t)

	artifact, err := newTrainer(&TrainerSetting{}, NewGazetteerProcedure(nil)).Train(context.Background(), cfg)
	require.Nil(t, err)
	assert.True(t, artifact.Meta.Complete)
}

func TestResolveLatest(t *testing.T) {
	root := t.TempDir()
	older := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := older.Add(time.Hour)

	write := func(runID string, created time.Time, complete bool) string {
		dir := NewArtifactDir(root, runID, created)
		require.Nil(t, tagger.WriteMeta(filepath.Join(dir, ModelBestDir), &tagger.Meta{
			Pipeline:  tagger.PipelineGazetteer,
			RunID:     runID,
			Complete:  complete,
			CreatedAt: created,
		}))
		return dir
	}

	write("a", older, true)
	expect := write("b", newer, true)
	write("c", newer.Add(time.Hour), false)
	require.Nil(t, os.MkdirAll(filepath.Join(root, "partial"), 0o755))

	latest, err := ResolveLatest(root)
	require.Nil(t, err)
	assert.Equal(t, expect, latest.Dir)
	assert.Equal(t, "b", latest.RunID)

	all, err := ListArtifacts(root)
	require.Nil(t, err)
	assert.Len(t, all, 2)
}
