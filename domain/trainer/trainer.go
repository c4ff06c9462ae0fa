package trainer

import (
	"context"
	"fmt"
	"os"

	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/domain/errs"
	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/logging"
	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/utils"
	"github.com/sirupsen/logrus"
)

/*
Trainer 负责一次训练：生成完整训练配置、调用训练过程、校验产出。

训练过程失败不会重试；调用结束后 model-best/meta.json 必须存在且完整，否则视为失败。
*/
type Trainer struct {
	procedure Procedure
	logger    *logrus.Logger
}

func newTrainer(setting *TrainerSetting, procedure Procedure) *Trainer {
	logger := setting.Logger
	if logger == nil {
		logger = logging.NewLogger()
	}
	return &Trainer{
		procedure: procedure,
		logger:    logger,
	}
}

func (t *Trainer) Procedure() Procedure {
	return t.procedure
}

func (t *Trainer) Train(ctx context.Context, cfg TrainConfig) (*Artifact, error) {
	if err := cfg.check(); err != nil {
		return nil, &errs.TrainingInvocationError{RunID: cfg.RunID, Err: err}
	}

	if _, err := os.Stat(cfg.ArtifactDir); err == nil {
		return nil, &errs.TrainingInvocationError{
			RunID: cfg.RunID,
			Err:   fmt.Errorf("artifact dir [%s] already exists", cfg.ArtifactDir),
		}
	}

	resolved, err := resolveConfig(&cfg)
	if err != nil {
		return nil, &errs.TrainingInvocationError{RunID: cfg.RunID, Err: utils.WrapError(err, "resolve config fail")}
	}

	if err := os.MkdirAll(cfg.ArtifactDir, 0o755); err != nil {
		return nil, &errs.TrainingInvocationError{RunID: cfg.RunID, Err: utils.WrapError(err, "create artifact dir fail")}
	}

	job := &Job{
		RunID:      cfg.RunID,
		ConfigPath: cfg.OutputConfigPath,
		Config:     resolved,
		TrainPath:  cfg.TrainCorpusPath,
		DevPath:    cfg.TestCorpusPath,
		OutputDir:  cfg.ArtifactDir,
	}

	t.logger.Infof("run [%s]: invoke %s procedure, output [%s]", cfg.RunID, t.procedure.Name(), cfg.ArtifactDir)

	if err := t.procedure.Invoke(ctx, job); err != nil {
		return nil, &errs.TrainingInvocationError{
			RunID: cfg.RunID,
			Err:   utils.WrapErrorf(err, "%s procedure fail", t.procedure.Name()),
		}
	}

	artifact, err := CheckArtifact(cfg.ArtifactDir)
	if err != nil {
		return nil, &errs.TrainingInvocationError{RunID: cfg.RunID, Err: utils.WrapError(err, "artifact post-condition fail")}
	}
	if len(artifact.RunID) == 0 {
		artifact.RunID = cfg.RunID
	}

	t.logger.Infof("run [%s]: best checkpoint at [%s]", cfg.RunID, artifact.BestPath)

	return artifact, nil
}
