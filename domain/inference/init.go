package inference

import (
	"context"

	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/config"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type InferenceSetting struct {
	Logger              *logrus.Logger
	GetMetadataDatabase func() *gorm.DB
	ArtifactRoot        string
	Inference           config.InferenceSettings
}

var globalSetting InferenceSetting

func Init(setting *InferenceSetting) {
	globalSetting = *setting
}

func NewRunner(extractor Extractor) *Runner {
	return newRunner(&globalSetting, extractor)
}

func RunJob(ctx context.Context, request JobRequest) (*JobResult, error) {
	return runJob(ctx, &globalSetting, request)
}
