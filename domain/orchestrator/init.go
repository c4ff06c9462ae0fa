package orchestrator

import (
	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/config"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

/*
OrchestratorSetting 训练流程所需的配置。

	SendMail 发送通知邮件，为 nil 或 Training.NotifyEmail 为空时不通知。
*/
type OrchestratorSetting struct {
	Logger              *logrus.Logger
	GetMetadataDatabase func() *gorm.DB
	SendMail            func(address, subject, htmlContent string) error

	Annotation config.AnnotationSettings
	Corpus     config.CorpusSettings
	Training   config.TrainingSettings
}

var (
	globalSetting      OrchestratorSetting
	globalOrchestrator *Orchestrator
)

func Init(setting *OrchestratorSetting, modelTrainer ModelTrainer) {
	globalSetting = *setting
	globalOrchestrator = newOrchestrator(&globalSetting, modelTrainer)
}

// Default returns the orchestrator built by Init.
func Default() *Orchestrator {
	return globalOrchestrator
}
