package trainer

import (
	"fmt"

	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/config"
	"github.com/sirupsen/logrus"
)

type TrainerSetting struct {
	Logger *logrus.Logger
}

var globalSetting TrainerSetting

func Init(setting *TrainerSetting) {
	globalSetting = *setting
}

func NewTrainer(procedure Procedure) *Trainer {
	return newTrainer(&globalSetting, procedure)
}

// NewLocalProcedure builds the in-process procedures; the queue procedure lives in trainercall.
func NewLocalProcedure(settings *config.TrainingSettings) (Procedure, error) {
	switch settings.Procedure {
	case config.ProcedureGazetteer, "":
		return NewGazetteerProcedure(globalSetting.Logger), nil
	case config.ProcedureCommand:
		return NewCommandProcedure(settings.Command, globalSetting.Logger), nil
	default:
		return nil, fmt.Errorf("procedure %q is not a local procedure", settings.Procedure)
	}
}
