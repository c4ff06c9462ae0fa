package trainercall

import (
	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/utils"
	"github.com/sirupsen/logrus"
)

type Config struct {
	RabbitMQConfig MQConnectionConfig
	Logger         *logrus.Logger
}

const (
	QueueTrainInput  = "train_input"
	QueueTrainOutput = "train_output"
)

var (
	globalMQManager *rabbitMQManager
	globalProcedure *QueueProcedure
)

// Init connects to the broker and starts listening for train results.
func Init(config *Config) error {
	manager, err := newRabbitMQManager(config.RabbitMQConfig.ToURL(), []string{
		QueueTrainInput,
		QueueTrainOutput,
	}, config.Logger)
	if err != nil {
		return utils.WrapError(err, "create rabbitmq manager fail")
	}

	procedure := newQueueProcedure(manager, config.Logger)

	err = manager.ListenOn(QueueTrainOutput, buildReceive(procedure))
	if err != nil {
		manager.Close()
		return utils.WrapErrorf(err, "listen on [%s] fail", QueueTrainOutput)
	}

	globalMQManager = manager
	globalProcedure = procedure
	return nil
}

// Procedure returns the queue procedure, nil before Init succeeds.
func Procedure() *QueueProcedure {
	return globalProcedure
}

func Close() {
	if globalMQManager != nil {
		err := globalMQManager.Close()
		if err != nil {
			globalMQManager.logger.WithError(err).Errorf("globalMQManager close fail with err:\n%v", err)
		}
	}
}
