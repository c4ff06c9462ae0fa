package trainercall

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/domain/trainer"
	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/utils"
	"github.com/sirupsen/logrus"
	"github.com/streadway/amqp"
)

var (
	errEmptyBody  = errors.New("message body is empty")
	errUnknownRun = errors.New("no pending run")
)

/*
QueueProcedure 将训练任务发布到 train_input 队列，由外部训练 worker 执行，
并阻塞等待 train_output 队列中同一 run_id 的结果。
*/
type QueueProcedure struct {
	publisher publisher
	logger    *logrus.Logger

	pendingLock sync.Mutex
	pending     map[string]chan TrainResultSchema
}

var _ trainer.Procedure = (*QueueProcedure)(nil)

func newQueueProcedure(publisher publisher, logger *logrus.Logger) *QueueProcedure {
	return &QueueProcedure{
		publisher: publisher,
		logger:    logger,
		pending:   make(map[string]chan TrainResultSchema),
	}
}

func (p *QueueProcedure) Name() string {
	return "queue"
}

func (p *QueueProcedure) Invoke(ctx context.Context, job *trainer.Job) error {
	resultChan := make(chan TrainResultSchema, 1)

	p.pendingLock.Lock()
	if _, exist := p.pending[job.RunID]; exist {
		p.pendingLock.Unlock()
		return fmt.Errorf("run [%s] is already waiting for a worker", job.RunID)
	}
	p.pending[job.RunID] = resultChan
	p.pendingLock.Unlock()

	defer func() {
		p.pendingLock.Lock()
		delete(p.pending, job.RunID)
		p.pendingLock.Unlock()
	}()

	err := p.publisher.Publish(QueueTrainInput, job.RunID, TrainTaskSchema{
		RunID:      job.RunID,
		ConfigPath: job.ConfigPath,
		TrainPath:  job.TrainPath,
		DevPath:    job.DevPath,
		OutputDir:  job.OutputDir,
	})
	if err != nil {
		return utils.WrapError(err, "publish train task fail")
	}

	p.logger.Infof("run [%s]: train task published, waiting for worker", job.RunID)

	select {
	case result := <-resultChan:
		if result.Status != StatusDone {
			return fmt.Errorf("worker reported %s: %s", result.Status, result.Message)
		}
		return nil
	case <-ctx.Done():
		return utils.WrapErrorf(ctx.Err(), "run [%s] wait for worker", job.RunID)
	}
}

func (p *QueueProcedure) dispatch(result TrainResultSchema) error {
	p.pendingLock.Lock()
	resultChan, ok := p.pending[result.RunID]
	p.pendingLock.Unlock()

	if !ok {
		return utils.WrapErrorf(errUnknownRun, "result for run [%s]", result.RunID)
	}

	select {
	case resultChan <- result:
	default:
		// a duplicate delivery for a run that already has its result
	}
	return nil
}

func buildReceive(procedure *QueueProcedure) func(msg *amqp.Delivery) error {
	return func(msg *amqp.Delivery) error {
		if len(msg.Body) == 0 {
			return utils.WrapError(errEmptyBody, "msg.Body is empty")
		}

		var data TrainResultSchema
		if err := json.Unmarshal(msg.Body, &data); err != nil {
			return utils.WrapErrorf(err, "json unmarshal fail with[%s]", string(msg.Body))
		}

		if len(data.RunID) == 0 {
			data.RunID = msg.CorrelationId
		}

		return procedure.dispatch(data)
	}
}
