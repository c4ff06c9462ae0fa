package trainercall

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/Nihal108-bi/NER-powered-Sports-Certificate-Analyzer/utils"
	"github.com/sirupsen/logrus"
	"github.com/streadway/amqp"
)

var (
	ErrClosed        = errors.New("manager has been closed")
	ErrQueueNotFound = errors.New("queue not found in rabbit mq")
)

type MQConnectionConfig struct {
	// RabbitMQ分配的用户名称
	User string
	// RabbitMQ用户的密码
	Pwd string
	// RabbitMQ Broker 的ip地址
	Host string
	// RabbitMQ Broker 监听的端口
	Port string
}

func (c *MQConnectionConfig) ToURL() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%s/", c.User, c.Pwd, c.Host, c.Port)
}

func GenerateTestMQConnectionConfig() MQConnectionConfig {
	return MQConnectionConfig{
		User: "guest",
		Pwd:  "guest",
		Host: "localhost",
		Port: "5672",
	}
}

// publisher is the part of the manager a QueueProcedure needs.
type publisher interface {
	Publish(queueName, correlationID string, obj any) error
}

/*
rabbitMQManager 持有一个到 Broker 的连接，声明的队列都是持久化队列，
训练任务与结果在 Broker 重启后不会丢失。每个 ListenOn 使用独立的 channel 与 goroutine。
*/
type rabbitMQManager struct {
	logger   *logrus.Logger
	conn     *amqp.Connection
	queueMap map[string]*amqp.Queue

	listenMapLock sync.Mutex
	listenMap     map[string]chan<- struct{} // queueName -> stopChan

	closer sync.Once
}

func newRabbitMQManager(url string, queueList []string, logger *logrus.Logger) (*rabbitMQManager, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, utils.WrapError(err, "create connection fail")
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, utils.WrapError(err, "create channel fail")
	}
	defer ch.Close()

	queueMap := make(map[string]*amqp.Queue)
	for _, queueName := range queueList {
		q, err := ch.QueueDeclare(
			queueName,
			true,  // durable
			false, // auto-delete
			false, // exclusive
			false, // no-wait
			nil,
		)
		if err != nil {
			conn.Close()
			return nil, utils.WrapErrorf(err, "declare queue [%s] fail", queueName)
		}

		queueMap[queueName] = &q
	}

	return &rabbitMQManager{
		logger:    logger,
		conn:      conn,
		queueMap:  queueMap,
		listenMap: make(map[string]chan<- struct{}),
	}, nil
}

func (mq *rabbitMQManager) Close() error {
	var err error
	closeCalled := false

	mq.closer.Do(func() {
		closeCalled = true

		func() {
			mq.listenMapLock.Lock()
			defer mq.listenMapLock.Unlock()

			for queueName, stopChan := range mq.listenMap {
				mq.logger.Infof("stopping listening of queue [%s] for closing the manager", queueName)
				close(stopChan)
			}
			mq.listenMap = make(map[string]chan<- struct{})
		}()

		err = mq.conn.Close()
	})

	if !closeCalled {
		return ErrClosed
	}

	return err
}

func (mq *rabbitMQManager) Publish(queueName, correlationID string, obj any) error {
	queue, ok := mq.queueMap[queueName]
	if !ok {
		return ErrQueueNotFound
	}

	jsonBytes, err := json.Marshal(obj)
	if err != nil {
		return utils.WrapError(err, "json marshal fail")
	}

	ch, err := mq.conn.Channel()
	if err != nil {
		return utils.WrapError(err, "create channel fail")
	}
	defer ch.Close()

	err = ch.Publish(
		"",         // exchange
		queue.Name, // routing key
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			DeliveryMode:  amqp.Persistent,
			ContentType:   "application/json",
			CorrelationId: correlationID,
			Body:          jsonBytes,
		})
	return utils.WrapError(err, "publish fail")
}

func (mq *rabbitMQManager) ListenOn(queueName string, callback func(msg *amqp.Delivery) error) error {
	queue, ok := mq.queueMap[queueName]
	if !ok {
		return ErrQueueNotFound
	}

	ch, err := mq.conn.Channel()
	if err != nil {
		return utils.WrapError(err, "create channel fail")
	}

	msgs, err := ch.Consume(
		queue.Name,
		"",    // consumer
		true,  // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		ch.Close()
		return utils.WrapError(err, "create delivery-chan fail")
	}

	stopChan := make(chan struct{})

	mq.listenMapLock.Lock()
	defer mq.listenMapLock.Unlock()

	if oldStopChan, ok := mq.listenMap[queueName]; ok {
		close(oldStopChan)
	}
	mq.listenMap[queueName] = stopChan

	go mq.listen(ch, stopChan, msgs, queueName, callback)

	return nil
}

func (mq *rabbitMQManager) listen(ch *amqp.Channel, stop <-chan struct{}, msgs <-chan amqp.Delivery, queueName string, callback func(msg *amqp.Delivery) error) {
	defer ch.Close()

	for {
		select {
		case msg, alive := <-msgs:
			if !alive {
				mq.logger.Infof("exiting loop for listening queue [%s] due to channel closed", queueName)
				return
			}

			mq.logger.Debugf("receive data from [%s]: %s", queueName, string(msg.Body))

			if err := callback(&msg); err != nil {
				mq.logger.Errorf("invoking callback for queue [%s] fail with err=%s", queueName, err)
			}
		case <-stop:
			mq.logger.Infof("exiting loop for listening queue [%s] due to Close signal", queueName)
			return
		}
	}
}
