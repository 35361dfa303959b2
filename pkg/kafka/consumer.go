package kafka

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/segmentio/kafka-go"
)

// MessageHandler handles messages from a specific topic.
type MessageHandler interface {
	Topic() string
	Handle(context.Context, []byte) error
}

var (
	consumerMetricsOnce sync.Once
	consumerProcessed   *prometheus.CounterVec
	consumerFailed      *prometheus.CounterVec
	consumerQueueDepth  *prometheus.GaugeVec
)

func initConsumerMetrics() {
	consumerMetricsOnce.Do(func() {
		consumerProcessed = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kafka_consumer_messages_processed_total",
				Help: "Messages handled successfully, by topic",
			},
			[]string{"topic"},
		)
		consumerFailed = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kafka_consumer_messages_failed_total",
				Help: "Messages that exhausted retries, by topic",
			},
			[]string{"topic"},
		)
		consumerQueueDepth = promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "kafka_consumer_queue_depth",
				Help: "Buffered messages awaiting a worker, by topic",
			},
			[]string{"topic"},
		)
	})
}

// Consumer wraps Kafka readers with a worker pool and bounded retry.
type Consumer struct {
	cfg      *ConsumerConfig
	readers  map[string]*kafka.Reader
	handlers map[string]MessageHandler
	stopChan chan struct{}
	msgChan  chan *message
	readerWg sync.WaitGroup
	workerWg sync.WaitGroup
	stopOnce sync.Once
}

type message struct {
	topic string
	data  []byte
}

// NewConsumer creates a new Kafka consumer.
func NewConsumer(opts ...ConsumerOption) (*Consumer, error) {
	cfg := &ConsumerConfig{
		GroupID:     "default",
		WorkerCount: 1,
		BufferSize:  10,
		RetryMax:    3,
		BackoffMin:  50 * time.Millisecond,
		BackoffMax:  2 * time.Second,
		MinBytes:    10e3, // 10KB
		MaxBytes:    10e6, // 10MB
	}

	for _, opt := range opts {
		opt(cfg)
	}

	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("brokers are required")
	}

	initConsumerMetrics()

	return &Consumer{
		cfg:      cfg,
		readers:  make(map[string]*kafka.Reader),
		handlers: make(map[string]MessageHandler),
		stopChan: make(chan struct{}),
		msgChan:  make(chan *message, cfg.BufferSize),
	}, nil
}

// RegisterHandler registers a message handler for a specific topic.
func (c *Consumer) RegisterHandler(handler MessageHandler) {
	topic := handler.Topic()
	if _, ok := c.handlers[topic]; ok {
		log.Printf("warn: handler already registered for topic %s", topic)
		return
	}
	c.handlers[topic] = handler
}

// Start starts readers and the worker pool.
func (c *Consumer) Start() error {
	for topic := range c.handlers {
		reader := kafka.NewReader(kafka.ReaderConfig{
			Brokers:  c.cfg.Brokers,
			Topic:    topic,
			GroupID:  c.cfg.GroupID,
			MinBytes: c.cfg.MinBytes,
			MaxBytes: c.cfg.MaxBytes,
		})
		c.readers[topic] = reader
		log.Printf("kafka consumer: registered topic=%s", topic)
	}

	for i := 0; i < c.cfg.WorkerCount; i++ {
		c.workerWg.Add(1)
		go c.messageWorker()
	}

	for topic, reader := range c.readers {
		c.readerWg.Add(1)
		go c.consumeMessages(topic, reader)
	}

	log.Printf("kafka consumer: started workers=%d", c.cfg.WorkerCount)
	return nil
}

// Stop stops the consumer gracefully.
func (c *Consumer) Stop(ctx context.Context) error {
	var stopErr error

	c.stopOnce.Do(func() {
		log.Println("kafka consumer: stopping...")

		close(c.stopChan)

		// Readers must exit before msgChan closes; one may still be
		// selecting on a send into it.
		if err := c.waitFor(ctx, &c.readerWg); err != nil {
			stopErr = err
		} else {
			close(c.msgChan)
			stopErr = c.waitFor(ctx, &c.workerWg)
		}

		for topic, reader := range c.readers {
			if err := reader.Close(); err != nil {
				log.Printf("error closing reader for topic %s: %v", topic, err)
			}
		}

		if stopErr == nil {
			log.Println("kafka consumer: stopped")
		}
	})

	return stopErr
}

func (c *Consumer) waitFor(ctx context.Context, wg *sync.WaitGroup) error {
	doneChan := make(chan struct{})
	go func() {
		wg.Wait()
		close(doneChan)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("timeout waiting for consumer to stop: %w", ctx.Err())
	case <-doneChan:
		return nil
	}
}

func (c *Consumer) consumeMessages(topic string, reader *kafka.Reader) {
	defer c.readerWg.Done()

	for {
		select {
		case <-c.stopChan:
			return
		default:
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			msg, err := reader.ReadMessage(ctx)
			cancel()

			if err != nil {
				if !errors.Is(err, context.DeadlineExceeded) {
					log.Printf("error reading message from topic %s: %v", topic, err)
				}
				continue
			}

			select {
			case c.msgChan <- &message{topic: topic, data: msg.Value}:
				consumerQueueDepth.WithLabelValues(topic).Set(float64(len(c.msgChan)))
			case <-c.stopChan:
				return
			}
		}
	}
}

// messageWorker processes messages with bounded jittered retry; a message
// that exhausts retries is counted and skipped so the partition keeps moving.
func (c *Consumer) messageWorker() {
	defer c.workerWg.Done()

	for msg := range c.msgChan {
		handler, exists := c.handlers[msg.topic]
		if !exists {
			continue
		}

		var err error
		for attempt := 0; attempt <= c.cfg.RetryMax; attempt++ {
			if attempt > 0 {
				time.Sleep(c.backoff(attempt))
			}
			if err = c.handleSafely(handler, msg.data); err == nil {
				break
			}
		}

		if err != nil {
			consumerFailed.WithLabelValues(msg.topic).Inc()
			log.Printf("kafka consumer: giving up on message topic=%s: %v", msg.topic, err)
			continue
		}
		consumerProcessed.WithLabelValues(msg.topic).Inc()
	}
}

func (c *Consumer) handleSafely(handler MessageHandler, data []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return handler.Handle(context.Background(), data)
}

func (c *Consumer) backoff(attempt int) time.Duration {
	d := c.cfg.BackoffMin << (attempt - 1)
	if d > c.cfg.BackoffMax {
		d = c.cfg.BackoffMax
	}
	// jitter spreads retries from concurrent workers
	return d/2 + time.Duration(rand.Int63n(int64(d/2)+1))
}
