package bus

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// partitionQueueLen bounds how many fetched messages may wait per
// partition before the fetch loop backs off.
const partitionQueueLen = 16

// KafkaBus implements Publisher and Subscriber on a Kafka cluster.
type KafkaBus struct {
	brokers []string
	groupID string
	workers int
	writer  *kafka.Writer
	log     *zap.Logger
}

// NewKafka creates a bus connected to the given brokers. The writer hashes
// message keys so per-key ordering survives partitioning; workers bounds
// how many partitions are handled at once on the consume side.
func NewKafka(brokers []string, groupID string, workers int) *KafkaBus {
	if workers < 1 {
		workers = 1
	}
	return &KafkaBus{
		brokers: brokers,
		groupID: groupID,
		workers: workers,
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			BatchTimeout: 10 * time.Millisecond,
		},
		log: zap.L().With(zap.String("component", "bus")),
	}
}

func (b *KafkaBus) Publish(ctx context.Context, msgs ...Message) error {
	if len(msgs) == 0 {
		return nil
	}
	out := make([]kafka.Message, len(msgs))
	for i, m := range msgs {
		out[i] = kafka.Message{Topic: m.Topic, Key: m.Key, Value: m.Value}
	}
	if err := b.writer.WriteMessages(ctx, out...); err != nil {
		return eris.Wrap(err, "bus: write messages")
	}
	return nil
}

// Subscribe runs one reader per topic. Each partition is drained by its
// own worker in offset order, so events sharing a key are never handled
// concurrently, and every message is committed only after its handler
// returns nil.
func (b *KafkaBus) Subscribe(ctx context.Context, topics []string, handler Handler) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, topic := range topics {
		g.Go(func() error {
			return b.consumeTopic(ctx, topic, handler)
		})
	}
	return g.Wait()
}

// consumeTopic fetches sequentially and routes each message to the queue
// for its partition, spawning partition workers lazily.
func (b *KafkaBus) consumeTopic(ctx context.Context, topic string, handler Handler) error {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        b.brokers,
		GroupID:        b.groupID,
		Topic:          topic,
		MinBytes:       1,
		MaxBytes:       10 << 20,
		CommitInterval: 0, // synchronous commits
	})
	defer reader.Close()

	g, ctx := errgroup.WithContext(ctx)
	sem := make(chan struct{}, b.workers)
	queues := make(map[int]chan kafka.Message)

	var fetchErr error
fetch:
	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() == nil {
				fetchErr = eris.Wrapf(err, "bus: fetch from %s", topic)
			}
			break
		}

		q, ok := queues[msg.Partition]
		if !ok {
			q = make(chan kafka.Message, partitionQueueLen)
			queues[msg.Partition] = q
			g.Go(func() error {
				return b.consumePartition(ctx, reader, sem, q, handler)
			})
		}

		select {
		case q <- msg:
		case <-ctx.Done():
			break fetch
		}
	}

	for _, q := range queues {
		close(q)
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return fetchErr
}

// offsetCommitter is the part of kafka.Reader the partition workers use.
type offsetCommitter interface {
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

// consumePartition handles one partition strictly in offset order,
// committing each message only after its handler succeeds. A handler
// failure stops the partition before any later offset can be committed
// over the failed message; redelivery resumes from the last commit.
func (b *KafkaBus) consumePartition(ctx context.Context, committer offsetCommitter, sem chan struct{}, msgs <-chan kafka.Message, handler Handler) error {
	for msg := range msgs {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			return nil
		}
		err := b.handleOne(ctx, committer, msg, handler)
		<-sem
		if err != nil {
			return err
		}
	}
	return nil
}

func (b *KafkaBus) handleOne(ctx context.Context, committer offsetCommitter, msg kafka.Message, handler Handler) error {
	m := Message{Topic: msg.Topic, Key: msg.Key, Value: msg.Value}
	if err := handler(ctx, m); err != nil {
		b.log.Error("handler failed, message left uncommitted",
			zap.String("topic", msg.Topic),
			zap.Int("partition", msg.Partition),
			zap.Int64("offset", msg.Offset),
			zap.Error(err))
		return eris.Wrapf(err, "bus: handle %s/%d@%d", msg.Topic, msg.Partition, msg.Offset)
	}
	if err := committer.CommitMessages(ctx, msg); err != nil {
		return eris.Wrapf(err, "bus: commit %s/%d@%d", msg.Topic, msg.Partition, msg.Offset)
	}
	return nil
}

func (b *KafkaBus) Close() error {
	return b.writer.Close()
}
