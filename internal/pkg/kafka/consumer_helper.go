package kafka

import (
	"context"
	log "log/slog"
	"sync"
	"time"

	"github.com/IBM/sarama"
	"github.com/goccy/go-json"
	"github.com/pkg/errors"
)

const (
	batchSize    = 32
	batchTimeout = 1 * time.Second
	maxRetry     = 5
)

// ErrSkipMessage 与当前消费者无关的消息，直接确认
var ErrSkipMessage = errors.New("skip message")

type LogicFunc func(ctx context.Context, msg *sarama.ConsumerMessage) error

// pullMessageBatch 攒批后并发处理，超时也会触发一次处理
func pullMessageBatch(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim, logic LogicFunc) error {
	batch := make([]*sarama.ConsumerMessage, 0, batchSize)
	ticker := time.NewTicker(batchTimeout)
	defer ticker.Stop()
	for {
		select {
		case msg, ok := <-claim.Messages():
			if !ok {
				if len(batch) > 0 {
					processBatch(session, batch, logic)
				}
				return nil
			}
			batch = append(batch, msg)
			if len(batch) >= batchSize {
				processBatch(session, batch, logic)
				batch = make([]*sarama.ConsumerMessage, 0, batchSize)
				ticker.Reset(batchTimeout)
			}
		case <-ticker.C:
			if len(batch) > 0 {
				processBatch(session, batch, logic)
				batch = make([]*sarama.ConsumerMessage, 0, batchSize)
			}
		case <-session.Context().Done():
			return nil
		}
	}
}

// processBatch 并发处理一批消息，全部结束后提交最后一条的位点
func processBatch(session sarama.ConsumerGroupSession, messages []*sarama.ConsumerMessage, logic LogicFunc) {
	var wg sync.WaitGroup

	for _, msg := range messages {
		wg.Add(1)
		go func(m *sarama.ConsumerMessage) {
			defer wg.Done()
			handleWithRetry(session.Context(), m, logic)
		}(msg)
	}

	wg.Wait()

	if len(messages) > 0 {
		session.MarkMessage(messages[len(messages)-1], "")
		session.Commit()
	}
}

// handleWithRetry 指数退避重试，超过次数后记录并放弃
func handleWithRetry(ctx context.Context, m *sarama.ConsumerMessage, logic LogicFunc) {
	retryInterval := 100 * time.Millisecond
	for attempt := 1; ; attempt++ {
		err := logic(ctx, m)
		if err == nil || errors.Is(err, ErrSkipMessage) {
			return
		}
		if attempt >= maxRetry {
			log.Error("drop message after retries", "topic", m.Topic, "partition", m.Partition, "offset", m.Offset, "err", err)
			return
		}
		log.Warn("process message error", "offset", m.Offset, "attempt", attempt, "err", err)

		select {
		case <-ctx.Done():
			return
		case <-time.After(retryInterval):
		}
		retryInterval *= 2
		if retryInterval > 5*time.Second {
			retryInterval = 5 * time.Second
		}
	}
}

// ToCanalMessage 解析 canal 消息，表名不符、DDL 或空数据返回 ErrSkipMessage
func ToCanalMessage(msg *sarama.ConsumerMessage, tableName string) (*CanalMessage, error) {
	var canalMsg CanalMessage
	if err := json.Unmarshal(msg.Value, &canalMsg); err != nil {
		log.Error("unmarshal canal message error", "err", err)
		return nil, errors.Wrap(ErrSkipMessage, err.Error())
	}

	if canalMsg.IsDDL || canalMsg.Table != tableName || len(canalMsg.Data) == 0 {
		return nil, ErrSkipMessage
	}

	return &canalMsg, nil
}
