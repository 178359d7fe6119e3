package kafka

import (
	"Inkwell/internal/api/config"
	"Inkwell/internal/pkg/es"
	"context"
	log "log/slog"

	"github.com/IBM/sarama"
)

// ConsumerManager 管理所有 Kafka 消费者
type ConsumerManager struct {
	postConsumer sarama.ConsumerGroup
	postHandler  sarama.ConsumerGroupHandler
}

// NewConsumerManager 构造函数
func NewConsumerManager(cfg *config.Config, postDBRepo PostSource, postESRepo es.PostRepo) (*ConsumerManager, error) {
	saramaCfg := newSaramaConfig(cfg.Kafka)

	postConsumer, err := sarama.NewConsumerGroup(cfg.Kafka.Brokers, cfg.KafkaPostConsumer.GroupID, saramaCfg)
	if err != nil {
		return nil, err
	}

	return &ConsumerManager{
		postConsumer: postConsumer,
		postHandler:  NewPostsHandler(postDBRepo, postESRepo),
	}, nil
}

// Start 启动所有消费者，ctx 取消后关闭并返回
func (m *ConsumerManager) Start(ctx context.Context, cfg *config.Config) error {
	go func() {
		for err := range m.postConsumer.Errors() {
			log.Error("Post consumer error", "err", err)
		}
	}()

	go func() {
		topic := cfg.KafkaPostConsumer.Topic
		log.Info("Post consumer started", "topic", topic)
		for {
			if err := m.postConsumer.Consume(ctx, []string{topic}, m.postHandler); err != nil {
				log.Error("Error from consumer", "err", err)
			}
			if ctx.Err() != nil {
				return
			}
		}
	}()

	<-ctx.Done()
	log.Info("Kafka Manager shutting down...")

	if err := m.postConsumer.Close(); err != nil {
		log.Error("Failed to close post consumer", "err", err)
		return err
	}
	return nil
}
