// Package kafka publishes efficiency alerts to a Kafka topic using
// segmentio/kafka-go.
//
// The Producer retries transient write failures, and the Component ties the
// producer into the application lifecycle:
//
//	p, err := kafka.NewProducer(cfg, log)
//	pub := kafka.NewPublisher(p, cfg.Topic)
//	svc := alert.NewService(pub, threshold, log)
package kafka
