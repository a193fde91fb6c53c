package kafka_config

import "time"

const (
	// Empty means events are disabled.
	DefaultKafkaBrokers  = ""
	DefaultKafkaTopic    = "tutorly.portal.events"
	DefaultKafkaDLQTopic = ""

	DefaultProducerMaxAttempts  = 3
	DefaultProducerBatchTimeout = 10 * time.Millisecond
	DefaultProducerRequireAcks  = -1
	DefaultProducerCompression  = "snappy"
	DefaultProducerAsync        = false
	DefaultPublishTimeout       = 5 * time.Second

	DefaultEnableMiddleware = true
)
