package utils

import "time"

// =============================================================================
// Timeout Constants
// =============================================================================

const (
	// IngestTimeout bounds a single admin ingest request
	IngestTimeout = 2 * time.Minute

	// PublishTimeout is the timeout for publishing a data-changed event
	PublishTimeout = 5 * time.Second

	// ShutdownTimeout is how long the API waits for in-flight requests on shutdown
	ShutdownTimeout = 10 * time.Second
)

// =============================================================================
// Pagination Constants
// =============================================================================

const (
	// DefaultPage is the page returned when none is requested
	DefaultPage = 1

	// DefaultPerPage is the default number of records per page
	DefaultPerPage = 50

	// MaxPerPage is the largest page size a client may request
	MaxPerPage = 500
)

// =============================================================================
// Cache Endpoint Names
// =============================================================================

const (
	// EndpointSummary is the cache namespace for summary responses
	EndpointSummary = "summary"

	// EndpointTrends is the cache namespace for trend responses
	EndpointTrends = "trends"
)

// =============================================================================
// Queue Type Constants
// =============================================================================
// QueueType represents the type of message queue
type QueueType string

const (
	// QueueTypeNATS represents a NATS queue
	QueueTypeNATS QueueType = "nats"

	// QueueTypeRedis represents Redis Streams queue
	QueueTypeRedis QueueType = "redis"

	// QueueTypeKafka represents Apache Kafka queue
	QueueTypeKafka QueueType = "kafka"

	// QueueTypeMemory represents in-memory queue (default, single replica)
	QueueTypeMemory QueueType = "memory"
)
