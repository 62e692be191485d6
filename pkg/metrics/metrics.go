package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MQ 消费延迟（毫秒）
	MQConsumeLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mq_consume_latency_ms",
			Help:    "MQ message consumption latency in milliseconds",
			Buckets: prometheus.ExponentialBuckets(10, 2, 10), // 10ms to ~10s
		},
		[]string{"routing_key", "queue"},
	)

	// LLM 调用延迟（毫秒）
	LLMCallLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "llm_call_latency_ms",
			Help:    "LLM provider call latency in milliseconds",
			Buckets: prometheus.ExponentialBuckets(100, 2, 10), // 100ms to ~100s
		},
		[]string{"endpoint", "status"},
	)

	// 数据库查询延迟（秒）
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"operation", "table"},
	)

	// 慢查询计数
	SlowQueryCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "db_slow_query_count",
			Help: "Total number of queries slower than the configured threshold",
		},
		[]string{"statement"},
	)

	// HTTP 请求延迟（秒）
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "path", "status"},
	)

	// 实体变更计数
	EntityMutationCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "entity_mutation_count",
			Help: "Total number of entity mutations",
		},
		[]string{"entity", "action"}, // action: create, update, delete
	)

	// Smart Focus 生成计数
	SmartFocusCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smart_focus_count",
			Help: "Total number of Smart Focus results served",
		},
		[]string{"source"}, // source: llm, heuristic, cache
	)

	// Outbox 发布计数
	OutboxPublishCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "outbox_publish_count",
			Help: "Total number of outbox publish attempts",
		},
		[]string{"status"}, // status: sent, failed
	)

	// 逾期任务计数
	TaskOverdueCount = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "task_overdue_count",
			Help: "Total number of tasks marked overdue",
		},
	)
)

// RecordMQConsumeLatency 记录 MQ 消费延迟
func RecordMQConsumeLatency(routingKey, queue string, duration time.Duration) {
	MQConsumeLatency.WithLabelValues(routingKey, queue).Observe(float64(duration.Milliseconds()))
}

// RecordLLMCallLatency 记录 LLM 调用延迟
func RecordLLMCallLatency(endpoint, status string, duration time.Duration) {
	LLMCallLatency.WithLabelValues(endpoint, status).Observe(float64(duration.Milliseconds()))
}

// RecordDBQueryDuration 记录数据库查询延迟
func RecordDBQueryDuration(operation, table string, duration time.Duration) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
}

// IncrementSlowQuery 记录慢查询；statement 只取第一个关键字，避免标签基数爆炸
func IncrementSlowQuery(statement string) {
	SlowQueryCount.WithLabelValues(statement).Inc()
}

// RecordHTTPRequestDuration 记录 HTTP 请求延迟
func RecordHTTPRequestDuration(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// IncrementEntityMutation 增加实体变更计数
func IncrementEntityMutation(entity, action string) {
	EntityMutationCount.WithLabelValues(entity, action).Inc()
}

// IncrementSmartFocus 增加 Smart Focus 计数
func IncrementSmartFocus(source string) {
	SmartFocusCount.WithLabelValues(source).Inc()
}

// IncrementOutboxPublish 增加 outbox 发布计数
func IncrementOutboxPublish(status string) {
	OutboxPublishCount.WithLabelValues(status).Inc()
}

// AddTaskOverdue 增加逾期任务计数
func AddTaskOverdue(n int) {
	TaskOverdueCount.Add(float64(n))
}
