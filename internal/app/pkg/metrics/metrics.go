package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal HTTP 请求计数
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobsvc_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "code"},
	)

	// HTTPRequestDurationSeconds HTTP 请求耗时
	HTTPRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "jobsvc_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~10s
		},
		[]string{"method", "route"},
	)

	// TransitionsTotal 成功的状态迁移，按事件统计
	TransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobsvc_job_order_transitions_total",
			Help: "Total number of applied job order transitions",
		},
		[]string{"event"},
	)

	// TransitionFailuresTotal 失败的状态迁移，按原因统计
	TransitionFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobsvc_job_order_transition_failures_total",
			Help: "Total number of rejected or compensated job order transitions",
		},
		[]string{"operation", "reason"}, // reason: not_found, invalid_transition, queue, notify, repository
	)

	// ExpiredSweptTotal 过期扫描取消的任务单数量
	ExpiredSweptTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "jobsvc_expired_swept_total",
			Help: "Total number of pending job orders cancelled by the expiry sweeper",
		},
	)
)
