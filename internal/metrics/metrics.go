// Package metrics экспортирует метрики конвейера "резолв -> запись" в Prometheus.
package metrics

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const defaultNamespace = "lookbook"

// Исходы резолва ключа изображения.
const (
	OutcomeFound    = "found"
	OutcomeNotFound = "not_found"
	OutcomeFailed   = "failed"
)

// Recorder собирает телеметрию сервиса. Реализации обязаны допускать nil-получатель.
type Recorder interface {
	ObserveResolution(outcome string, duration time.Duration)
	ObserveWrite(duration time.Duration, err error)
	// ObserveFallback учитывает ошибку резолва, подмененную пустым ключом (режим fallback).
	ObserveFallback()
	ObserveRequest(method, route string, status int, duration time.Duration)
}

// PrometheusRecorder реализует Recorder поверх client_golang.
type PrometheusRecorder struct {
	resolutions     *prometheus.CounterVec
	resolveDuration prometheus.Histogram
	fallbacks       prometheus.Counter
	writes          *prometheus.CounterVec
	writeDuration   prometheus.Histogram
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

var _ Recorder = (*PrometheusRecorder)(nil)

// NewPrometheusRecorder регистрирует метрики в reg.
// Повторная регистрация (например, в тестах) переиспользует существующие коллекторы.
func NewPrometheusRecorder(namespace string, reg prometheus.Registerer) (*PrometheusRecorder, error) {
	if namespace == "" {
		namespace = defaultNamespace
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	r := &PrometheusRecorder{
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolutions_total",
			Help:      "Исходы поиска ключа итогового изображения.",
		}, []string{"outcome"}),
		resolveDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "resolve_duration_seconds",
			Help:      "Длительность листинга объектного хранилища.",
			Buckets:   prometheus.DefBuckets,
		}),
		fallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolve_fallbacks_total",
			Help:      "Ошибки резолва, записанные с пустым ключом.",
		}),
		writes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "record_writes_total",
			Help:      "Записи в хранилище ключ-значение по результату.",
		}, []string{"result"}),
		writeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "record_write_duration_seconds",
			Help:      "Длительность записи в хранилище ключ-значение.",
			Buckets:   prometheus.DefBuckets,
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP-запросы по маршруту и статусу.",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Длительность обработки HTTP-запросов.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	if err := register(reg, &r.resolutions, &r.writes, &r.requests); err != nil {
		return nil, err
	}
	if err := register(reg, &r.resolveDuration, &r.writeDuration); err != nil {
		return nil, err
	}
	if err := register(reg, &r.fallbacks); err != nil {
		return nil, err
	}
	if err := register(reg, &r.requestDuration); err != nil {
		return nil, err
	}
	return r, nil
}

// register регистрирует коллекторы; при AlreadyRegisteredError подменяет указатель существующим.
func register[C prometheus.Collector](reg prometheus.Registerer, collectors ...*C) error {
	for _, c := range collectors {
		if err := reg.Register(*c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				if existing, ok := are.ExistingCollector.(C); ok {
					*c = existing
					continue
				}
			}
			return fmt.Errorf("ошибка регистрации метрики: %w", err)
		}
	}
	return nil
}

// ObserveResolution учитывает исход резолва.
func (r *PrometheusRecorder) ObserveResolution(outcome string, duration time.Duration) {
	if r == nil {
		return
	}
	r.resolutions.WithLabelValues(outcome).Inc()
	r.resolveDuration.Observe(duration.Seconds())
}

// ObserveFallback учитывает подмену ошибки резолва пустым ключом.
func (r *PrometheusRecorder) ObserveFallback() {
	if r == nil {
		return
	}
	r.fallbacks.Inc()
}

// ObserveWrite учитывает запись в хранилище.
func (r *PrometheusRecorder) ObserveWrite(duration time.Duration, err error) {
	if r == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.writes.WithLabelValues(result).Inc()
	r.writeDuration.Observe(duration.Seconds())
}

// ObserveRequest учитывает HTTP-запрос.
func (r *PrometheusRecorder) ObserveRequest(method, route string, status int, duration time.Duration) {
	if r == nil {
		return
	}
	r.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	r.requestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// NopRecorder ничего не записывает. Используется, когда метрики отключены.
type NopRecorder struct{}

func (NopRecorder) ObserveResolution(string, time.Duration)           {}
func (NopRecorder) ObserveFallback()                                  {}
func (NopRecorder) ObserveWrite(time.Duration, error)                 {}
func (NopRecorder) ObserveRequest(string, string, int, time.Duration) {}
