// metrics.go — Prometheus-метрики доменных операций.
package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	auctionsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "au_auctions_created_total",
		Help: "Общее количество созданных аукционов.",
	})
	auctionsFinalizedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "au_auctions_finalized_total",
		Help: "Общее количество завершённых аукционов по причинам.",
	}, []string{"reason"}) // expired | cancelled
	auctionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "au_auctions_active",
		Help: "Количество живых аукционов в реестре.",
	})
	bidsAcceptedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "au_bids_accepted_total",
		Help: "Общее количество принятых ставок.",
	})
	bidsRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "au_bids_rejected_total",
		Help: "Общее количество отклонённых ставок по причинам.",
	}, []string{"reason"}) // bot | role | too_low | not_found | terminal
	auctionDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "au_auction_duration_seconds",
		Help:    "Фактическая длительность аукционов от создания до завершения.",
		Buckets: prometheus.ExponentialBuckets(60, 2, 12),
	})
	persistenceFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "au_persistence_failures_total",
		Help: "Количество сбоев записи в долговременное хранилище по операциям.",
	}, []string{"operation"}) // create | bid | finalize
)
