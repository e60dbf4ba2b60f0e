package metrics

import (
	"fmt"
	"math/big"
	"net/http"
	"sync"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

type Outcome string

const (
	Success Outcome = "success"
	Error   Outcome = "error"

	MetricRequestTimeout     time.Duration = 5 * time.Second
	MetricRequestIdleTimeout time.Duration = 10 * time.Second
)

func (o Outcome) String() string {
	return string(o)
}

var (
	once               sync.Once
	initialized        bool
	metricsRouter      *chi.Mux
	totalStakedGauge   *prometheus.GaugeVec
	rewardRateGauge    *prometheus.GaugeVec
	rewardsPaidCounter *prometheus.CounterVec
	adjustmentsCounter *prometheus.CounterVec
)

// Init initializes the metrics package and starts the /metrics server. Until
// Init runs every record call is a no-op, so library consumers and tests need
// no metrics setup.
func Init(metricsPort int) {
	once.Do(func() {
		initMetricsRouter(metricsPort)
		registerMetrics()
		initialized = true
	})
}

// initMetricsRouter initializes the metrics router.
func initMetricsRouter(metricsPort int) {
	metricsRouter = chi.NewRouter()
	metricsRouter.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})
	// Create a custom server with timeout settings
	metricsAddr := fmt.Sprintf(":%d", metricsPort)
	server := &http.Server{
		Addr:         metricsAddr,
		Handler:      metricsRouter,
		ReadTimeout:  MetricRequestTimeout,
		WriteTimeout: MetricRequestTimeout,
		IdleTimeout:  MetricRequestIdleTimeout,
	}

	// Start the server in a separate goroutine
	go func() {
		log.Printf("Starting metrics server on %s", metricsAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msgf("Error starting metrics server on %s", metricsAddr)
		}
	}()
}

// registerMetrics initializes and register the Prometheus metrics.
func registerMetrics() {
	totalStakedGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "staking_total_staked",
			Help: "Total principal staked per pool, in whole tokens.",
		},
		[]string{"pool"},
	)

	rewardRateGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "staking_reward_rate",
			Help: "Current per-second emission rate per pool, in whole tokens.",
		},
		[]string{"pool"},
	)

	rewardsPaidCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "staking_rewards_paid_total",
			Help: "Cumulative rewards paid out per pool, in whole tokens.",
		},
		[]string{"pool"},
	)

	adjustmentsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "staking_compound_adjustments_total",
			Help: "Compound stake adjustments processed by the coordinator.",
		},
		[]string{"outcome"},
	)

	prometheus.MustRegister(
		totalStakedGauge,
		rewardRateGauge,
		rewardsPaidCounter,
		adjustmentsCounter,
	)
}

func RecordTotalStaked(pool string, amount sdkmath.Int) {
	if !initialized {
		return
	}
	totalStakedGauge.WithLabelValues(pool).Set(tokensFloat(amount))
}

func RecordRewardRate(pool string, rate sdkmath.Int) {
	if !initialized {
		return
	}
	rewardRateGauge.WithLabelValues(pool).Set(tokensFloat(rate))
}

func RecordRewardPaid(pool string, amount sdkmath.Int) {
	if !initialized {
		return
	}
	rewardsPaidCounter.WithLabelValues(pool).Add(tokensFloat(amount))
}

func RecordCompoundAdjustment(outcome Outcome) {
	if !initialized {
		return
	}
	adjustmentsCounter.WithLabelValues(outcome.String()).Inc()
}

// tokensFloat converts a 1e18-scaled amount to whole tokens for reporting.
// Precision loss is acceptable here, metrics are observability only.
func tokensFloat(amount sdkmath.Int) float64 {
	f, _ := new(big.Float).SetInt(amount.BigInt()).Float64()
	return f / 1e18
}
