// Generates sample gopix client metrics for testing Grafana dashboards
// without real PIX traffic.
package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fyrsmithlabs/gopix/internal/metrics"
)

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "9090"
	}

	m := metrics.New()

	// Generate initial sample data
	generateSampleData(m)

	// Start background goroutine to continuously generate data
	ctx, cancel := context.WithCancel(context.Background())
	go generateContinuousData(ctx, m)

	// Serve metrics
	http.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr: ":" + port,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		cancel()
		server.Shutdown(context.Background())
	}()

	fmt.Printf("Sample metrics server running on http://localhost:%s/metrics\n", port)
	fmt.Println("Press Ctrl+C to stop")
	fmt.Println("\nTo use with Prometheus, add this to prometheus.yml:")
	fmt.Printf("  - job_name: 'gopix-test'\n    static_configs:\n      - targets: ['localhost:%s']\n", port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatal(err)
	}
}

// generateSampleData seeds one burst of plausible client traffic.
func generateSampleData(m *metrics.Metrics) {
	methods := []string{"GET", "PUT", "POST", "DELETE"}
	codes := []int{200, 200, 200, 200, 201, 404, 429, 500}

	for i := 0; i < 200; i++ {
		m.RecordRequest(randomChoice(methods), codes[rand.Intn(len(codes))], rand.Float64()*0.8)
	}
	for i := 0; i < 12; i++ {
		m.RecordRetry()
	}
	for i := 0; i < 3; i++ {
		m.RecordLogin()
	}
	for i := 0; i < 900; i++ {
		m.RecordObjectBuilt()
	}
	for i := 0; i < 4; i++ {
		m.RecordBuildWarning()
	}
	for i := 0; i < 6; i++ {
		m.RecordActivation()
	}
}

// generateContinuousData keeps the series moving so rate() panels show data.
func generateContinuousData(ctx context.Context, m *metrics.Metrics) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	methods := []string{"GET", "PUT", "POST", "DELETE"}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.RecordRequest(randomChoice(methods), 200, rand.Float64()*0.3)
			for i := 0; i < rand.Intn(6); i++ {
				m.RecordObjectBuilt()
			}
			if rand.Intn(10) == 0 {
				m.RecordRetry()
			}
			if rand.Intn(30) == 0 {
				m.RecordLogin()
			}
			if rand.Intn(20) == 0 {
				m.RecordActivation()
			}
		}
	}
}

func randomChoice(options []string) string {
	return options[rand.Intn(len(options))]
}
