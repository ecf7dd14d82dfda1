package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ContainersCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "blobtour",
		Name:      "containers_created_total",
		Help:      "Total containers created by walkthrough runs.",
	})
	BlobsUploaded = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "blobtour",
		Name:      "blobs_uploaded_total",
		Help:      "Total blobs uploaded.",
	})
	BlobsDownloaded = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "blobtour",
		Name:      "blobs_downloaded_total",
		Help:      "Total blobs downloaded to the temporary directory.",
	})
	BytesTransferred = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "blobtour",
		Name:      "bytes_transferred_total",
		Help:      "Bytes moved to or from the storage service.",
	}, []string{"direction"})
	StepFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "blobtour",
		Name:      "step_failures_total",
		Help:      "Walkthrough steps that ended in an error.",
	}, []string{"step"})
)

// Init registers collectors; call once from main.
func Init() {
	prometheus.MustRegister(ContainersCreated, BlobsUploaded, BlobsDownloaded, BytesTransferred, StepFailures)
}

// Serve starts a /metrics server on the given addr (e.g., ":9090"). Non-blocking when run in goroutine.
func Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(addr, mux)
}
