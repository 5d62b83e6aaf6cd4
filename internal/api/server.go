package api

import (
	"fmt"
	"net/http"
	"time"
)

// NewServer creates the trigger API server. writeTimeout has to cover a
// full renewal run.
func NewServer(port uint16, writeTimeout time.Duration, h *HandlerProvider) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           NewRouter(h),
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
