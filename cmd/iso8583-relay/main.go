// Command iso8583-relay runs the mapper change-event relay and serves its
// health and Prometheus metrics over HTTP.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
