// Vigil is an operational rate-limiting and monitoring daemon.
//
// It enforces multi-tier fixed-window rate limits per scope, samples
// process and system health on a schedule, evaluates configurable
// thresholds, and dispatches throttled alerts to Slack, Discord, email,
// or arbitrary webhooks.
//
// Usage:
//
//	# Start with default configuration
//	vigil run
//
//	# Start with a custom configuration file
//	vigil run --config /etc/vigil/config.yaml
//
//	# Validate configuration without starting
//	vigil validate
//
//	# Show version information
//	vigil version
package main

func main() {
	Execute()
}
