/*
Package observability provides Prometheus instrumentation for flow runs.

Metrics attach to the dispatcher through RunHooks, so the dispatcher itself
stays free of any metrics dependency.
*/
package observability
