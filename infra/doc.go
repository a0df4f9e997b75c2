// Package infra holds the adapters behind core interfaces: the zerolog
// logger, the Paho MQTT publisher and the Prometheus, InfluxDB, MQTT and
// NATS metrics sinks.
package infra
