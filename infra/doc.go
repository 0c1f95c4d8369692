// Package infra contains the technical adapters of the injector: the TCP
// coordinator client and notifier, sink transports and stores, metrics
// exporters and error monitoring. These packages depend only on the
// interfaces defined in the core packages.
package infra
