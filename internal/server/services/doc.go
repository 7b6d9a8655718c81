// Package services contains the identity node's business logic:
// SessionService runs the sign-in handshake and token lifecycle,
// RecordService reads and merges schema-bound records.
package services

// Observer receives outcome counts. *metrics.Metrics satisfies it.
type Observer interface {
	ObserveHandshake(step, result string)
	ObserveMerge(schema, result string)
}

type nopObserver struct{}

func (nopObserver) ObserveHandshake(string, string) {}
func (nopObserver) ObserveMerge(string, string)     {}
