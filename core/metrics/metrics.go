// Package metrics holds the backend-neutral instrument types the runtime
// reports through, so that core packages never import a metrics backend.
package metrics

// Timer measures one operation. Call ObserveDuration when it completes:
//
//	defer m.MessageDuration(kind).ObserveDuration()
type Timer interface {
	// ObserveDuration records the time elapsed since the timer was created.
	ObserveDuration()
}
