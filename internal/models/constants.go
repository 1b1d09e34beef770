package models

const (
	StatusActive    = "active"
	StatusCancelled = "cancelled"
	StatusCompleted = "completed"
)

const (
	// DefaultSessionTTL is how long a resolution session survives in the
	// session repository without activity, in seconds.
	DefaultSessionTTL = 24 * 60 * 60

	// DefaultMaxAdvanceDays bounds how far ahead a booking may start.
	DefaultMaxAdvanceDays = 365

	// ExportQueueSize is the export worker queue capacity.
	ExportQueueSize = 100
)
