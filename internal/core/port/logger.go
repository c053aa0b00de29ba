package port

// Fields carries structured key/value data into a log record.
type Fields map[string]interface{}

// LoggerPort keeps the core independent from the concrete logging backend.
type LoggerPort interface {
	Info(msg string, fields Fields)

	Warn(msg string, fields Fields)

	// Error logs msg together with err.
	Error(msg string, err error, fields Fields)

	Debug(msg string, fields Fields)

	// WithFields returns a child logger that always carries fields.
	WithFields(fields Fields) LoggerPort
}
