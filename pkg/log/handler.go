package log

import (
	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// withError attaches err under key and, when err carries a cockroachdb/errors
// stack, the formatted trace under StacktraceKey. Typed errors that know how
// to marshal themselves (DimensionError, SolverError, ...) are embedded too.
func withError(e *zerolog.Event, key string, err error) *zerolog.Event {
	e = e.Str(key, err.Error())
	if st := extractStacktrace(err); st != "" {
		e = e.Str(StacktraceKey, st)
	}
	var m zerolog.LogObjectMarshaler
	if errors.As(err, &m) {
		e = e.Object(key+".detail", m)
	}
	return e
}

func extractStacktrace(err error) string {
	safeDetails := errors.GetSafeDetails(err).SafeDetails
	if len(safeDetails) > 0 {
		return safeDetails[0]
	}
	return ""
}
