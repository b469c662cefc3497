package logger

import (
	"strings"

	"go.uber.org/zap"
)

const (
	// FieldUserID is the structured log field key for the signed in user.
	FieldUserID = "user_id"
	// FieldRole is the structured log field key for the user role.
	FieldRole = "user_role"
	// FieldWorkerID is the structured log field key for a worker.
	FieldWorkerID = "worker_id"
	// FieldBookingID is the structured log field key for a booking.
	FieldBookingID = "booking_id"
)

// StringField describes a string-valued structured logging field.
type StringField struct {
	Key   string
	Value string
}

// StringFields converts the provided key/value pairs into zap fields, trimming
// whitespace and omitting entries with empty keys or values.
func StringFields(fields ...StringField) []zap.Field {
	result := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		key := strings.TrimSpace(field.Key)
		if key == "" {
			continue
		}

		value := strings.TrimSpace(field.Value)
		if value == "" {
			continue
		}

		result = append(result, zap.String(key, value))
	}

	return result
}

// WithFields attaches the provided fields to the logger.
// A nil logger is replaced by a no-op one.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}

	if len(fields) == 0 {
		return logger
	}

	return logger.With(fields...)
}

// UserFields returns the fields describing the signed in user. Anonymous sessions yield none.
func UserFields(userID, role string) []zap.Field {
	return StringFields(
		StringField{Key: FieldUserID, Value: userID},
		StringField{Key: FieldRole, Value: role},
	)
}

// WithUser attaches the user fields to the provided logger.
func WithUser(logger *zap.Logger, userID, role string) *zap.Logger {
	return WithFields(logger, UserFields(userID, role)...)
}
