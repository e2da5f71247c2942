package ldap

import (
	"context"
	"errors"
	"maps"
	"strings"
	"time"

	"github.com/go-ldap/ldap/v3"
	"github.com/hashicorp/terraform-plugin-log/tflog"
)

const (
	subsystem = "ldap"
	redacted  = "[REDACTED]"
)

// maskedFieldKeys are masked by the subsystem logger itself, so a field
// logged without SanitizeFields still never leaks.
var maskedFieldKeys = []string{"password", "bind_password", "secret", "credential"}

var sensitiveKeys = map[string]struct{}{
	"password":      {},
	"passwd":        {},
	"bind_password": {},
	"secret":        {},
	"token":         {},
	"credential":    {},
	"credentials":   {},
}

var sensitiveAssignments = []string{"password=", "passwd=", "secret=", "token="}

// NewLogContext returns ctx with the ldap subsystem logger attached.
// MEEMO_LOG_LDAP overrides the root level.
func NewLogContext(ctx context.Context) context.Context {
	ctx = tflog.NewSubsystem(ctx, subsystem, tflog.WithLevelFromEnv("MEEMO_LOG_LDAP"))
	return tflog.SubsystemMaskFieldValuesWithFieldKeys(ctx, subsystem, maskedFieldKeys...)
}

// LogOperation runs fn between a start and an outcome entry. The outcome
// carries the elapsed time and, on failure, the error text.
func LogOperation(ctx context.Context, sub, operation string, fields map[string]any, fn func() error) error {
	entry := SanitizeFields(fields)
	entry["operation"] = operation
	tflog.SubsystemDebug(ctx, sub, "Starting operation", entry)

	start := time.Now()
	err := fn()
	entry["duration_ms"] = time.Since(start).Milliseconds()

	if err == nil {
		tflog.SubsystemDebug(ctx, sub, "Operation completed successfully", entry)
		return nil
	}
	entry["error"] = err.Error()
	tflog.SubsystemError(ctx, sub, "Operation failed", entry)
	return err
}

// LogLDAPError records a failed operation together with the result code and
// diagnostic the server returned. Rejected binds log at debug.
func LogLDAPError(ctx context.Context, sub string, operation string, err error, fields map[string]any) {
	entry := SanitizeFields(fields)
	entry["operation"] = operation
	entry["error"] = err.Error()

	var resultErr *ldap.Error
	if errors.As(err, &resultErr) {
		entry["ldap_result_code"] = resultErr.ResultCode
		if resultErr.MatchedDN != "" {
			entry["ldap_matched_dn"] = resultErr.MatchedDN
		}
		if resultErr.Err != nil {
			entry["ldap_diagnostic_message"] = resultErr.Err.Error()
		}
	}

	log := tflog.SubsystemError
	message := "LDAP operation failed"
	if IsBindRejected(err) {
		log, message = tflog.SubsystemDebug, "LDAP operation rejected"
	}
	log(ctx, sub, message, entry)
}

// LogConnectionEvent logs a dial outcome. Failures are warnings because the
// next server may still answer.
func LogConnectionEvent(ctx context.Context, event string, fields map[string]any) {
	entry := maps.Clone(fields)
	if entry == nil {
		entry = map[string]any{}
	}
	entry["event"] = event

	log := tflog.SubsystemTrace
	switch event {
	case "connection_established":
		log = tflog.SubsystemDebug
	case "connection_failed":
		log = tflog.SubsystemWarn
	}
	log(ctx, subsystem, "Connection event", entry)
}

// SanitizeFields returns a copy of fields with credentials replaced. It
// never returns nil.
func SanitizeFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields)+2)
	for key, value := range fields {
		if isSensitive(key, value) {
			out[key] = redacted
			continue
		}
		out[key] = value
	}
	return out
}

func isSensitive(key string, value any) bool {
	if _, ok := sensitiveKeys[key]; ok {
		return true
	}
	s, ok := value.(string)
	if !ok {
		return false
	}
	s = strings.ToLower(s)
	for _, assignment := range sensitiveAssignments {
		if strings.Contains(s, assignment) {
			return true
		}
	}
	return false
}
