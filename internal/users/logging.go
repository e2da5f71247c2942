package users

import (
	"context"

	"github.com/hashicorp/terraform-plugin-log/tflog"
)

const subsystem = "users"

// newLogContext attaches the users subsystem logger. The level is read from
// MEEMO_LOG_USERS.
func newLogContext(ctx context.Context) context.Context {
	ctx = tflog.NewSubsystem(ctx, subsystem, tflog.WithLevelFromEnv("MEEMO_LOG_USERS"))
	return tflog.SubsystemMaskFieldValuesWithFieldKeys(ctx, subsystem, "password")
}
