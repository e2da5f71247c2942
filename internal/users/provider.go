package users

import (
	"context"
	"fmt"

	"github.com/hashicorp/terraform-plugin-log/tflog"
	"go.opentelemetry.io/otel"

	"github.com/maniacs-satm/meemo/internal/config"
	"github.com/maniacs-satm/meemo/internal/credstore"
	"github.com/maniacs-satm/meemo/internal/ldap"
	"github.com/maniacs-satm/meemo/internal/password"
)

// New selects the backend once from cfg: the directory when LDAP URLs are
// configured, the local credential file otherwise.
func New(ctx context.Context, cfg *config.Config) (Provider, error) {
	tp := otel.GetTracerProvider()
	logCtx := newLogContext(ctx)

	if !cfg.UseDirectory() {
		tflog.SubsystemInfo(logCtx, subsystem, "Using local credential store", map[string]any{
			"path": cfg.LocalStorePath,
		})
		local := NewLocal(credstore.NewFileStore(cfg.LocalStorePath), password.Bcrypt{})
		return Instrument(local, BackendLocal, tp), nil
	}

	dir := cfg.Directory
	client, err := ldap.NewClient(ctx, dir.ConnectionConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create directory client: %w", err)
	}

	tflog.SubsystemInfo(logCtx, subsystem, "Using LDAP directory", map[string]any{
		"urls":    dir.URLs,
		"base_dn": dir.BaseDN,
	})

	directory := NewDirectory(client, DirectoryOptions{
		BaseDN: dir.BaseDN,
		Attributes: AttributeMap{
			ID:          dir.Attributes.ID,
			Username:    dir.Attributes.Username,
			DisplayName: dir.Attributes.DisplayName,
			Mail:        dir.Attributes.Mail,
		},
		UserFilter: dir.UserFilter,
		Timeout:    dir.Timeout,
	})
	return Instrument(directory, BackendDirectory, tp), nil
}
