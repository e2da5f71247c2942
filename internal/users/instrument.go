package users

import (
	"context"
	"time"

	"github.com/hashicorp/terraform-plugin-log/tflog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/maniacs-satm/meemo/internal/users"

// Backend names used in logs and span attributes.
const (
	BackendLocal     = "local"
	BackendDirectory = "directory"
)

type instrumented struct {
	next    Provider
	backend string
	tracer  trace.Tracer
}

// Instrument wraps next so that every call is logged on the users subsystem
// and traced as one span. Passwords are never recorded.
func Instrument(next Provider, backend string, tp trace.TracerProvider) Provider {
	return &instrumented{
		next:    next,
		backend: backend,
		tracer:  tp.Tracer(tracerName),
	}
}

func (p *instrumented) VerifyCredentials(ctx context.Context, username, password string) (*UserProfile, error) {
	var profile *UserProfile
	err := p.observe(ctx, "VerifyCredentials", map[string]any{"username": username}, func(ctx context.Context) (bool, error) {
		var err error
		profile, err = p.next.VerifyCredentials(ctx, username, password)
		return profile != nil, err
	})
	return profile, err
}

func (p *instrumented) ResolveProfile(ctx context.Context, identifier string) (*UserProfile, error) {
	var profile *UserProfile
	err := p.observe(ctx, "ResolveProfile", map[string]any{"identifier": identifier}, func(ctx context.Context) (bool, error) {
		var err error
		profile, err = p.next.ResolveProfile(ctx, identifier)
		return profile != nil, err
	})
	return profile, err
}

func (p *instrumented) ListUsers(ctx context.Context) ([]*UserProfile, error) {
	var profiles []*UserProfile
	err := p.observe(ctx, "ListUsers", map[string]any{}, func(ctx context.Context) (bool, error) {
		var err error
		profiles, err = p.next.ListUsers(ctx)
		trace.SpanFromContext(ctx).SetAttributes(attribute.Int("meemo.users.count", len(profiles)))
		return true, err
	})
	return profiles, err
}

// observe runs fn inside a span and logs its outcome. fn reports whether a
// user was found.
func (p *instrumented) observe(ctx context.Context, operation string, fields map[string]any, fn func(context.Context) (bool, error)) error {
	ctx, span := p.tracer.Start(ctx, "users."+operation, trace.WithAttributes(
		attribute.String("meemo.users.backend", p.backend),
	))
	defer span.End()

	logCtx := newLogContext(ctx)
	fields["operation"] = operation
	fields["backend"] = p.backend

	start := time.Now()
	found, err := fn(ctx)
	fields["duration_ms"] = time.Since(start).Milliseconds()

	outcome := "found"
	switch {
	case err != nil:
		outcome = "error"
		fields["error"] = err.Error()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		tflog.SubsystemError(logCtx, subsystem, "Identity lookup failed", fields)
	case !found:
		outcome = "not_found"
		tflog.SubsystemDebug(logCtx, subsystem, "Identity lookup completed", fields)
	default:
		tflog.SubsystemDebug(logCtx, subsystem, "Identity lookup completed", fields)
	}
	span.SetAttributes(attribute.String("meemo.users.outcome", outcome))

	return err
}
