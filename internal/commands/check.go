package commands

import (
	"context"
	"log/slog"

	"bmcprobe/internal/domain"
	"bmcprobe/internal/services/session"
)

// CheckRequest identifies the BMC and credential a check runs against.
type CheckRequest struct {
	Target          domain.Target
	Credential      domain.Credential
	InsecureSkipTLS bool
}

// withSession creates fresh services for the target and runs fn inside a
// session that is closed on every path.
func withSession(
	ctx context.Context,
	factory domain.RedfishServiceFactory,
	logger *slog.Logger,
	req CheckRequest,
	fn func(ctx context.Context, services domain.RedfishServices, sess domain.Session) error,
) error {
	services := factory.CreateServices(req.Target, req.InsecureSkipTLS)
	return session.Scope(ctx, services.Sessions, req.Credential, req.Target.BaseURL(), logger,
		func(ctx context.Context, sess domain.Session) error {
			return fn(ctx, services, sess)
		})
}
