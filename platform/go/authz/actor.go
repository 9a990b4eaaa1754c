package authz

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/taippa-io/taippa/platform/go/requesttrace"
	"github.com/taippa-io/taippa/platform/go/tenant"
)

// ErrNoActor is returned when the context carries no authenticated user.
var ErrNoActor = errors.New("no authenticated actor")

// Actor is the caller access requests are evaluated for.
type Actor struct {
	ID       string
	Role     Role
	TenantID uuid.UUID
}

// ActorFromContext builds the actor from the request trace and the resolved tenant.
// The role is taken verbatim; Evaluate denies roles it does not know.
func ActorFromContext(ctx context.Context) (Actor, error) {
	audit, ok := requesttrace.FromContext(ctx)
	if !ok || audit.ActorKind != requesttrace.ActorKindUser || audit.UserID == nil {
		return Actor{}, ErrNoActor
	}

	actor := Actor{ID: *audit.UserID, Role: Role(audit.Role)}
	if space, ok := tenant.FromContext(ctx); ok {
		actor.TenantID = space.TenantID
	} else if audit.TenantID != nil {
		if id, err := uuid.Parse(*audit.TenantID); err == nil {
			actor.TenantID = id
		}
	}
	if actor.TenantID == uuid.Nil {
		return Actor{}, ErrNoActor
	}
	return actor, nil
}

// Request builds the access request for action on a resource of resourceTenant.
func (a Actor) Request(action Action, resourceTenant uuid.UUID, resourceOwner string) Request {
	return Request{
		Role:           a.Role,
		ActorID:        a.ID,
		ActorTenant:    a.TenantID,
		ResourceTenant: resourceTenant,
		ResourceOwner:  resourceOwner,
		Action:         action,
	}
}

// WithActor returns a context carrying actor, as the HTTP middleware chain would leave it.
// Used by the CLI and tests.
func WithActor(ctx context.Context, actor Actor) context.Context {
	tenantID := actor.TenantID.String()
	id := actor.ID
	ctx = requesttrace.IntoContext(ctx, requesttrace.AuditInfo{
		ActorKind: requesttrace.ActorKindUser,
		UserID:    &id,
		TenantID:  &tenantID,
		Role:      string(actor.Role),
	})
	return tenant.WithSpace(ctx, tenant.Space{TenantID: actor.TenantID})
}
