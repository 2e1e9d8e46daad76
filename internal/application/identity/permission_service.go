package identity

import (
	"context"

	"github.com/gestionale/backend/internal/domain/identity"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Actor is the resolved identity a request acts under: who is calling, for
// which tenant, holding which role. Identity resolution itself (token
// verification) happens in the interface layer; everything below receives
// the resolved actor explicitly, never ambient tenant state.
type Actor struct {
	UserID   uuid.UUID
	TenantID uuid.UUID
	Role     identity.RoleRef
}

// PermissionService resolves role snapshots and answers authorization
// checks. It is the only code path that loads roles for evaluation: callers
// never branch on role names themselves.
//
// The service holds no cache; the evaluator always sees the role as stored
// at the moment of resolution. A role updated mid-session takes effect the
// next time the actor's snapshot is resolved.
type PermissionService struct {
	roleRepo identity.RoleRepository
	logger   *zap.Logger
}

// NewPermissionService creates a new permission service
func NewPermissionService(roleRepo identity.RoleRepository, logger *zap.Logger) *PermissionService {
	return &PermissionService{
		roleRepo: roleRepo,
		logger:   logger,
	}
}

// ResolveSnapshot loads the permission snapshot for a role reference.
// Resolution failures (deleted role, malformed reference, store error) are
// never surfaced as errors: they yield the deny-all snapshot, so a broken
// role locks its users out instead of letting anything through.
func (s *PermissionService) ResolveSnapshot(ctx context.Context, actor Actor) identity.RoleSnapshot {
	if actor.Role.IsBuiltin() {
		return identity.SnapshotFromBuiltin(actor.Role.Builtin)
	}
	if actor.Role.IsCustom() {
		role, err := s.roleRepo.FindByID(ctx, actor.TenantID, *actor.Role.CustomID)
		if err != nil {
			s.logger.Warn("Role resolution failed, denying all",
				zap.String("tenant_id", actor.TenantID.String()),
				zap.String("role_id", actor.Role.CustomID.String()),
				zap.Error(err))
			return identity.DenyAll()
		}
		return identity.SnapshotFromRole(role)
	}
	return identity.DenyAll()
}

// Check resolves the actor's snapshot and evaluates one (section, action)
// pair. Every mutating operation calls this before touching state.
func (s *PermissionService) Check(ctx context.Context, actor Actor, section identity.Section, action identity.Action) bool {
	return identity.Evaluate(s.ResolveSnapshot(ctx, actor), section, action)
}
