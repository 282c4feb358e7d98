package store

import (
	"context"

	"github.com/sharpclaw/mk8/internal/permission"
)

// allResourceKinds lists every tag GrantStore.ListForRole must be asked
// about to assemble a full RolePermissions (SPEC_FULL.md §9's tagged
// variant per resource kind).
var allResourceKinds = []permission.ResourceKind{
	permission.KindDangerousShell,
	permission.KindSafeShell,
	permission.KindContainer,
	permission.KindWebsite,
	permission.KindSearchEngine,
	permission.KindLocalInfoStore,
	permission.KindExternalInfoStore,
	permission.KindAudioDevice,
	permission.KindAgent,
	permission.KindTask,
	permission.KindSkill,
}

// ResolveRole loads a role's scalar fields from roles plus its grant
// collections from grants, merging them into the single
// permission.RolePermissions the resolver operates on (spec.md §4.5).
func ResolveRole(ctx context.Context, roles RoleStore, grants GrantStore, roleID string) (permission.RolePermissions, error) {
	role, err := roles.Get(ctx, roleID)
	if err != nil {
		return permission.RolePermissions{}, err
	}
	role.Grants = make(map[permission.ResourceKind][]permission.ResourceGrant, len(allResourceKinds))
	for _, kind := range allResourceKinds {
		list, err := grants.ListForRole(ctx, roleID, kind)
		if err != nil {
			return permission.RolePermissions{}, err
		}
		if len(list) > 0 {
			role.Grants[kind] = list
		}
	}
	return role, nil
}
