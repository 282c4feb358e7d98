package permission

// Dominates reports whether child's clearances are element-wise ≤
// parent's on every global action and every resource grant (spec.md
// §4.5: "the created agent's clearances must be ... monotonic-
// downward"). A child role that exceeds its parent on any axis fails
// this check and must be rejected at sub-agent creation time.
func Dominates(child, parent RolePermissions) bool {
	if child.DefaultClearance > parent.DefaultClearance {
		return false
	}
	for action, childAllowed := range child.Globals {
		if childAllowed && !parent.Globals[action] {
			return false
		}
	}
	for kind, childGrants := range child.Grants {
		for _, cg := range childGrants {
			pg, ok := parent.grantFor(kind, cg.ResourceID)
			parentClearance := Unset
			if ok {
				parentClearance = pg.Clearance
			}
			if parentClearance == Unset {
				parentClearance = parent.DefaultClearance
			}
			childClearance := cg.Clearance
			if childClearance == Unset {
				childClearance = child.DefaultClearance
			}
			if childClearance > parentClearance {
				return false
			}
		}
	}
	return true
}
