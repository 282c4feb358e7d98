package permission

// ApproverKind enumerates who is eligible to approve a suspended action,
// derived from the effective clearance tier (spec.md §4.5 step 5).
type ApproverKind string

const (
	ApproverSameLevelUser    ApproverKind = "SameLevelUser"
	ApproverWhitelistedUser  ApproverKind = "WhitelistedUser"
	ApproverWhitelistedAgent ApproverKind = "WhitelistedAgent"
)

// Decision is the terminal outcome of resolving one action.
type Decision string

const (
	DecisionExecute         Decision = "Execute"
	DecisionDeny             Decision = "Deny"
	DecisionAwaitingApproval Decision = "AwaitingApproval"
)

// Action is the `{ agent, action-type, resource-id?, caller }` input
// spec.md §4.5 describes. Exactly one of GlobalAction or ResourceKind
// should be set: a global action carries no resource id, a per-resource
// action carries both a kind and a resource id.
type Action struct {
	// ActionType is the key used to look up pre-approvals; callers
	// conventionally use the GlobalAction value or "<kind>:<resourceID>".
	ActionType string

	GlobalAction GlobalAction

	ResourceKind ResourceKind
	ResourceID   string
}

// Verdict is the full resolution outcome: the decision, the clearance it
// was computed from, and (when suspended) who may approve it.
type Verdict struct {
	Decision           Decision
	RoleLiftedClearance Clearance
	AutoApprovedClearance Clearance
	EffectiveClearance Clearance
	EligibleApprovers  []ApproverKind
	Reason             string
}

// Resolve implements the spec.md §4.5 five-step algorithm: resolve the
// grant, lift Unset to the role default, intersect with the most
// specific pre-approval, compute the effective clearance, then decide.
func Resolve(role RolePermissions, action Action, pre PreapprovalSet) Verdict {
	if action.GlobalAction != "" {
		return resolveGlobal(role, action)
	}
	return resolveResource(role, action, pre)
}

func resolveGlobal(role RolePermissions, action Action) Verdict {
	allowed, ok := role.Globals[action.GlobalAction]
	if !ok || !allowed {
		return Verdict{Decision: DecisionDeny, Reason: "global action not granted: " + string(action.GlobalAction)}
	}
	return Verdict{
		Decision:            DecisionExecute,
		RoleLiftedClearance: Independent,
		EffectiveClearance:  Independent,
		Reason:              "global action granted",
	}
}

func resolveResource(role RolePermissions, action Action, pre PreapprovalSet) Verdict {
	grant, ok := role.grantFor(action.ResourceKind, action.ResourceID)
	if !ok {
		return Verdict{Decision: DecisionDeny, Reason: "no grant for resource"}
	}

	lifted := grant.Clearance
	if lifted == Unset {
		lifted = role.DefaultClearance
	}
	if lifted == Unset || lifted == Denied {
		return Verdict{Decision: DecisionDeny, RoleLiftedClearance: lifted, Reason: "denied by role default or explicit grant"}
	}

	autoApproved := AlwaysApproved
	covered := false
	if p, ok := pre.Lookup(action.ActionType); ok {
		autoApproved = p.GrantedClearance
		covered = autoApproved >= lifted && autoApproved != Unset && autoApproved != Denied
	}

	effective := min(lifted, autoApproved)

	v := Verdict{
		RoleLiftedClearance:   lifted,
		AutoApprovedClearance: autoApproved,
		EffectiveClearance:    effective,
	}

	switch {
	case lifted == Independent:
		v.Decision = DecisionExecute
		v.Reason = "independent clearance"
	case lifted == AlwaysApproved:
		v.Decision = DecisionExecute
		v.Reason = "always-approved clearance"
	case lifted.RequiresApproval() && covered:
		v.Decision = DecisionExecute
		v.Reason = "covered by pre-approval"
	case lifted.RequiresApproval():
		v.Decision = DecisionAwaitingApproval
		v.EligibleApprovers = eligibleApprovers(lifted)
		v.Reason = "requires approval"
	default:
		v.Decision = DecisionDeny
		v.Reason = "unrecognized clearance tier"
	}
	return v
}

// eligibleApprovers maps an ApprovedBy* clearance tier to the set of
// approver kinds who may resolve its pending approval (spec.md §4.5
// step 5: "same-level users, whitelisted users, whitelisted agents").
func eligibleApprovers(c Clearance) []ApproverKind {
	switch c {
	case ApprovedByWhitelistedAgent:
		return []ApproverKind{ApproverWhitelistedAgent}
	case ApprovedBySameLevelUser:
		return []ApproverKind{ApproverSameLevelUser}
	case ApprovedByWhitelistedUser:
		return []ApproverKind{ApproverWhitelistedUser}
	default:
		return nil
	}
}
