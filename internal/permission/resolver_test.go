package permission

import "testing"

func TestResolve_GlobalActionDeniedWhenFlagMissing(t *testing.T) {
	role := RolePermissions{Globals: map[GlobalAction]bool{}}
	v := Resolve(role, Action{GlobalAction: ActionCreateSubAgent}, PreapprovalSet{})
	if v.Decision != DecisionDeny {
		t.Fatalf("expected Deny, got %v", v.Decision)
	}
}

func TestResolve_GlobalActionExecutesWhenGranted(t *testing.T) {
	role := RolePermissions{Globals: map[GlobalAction]bool{ActionCreateContainer: true}}
	v := Resolve(role, Action{GlobalAction: ActionCreateContainer}, PreapprovalSet{})
	if v.Decision != DecisionExecute {
		t.Fatalf("expected Execute, got %v", v.Decision)
	}
}

func TestResolve_ResourceMissingGrantIsDenied(t *testing.T) {
	role := RolePermissions{DefaultClearance: Independent}
	v := Resolve(role, Action{ActionType: "shell:host1", ResourceKind: KindDangerousShell, ResourceID: "host1"}, PreapprovalSet{})
	if v.Decision != DecisionDeny {
		t.Fatalf("expected Deny for missing grant, got %v", v.Decision)
	}
}

func TestResolve_UnsetGrantLiftsToRoleDefault(t *testing.T) {
	role := RolePermissions{
		DefaultClearance: Independent,
		Grants: map[ResourceKind][]ResourceGrant{
			KindSafeShell: {{ResourceID: AllResources, Clearance: Unset}},
		},
	}
	v := Resolve(role, Action{ActionType: "safeshell", ResourceKind: KindSafeShell, ResourceID: "host1"}, PreapprovalSet{})
	if v.Decision != DecisionExecute {
		t.Fatalf("expected Execute via lifted Independent default, got %v (%s)", v.Decision, v.Reason)
	}
}

func TestResolve_UnsetDefaultClearanceIsDenied(t *testing.T) {
	role := RolePermissions{
		Grants: map[ResourceKind][]ResourceGrant{
			KindSafeShell: {{ResourceID: AllResources, Clearance: Unset}},
		},
	}
	v := Resolve(role, Action{ActionType: "safeshell", ResourceKind: KindSafeShell, ResourceID: "host1"}, PreapprovalSet{})
	if v.Decision != DecisionDeny {
		t.Fatalf("expected Deny when both grant and role default are Unset, got %v", v.Decision)
	}
}

func TestResolve_WildcardGrantAppliesWhenNoExactMatch(t *testing.T) {
	role := RolePermissions{
		Grants: map[ResourceKind][]ResourceGrant{
			KindWebsite: {{ResourceID: AllResources, Clearance: Independent}},
		},
	}
	v := Resolve(role, Action{ActionType: "website", ResourceKind: KindWebsite, ResourceID: "example.com"}, PreapprovalSet{})
	if v.Decision != DecisionExecute {
		t.Fatalf("expected Execute via wildcard grant, got %v", v.Decision)
	}
}

func TestResolve_ApprovedTierWithoutPreapprovalSuspends(t *testing.T) {
	role := RolePermissions{
		Grants: map[ResourceKind][]ResourceGrant{
			KindDangerousShell: {{ResourceID: AllResources, Clearance: ApprovedByWhitelistedUser}},
		},
	}
	v := Resolve(role, Action{ActionType: "dangerous-shell", ResourceKind: KindDangerousShell, ResourceID: "host1"}, PreapprovalSet{})
	if v.Decision != DecisionAwaitingApproval {
		t.Fatalf("expected AwaitingApproval, got %v", v.Decision)
	}
	if len(v.EligibleApprovers) != 1 || v.EligibleApprovers[0] != ApproverWhitelistedUser {
		t.Fatalf("expected whitelisted-user approver, got %v", v.EligibleApprovers)
	}
}

func TestResolve_ApprovedTierCoveredByTaskPreapprovalExecutes(t *testing.T) {
	role := RolePermissions{
		Grants: map[ResourceKind][]ResourceGrant{
			KindDangerousShell: {{ResourceID: AllResources, Clearance: ApprovedByWhitelistedUser}},
		},
	}
	pre := PreapprovalSet{
		Task: map[string]Preapproval{
			"dangerous-shell": {ActionType: "dangerous-shell", GrantedClearance: ApprovedByWhitelistedUser},
		},
	}
	v := Resolve(role, Action{ActionType: "dangerous-shell", ResourceKind: KindDangerousShell, ResourceID: "host1"}, pre)
	if v.Decision != DecisionExecute {
		t.Fatalf("expected Execute, pre-approval should cover this action, got %v (%s)", v.Decision, v.Reason)
	}
}

func TestResolve_TaskPreapprovalBeatsChannelAndContext(t *testing.T) {
	role := RolePermissions{
		Grants: map[ResourceKind][]ResourceGrant{
			KindDangerousShell: {{ResourceID: AllResources, Clearance: ApprovedByWhitelistedUser}},
		},
	}
	pre := PreapprovalSet{
		Context: map[string]Preapproval{"dangerous-shell": {ActionType: "dangerous-shell", GrantedClearance: ApprovedByWhitelistedUser}},
		Channel: map[string]Preapproval{"dangerous-shell": {ActionType: "dangerous-shell", GrantedClearance: ApprovedByWhitelistedUser}},
		Task:    map[string]Preapproval{"dangerous-shell": {ActionType: "dangerous-shell", GrantedClearance: Denied}},
	}
	v := Resolve(role, Action{ActionType: "dangerous-shell", ResourceKind: KindDangerousShell, ResourceID: "host1"}, pre)
	if v.Decision != DecisionAwaitingApproval {
		t.Fatalf("expected task-scoped Denied preapproval to win over channel/context, got %v", v.Decision)
	}
}

func TestResolve_AlwaysApprovedExecutesForSystemJobs(t *testing.T) {
	role := RolePermissions{
		Grants: map[ResourceKind][]ResourceGrant{
			KindContainer: {{ResourceID: AllResources, Clearance: AlwaysApproved}},
		},
	}
	v := Resolve(role, Action{ActionType: "container", ResourceKind: KindContainer, ResourceID: "c1"}, PreapprovalSet{})
	if v.Decision != DecisionExecute {
		t.Fatalf("expected Execute for AlwaysApproved, got %v", v.Decision)
	}
}

func TestDominates_ChildWithHigherDefaultClearanceFails(t *testing.T) {
	parent := RolePermissions{DefaultClearance: Independent}
	child := RolePermissions{DefaultClearance: AlwaysApproved}
	if Dominates(child, parent) {
		t.Fatalf("child default clearance exceeds parent, Dominates should be false")
	}
}

func TestDominates_ChildWithGlobalFlagParentLacksFails(t *testing.T) {
	parent := RolePermissions{Globals: map[GlobalAction]bool{}}
	child := RolePermissions{Globals: map[GlobalAction]bool{ActionCreateSubAgent: true}}
	if Dominates(child, parent) {
		t.Fatalf("child grants a global flag the parent lacks, Dominates should be false")
	}
}

func TestDominates_ChildWithResourceGrantExceedingParentFails(t *testing.T) {
	parent := RolePermissions{
		Grants: map[ResourceKind][]ResourceGrant{
			KindSafeShell: {{ResourceID: AllResources, Clearance: Independent}},
		},
	}
	child := RolePermissions{
		Grants: map[ResourceKind][]ResourceGrant{
			KindSafeShell: {{ResourceID: AllResources, Clearance: AlwaysApproved}},
		},
	}
	if Dominates(child, parent) {
		t.Fatalf("child resource grant exceeds parent, Dominates should be false")
	}
}

func TestDominates_EqualOrLesserChildSucceeds(t *testing.T) {
	parent := RolePermissions{
		DefaultClearance: Independent,
		Globals:          map[GlobalAction]bool{ActionCreateSubAgent: true},
		Grants: map[ResourceKind][]ResourceGrant{
			KindSafeShell: {{ResourceID: AllResources, Clearance: Independent}},
		},
	}
	child := RolePermissions{
		DefaultClearance: Denied,
		Globals:          map[GlobalAction]bool{ActionCreateSubAgent: false},
		Grants: map[ResourceKind][]ResourceGrant{
			KindSafeShell: {{ResourceID: AllResources, Clearance: Denied}},
		},
	}
	if !Dominates(child, parent) {
		t.Fatalf("child strictly narrower than parent, Dominates should be true")
	}
}
