// Package policy is the pure authorization decision layer. It holds no state
// and talks to no store: callers resolve an identity and the current resource
// first, then ask for a decision. Deny always overrides.
package policy

import "jobboard/identity"

// Operation enumerates every action the platform authorizes.
type Operation string

const (
	OpListApproved Operation = "list_approved"
	OpListOwn      Operation = "list_own"
	OpListAll      Operation = "list_all"
	OpCreateJob    Operation = "create_job"
	OpApproveJob   Operation = "approve_job"
	OpRejectJob    Operation = "reject_job"
	OpDeleteJob    Operation = "delete_job"
	OpViewJob      Operation = "view_job"
	OpListEvents   Operation = "list_events"
)

// Capability is a privilege resolved once per identity rather than re-branched
// per role inside each operation.
type Capability string

const (
	CapReadApproved Capability = "read_approved"
	CapReadOwn      Capability = "read_own"
	CapReadAll      Capability = "read_all"
	CapCreate       Capability = "create"
	CapModerate     Capability = "moderate"
	CapDeleteOwn    Capability = "delete_own"
	CapDeleteAny    Capability = "delete_any"
)

// Resource describes the target of an operation in the minimal terms the
// policy needs: who owns it and whether it is publicly visible.
type Resource struct {
	OwnerID  string
	Approved bool
}

// Decision is the outcome of an authorization check.
type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(reason string) Decision {
	return Decision{Allowed: false, Reason: reason}
}

// Capabilities resolves the privilege set for an identity. A nil identity is
// the anonymous caller.
func Capabilities(id *identity.Identity) map[Capability]bool {
	caps := map[Capability]bool{
		CapReadApproved: true,
	}
	if id == nil {
		return caps
	}

	switch id.Role {
	case identity.RoleAdmin:
		caps[CapReadOwn] = true
		caps[CapReadAll] = true
		caps[CapModerate] = true
		caps[CapDeleteAny] = true
	case identity.RoleCompany:
		caps[CapReadOwn] = true
		caps[CapCreate] = true
		caps[CapDeleteOwn] = true
	}
	return caps
}

// Authorize decides whether the identity may perform op on res. res may be nil
// for operations that target no particular job (listings, creation).
func Authorize(id *identity.Identity, op Operation, res *Resource) Decision {
	caps := Capabilities(id)

	switch op {
	case OpListApproved:
		return allow()

	case OpListOwn:
		if !caps[CapReadOwn] {
			return deny("authenticated company identity required")
		}
		return allow()

	case OpListAll, OpListEvents:
		if !caps[CapReadAll] {
			return deny("administrator role required")
		}
		return allow()

	case OpCreateJob:
		if !caps[CapCreate] {
			return deny("authenticated company identity required")
		}
		return allow()

	case OpApproveJob, OpRejectJob:
		if !caps[CapModerate] {
			return deny("administrator role required")
		}
		return allow()

	case OpDeleteJob:
		if caps[CapDeleteAny] {
			return allow()
		}
		if caps[CapDeleteOwn] && res != nil && res.OwnerID == id.ID {
			return allow()
		}
		return deny("only the owning company or an administrator may delete")

	case OpViewJob:
		if res != nil && res.Approved {
			return allow()
		}
		if caps[CapReadAll] {
			return allow()
		}
		if id != nil && res != nil && res.OwnerID == id.ID {
			return allow()
		}
		return deny("job is not publicly visible")
	}

	return deny("unknown operation")
}
