package commands

// ChatSnapshot is the role information a permission check needs, captured
// from group metadata at dispatch time.
type ChatSnapshot struct {
	IsGroup            bool
	SenderIsAdmin      bool
	SenderIsSuperAdmin bool
	BotIsAdmin         bool
}

type PermissionDecision struct {
	Allowed bool
	Reason  string
}

const (
	ReasonGroupOnly = "group_only"
	ReasonOwner     = "owner"
	ReasonAdmin     = "admin"
	ReasonBotAdmin  = "bot_admin"
)

// CheckPermissions evaluates the rules in a fixed order, first match wins.
// The owner bypasses everything except the group-only restriction, which is
// about where a command makes sense rather than who runs it.
func CheckPermissions(constraints Constraints, senderIsOwner bool, snapshot ChatSnapshot) PermissionDecision {
	if constraints.GroupOnly && !snapshot.IsGroup {
		return PermissionDecision{Reason: ReasonGroupOnly}
	}
	if senderIsOwner {
		return PermissionDecision{Allowed: true}
	}
	if constraints.OwnerOnly {
		return PermissionDecision{Reason: ReasonOwner}
	}
	if constraints.AdminOnly && !snapshot.SenderIsAdmin && !snapshot.SenderIsSuperAdmin {
		return PermissionDecision{Reason: ReasonAdmin}
	}
	if constraints.RequiresBotAdmin && !snapshot.BotIsAdmin {
		return PermissionDecision{Reason: ReasonBotAdmin}
	}
	return PermissionDecision{Allowed: true}
}
