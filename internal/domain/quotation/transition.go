package quotation

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Action is a user-initiated lifecycle action on a quotation
type Action string

const (
	ActionSend    Action = "send"
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
	ActionConvert Action = "convert"
)

// TransitionContext carries the inputs a transition decision depends on
// beyond the quotation itself: the clock, the reject reason, and the item
// selection for conversions.
type TransitionContext struct {
	Now             time.Time
	Reason          string
	SelectedItemIDs []uuid.UUID
}

// Decision is the outcome of a transition check. Code maps onto the domain
// error taxonomy so callers can surface it unchanged.
type Decision struct {
	Allowed bool
	Code    string
	Reason  string
}

func allowed() Decision {
	return Decision{Allowed: true}
}

func disallowed(code, reason string) Decision {
	return Decision{Allowed: false, Code: code, Reason: reason}
}

// Decide is the single transition decision function for the quotation state
// machine. It is pure: no side effects, deterministic for a given quotation
// state and context. Every caller that needs to know whether an action is
// legal goes through here instead of re-deriving the rules.
//
// Evaluation order: terminal check, then per-action rules with expiration
// taking precedence over an otherwise-valid stored status.
func (q *Quotation) Decide(action Action, ctx TransitionContext) Decision {
	if q.Status.IsTerminal() {
		return disallowed("INVALID_STATE",
			fmt.Sprintf("Quotation is %s; no further actions are permitted", strings.ToLower(q.Status.String())))
	}

	switch action {
	case ActionSend:
		if q.Status != StatusDraft {
			return disallowed("INVALID_STATE",
				fmt.Sprintf("Cannot send a quotation in %s status", q.Status))
		}
		return allowed()

	case ActionApprove:
		// Expiration wins even over a valid SENT status.
		if q.IsExpired(ctx.Now) {
			return disallowed("QUOTATION_EXPIRED", "Cannot approve an expired quotation")
		}
		if q.Status != StatusSent {
			return disallowed("INVALID_STATE",
				fmt.Sprintf("Cannot approve a quotation in %s status", q.Status))
		}
		return allowed()

	case ActionReject:
		if q.Status != StatusSent && q.Status != StatusApproved {
			return disallowed("INVALID_STATE",
				fmt.Sprintf("Cannot reject a quotation in %s status", q.Status))
		}
		if strings.TrimSpace(ctx.Reason) == "" {
			return disallowed("REASON_REQUIRED", "A rejection reason is required")
		}
		return allowed()

	case ActionConvert:
		if q.IsExpired(ctx.Now) {
			return disallowed("QUOTATION_EXPIRED", "Cannot convert an expired quotation")
		}
		if q.Status != StatusApproved {
			return disallowed("INVALID_STATE",
				fmt.Sprintf("Cannot convert a quotation in %s status", q.Status))
		}
		if len(ctx.SelectedItemIDs) == 0 {
			return disallowed("NO_ITEMS_SELECTED", "At least one item must be selected for conversion")
		}
		return q.checkSelection(ctx.SelectedItemIDs)
	}

	return disallowed("INVALID_INPUT", fmt.Sprintf("Unknown action %q", action))
}

// checkSelection validates a conversion item selection: every id must exist
// on the quotation and must not already be consumed by a prior partial
// conversion. Bad ids fail the decision outright, they are never ignored.
func (q *Quotation) checkSelection(selectedIDs []uuid.UUID) Decision {
	seen := make(map[uuid.UUID]struct{}, len(selectedIDs))
	for _, id := range selectedIDs {
		if _, dup := seen[id]; dup {
			return disallowed("INVALID_INPUT",
				fmt.Sprintf("Item %s is selected more than once", id))
		}
		seen[id] = struct{}{}

		item := q.GetItem(id)
		if item == nil {
			return disallowed("ITEM_NOT_FOUND",
				fmt.Sprintf("Item %s does not belong to this quotation", id))
		}
		if item.Consumed {
			return disallowed("ITEM_ALREADY_CONSUMED",
				fmt.Sprintf("Item %s was already converted to an order", id))
		}
	}
	return allowed()
}
