package quotation

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecide(t *testing.T) {
	now := time.Now()
	validUntil := now.Add(24 * time.Hour)

	quotationInStatus := func(t *testing.T, status Status) *Quotation {
		q := draftQuotation(t, validUntil)
		_, err := q.AddItem("Widget", "WID-001", 1, usd(t, "10.00"))
		require.NoError(t, err)
		q.Status = status
		return q
	}

	t.Run("terminal statuses refuse every action", func(t *testing.T) {
		for _, status := range []Status{StatusRejected, StatusConverted} {
			q := quotationInStatus(t, status)
			for _, action := range []Action{ActionSend, ActionApprove, ActionReject, ActionConvert} {
				d := q.Decide(action, TransitionContext{Now: now, Reason: "r"})
				assert.False(t, d.Allowed, "%s on %s", action, status)
				assert.Equal(t, "INVALID_STATE", d.Code)
			}
		}
	})

	t.Run("status matrix", func(t *testing.T) {
		cases := []struct {
			action  Action
			status  Status
			allowed bool
			code    string
		}{
			{ActionSend, StatusDraft, true, ""},
			{ActionSend, StatusSent, false, "INVALID_STATE"},
			{ActionSend, StatusApproved, false, "INVALID_STATE"},
			{ActionApprove, StatusSent, true, ""},
			{ActionApprove, StatusDraft, false, "INVALID_STATE"},
			{ActionApprove, StatusApproved, false, "INVALID_STATE"},
			{ActionReject, StatusSent, true, ""},
			{ActionReject, StatusApproved, true, ""},
			{ActionReject, StatusDraft, false, "INVALID_STATE"},
			{ActionConvert, StatusDraft, false, "INVALID_STATE"},
			{ActionConvert, StatusSent, false, "INVALID_STATE"},
		}
		for _, tc := range cases {
			q := quotationInStatus(t, tc.status)
			ctx := TransitionContext{Now: now, Reason: "because", SelectedItemIDs: []uuid.UUID{q.Items[0].ID}}
			d := q.Decide(tc.action, ctx)
			assert.Equal(t, tc.allowed, d.Allowed, "%s on %s", tc.action, tc.status)
			if !tc.allowed {
				assert.Equal(t, tc.code, d.Code, "%s on %s", tc.action, tc.status)
			}
		}
	})

	t.Run("expiration takes precedence over stored status", func(t *testing.T) {
		q := quotationInStatus(t, StatusDraft)
		q.ValidUntil = now.Add(-time.Hour)

		// Even though DRAFT would be the wrong status anyway, the expiration
		// check answers first for approve and convert.
		d := q.Decide(ActionApprove, TransitionContext{Now: now})
		assert.Equal(t, "QUOTATION_EXPIRED", d.Code)

		d = q.Decide(ActionConvert, TransitionContext{Now: now, SelectedItemIDs: []uuid.UUID{q.Items[0].ID}})
		assert.Equal(t, "QUOTATION_EXPIRED", d.Code)
	})

	t.Run("send ignores expiration", func(t *testing.T) {
		q := quotationInStatus(t, StatusDraft)
		q.ValidUntil = now.Add(-time.Hour)

		d := q.Decide(ActionSend, TransitionContext{Now: now})
		assert.True(t, d.Allowed)
	})

	t.Run("reject requires trimmed non-empty reason", func(t *testing.T) {
		q := quotationInStatus(t, StatusSent)

		d := q.Decide(ActionReject, TransitionContext{Now: now, Reason: "  \t "})
		assert.False(t, d.Allowed)
		assert.Equal(t, "REASON_REQUIRED", d.Code)

		d = q.Decide(ActionReject, TransitionContext{Now: now, Reason: "over budget"})
		assert.True(t, d.Allowed)
	})

	t.Run("unknown action is rejected", func(t *testing.T) {
		q := quotationInStatus(t, StatusDraft)
		d := q.Decide(Action("archive"), TransitionContext{Now: now})
		assert.False(t, d.Allowed)
		assert.Equal(t, "INVALID_INPUT", d.Code)
	})
}

func TestDecideConvertSelection(t *testing.T) {
	now := time.Now()

	approved := func(t *testing.T) *Quotation {
		q := draftQuotation(t, now.Add(24*time.Hour))
		_, err := q.AddItem("Widget", "WID-001", 2, usd(t, "10.00"))
		require.NoError(t, err)
		_, err = q.AddItem("Gadget", "GAD-001", 1, usd(t, "5.00"))
		require.NoError(t, err)
		q.Status = StatusApproved
		return q
	}

	t.Run("empty selection", func(t *testing.T) {
		q := approved(t)
		d := q.Decide(ActionConvert, TransitionContext{Now: now})
		assert.Equal(t, "NO_ITEMS_SELECTED", d.Code)
	})

	t.Run("duplicate selection", func(t *testing.T) {
		q := approved(t)
		id := q.Items[0].ID
		d := q.Decide(ActionConvert, TransitionContext{Now: now, SelectedItemIDs: []uuid.UUID{id, id}})
		assert.Equal(t, "INVALID_INPUT", d.Code)
	})

	t.Run("unknown item id", func(t *testing.T) {
		q := approved(t)
		d := q.Decide(ActionConvert, TransitionContext{Now: now, SelectedItemIDs: []uuid.UUID{uuid.New()}})
		assert.Equal(t, "ITEM_NOT_FOUND", d.Code)
	})

	t.Run("consumed item id", func(t *testing.T) {
		q := approved(t)
		q.Items[0].markConsumed(now)
		d := q.Decide(ActionConvert, TransitionContext{Now: now, SelectedItemIDs: []uuid.UUID{q.Items[0].ID}})
		assert.Equal(t, "ITEM_ALREADY_CONSUMED", d.Code)
	})

	t.Run("valid selection", func(t *testing.T) {
		q := approved(t)
		d := q.Decide(ActionConvert, TransitionContext{Now: now, SelectedItemIDs: []uuid.UUID{q.Items[0].ID, q.Items[1].ID}})
		assert.True(t, d.Allowed)
	})
}
