package quotation

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lab404/backend/internal/domain/order"
	"github.com/lab404/backend/internal/domain/shared"
)

// ConversionParams are the inputs to a conversion: the item selection, the
// pre-generated number for the resulting order, and the acting user.
type ConversionParams struct {
	SelectedItemIDs []uuid.UUID
	OrderNumber     string
	Notes           string
	ActorID         uuid.UUID
	Now             time.Time
}

// ConversionResult is the structured outcome of a conversion
type ConversionResult struct {
	Order            *order.Order
	StatusAfter      Status
	IsPartial        bool
	ConvertedItemIDs []uuid.UUID
	RemainingItemIDs []uuid.UUID
	ConvertedTotal   decimal.Decimal
	RemainingTotal   decimal.Decimal
}

// ConversionPreview mirrors ConversionResult without an order draft; it is
// computed without mutating the quotation so a staff member can see exactly
// what a conversion would bill before committing to it.
type ConversionPreview struct {
	IsPartial        bool
	SelectedItemIDs  []uuid.UUID
	RemainingItemIDs []uuid.UUID
	SelectedTotal    decimal.Decimal
	RemainingTotal   decimal.Decimal
}

// Convert turns the selected items into an order draft and settles the
// quotation's residual state.
//
// The steps are all-or-nothing within the aggregate: validation and order
// construction complete before any item is marked consumed, so an error
// leaves the quotation untouched. Durability across the repository write is
// the application service's concern.
func (q *Quotation) Convert(p ConversionParams) (*ConversionResult, error) {
	if d := q.Decide(ActionConvert, TransitionContext{Now: p.Now, SelectedItemIDs: p.SelectedItemIDs}); !d.Allowed {
		return nil, shared.NewDomainError(d.Code, d.Reason)
	}

	selected, remaining := q.partitionOpenItems(p.SelectedItemIDs)

	// Build the order draft first. Lines are structural copies of the
	// selected items: same quantity, same unit price, no re-pricing.
	draft, err := order.NewOrder(p.OrderNumber, q.ID, q.QuotationNumber, order.CustomerInfo{
		Name:    q.Customer.Name,
		Email:   q.Customer.Email,
		Phone:   q.Customer.Phone,
		Company: q.Customer.Company,
	}, q.Currency)
	if err != nil {
		return nil, err
	}
	if p.ActorID != uuid.Nil {
		draft.SetCreatedBy(p.ActorID)
	}
	draft.Notes = p.Notes

	convertedTotal := decimal.Zero
	convertedIDs := make([]uuid.UUID, 0, len(selected))
	for _, item := range selected {
		if err := draft.AddLine(item.ID, item.ProductName, item.ProductSKU, item.Quantity, item.UnitPrice); err != nil {
			return nil, err
		}
		convertedTotal = convertedTotal.Add(item.LineTotal)
		convertedIDs = append(convertedIDs, item.ID)
	}

	remainingTotal := decimal.Zero
	remainingIDs := make([]uuid.UUID, 0, len(remaining))
	for _, item := range remaining {
		remainingTotal = remainingTotal.Add(item.LineTotal)
		remainingIDs = append(remainingIDs, item.ID)
	}

	// Point of no return: mark consumption and settle the residual status.
	for idx := range q.Items {
		if containsID(convertedIDs, q.Items[idx].ID) {
			q.Items[idx].markConsumed(p.Now)
		}
	}

	before := q.Status
	isPartial := len(remaining) > 0
	if isPartial {
		// Residual items stay open for a later conversion while the
		// quotation remains unexpired.
		q.Status = StatusApproved
	} else {
		q.Status = StatusConverted
		q.ConvertedAt = &p.Now
	}
	q.UpdatedAt = p.Now

	q.AddDomainEvent(NewQuotationConvertedEvent(q, before, draft, convertedIDs, remainingIDs, isPartial, p.ActorID))

	return &ConversionResult{
		Order:            draft,
		StatusAfter:      q.Status,
		IsPartial:        isPartial,
		ConvertedItemIDs: convertedIDs,
		RemainingItemIDs: remainingIDs,
		ConvertedTotal:   convertedTotal,
		RemainingTotal:   remainingTotal,
	}, nil
}

// PreviewConversion computes the partition and totals a conversion would
// produce without mutating anything. The selected total here is, by
// construction, the exact total the order would carry.
func (q *Quotation) PreviewConversion(selectedIDs []uuid.UUID, now time.Time) (*ConversionPreview, error) {
	if d := q.Decide(ActionConvert, TransitionContext{Now: now, SelectedItemIDs: selectedIDs}); !d.Allowed {
		return nil, shared.NewDomainError(d.Code, d.Reason)
	}

	selected, remaining := q.partitionOpenItems(selectedIDs)

	preview := &ConversionPreview{
		IsPartial:        len(remaining) > 0,
		SelectedItemIDs:  make([]uuid.UUID, 0, len(selected)),
		RemainingItemIDs: make([]uuid.UUID, 0, len(remaining)),
		SelectedTotal:    decimal.Zero,
		RemainingTotal:   decimal.Zero,
	}
	for _, item := range selected {
		preview.SelectedItemIDs = append(preview.SelectedItemIDs, item.ID)
		preview.SelectedTotal = preview.SelectedTotal.Add(item.LineTotal)
	}
	for _, item := range remaining {
		preview.RemainingItemIDs = append(preview.RemainingItemIDs, item.ID)
		preview.RemainingTotal = preview.RemainingTotal.Add(item.LineTotal)
	}

	return preview, nil
}

// partitionOpenItems splits the unconsumed items into selected and remaining
// by the given id set, preserving item order. Selection validity is checked
// by Decide before this runs.
func (q *Quotation) partitionOpenItems(selectedIDs []uuid.UUID) (selected, remaining []QuotationItem) {
	for _, item := range q.OpenItems() {
		if containsID(selectedIDs, item.ID) {
			selected = append(selected, item)
		} else {
			remaining = append(remaining, item)
		}
	}
	return selected, remaining
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
