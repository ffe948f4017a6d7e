package quotation

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lab404/backend/internal/domain/order"
	"github.com/lab404/backend/internal/domain/quotation"
	"github.com/lab404/backend/internal/domain/shared"
	"github.com/lab404/backend/internal/domain/shared/valueobject"
)

// Service coordinates quotation lifecycle operations end to end: it loads the
// aggregate, lets the domain decide and apply the transition, persists the
// result as one logical unit, and only then fans out to the best-effort
// collaborators. All quotation mutation in the system goes through here.
type Service struct {
	quotationRepo  quotation.Repository
	orderRepo      order.Repository
	notifier       NotificationDispatcher
	auditor        AuditRecorder
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewService creates a new quotation Service
func NewService(quotationRepo quotation.Repository, orderRepo order.Repository, notifier NotificationDispatcher, auditor AuditRecorder, eventPublisher shared.EventPublisher, logger *zap.Logger) *Service {
	return &Service{
		quotationRepo:  quotationRepo,
		orderRepo:      orderRepo,
		notifier:       notifier,
		auditor:        auditor,
		eventPublisher: eventPublisher,
		logger:         logger,
	}
}

// Create creates a new draft quotation
func (s *Service) Create(ctx context.Context, req CreateQuotationRequest) (*QuotationResponse, error) {
	number, err := s.quotationRepo.GenerateNumber(ctx)
	if err != nil {
		return nil, err
	}

	q, err := quotation.NewQuotation(number, quotation.CustomerSnapshot{
		Name:    req.Customer.Name,
		Email:   req.Customer.Email,
		Phone:   req.Customer.Phone,
		Company: req.Customer.Company,
	}, req.Currency, req.ValidUntil, req.CreatedBy)
	if err != nil {
		return nil, err
	}

	for _, item := range req.Items {
		unitPrice, err := valueobject.NewMoney(item.UnitPrice, req.Currency)
		if err != nil {
			return nil, shared.NewDomainError("INVALID_PRICE", err.Error())
		}
		if _, err := q.AddItem(item.ProductName, item.ProductSKU, item.Quantity, unitPrice); err != nil {
			return nil, err
		}
	}

	if req.Notes != "" {
		q.SetNotes(req.Notes)
	}

	if err := s.quotationRepo.Save(ctx, q); err != nil {
		return nil, err
	}

	s.publishDomainEvents(ctx, q)

	response := ToQuotationResponse(q, time.Now())
	return &response, nil
}

// Get retrieves a quotation by ID
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*QuotationResponse, error) {
	q, err := s.quotationRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToQuotationResponse(q, time.Now())
	return &response, nil
}

// GetByNumber retrieves a quotation by quotation number
func (s *Service) GetByNumber(ctx context.Context, number string) (*QuotationResponse, error) {
	q, err := s.quotationRepo.FindByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	response := ToQuotationResponse(q, time.Now())
	return &response, nil
}

// List retrieves quotations with filtering and pagination
func (s *Service) List(ctx context.Context, filter ListFilter) ([]QuotationResponse, int64, error) {
	domainFilter := shared.DefaultFilter()
	if filter.Page > 0 {
		domainFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		domainFilter.PageSize = filter.PageSize
	}
	if filter.OrderBy != "" {
		domainFilter.OrderBy = filter.OrderBy
	}
	if filter.OrderDir != "" {
		domainFilter.OrderDir = filter.OrderDir
	}
	domainFilter.Search = filter.Search
	if filter.Status != nil {
		domainFilter.Filters["status"] = string(*filter.Status)
	}
	if filter.CustomerName != "" {
		domainFilter.Filters["customer_name"] = filter.CustomerName
	}
	if filter.StartDate != nil {
		domainFilter.Filters["start_date"] = *filter.StartDate
	}
	if filter.EndDate != nil {
		domainFilter.Filters["end_date"] = *filter.EndDate
	}
	if filter.MinAmount != nil {
		domainFilter.Filters["min_amount"] = *filter.MinAmount
	}
	if filter.MaxAmount != nil {
		domainFilter.Filters["max_amount"] = *filter.MaxAmount
	}

	quotations, err := s.quotationRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.quotationRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	now := time.Now()
	responses := make([]QuotationResponse, len(quotations))
	for i := range quotations {
		responses[i] = ToQuotationResponse(&quotations[i], now)
	}
	return responses, total, nil
}

// Update updates a quotation's editable fields (draft only)
func (s *Service) Update(ctx context.Context, id uuid.UUID, req UpdateQuotationRequest) (*QuotationResponse, error) {
	q, err := s.quotationRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !q.CanModify() {
		return nil, shared.NewDomainError("INVALID_STATE", "Quotation can only be modified in draft status")
	}

	if req.Customer != nil {
		if req.Customer.Name == "" {
			return nil, shared.NewDomainError("INVALID_CUSTOMER_NAME", "Customer name cannot be empty")
		}
		q.Customer = quotation.CustomerSnapshot{
			Name:    req.Customer.Name,
			Email:   req.Customer.Email,
			Phone:   req.Customer.Phone,
			Company: req.Customer.Company,
		}
	}
	if req.Notes != nil {
		q.SetNotes(*req.Notes)
	}

	if err := s.quotationRepo.SaveWithLock(ctx, q); err != nil {
		return nil, err
	}

	response := ToQuotationResponse(q, time.Now())
	return &response, nil
}

// AddItem adds an item to a draft quotation
func (s *Service) AddItem(ctx context.Context, id uuid.UUID, req AddItemRequest) (*QuotationResponse, error) {
	q, err := s.quotationRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	unitPrice, err := valueobject.NewMoney(req.UnitPrice, q.Currency)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_PRICE", err.Error())
	}
	if _, err := q.AddItem(req.ProductName, req.ProductSKU, req.Quantity, unitPrice); err != nil {
		return nil, err
	}

	if err := s.quotationRepo.SaveWithLock(ctx, q); err != nil {
		return nil, err
	}

	response := ToQuotationResponse(q, time.Now())
	return &response, nil
}

// UpdateItem updates an item on a draft quotation
func (s *Service) UpdateItem(ctx context.Context, id, itemID uuid.UUID, req UpdateItemRequest) (*QuotationResponse, error) {
	q, err := s.quotationRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Quantity != nil {
		if err := q.UpdateItemQuantity(itemID, *req.Quantity); err != nil {
			return nil, err
		}
	}
	if req.UnitPrice != nil {
		unitPrice, err := valueobject.NewMoney(*req.UnitPrice, q.Currency)
		if err != nil {
			return nil, shared.NewDomainError("INVALID_PRICE", err.Error())
		}
		if err := q.UpdateItemPrice(itemID, unitPrice); err != nil {
			return nil, err
		}
	}

	if err := s.quotationRepo.SaveWithLock(ctx, q); err != nil {
		return nil, err
	}

	response := ToQuotationResponse(q, time.Now())
	return &response, nil
}

// RemoveItem removes an item from a draft quotation
func (s *Service) RemoveItem(ctx context.Context, id, itemID uuid.UUID) (*QuotationResponse, error) {
	q, err := s.quotationRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := q.RemoveItem(itemID); err != nil {
		return nil, err
	}

	if err := s.quotationRepo.SaveWithLock(ctx, q); err != nil {
		return nil, err
	}

	response := ToQuotationResponse(q, time.Now())
	return &response, nil
}

// Delete deletes a quotation (draft only)
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	q, err := s.quotationRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if !q.IsDraft() {
		return shared.NewDomainError("INVALID_STATE", "Only draft quotations can be deleted")
	}

	return s.quotationRepo.Delete(ctx, id)
}

// Send marks a quotation as sent to the customer
func (s *Service) Send(ctx context.Context, id uuid.UUID, req SendRequest) (*QuotationResponse, error) {
	q, err := s.quotationRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	before := q.Status
	if err := q.Send(now, req.ActorID); err != nil {
		return nil, err
	}

	if err := s.quotationRepo.SaveWithLock(ctx, q); err != nil {
		return nil, err
	}

	s.publishDomainEvents(ctx, q)
	s.dispatchSideEffects(ctx, LifecycleEvent{
		Type:            quotation.EventTypeQuotationSent,
		QuotationID:     q.ID,
		QuotationNumber: q.QuotationNumber,
		ActorID:         req.ActorID,
		Before:          before,
		After:           q.Status,
		OccurredAt:      now,
	}, req.Notify)

	response := ToQuotationResponse(q, now)
	return &response, nil
}

// Approve approves a sent quotation
func (s *Service) Approve(ctx context.Context, id uuid.UUID, req ApproveRequest) (*QuotationResponse, error) {
	q, err := s.quotationRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	before := q.Status
	if err := q.Approve(now, req.Note, req.ActorID); err != nil {
		return nil, err
	}

	if err := s.quotationRepo.SaveWithLock(ctx, q); err != nil {
		return nil, err
	}

	s.publishDomainEvents(ctx, q)
	s.dispatchSideEffects(ctx, LifecycleEvent{
		Type:            quotation.EventTypeQuotationApproved,
		QuotationID:     q.ID,
		QuotationNumber: q.QuotationNumber,
		ActorID:         req.ActorID,
		Before:          before,
		After:           q.Status,
		OccurredAt:      now,
	}, req.Notify)

	response := ToQuotationResponse(q, now)
	return &response, nil
}

// Reject rejects a quotation with a mandatory reason
func (s *Service) Reject(ctx context.Context, id uuid.UUID, req RejectRequest) (*QuotationResponse, error) {
	q, err := s.quotationRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	before := q.Status
	if err := q.Reject(now, req.Reason, req.ActorID); err != nil {
		return nil, err
	}

	if err := s.quotationRepo.SaveWithLock(ctx, q); err != nil {
		return nil, err
	}

	s.publishDomainEvents(ctx, q)
	s.dispatchSideEffects(ctx, LifecycleEvent{
		Type:            quotation.EventTypeQuotationRejected,
		QuotationID:     q.ID,
		QuotationNumber: q.QuotationNumber,
		ActorID:         req.ActorID,
		Before:          before,
		After:           q.Status,
		Reason:          req.Reason,
		OccurredAt:      now,
	}, req.Notify)

	response := ToQuotationResponse(q, now)
	return &response, nil
}

// ConvertToOrder converts the selected items of an approved quotation into a
// new order. The quotation update and the order creation are persisted as a
// single transaction; notification and audit run only after that commit.
func (s *Service) ConvertToOrder(ctx context.Context, id uuid.UUID, req ConvertRequest) (*ConvertToOrderResponse, error) {
	q, err := s.quotationRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	orderNumber, err := s.orderRepo.GenerateOrderNumber(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	before := q.Status
	result, err := q.Convert(quotation.ConversionParams{
		SelectedItemIDs: req.SelectedItemIDs,
		OrderNumber:     orderNumber,
		Notes:           req.Notes,
		ActorID:         req.ActorID,
		Now:             now,
	})
	if err != nil {
		return nil, err
	}

	if err := s.quotationRepo.SaveConversion(ctx, q, result.Order); err != nil {
		return nil, err
	}

	s.publishDomainEvents(ctx, q)

	orderID := result.Order.ID
	s.dispatchSideEffects(ctx, LifecycleEvent{
		Type:            quotation.EventTypeQuotationConverted,
		QuotationID:     q.ID,
		QuotationNumber: q.QuotationNumber,
		ActorID:         req.ActorID,
		Before:          before,
		After:           q.Status,
		OrderID:         &orderID,
		OrderNumber:     result.Order.OrderNumber,
		OccurredAt:      now,
	}, req.Notify)

	return &ConvertToOrderResponse{
		Quotation:        ToQuotationResponse(q, now),
		Order:            ToOrderResponse(result.Order),
		IsPartial:        result.IsPartial,
		ConvertedItemIDs: result.ConvertedItemIDs,
		RemainingItemIDs: result.RemainingItemIDs,
	}, nil
}

// PreviewConversion returns what a conversion would produce without applying it
func (s *Service) PreviewConversion(ctx context.Context, id uuid.UUID, selectedItemIDs []uuid.UUID) (*ConversionPreviewResponse, error) {
	q, err := s.quotationRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	preview, err := q.PreviewConversion(selectedItemIDs, time.Now())
	if err != nil {
		return nil, err
	}

	return &ConversionPreviewResponse{
		IsPartial:        preview.IsPartial,
		SelectedItemIDs:  preview.SelectedItemIDs,
		RemainingItemIDs: preview.RemainingItemIDs,
		SelectedTotal:    preview.SelectedTotal,
		RemainingTotal:   preview.RemainingTotal,
	}, nil
}

// GetOrder retrieves an order created from a quotation
func (s *Service) GetOrder(ctx context.Context, orderID uuid.UUID) (*OrderResponse, error) {
	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	response := ToOrderResponse(o)
	return &response, nil
}

// ListOrdersByQuotation lists the orders produced from a quotation
func (s *Service) ListOrdersByQuotation(ctx context.Context, quotationID uuid.UUID) ([]OrderResponse, error) {
	orders, err := s.orderRepo.FindByQuotation(ctx, quotationID)
	if err != nil {
		return nil, err
	}
	responses := make([]OrderResponse, len(orders))
	for i := range orders {
		responses[i] = ToOrderResponse(&orders[i])
	}
	return responses, nil
}

// publishDomainEvents flushes the aggregate's pending domain events after a
// commit. Delivery is best-effort: a publish failure is logged and the events
// are cleared either way, so they never replay on a later save.
func (s *Service) publishDomainEvents(ctx context.Context, q *quotation.Quotation) {
	if s.eventPublisher == nil {
		q.ClearDomainEvents()
		return
	}
	events := q.GetDomainEvents()
	if len(events) > 0 {
		if err := s.eventPublisher.Publish(ctx, events...); err != nil {
			s.logger.Warn("domain event publish failed",
				zap.String("quotation_id", q.ID.String()),
				zap.Int("event_count", len(events)),
				zap.Error(err),
			)
		}
	}
	q.ClearDomainEvents()
}

// dispatchSideEffects invokes the best-effort collaborators after a commit.
// Failures are logged and swallowed: a missed notification or audit row never
// reverts an already-committed transition.
func (s *Service) dispatchSideEffects(ctx context.Context, event LifecycleEvent, notify bool) {
	if s.auditor != nil {
		if err := s.auditor.Record(ctx, event); err != nil {
			s.logger.Warn("audit record failed",
				zap.String("event_type", event.Type),
				zap.String("quotation_id", event.QuotationID.String()),
				zap.Error(err),
			)
		}
	}

	if notify && s.notifier != nil {
		if err := s.notifier.Notify(ctx, event); err != nil {
			s.logger.Warn("notification dispatch failed",
				zap.String("event_type", event.Type),
				zap.String("quotation_id", event.QuotationID.String()),
				zap.Error(err),
			)
		}
	}
}
