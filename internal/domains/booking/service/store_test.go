package service_test

import (
	"context"
	"fmt"
	"rental/internal/domains/booking/model"
	"rental/internal/domains/booking/repository"
	paymentModel "rental/internal/domains/payment/model"
	gDto "rental/shared/dto"
	"slices"
	"sort"
	"sync"
	"time"
)

// memoryBookings is an in-memory interval store that evaluates the same filter groups the
// postgres repository renders to SQL.
type memoryBookings struct {
	mu   sync.Mutex
	rows map[string]model.Booking
}

func newMemoryBookings(seed ...model.Booking) *memoryBookings {
	store := &memoryBookings{rows: map[string]model.Booking{}}
	for _, booking := range seed {
		store.rows[booking.ID] = booking
	}

	return store
}

func (m *memoryBookings) Insert(_ context.Context, booking model.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.rows[booking.ID]; ok {
		return fmt.Errorf("duplicate booking %s", booking.ID)
	}

	m.rows[booking.ID] = booking

	return nil
}

func (m *memoryBookings) Get(_ context.Context, filter gDto.FilterGroup, _ ...string) (model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, booking := range m.sorted() {
		if matchGroup(filter, bookingValue(booking)) {
			return booking, nil
		}
	}

	return model.Booking{}, nil
}

func (m *memoryBookings) GetAll(_ context.Context, _ gDto.QueryParams, filter gDto.FilterGroup, _ ...string) ([]model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	res := []model.Booking{}

	for _, booking := range m.sorted() {
		if matchGroup(filter, bookingValue(booking)) {
			res = append(res, booking)
		}
	}

	return res, nil
}

func (m *memoryBookings) Exist(ctx context.Context, filter gDto.FilterGroup) (bool, error) {
	rows, err := m.GetAll(ctx, gDto.QueryParams{}, filter)

	return len(rows) > 0, err
}

func (m *memoryBookings) Count(ctx context.Context, filter gDto.FilterGroup) (int, error) {
	rows, err := m.GetAll(ctx, gDto.QueryParams{}, filter)

	return len(rows), err
}

func (m *memoryBookings) Update(_ context.Context, req map[string]any, filter gDto.FilterGroup) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var affected int64

	for id, booking := range m.rows {
		if !matchGroup(filter, bookingValue(booking)) {
			continue
		}

		for field, value := range req {
			switch field {
			case model.FieldStatus:
				booking.Status = model.Status(value.(string))
			case model.FieldStatusNote:
				booking.StatusNote = value.(string)
			case model.FieldStatusUpdatedAt:
				booking.StatusUpdatedAt = value.(time.Time)
			case model.FieldStartAt:
				booking.StartAt = value.(time.Time)
			case model.FieldEndAt:
				booking.EndAt = value.(time.Time)
			case "modified_at":
				booking.ModifiedAt = value.(time.Time)
			case "modified_by":
				booking.ModifiedBy = value.(string)
			}
		}

		m.rows[id] = booking
		affected++
	}

	return affected, nil
}

func (m *memoryBookings) Delete(_ context.Context, filter gDto.FilterGroup) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, booking := range m.rows {
		if matchGroup(filter, bookingValue(booking)) {
			delete(m.rows, id)
		}
	}

	return nil
}

func (m *memoryBookings) FindOverlapping(ctx context.Context, criteria repository.OverlapCriteria) ([]model.Booking, error) {
	return m.GetAll(ctx, gDto.QueryParams{}, criteria.Filter())
}

func (m *memoryBookings) find(id string) (model.Booking, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	booking, ok := m.rows[id]

	return booking, ok
}

func (m *memoryBookings) all() []model.Booking {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.sorted()
}

func (m *memoryBookings) sorted() []model.Booking {
	rows := make([]model.Booking, 0, len(m.rows))
	for _, booking := range m.rows {
		rows = append(rows, booking)
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].StartAt.Before(rows[j].StartAt) })

	return rows
}

type memoryPayments struct {
	mu   sync.Mutex
	rows map[string]paymentModel.Transaction
}

func newMemoryPayments(seed ...paymentModel.Transaction) *memoryPayments {
	store := &memoryPayments{rows: map[string]paymentModel.Transaction{}}
	for _, transaction := range seed {
		store.rows[transaction.ID] = transaction
	}

	return store
}

func (m *memoryPayments) Insert(_ context.Context, transaction paymentModel.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.rows[transaction.ID] = transaction

	return nil
}

func (m *memoryPayments) Get(_ context.Context, filter gDto.FilterGroup, _ ...string) (paymentModel.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, transaction := range m.rows {
		if matchGroup(filter, paymentValue(transaction)) {
			return transaction, nil
		}
	}

	return paymentModel.Transaction{}, nil
}

func (m *memoryPayments) GetAll(_ context.Context, _ gDto.QueryParams, filter gDto.FilterGroup, _ ...string) ([]paymentModel.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	res := []paymentModel.Transaction{}

	for _, transaction := range m.rows {
		if matchGroup(filter, paymentValue(transaction)) {
			res = append(res, transaction)
		}
	}

	return res, nil
}

func (m *memoryPayments) Count(ctx context.Context, filter gDto.FilterGroup) (int, error) {
	rows, err := m.GetAll(ctx, gDto.QueryParams{}, filter)

	return len(rows), err
}

func (m *memoryPayments) Update(_ context.Context, req map[string]any, filter gDto.FilterGroup) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var affected int64

	for id, transaction := range m.rows {
		if !matchGroup(filter, paymentValue(transaction)) {
			continue
		}

		if status, ok := req[paymentModel.FieldStatus].(string); ok {
			transaction.Status = paymentModel.Status(status)
		}

		if amount, ok := req[paymentModel.FieldAmount].(int64); ok {
			transaction.Amount = amount
		}

		if proof, ok := req[paymentModel.FieldProofURL].(string); ok {
			transaction.ProofURL = proof
		}

		m.rows[id] = transaction
		affected++
	}

	return affected, nil
}

func (m *memoryPayments) Delete(_ context.Context, filter gDto.FilterGroup) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, transaction := range m.rows {
		if matchGroup(filter, paymentValue(transaction)) {
			delete(m.rows, id)
		}
	}

	return nil
}

func (m *memoryPayments) find(id string) (paymentModel.Transaction, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	transaction, ok := m.rows[id]

	return transaction, ok
}

func (m *memoryPayments) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.rows)
}

func bookingValue(booking model.Booking) func(string) any {
	return func(field string) any {
		switch field {
		case model.FieldID:
			return booking.ID
		case model.FieldUnitID:
			return booking.UnitID
		case model.FieldRequesterID:
			return booking.RequesterID
		case model.FieldStatus:
			return string(booking.Status)
		case model.FieldKind:
			return string(booking.Kind)
		case model.FieldTransactionID:
			return booking.TransactionID.String
		case model.FieldStartAt:
			return booking.StartAt
		case model.FieldEndAt:
			return booking.EndAt
		default:
			return nil
		}
	}
}

func paymentValue(transaction paymentModel.Transaction) func(string) any {
	return func(field string) any {
		switch field {
		case paymentModel.FieldID:
			return transaction.ID
		case paymentModel.FieldStatus:
			return string(transaction.Status)
		case paymentModel.FieldMethod:
			return transaction.Method
		default:
			return nil
		}
	}
}

func matchGroup(group gDto.FilterGroup, value func(string) any) bool {
	if len(group.Filters) == 0 {
		return true
	}

	or := group.Operator == gDto.FilterGroupOperatorOr

	for _, item := range group.Filters {
		var ok bool

		switch filter := item.(type) {
		case gDto.Filter:
			ok = matchFilter(filter, value(filter.Field))
		case gDto.FilterGroup:
			ok = matchGroup(filter, value)
		}

		if or && ok {
			return true
		}

		if !or && !ok {
			return false
		}
	}

	return !or
}

func matchFilter(filter gDto.Filter, actual any) bool {
	switch filter.Operator {
	case gDto.FilterOperatorEq:
		return fmt.Sprint(actual) == fmt.Sprint(filter.Value)
	case gDto.FilterOperatorNotEq:
		return fmt.Sprint(actual) != fmt.Sprint(filter.Value)
	case gDto.FilterOperatorIn:
		values, _ := filter.Value.([]string)

		return slices.Contains(values, fmt.Sprint(actual))
	case gDto.FilterOperatorNotIn:
		values, _ := filter.Value.([]string)

		return !slices.Contains(values, fmt.Sprint(actual))
	case gDto.FilterOperatorLessEq:
		left, _ := actual.(time.Time)
		right, _ := filter.Value.(time.Time)

		return !left.After(right)
	case gDto.FilterOperatorGreaterEq:
		left, _ := actual.(time.Time)
		right, _ := filter.Value.(time.Time)

		return !left.Before(right)
	default:
		return false
	}
}
