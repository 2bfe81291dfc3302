package usecase

import (
	"context"
	"time"

	cartdom "threadline/internal/domain/cart"
	orderdom "threadline/internal/domain/order"
	"threadline/internal/domain/stock"
)

// ----------------------------
// shared test doubles
// ----------------------------

type fakeClock struct{ t time.Time }

func (c fakeClock) Now() time.Time { return c.t }

type fakeCartRepo struct {
	ledgers map[string]*cartdom.Ledger

	getErr    error
	upsertErr error
	upserts   int
	deletes   int
}

func newFakeCartRepo() *fakeCartRepo {
	return &fakeCartRepo{ledgers: map[string]*cartdom.Ledger{}}
}

func cloneLedger(l *cartdom.Ledger) *cartdom.Ledger {
	if l == nil {
		return nil
	}
	c := *l
	c.Items = append([]cartdom.LineItem{}, l.Items...)
	return &c
}

func (r *fakeCartRepo) GetByAvatarID(_ context.Context, avatarID string) (*cartdom.Ledger, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	return cloneLedger(r.ledgers[avatarID]), nil
}

func (r *fakeCartRepo) Upsert(_ context.Context, l *cartdom.Ledger) error {
	if r.upsertErr != nil {
		return r.upsertErr
	}
	r.upserts++
	r.ledgers[l.ID] = cloneLedger(l)
	return nil
}

func (r *fakeCartRepo) DeleteByAvatarID(_ context.Context, avatarID string) error {
	r.deletes++
	delete(r.ledgers, avatarID)
	return nil
}

type fakeOracle struct {
	products map[string]stock.ProductStock

	snapshotErr error
	manyErr     error

	snapshotCalls int
	manyCalls     int
	lastManyIDs   []string
}

func newFakeOracle(products ...stock.ProductStock) *fakeOracle {
	m := make(map[string]stock.ProductStock, len(products))
	for _, p := range products {
		m[p.ProductID] = p
	}
	return &fakeOracle{products: m}
}

func (o *fakeOracle) Snapshot(_ context.Context, productID, variantKey string) (stock.Snapshot, error) {
	o.snapshotCalls++
	if o.snapshotErr != nil {
		return stock.Snapshot{}, o.snapshotErr
	}
	now := time.Now()
	ps, ok := o.products[productID]
	if !ok {
		return stock.Snapshot{ProductID: productID, VariantKey: variantKey, AsOf: now}, nil
	}
	res := ps.Resolve(variantKey)
	return stock.Snapshot{
		ProductID:   productID,
		VariantKey:  variantKey,
		ProductName: ps.ProductName,
		UnitPrice:   ps.UnitPrice,
		Available:   res.Available,
		Degraded:    res.Degraded,
		Exists:      ps.Exists,
		AsOf:        now,
	}, nil
}

func (o *fakeOracle) SnapshotMany(_ context.Context, productIDs []string) (map[string]stock.ProductStock, error) {
	o.manyCalls++
	o.lastManyIDs = append([]string{}, productIDs...)
	if o.manyErr != nil {
		return nil, o.manyErr
	}
	out := map[string]stock.ProductStock{}
	for _, id := range productIDs {
		if ps, ok := o.products[id]; ok {
			out[id] = ps
		}
	}
	return out, nil
}

type fakeGate struct{ closed bool }

func (g fakeGate) PurchasingEnabled(context.Context) bool { return !g.closed }

type fakeCommitter struct {
	err       error
	committed []orderdom.Draft
}

func (c *fakeCommitter) Commit(_ context.Context, avatarID string, d orderdom.Draft) (orderdom.Order, error) {
	if c.err != nil {
		return orderdom.Order{}, c.err
	}
	c.committed = append(c.committed, d)
	return orderdom.Order{
		ID:             "ord-1",
		AvatarID:       avatarID,
		Items:          d.Items,
		Subtotal:       d.Subtotal,
		ShippingCharge: d.ShippingCharge,
		DiscountCode:   d.DiscountCode,
		Total:          d.Total,
		CreatedAt:      time.Now(),
	}, nil
}

type fakeMailer struct {
	err  error
	sent []string
}

func (m *fakeMailer) SendOrderConfirmation(_ context.Context, to string, _ orderdom.Order) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, to)
	return nil
}
