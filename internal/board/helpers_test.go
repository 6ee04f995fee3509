package board

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/vladislavdragonenkov/checkout/internal/client"
	"github.com/vladislavdragonenkov/checkout/internal/domain"
	"github.com/vladislavdragonenkov/checkout/internal/qrcode"
)

type fakeAPI struct {
	mu                sync.Mutex
	products          []domain.Product
	version           uint64
	listErr           error
	listCalls         int
	clears            int
	conditionalClears []uint64
	orders            []domain.CheckoutOrder
}

func (f *fakeAPI) add(products ...domain.Product) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.products = append(f.products, products...)
	f.version++
}

func (f *fakeAPI) ListProducts(context.Context) (client.ProductList, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return client.ProductList{}, f.listErr
	}
	return client.ProductList{
		Products: append([]domain.Product(nil), f.products...),
		Version:  f.version,
	}, nil
}

func (f *fakeAPI) ClearProducts(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clears++
	f.products = nil
	f.version++
	return nil
}

func (f *fakeAPI) ClearProductsIfVersion(_ context.Context, version uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.conditionalClears = append(f.conditionalClears, version)
	if version != f.version {
		return domain.ErrVersionConflict
	}
	f.products = nil
	f.version++
	return nil
}

func (f *fakeAPI) RecordCheckout(_ context.Context, order any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	raw, err := json.Marshal(order)
	if err != nil {
		return err
	}
	var decoded domain.CheckoutOrder
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return err
	}
	f.orders = append(f.orders, decoded)
	return nil
}

func (f *fakeAPI) productCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.products)
}

type fakeQR struct {
	mu    sync.Mutex
	texts []string
	err   error
}

func (f *fakeQR) Fetch(_ context.Context, text string) (qrcode.Image, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, text)
	if f.err != nil {
		return qrcode.Image{}, f.err
	}
	return qrcode.Image{ContentType: "image/png", Data: []byte("png")}, nil
}

func (f *fakeQR) requests() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.texts...)
}

type recordingRenderer struct {
	mu        sync.Mutex
	snapshots []Snapshot
}

func (r *recordingRenderer) Render(s Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshots = append(r.snapshots, s)
}

func (r *recordingRenderer) states() []ViewState {
	r.mu.Lock()
	defer r.mu.Unlock()
	states := make([]ViewState, 0, len(r.snapshots))
	for _, s := range r.snapshots {
		states = append(states, s.State)
	}
	return states
}

func product(id, name, payable string) domain.Product {
	return domain.Product{
		ID:      domain.Text(id),
		Name:    domain.Text(name),
		Price:   domain.Text(payable),
		Taken:   "1",
		Unit:    "pcs",
		Payable: domain.Text(payable),
	}
}
