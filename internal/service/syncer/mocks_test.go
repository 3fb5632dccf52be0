package syncer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tmstorey/libmirror/internal/domain"
	"github.com/tmstorey/libmirror/internal/port"
)

// mockFileRepo implements port.FileRepository in memory
type mockFileRepo struct {
	mu        sync.Mutex
	records   map[domain.FileKey]domain.FileRecord
	getErr    error
	upsertErr error
	keysErr   error
	deleteErr error
}

var _ port.FileRepository = (*mockFileRepo)(nil)

func newMockFileRepo() *mockFileRepo {
	return &mockFileRepo{records: make(map[domain.FileKey]domain.FileRecord)}
}

func (m *mockFileRepo) GetFile(productID, itemID int64) (*domain.FileRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	record, ok := m.records[domain.FileKey{ProductID: productID, ItemID: itemID}]
	if !ok {
		return nil, nil
	}
	return &record, nil
}

func (m *mockFileRepo) UpsertFile(record *domain.FileRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.records[record.Key()] = *record
	return nil
}

func (m *mockFileRepo) AllFileKeys() ([]domain.FileKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.keysErr != nil {
		return nil, m.keysErr
	}
	keys := make([]domain.FileKey, 0, len(m.records))
	for key := range m.records {
		keys = append(keys, key)
	}
	return keys, nil
}

func (m *mockFileRepo) DeleteFiles(keys []domain.FileKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return m.deleteErr
	}
	for _, key := range keys {
		delete(m.records, key)
	}
	return nil
}

func (m *mockFileRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

func (m *mockFileRepo) get(key domain.FileKey) (domain.FileRecord, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.records[key]
	return record, ok
}

func (m *mockFileRepo) put(record domain.FileRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[record.Key()] = record
}

// mockProductRepo implements port.ProductRepository in memory
type mockProductRepo struct {
	mu       sync.Mutex
	upserted map[int64]domain.Product
}

var _ port.ProductRepository = (*mockProductRepo)(nil)

func newMockProductRepo() *mockProductRepo {
	return &mockProductRepo{upserted: make(map[int64]domain.Product)}
}

func (m *mockProductRepo) UpsertProduct(product *domain.Product, checkedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upserted[product.ID] = *product
	return nil
}

func (m *mockProductRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.upserted)
}

// mockCatalog implements port.CatalogClient
type mockCatalog struct {
	authErr   error
	products  []domain.Product
	listErr   error
	prepareFn func(productID, itemID int64) (string, error)
}

var _ port.CatalogClient = (*mockCatalog)(nil)

func (m *mockCatalog) Authenticate(ctx context.Context) error {
	return m.authErr
}

func (m *mockCatalog) ListPurchasedProducts(ctx context.Context) ([]domain.Product, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.products, nil
}

func (m *mockCatalog) PrepareDownloadURL(ctx context.Context, productID, itemID int64) (string, error) {
	if m.prepareFn != nil {
		return m.prepareFn(productID, itemID)
	}
	return fmt.Sprintf("https://cdn.test/%d/%d", productID, itemID), nil
}

// mockFetcher implements port.Fetcher
type mockFetcher struct {
	fetchFn func(url string) ([]byte, error)
}

var _ port.Fetcher = (*mockFetcher)(nil)

func (m *mockFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	if m.fetchFn != nil {
		return m.fetchFn(url)
	}
	return []byte("content of " + url), nil
}
