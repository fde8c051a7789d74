package services

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/stockkeep/apiserver/internal/store"
	"github.com/stockkeep/apiserver/types"
)

var discardLogger = slog.New(slog.DiscardHandler)

type memUserRepo struct {
	mu     sync.Mutex
	nextID int
	byID   map[int]types.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{byID: make(map[int]types.User)}
}

func (r *memUserRepo) GetByID(_ context.Context, id int) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.byID[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.byID {
		if user.Email == email {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (r *memUserRepo) Create(_ context.Context, user types.User) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.byID {
		if existing.Email == user.Email {
			return types.User{}, store.ErrDuplicateEmail
		}
	}
	r.nextID++
	user.ID = r.nextID
	user.CreatedAt = time.Now()
	r.byID[user.ID] = user
	return user, nil
}

type memProductRepo struct {
	mu     sync.Mutex
	nextID int
	byID   map[int]types.Product
}

func newMemProductRepo() *memProductRepo {
	return &memProductRepo{byID: make(map[int]types.Product)}
}

func (r *memProductRepo) List(_ context.Context, ownerID int) ([]types.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	products := make([]types.Product, 0)
	for _, p := range r.byID {
		if p.UserID == ownerID {
			products = append(products, p)
		}
	}
	sort.Slice(products, func(i, j int) bool { return products[i].ID > products[j].ID })
	return products, nil
}

func (r *memProductRepo) Get(_ context.Context, ownerID, id int) (types.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byID[id]
	if !ok || p.UserID != ownerID {
		return types.Product{}, store.ErrNotFound
	}
	return p, nil
}

func (r *memProductRepo) Create(_ context.Context, ownerID int, in types.ProductInput) (types.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	p := types.Product{
		ID:          r.nextID,
		Name:        in.Name,
		Category:    in.Category,
		Price:       in.Price,
		Quantity:    in.Quantity,
		Description: in.Description,
		UserID:      ownerID,
		CreatedAt:   time.Now(),
	}
	r.byID[p.ID] = p
	return p, nil
}

func (r *memProductRepo) Update(_ context.Context, ownerID, id int, in types.ProductInput) (types.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byID[id]
	if !ok || p.UserID != ownerID {
		return types.Product{}, store.ErrNotFound
	}
	p.Name, p.Category, p.Price, p.Quantity, p.Description = in.Name, in.Category, in.Price, in.Quantity, in.Description
	r.byID[id] = p
	return p, nil
}

func (r *memProductRepo) Delete(_ context.Context, ownerID, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byID[id]
	if !ok || p.UserID != ownerID {
		return store.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *memProductRepo) Statistics(_ context.Context, ownerID int) (types.Statistics, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var stats types.Statistics
	for _, p := range r.byID {
		if p.UserID != ownerID {
			continue
		}
		stats.TotalProducts++
		stats.TotalValue += p.Price * float64(p.Quantity)
		if p.Quantity < types.LowStockThreshold {
			stats.LowStock++
		} else {
			stats.InStock++
		}
	}
	return stats, nil
}

type recordedEvent struct {
	eventType types.ProductEventType
	product   types.Product
}

type recordingEvents struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (r *recordingEvents) ProductChanged(_ context.Context, eventType types.ProductEventType, product types.Product) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{eventType: eventType, product: product})
}
