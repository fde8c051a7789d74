package server

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/stockkeep/apiserver/internal/store"
	"github.com/stockkeep/apiserver/types"
)

// memDB is an in-memory stand-in for the users and products tables.
type memDB struct {
	mu         sync.Mutex
	users      map[int]types.User
	products   map[int]types.Product
	nextUser   int
	nextProdID int
}

func newMemDB() *memDB {
	return &memDB{
		users:    make(map[int]types.User),
		products: make(map[int]types.Product),
	}
}

type memUsers struct{ db *memDB }

func (m memUsers) GetByID(_ context.Context, id int) (types.User, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	if user, ok := m.db.users[id]; ok {
		return user, nil
	}
	return types.User{}, store.ErrNotFound
}

func (m memUsers) GetByEmail(_ context.Context, email string) (types.User, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	for _, user := range m.db.users {
		if user.Email == email {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (m memUsers) Create(_ context.Context, user types.User) (types.User, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	for _, existing := range m.db.users {
		if existing.Email == user.Email {
			return types.User{}, store.ErrDuplicateEmail
		}
	}
	m.db.nextUser++
	user.ID = m.db.nextUser
	user.CreatedAt = time.Now()
	m.db.users[user.ID] = user
	return user, nil
}

type memProducts struct{ db *memDB }

func (m memProducts) List(_ context.Context, ownerID int) ([]types.Product, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	out := make([]types.Product, 0)
	for _, p := range m.db.products {
		if p.UserID == ownerID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m memProducts) Get(_ context.Context, ownerID, id int) (types.Product, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	p, ok := m.db.products[id]
	if !ok || p.UserID != ownerID {
		return types.Product{}, store.ErrNotFound
	}
	return p, nil
}

func (m memProducts) Create(_ context.Context, ownerID int, in types.ProductInput) (types.Product, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	m.db.nextProdID++
	p := types.Product{
		ID:          m.db.nextProdID,
		Name:        in.Name,
		Category:    in.Category,
		Price:       in.Price,
		Quantity:    in.Quantity,
		Description: in.Description,
		UserID:      ownerID,
		CreatedAt:   time.Now(),
	}
	m.db.products[p.ID] = p
	return p, nil
}

func (m memProducts) Update(_ context.Context, ownerID, id int, in types.ProductInput) (types.Product, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	p, ok := m.db.products[id]
	if !ok || p.UserID != ownerID {
		return types.Product{}, store.ErrNotFound
	}
	p.Name, p.Category, p.Price, p.Quantity, p.Description = in.Name, in.Category, in.Price, in.Quantity, in.Description
	m.db.products[id] = p
	return p, nil
}

func (m memProducts) Delete(_ context.Context, ownerID, id int) error {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	p, ok := m.db.products[id]
	if !ok || p.UserID != ownerID {
		return store.ErrNotFound
	}
	delete(m.db.products, id)
	return nil
}

func (m memProducts) Statistics(_ context.Context, ownerID int) (types.Statistics, error) {
	m.db.mu.Lock()
	defer m.db.mu.Unlock()
	var stats types.Statistics
	var cents int64
	for _, p := range m.db.products {
		if p.UserID != ownerID {
			continue
		}
		stats.TotalProducts++
		// numeric(10,2) arithmetic, as PostgreSQL does it
		cents += int64(p.Price*100+0.5) * int64(p.Quantity)
		if p.Quantity < types.LowStockThreshold {
			stats.LowStock++
		} else {
			stats.InStock++
		}
	}
	stats.TotalValue = float64(cents) / 100
	return stats, nil
}
