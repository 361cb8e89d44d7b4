// Package entity holds the financial entities of a simulation, the graph of
// who may deal with whom, and the settlement of transfers between them.
package entity

import (
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/marketsim/internal/domain"
)

// Registry owns every entity, their balances and the global ledger. Entities
// keep insertion order. All methods are safe for concurrent use; Transfer is
// atomic with respect to every reader.
type Registry struct {
	mu        sync.RWMutex
	namespace uuid.UUID
	order     []string
	byID      map[string]*domain.Entity
	byName    map[string]string
	ledger    []domain.Transaction
}

// NewRegistry returns an empty registry. IDs for entities and transactions
// are derived from namespace, so two registries built from the same
// namespace and inputs produce identical IDs.
func NewRegistry(namespace uuid.UUID) *Registry {
	return &Registry{
		namespace: namespace,
		byID:      make(map[string]*domain.Entity),
		byName:    make(map[string]string),
	}
}

// EntityID returns the ID an entity named name receives in this registry.
func (r *Registry) EntityID(name string) string {
	return uuid.NewSHA1(r.namespace, []byte("entity/"+name)).String()
}

// Add registers e. An empty ID is filled from the name.
func (r *Registry) Add(e domain.Entity) (string, error) {
	if e.ID == "" {
		e.ID = r.EntityID(e.Name)
	}
	if e.RegulatoryStatus == "" {
		e.RegulatoryStatus = "compliant"
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[e.ID]; ok {
		return "", fmt.Errorf("entity: add %q: %w", e.Name, domain.ErrDuplicateEntity)
	}
	if _, ok := r.byName[e.Name]; ok {
		return "", fmt.Errorf("entity: add %q: %w", e.Name, domain.ErrDuplicateEntity)
	}
	e.History = nil
	r.byID[e.ID] = &e
	r.byName[e.Name] = e.ID
	r.order = append(r.order, e.ID)
	return e.ID, nil
}

// Len returns the number of registered entities.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// IDs returns entity IDs in insertion order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Get returns a copy of the entity with the given ID.
func (r *Registry) Get(id string) (domain.Entity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.byID[id]
	if !ok {
		return domain.Entity{}, fmt.Errorf("entity: get %s: %w", id, domain.ErrNotFound)
	}
	return copyEntity(e), nil
}

// ByName returns a copy of the entity with the given display name.
func (r *Registry) ByName(name string) (domain.Entity, error) {
	r.mu.RLock()
	id, ok := r.byName[name]
	r.mu.RUnlock()
	if !ok {
		return domain.Entity{}, fmt.Errorf("entity: lookup %q: %w", name, domain.ErrNotFound)
	}
	return r.Get(id)
}

// ByCategory returns the IDs of every entity in category, in insertion order.
func (r *Registry) ByCategory(category domain.EntityCategory) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []string
	for _, id := range r.order {
		if r.byID[id].Category == category {
			out = append(out, id)
		}
	}
	return out
}

// Balance returns the current balance of id.
func (r *Registry) Balance(id string) (decimal.Decimal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.byID[id]
	if !ok {
		return decimal.Zero, fmt.Errorf("entity: balance %s: %w", id, domain.ErrNotFound)
	}
	return e.Balance, nil
}

// TotalBalance sums every entity's balance.
func (r *Registry) TotalBalance() decimal.Decimal {
	r.mu.RLock()
	defer r.mu.RUnlock()
	total := decimal.Zero
	for _, e := range r.byID {
		total = total.Add(e.Balance)
	}
	return total
}

// Transfer moves amount from one entity to another and records the
// transaction in both histories and the ledger. It fails with
// domain.ErrInvalidAmount when amount <= 0 and domain.ErrInsufficientFunds
// when the sender's balance is below amount; a failed transfer changes
// nothing.
func (r *Registry) Transfer(from, to string, amount decimal.Decimal, description string, day int, at time.Time) (domain.Transaction, error) {
	if !amount.IsPositive() {
		return domain.Transaction{}, fmt.Errorf("entity: transfer %s: %w", amount, domain.ErrInvalidAmount)
	}
	if from == to {
		return domain.Transaction{}, fmt.Errorf("entity: transfer %s: %w", from, domain.ErrSelfTransfer)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	sender, ok := r.byID[from]
	if !ok {
		return domain.Transaction{}, fmt.Errorf("entity: transfer from %s: %w", from, domain.ErrNotFound)
	}
	recipient, ok := r.byID[to]
	if !ok {
		return domain.Transaction{}, fmt.Errorf("entity: transfer to %s: %w", to, domain.ErrNotFound)
	}
	if sender.Balance.LessThan(amount) {
		return domain.Transaction{}, fmt.Errorf("entity: transfer %s from %q (balance %s): %w",
			amount, sender.Name, sender.Balance, domain.ErrInsufficientFunds)
	}

	tx := domain.Transaction{
		ID:          uuid.NewSHA1(r.namespace, []byte("tx/"+strconv.Itoa(len(r.ledger)))).String(),
		Day:         day,
		From:        sender.ID,
		To:          recipient.ID,
		FromName:    sender.Name,
		ToName:      recipient.Name,
		Amount:      amount,
		Description: description,
		Timestamp:   at,
	}
	sender.Balance = sender.Balance.Sub(amount)
	recipient.Balance = recipient.Balance.Add(amount)
	sender.History = append(sender.History, tx)
	recipient.History = append(recipient.History, tx)
	r.ledger = append(r.ledger, tx)
	return tx, nil
}

// History returns a copy of the transactions involving id.
func (r *Registry) History(id string) ([]domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("entity: history %s: %w", id, domain.ErrNotFound)
	}
	out := make([]domain.Transaction, len(e.History))
	copy(out, e.History)
	return out, nil
}

// Ledger returns a copy of every settled transaction in settlement order.
func (r *Registry) Ledger() []domain.Transaction {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Transaction, len(r.ledger))
	copy(out, r.ledger)
	return out
}

// LedgerSince returns transactions settled after the first n.
func (r *Registry) LedgerSince(n int) []domain.Transaction {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if n >= len(r.ledger) {
		return nil
	}
	out := make([]domain.Transaction, len(r.ledger)-n)
	copy(out, r.ledger[n:])
	return out
}

// LedgerLen returns the number of settled transactions.
func (r *Registry) LedgerLen() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.ledger)
}

// Views projects every entity for results, resolving connections to names
// through g.
func (r *Registry) Views(g *Graph) []domain.EntityView {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.EntityView, 0, len(r.order))
	for _, id := range r.order {
		e := r.byID[id]
		var names []string
		if g != nil {
			for _, n := range g.Neighbors(id) {
				if peer, ok := r.byID[n]; ok {
					names = append(names, peer.Name)
				}
			}
		}
		sort.Strings(names)
		c := copyEntity(e)
		out = append(out, domain.EntityView{
			ID:               c.ID,
			Name:             c.Name,
			Category:         c.Category,
			Description:      c.Description,
			Balance:          c.Balance,
			Assets:           c.Assets,
			Liabilities:      c.Liabilities,
			Connections:      names,
			RegulatoryStatus: c.RegulatoryStatus,
			Profile:          c.Profile,
			TransactionCount: len(e.History),
		})
	}
	return out
}

func copyEntity(e *domain.Entity) domain.Entity {
	c := *e
	c.Assets = copyAmounts(e.Assets)
	c.Liabilities = copyAmounts(e.Liabilities)
	c.History = make([]domain.Transaction, len(e.History))
	copy(c.History, e.History)
	return c
}

func copyAmounts(m map[string]decimal.Decimal) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
