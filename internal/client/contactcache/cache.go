// Package contactcache holds the client-side mirror of the signed-in user's
// contacts: the full list, its load status, the contact being edited and the
// filtered view for the active query.
package contactcache

import (
	"context"
	"errors"
	"sync"

	"github.com/louisbranch/contactkeeper/internal/client/contactfilter"
	"github.com/louisbranch/contactkeeper/internal/services/contacts/contact"
)

var (
	// ErrLoadInProgress is returned when a load starts while another is pending.
	ErrLoadInProgress = errors.New("contact load already in progress")
	// ErrUnknownContact is returned when an id is not in the full list.
	ErrUnknownContact = errors.New("contact is not in the list")
	// ErrLoadDiscarded is returned when a load settles after Reset or after a
	// newer load started; its result is dropped.
	ErrLoadDiscarded = errors.New("contact load discarded")
)

// LoadTicket identifies one load. FinishLoad only accepts the ticket of the
// load that is still pending.
type LoadTicket uint64

// LoadStatus tracks the initial list fetch.
type LoadStatus int

const (
	// LoadNotStarted means no fetch has been attempted.
	LoadNotStarted LoadStatus = iota
	// LoadPending means a fetch is in flight.
	LoadPending
	// LoadSettled means the last fetch finished; see LoadState.Err.
	LoadSettled
)

func (s LoadStatus) String() string {
	switch s {
	case LoadNotStarted:
		return "not-started"
	case LoadPending:
		return "pending"
	case LoadSettled:
		return "settled"
	default:
		return "unknown"
	}
}

// LoadState is the load status plus the error of a failed settle.
type LoadState struct {
	Status LoadStatus
	Err    error
}

// State is an immutable snapshot of the cache.
type State struct {
	// Contacts is nil until a load succeeds.
	Contacts []contact.Contact
	Load     LoadState
	// Current is the contact being edited, if any.
	Current *contact.Contact
	// Query is the active filter text; "" means no filter.
	Query string
	// Filtered is nil when Query is "".
	Filtered []contact.Contact
}

// Loaded reports whether the cache holds a list. Add before any load also
// creates one, so use Load.Status to tell whether the server list was fetched.
func (s State) Loaded() bool {
	return s.Contacts != nil
}

// Visible returns the filtered view when a query is active and the full list
// otherwise.
func (s State) Visible() []contact.Contact {
	if s.Query != "" {
		return s.Filtered
	}
	return s.Contacts
}

// Observer receives a snapshot after every transition. Observers run in
// transition order and must not mutate the cache synchronously.
type Observer func(State)

// Cache is safe for concurrent use.
type Cache struct {
	mu        sync.Mutex
	contacts  []contact.Contact
	load      LoadState
	loadGen   uint64
	currentID string
	query     string
	filtered  []contact.Contact

	notifyMu  sync.Mutex
	observers map[int]Observer
	nextObs   int
}

// New returns an empty cache with LoadNotStarted.
func New() *Cache {
	return &Cache{observers: make(map[int]Observer)}
}

// Subscribe registers fn and returns a function that removes it.
func (c *Cache) Subscribe(fn Observer) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextObs
	c.nextObs++
	c.observers[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.observers, id)
	}
}

// Snapshot returns the current state.
func (c *Cache) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Load fetches the list with fetch and settles the load status. A failed
// fetch leaves the list as it was, so a later Load can retry.
func (c *Cache) Load(ctx context.Context, fetch func(context.Context) ([]contact.Contact, error)) error {
	ticket, err := c.BeginLoad()
	if err != nil {
		return err
	}
	contacts, err := fetch(ctx)
	if finishErr := c.FinishLoad(ticket, contacts, err); finishErr != nil {
		return finishErr
	}
	return err
}

// BeginLoad marks a load as pending and returns its ticket.
func (c *Cache) BeginLoad() (LoadTicket, error) {
	var ticket LoadTicket
	err := c.transition(func() error {
		if c.load.Status == LoadPending {
			return ErrLoadInProgress
		}
		c.loadGen++
		ticket = LoadTicket(c.loadGen)
		c.load = LoadState{Status: LoadPending}
		return nil
	})
	return ticket, err
}

// FinishLoad settles the pending load identified by ticket with its result.
// It returns ErrLoadDiscarded, leaving the state untouched, when the load is
// no longer pending or a Reset happened since BeginLoad.
func (c *Cache) FinishLoad(ticket LoadTicket, contacts []contact.Contact, err error) error {
	return c.transition(func() error {
		if c.load.Status != LoadPending || ticket != LoadTicket(c.loadGen) {
			return ErrLoadDiscarded
		}
		if err != nil {
			c.load = LoadState{Status: LoadSettled, Err: err}
			return nil
		}
		c.contacts = cloneList(contacts)
		if c.contacts == nil {
			c.contacts = []contact.Contact{}
		}
		c.load = LoadState{Status: LoadSettled}
		if c.currentID != "" && c.indexLocked(c.currentID) < 0 {
			c.currentID = ""
		}
		c.refilterLocked()
		return nil
	})
}

// Add appends a contact returned by a successful create. The edit target is
// left alone. Before any load, Add starts the list without changing the load
// status.
func (c *Cache) Add(created contact.Contact) {
	_ = c.transition(func() error {
		c.contacts = append(c.contacts, created)
		c.refilterLocked()
		return nil
	})
}

// SetCurrent selects the contact id for editing, replacing any previous
// target.
func (c *Cache) SetCurrent(id string) error {
	return c.transition(func() error {
		if c.indexLocked(id) < 0 {
			return ErrUnknownContact
		}
		c.currentID = id
		return nil
	})
}

// ClearCurrent drops the edit target. Filter state is untouched.
func (c *Cache) ClearCurrent() {
	_ = c.transition(func() error {
		c.currentID = ""
		return nil
	})
}

// ApplyUpdate replaces the contact with the same id and clears the edit
// target if it pointed at that contact.
func (c *Cache) ApplyUpdate(updated contact.Contact) error {
	return c.transition(func() error {
		index := c.indexLocked(updated.ID)
		if index < 0 {
			return ErrUnknownContact
		}
		next := cloneList(c.contacts)
		next[index] = updated
		c.contacts = next
		if c.currentID == updated.ID {
			c.currentID = ""
		}
		c.refilterLocked()
		return nil
	})
}

// Remove deletes id from the full list and the filtered view in one
// transition. Removing an unknown id is a no-op.
func (c *Cache) Remove(id string) {
	_ = c.transition(func() error {
		index := c.indexLocked(id)
		if index < 0 {
			return nil
		}
		next := make([]contact.Contact, 0, len(c.contacts)-1)
		next = append(next, c.contacts[:index]...)
		next = append(next, c.contacts[index+1:]...)
		c.contacts = next
		if c.currentID == id {
			c.currentID = ""
		}
		c.refilterLocked()
		return nil
	})
}

// SetQuery changes the filter text. "" clears the filtered view.
func (c *Cache) SetQuery(query string) {
	_ = c.transition(func() error {
		c.query = query
		c.refilterLocked()
		return nil
	})
}

// Reset discards all state, as on logout. A load still in flight is
// discarded when it settles.
func (c *Cache) Reset() {
	_ = c.transition(func() error {
		c.loadGen++
		c.contacts = nil
		c.load = LoadState{}
		c.currentID = ""
		c.query = ""
		c.filtered = nil
		return nil
	})
}

// transition applies fn under the state lock and, when it succeeds, notifies
// observers with the resulting snapshot before any later transition does.
func (c *Cache) transition(fn func() error) error {
	c.mu.Lock()
	if err := fn(); err != nil {
		c.mu.Unlock()
		return err
	}
	snapshot := c.snapshotLocked()
	observers := make([]Observer, 0, len(c.observers))
	for id := 0; id < c.nextObs; id++ {
		if observer, ok := c.observers[id]; ok {
			observers = append(observers, observer)
		}
	}
	c.notifyMu.Lock()
	c.mu.Unlock()
	defer c.notifyMu.Unlock()

	for _, observe := range observers {
		observe(snapshot)
	}
	return nil
}

func (c *Cache) refilterLocked() {
	c.filtered, _ = contactfilter.Apply(c.contacts, c.query)
}

func (c *Cache) indexLocked(id string) int {
	if id == "" {
		return -1
	}
	for i, existing := range c.contacts {
		if existing.ID == id {
			return i
		}
	}
	return -1
}

func (c *Cache) snapshotLocked() State {
	state := State{
		Contacts: cloneList(c.contacts),
		Load:     c.load,
		Query:    c.query,
		Filtered: cloneList(c.filtered),
	}
	if index := c.indexLocked(c.currentID); index >= 0 {
		current := c.contacts[index]
		state.Current = &current
	}
	return state
}

func cloneList(list []contact.Contact) []contact.Contact {
	if list == nil {
		return nil
	}
	out := make([]contact.Contact, len(list))
	copy(out, list)
	return out
}
