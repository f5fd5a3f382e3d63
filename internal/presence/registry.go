package presence

import (
	"errors"
	"strings"
	"sync"

	"github.com/samber/lo"
)

var (
	ErrEmptyName         = errors.New("username must not be empty")
	ErrNameTooLong       = errors.New("username too long")
	ErrNameTaken         = errors.New("username already taken")
	ErrAlreadyRegistered = errors.New("connection already registered under another name")
)

// ConnID identifies one live transport session.
type ConnID string

// Registry is the bidirectional name <-> connection binding table.
// Both maps are only ever mutated together under mu.
type Registry struct {
	mu      sync.RWMutex
	byName  map[string]ConnID
	byConn  map[ConnID]string
	maxName int
}

// NewRegistry returns an empty registry. maxNameLen <= 0 disables the length check.
func NewRegistry(maxNameLen int) *Registry {
	return &Registry{
		byName:  make(map[string]ConnID),
		byConn:  make(map[ConnID]string),
		maxName: maxNameLen,
	}
}

// Normalize returns name the way it is stored in the registry.
func Normalize(name string) string { return strings.TrimSpace(name) }

// Register binds name to conn and returns the normalised name.
// Registering the name a connection already holds is a no-op.
func (r *Registry) Register(conn ConnID, name string) (string, error) {
	name = Normalize(name)
	if name == "" {
		return "", ErrEmptyName
	}
	if r.maxName > 0 && len([]rune(name)) > r.maxName {
		return "", ErrNameTooLong
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if holder, ok := r.byName[name]; ok {
		if holder == conn {
			return name, nil
		}
		return "", ErrNameTaken
	}
	if _, ok := r.byConn[conn]; ok {
		return "", ErrAlreadyRegistered
	}

	r.byName[name] = conn
	r.byConn[conn] = name
	return name, nil
}

// Unregister drops whatever binding conn holds. It reports the released name, if any.
func (r *Registry) Unregister(conn ConnID) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	name, ok := r.byConn[conn]
	if !ok {
		return "", false
	}
	delete(r.byConn, conn)
	delete(r.byName, name)
	return name, true
}

func (r *Registry) Lookup(name string) (ConnID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byName[name]
	return c, ok
}

func (r *Registry) NameOf(conn ConnID) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n, ok := r.byConn[conn]
	return n, ok
}

// Len returns the number of live bindings.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byName)
}

// Names returns a snapshot of the currently bound names, in no particular order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lo.Keys(r.byName)
}
