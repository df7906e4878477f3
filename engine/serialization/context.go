package serialization

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

var (
	ErrUnknownType     = errors.New("type not registered in serialize context")
	ErrTypeRegistered  = errors.New("type already registered in serialize context")
	ErrBadMagic        = errors.New("bad stream magic")
	ErrBadVersion      = errors.New("unsupported stream version")
	ErrTypeMismatch    = errors.New("stream holds a different type")
	ErrStreamFinalized = errors.New("object stream already finalized")
	ErrPayloadTooLarge = errors.New("payload exceeds size limit")
)

// TypeInfo describes a serializable type registered with a Context.
type TypeInfo struct {
	ID      uuid.UUID
	Name    string
	Factory func() interface{}
}

// Context maps type ids to the factories and names needed to move objects
// through object streams. Register every type once at startup, then share
// the context between writers and readers.
type Context struct {
	mutex  sync.RWMutex
	byID   map[uuid.UUID]*TypeInfo
	byType map[reflect.Type]*TypeInfo
}

func NewContext() *Context {
	return &Context{
		byID:   make(map[uuid.UUID]*TypeInfo),
		byType: make(map[reflect.Type]*TypeInfo),
	}
}

// RegisterType binds id and name to the type produced by factory. The factory
// must return a pointer to a fresh zero value.
func (c *Context) RegisterType(id uuid.UUID, name string, factory func() interface{}) error {
	if factory == nil {
		return fmt.Errorf("nil factory for type %s", name)
	}
	t := baseType(reflect.TypeOf(factory()))
	if t == nil {
		return fmt.Errorf("factory for type %s returned nil", name)
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()
	if _, exists := c.byID[id]; exists {
		return fmt.Errorf("%w: %s", ErrTypeRegistered, id)
	}
	info := &TypeInfo{ID: id, Name: name, Factory: factory}
	c.byID[id] = info
	c.byType[t] = info
	return nil
}

func (c *Context) LookupID(id uuid.UUID) (*TypeInfo, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	info, found := c.byID[id]
	return info, found
}

// LookupValue resolves the registration for the dynamic type of v, looking
// through pointers.
func (c *Context) LookupValue(v interface{}) (*TypeInfo, bool) {
	t := baseType(reflect.TypeOf(v))
	if t == nil {
		return nil, false
	}
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	info, found := c.byType[t]
	return info, found
}

// Instantiate builds a fresh instance of the type registered under id.
func (c *Context) Instantiate(id uuid.UUID) (interface{}, error) {
	info, found := c.LookupID(id)
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, id)
	}
	return info.Factory(), nil
}

func baseType(t reflect.Type) reflect.Type {
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t
}

var defaultContext atomic.Pointer[Context]

// SetDefault installs the context that handlers constructed without one fall
// back on.
func SetDefault(c *Context) {
	defaultContext.Store(c)
}

// Default returns the installed fallback context, or nil when none is set.
func Default() *Context {
	return defaultContext.Load()
}
