// Package envm implements the scope/environment chain that binds identifiers to types and backend
// names during inference and code generation.
//
// Grounded on original_source/environment.c (scope_init/intrinsics_init/bind_generic/generic_insert/
// bind_symbol/find_symbol/find_symbol_in_current_scope/scope_up/scope_down/scope_is_global), using a
// mutex-guarded linked structure for the concurrency idiom.
package envm

import (
	"sync"

	"jitc/src/symbol"
	"jitc/src/types"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Binding records what a symbol means in a scope: its type and the backend name the code generator
// should use to reference it.
type Binding struct {
	Sym     symbol.Symbol
	Type    *types.Type
	Backend string
}

// Scope is one link in the environment chain. The global scope has a nil Parent.
type Scope struct {
	mx      sync.RWMutex
	Parent  *Scope
	entries map[symbol.Symbol]*Binding
}

// ---------------------
// ----- functions -----
// ---------------------

// NewGlobal returns a fresh, empty global scope.
func NewGlobal() *Scope {
	return &Scope{entries: make(map[symbol.Symbol]*Binding)}
}

// Down returns a new child scope nested inside s. Mirrors original_source's scope_down.
func (s *Scope) Down() *Scope {
	return &Scope{Parent: s, entries: make(map[symbol.Symbol]*Binding)}
}

// Up returns s's enclosing scope, or nil if s is global. Mirrors original_source's scope_up.
func (s *Scope) Up() *Scope {
	return s.Parent
}

// IsGlobal reports whether s is the outermost scope.
func (s *Scope) IsGlobal() bool {
	return s.Parent == nil
}

// BindSymbol binds sym to typ/backend in s, overwriting any existing binding for sym in this scope
// only (shadowing an outer binding, never mutating it).
func (s *Scope) BindSymbol(sym symbol.Symbol, typ *types.Type, backend string) *Binding {
	s.mx.Lock()
	defer s.mx.Unlock()
	b := &Binding{Sym: sym, Type: typ, Backend: backend}
	s.entries[sym] = b
	return b
}

// BindGeneric adds candidate to the Generic binding for sym in s, creating the binding (and its
// Generic type) on first use. Mirrors original_source's bind_generic/generic_insert: new overloads
// for the same name accumulate into one Generic type rather than shadowing each other.
func (s *Scope) BindGeneric(sym symbol.Symbol, candidate *types.Type) *Binding {
	s.mx.Lock()
	defer s.mx.Unlock()
	if b, ok := s.entries[sym]; ok && b.Type.Tag == types.Generic {
		b.Type.AddOverload(candidate)
		return b
	}
	g := types.NewGeneric([]*types.Type{candidate})
	b := &Binding{Sym: sym, Type: g}
	s.entries[sym] = b
	return b
}

// FindSymbol searches s and its enclosing scopes, innermost first, for a binding of sym.
func (s *Scope) FindSymbol(sym symbol.Symbol) (*Binding, bool) {
	for cur := s; cur != nil; cur = cur.Parent {
		cur.mx.RLock()
		b, ok := cur.entries[sym]
		cur.mx.RUnlock()
		if ok {
			return b, true
		}
	}
	return nil, false
}

// FindInCurrentScope searches only s, not its ancestors, for a binding of sym. Used to detect
// illegal re-declaration within a single scope.
func (s *Scope) FindInCurrentScope(sym symbol.Symbol) (*Binding, bool) {
	s.mx.RLock()
	defer s.mx.RUnlock()
	b, ok := s.entries[sym]
	return b, ok
}

// IsGlobalBinding reports whether sym, as seen from s, resolves to a binding owned by the global
// scope rather than some enclosing function scope. Used by the code generator to decide whether a
// bare identifier needs a module-level global (durable across REPL phrases) or a function-local
// alloca (torn down when the phrase's anonymous function returns).
func (s *Scope) IsGlobalBinding(sym symbol.Symbol) bool {
	for cur := s; cur != nil; cur = cur.Parent {
		cur.mx.RLock()
		_, ok := cur.entries[sym]
		cur.mx.RUnlock()
		if ok {
			return cur.Parent == nil
		}
	}
	return false
}
