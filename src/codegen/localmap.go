package codegen

import (
	"sync"

	"jitc/src/symbol"
	"jitc/src/types"
	"tinygo.org/x/go-llvm"
)

// localEntry pairs a local's storage pointer with its static type, so scope-exit destructor lowering
// (see aggregate.go's genDestroyScope) knows which locals are structured without re-inferring them.
type localEntry struct {
	ptr llvm.Value
	typ *types.Type
}

// localMap maps a backend name to the llvm.Value holding its storage (an alloca'd pointer), scoped
// per function activation. A mutex-guarded map, reused across the single-threaded compiler driver and
// safe if a future revision parallelises per-function codegen.
type localMap struct {
	mx      sync.RWMutex
	entries map[symbol.Symbol]localEntry
}

func newLocalMap() *localMap {
	return &localMap{entries: make(map[symbol.Symbol]localEntry)}
}

func (m *localMap) set(sym symbol.Symbol, v llvm.Value, t *types.Type) {
	m.mx.Lock()
	defer m.mx.Unlock()
	m.entries[sym] = localEntry{ptr: v, typ: t}
}

func (m *localMap) get(sym symbol.Symbol) (llvm.Value, bool) {
	m.mx.RLock()
	defer m.mx.RUnlock()
	e, ok := m.entries[sym]
	return e.ptr, ok
}

// all returns a snapshot of every bound local in this scope, for call_destructors' walk at scope
// exit.
func (m *localMap) all() map[symbol.Symbol]localEntry {
	m.mx.RLock()
	defer m.mx.RUnlock()
	out := make(map[symbol.Symbol]localEntry, len(m.entries))
	for k, v := range m.entries {
		out[k] = v
	}
	return out
}
