package content

import (
	"sync/atomic"

	"pathways-server/internal/graph"
)

// Store держит текущий снимок контента. Читатели получают указатель на
// неизменяемую библиотеку; перезагрузка подменяет его целиком.
type Store struct {
	current atomic.Pointer[graph.Library]
}

// NewStore creates a store holding lib.
func NewStore(lib *graph.Library) *Store {
	s := &Store{}
	s.current.Store(lib)
	return s
}

// Library returns the current snapshot.
func (s *Store) Library() *graph.Library {
	return s.current.Load()
}

// Swap installs lib and returns the previous snapshot.
func (s *Store) Swap(lib *graph.Library) *graph.Library {
	return s.current.Swap(lib)
}
