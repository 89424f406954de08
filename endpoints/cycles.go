package endpoints

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/prebid/tlx-bridge/adapters"
)

// CycleStore keeps built cycles for the later response and sync calls of the same auction.
// Entries expire after the configured ttl.
type CycleStore struct {
	cycles *gocache.Cache
}

func NewCycleStore(ttl time.Duration) *CycleStore {
	return &CycleStore{cycles: gocache.New(ttl, 2*ttl)}
}

func (s *CycleStore) Save(cycle *adapters.Cycle) {
	if cycle == nil {
		return
	}
	s.cycles.SetDefault(cycle.ID, cycle)
}

func (s *CycleStore) Load(id string) (*adapters.Cycle, bool) {
	value, ok := s.cycles.Get(id)
	if !ok {
		return nil, false
	}
	cycle, ok := value.(*adapters.Cycle)
	return cycle, ok
}

// Len is the number of cycles held, expired or not.
func (s *CycleStore) Len() int {
	return s.cycles.ItemCount()
}
