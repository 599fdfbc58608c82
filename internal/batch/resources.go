package batch

import (
	"errors"
	"sync"

	"splatconv/internal/services"
)

// ResourceCache hands each worker its own Converter, constructing it lazily
// on the worker's first task and returning the same instance for every later
// task. The conversion mode is fixed for the cache's lifetime, so a run can
// never mix standard and reduced conversions across workers.
type ResourceCache struct {
	factory ConverterFactory
	mode    Mode

	mu    sync.Mutex
	slots map[int]*resourceSlot
}

// resourceSlot holds one worker's converter. The once guard means a worker's
// construction runs exactly once even if Get races; a construction failure is
// sticky for that worker.
type resourceSlot struct {
	once sync.Once
	conv Converter
	err  error
}

func NewResourceCache(factory ConverterFactory, mode Mode) *ResourceCache {
	return &ResourceCache{
		factory: factory,
		mode:    mode,
		slots:   make(map[int]*resourceSlot),
	}
}

// Mode reports the conversion mode every converter in this cache was built
// with.
func (c *ResourceCache) Mode() Mode {
	return c.mode
}

// Get returns workerID's converter, constructing it on first call. A failed
// construction is reported as a configuration error on this and every
// subsequent call for the same worker.
func (c *ResourceCache) Get(workerID int) (Converter, error) {
	c.mu.Lock()
	slot, ok := c.slots[workerID]
	if !ok {
		slot = &resourceSlot{}
		c.slots[workerID] = slot
	}
	c.mu.Unlock()

	slot.once.Do(func() {
		conv, err := c.factory(c.mode)
		if err != nil {
			if !errors.Is(err, services.ErrConfiguration) {
				err = services.Wrap(services.ErrConfiguration, "batch", "initialize worker", "construct converter", err)
			}
			slot.err = err
			return
		}
		slot.conv = conv
	})
	return slot.conv, slot.err
}
