package service

import (
	"sync"
	"sync/atomic"
)

// DeviceContext carries the per-terminal state the sync engine needs between
// drain passes: the re-entrancy guard and the last observed connectivity.
// One context exists per device for the lifetime of the process; handlers and
// the background drain worker share it through the ContextRegistry, so a
// manual "sync now" and a scheduled drain can never run concurrently for the
// same terminal.
type DeviceContext struct {
	DeviceID   string
	DeviceName string

	draining atomic.Bool
	online   atomic.Bool
}

// NewDeviceContext creates a context for a device. Connectivity starts
// unknown, reported as offline until the first probe.
func NewDeviceContext(deviceID, deviceName string) *DeviceContext {
	return &DeviceContext{DeviceID: deviceID, DeviceName: deviceName}
}

// BeginDrain claims the drain slot. It returns false when a drain for this
// device is already in flight.
func (c *DeviceContext) BeginDrain() bool {
	return c.draining.CompareAndSwap(false, true)
}

// EndDrain releases the drain slot.
func (c *DeviceContext) EndDrain() {
	c.draining.Store(false)
}

// Draining reports whether a drain pass currently holds the slot.
func (c *DeviceContext) Draining() bool {
	return c.draining.Load()
}

// SetOnline records the outcome of the latest connectivity probe.
func (c *DeviceContext) SetOnline(online bool) {
	c.online.Store(online)
}

// Online returns the last observed connectivity state.
func (c *DeviceContext) Online() bool {
	return c.online.Load()
}

// ContextRegistry hands out the single DeviceContext per device ID.
type ContextRegistry struct {
	mu       sync.Mutex
	contexts map[string]*DeviceContext
}

func NewContextRegistry() *ContextRegistry {
	return &ContextRegistry{contexts: make(map[string]*DeviceContext)}
}

// Get returns the context for deviceID, creating it on first use. The name is
// refreshed so renamed terminals show up correctly in drain logs.
func (r *ContextRegistry) Get(deviceID, deviceName string) *DeviceContext {
	r.mu.Lock()
	defer r.mu.Unlock()
	ctx, ok := r.contexts[deviceID]
	if !ok {
		ctx = NewDeviceContext(deviceID, deviceName)
		r.contexts[deviceID] = ctx
		return ctx
	}
	if deviceName != "" && ctx.DeviceName != deviceName {
		ctx.DeviceName = deviceName
	}
	return ctx
}
