package core

import (
	"sync"

	"github.com/google/uuid"
	"github.com/spaghettifunk/sinapsi/engine/containers"
)

// System internal event codes. Application should use codes beyond 255.
type EventCode int

const (
	// Shuts the application down on the next frame.
	EVENT_CODE_APPLICATION_QUIT EventCode = 0x01

	// An editor option changed value.
	/* Context usage:
	 * oe := context.Data.(*OptionChangedEvent)
	 */
	EVENT_CODE_OPTION_CHANGED EventCode = 0x02

	// An asset finished loading.
	/* Context usage:
	 * ae := context.Data.(*AssetEvent)
	 */
	EVENT_CODE_ASSET_LOADED EventCode = 0x03

	// An asset file changed on disk.
	/* Context usage:
	 * ae := context.Data.(*AssetEvent)
	 */
	EVENT_CODE_ASSET_MODIFIED EventCode = 0x04

	// An asset was released and destroyed.
	/* Context usage:
	 * ae := context.Data.(*AssetEvent)
	 */
	EVENT_CODE_ASSET_UNLOADED EventCode = 0x05

	MAX_EVENT_CODE EventCode = 0xFF
)

// This should be more than enough codes...
const MAX_MESSAGE_CODES = 16384

const (
	eventQueueSize    = 256
	eventDeferredSize = 1024
)

// InvalidEventHandle is returned by EventRegister when the system is down.
const InvalidEventHandle = ^uint32(0)

type EventContext struct {
	Type EventCode
	Data interface{}
}

// OptionChangedEvent is the payload of EVENT_CODE_OPTION_CHANGED.
type OptionChangedEvent struct {
	Option string
}

// AssetEvent is the payload of the asset lifecycle codes.
type AssetEvent struct {
	ID   uuid.UUID
	Type uuid.UUID
	Path string
}

type FnOnEvent func(context EventContext)

type registeredEvent struct {
	handle   uint32
	callback FnOnEvent
}

type eventCodeEntry struct {
	events []*registeredEvent
}

// State structure.
type eventSystemState struct {
	mutex sync.RWMutex
	// Lookup table for event codes.
	registered [MAX_MESSAGE_CODES]eventCodeEntry
	// Posted events waiting for the pump.
	queue chan EventContext
	// Overflow for posts that arrive while the queue is full.
	deferred *containers.RingQueue[EventContext]
	done     chan struct{}
}

func newEventStorage() *containers.StaticStorage[eventSystemState] {
	return containers.NewStaticStorageWithFinalizer(
		func() eventSystemState {
			return eventSystemState{
				queue:    make(chan EventContext, eventQueueSize),
				deferred: containers.NewRingQueue[EventContext](eventDeferredSize),
				done:     make(chan struct{}),
			}
		},
		func(state *eventSystemState) {
			close(state.done)
			// Free the events arrays. The objects pointed to should be destroyed on their own.
			state.mutex.Lock()
			for i := 0; i < MAX_MESSAGE_CODES; i++ {
				if len(state.registered[i].events) != 0 {
					state.registered[i].events = nil
				}
			}
			state.mutex.Unlock()
		},
	)
}

/**
 * Event system internal state.
 */
var eventStorage = newEventStorage()

func EventSystemInitialize() bool {
	if eventStorage.TryGet() != nil {
		return false
	}
	// A destroyed storage never constructs again, so each lifecycle gets a fresh one.
	eventStorage = newEventStorage()
	eventStorage.Get()
	return true
}

func EventSystemShutdown() error {
	if !eventStorage.Destroy() {
		return ErrEventSystemDown
	}
	return nil
}

/**
 * Register to listen for when events are sent with the provided code.
 * @param code The event code to listen for.
 * @param onEvent The callback to be invoked when the event code is fired.
 * @returns A handle for EventUnregister, or InvalidEventHandle if the system is down.
 */
func EventRegister(code EventCode, onEvent FnOnEvent) uint32 {
	state := eventStorage.TryGet()
	if state == nil || code < 0 || code >= MAX_MESSAGE_CODES || onEvent == nil {
		return InvalidEventHandle
	}

	event := &registeredEvent{
		handle:   IdentifierAcquireNewID(onEvent),
		callback: onEvent,
	}
	state.mutex.Lock()
	state.registered[code].events = append(state.registered[code].events, event)
	state.mutex.Unlock()
	return event.handle
}

/**
 * Unregister from listening for when events are sent with the provided code. If no matching
 * registration is found, this function returns FALSE.
 * @param code The event code to stop listening for.
 * @param handle The handle returned by EventRegister.
 * @returns TRUE if the event is successfully unregistered; otherwise FALSE.
 */
func EventUnregister(code EventCode, handle uint32) bool {
	state := eventStorage.TryGet()
	if state == nil || code < 0 || code >= MAX_MESSAGE_CODES {
		return false
	}

	state.mutex.Lock()
	defer state.mutex.Unlock()

	// On nothing is registered for the code, boot out.
	events := state.registered[code].events
	if len(events) == 0 {
		return false
	}

	for i, e := range events {
		if e.handle == handle {
			// Found one, remove it
			state.registered[code].events = append(events[:i], events[i+1:]...)
			if err := IdentifierReleaseID(handle); err != nil {
				LogWarn(err.Error())
			}
			return true
		}
	}
	// Not found.
	return false
}

/**
 * Fires an event to listeners of the given code for immediate processing.
 * @param context The event type and payload.
 * @returns TRUE if any listener received the event, otherwise FALSE.
 */
func EventFire(context EventContext) bool {
	state := eventStorage.TryGet()
	if state == nil || context.Type < 0 || context.Type >= MAX_MESSAGE_CODES {
		return false
	}

	// Snapshot the callbacks so a listener can unregister from inside its own handler.
	state.mutex.RLock()
	events := state.registered[context.Type].events
	callbacks := make([]FnOnEvent, len(events))
	for i, e := range events {
		callbacks[i] = e.callback
	}
	state.mutex.RUnlock()

	if len(callbacks) == 0 {
		return false
	}
	for _, callback := range callbacks {
		callback(context)
	}
	return true
}

/**
 * Posts an event for asynchronous dispatch by ProcessEvents. When the queue is
 * full the event is parked in the deferred buffer until the pump catches up.
 * @param context The event type and payload.
 * @returns TRUE if the event was queued, FALSE if it was dropped.
 */
func EventPost(context EventContext) bool {
	state := eventStorage.TryGet()
	if state == nil || context.Type < 0 || context.Type >= MAX_MESSAGE_CODES {
		return false
	}

	select {
	case state.queue <- context:
		return true
	default:
	}

	state.mutex.Lock()
	err := state.deferred.Enqueue(context)
	state.mutex.Unlock()
	if err != nil {
		LogWarn("event queue overflow, dropping event with the event type `%d`", context.Type)
		return false
	}
	return true
}

// ProcessEvents dispatches posted events until the system shuts down.
// Run it on its own goroutine.
func ProcessEvents() {
	state := eventStorage.TryGet()
	if state == nil {
		return
	}
	for {
		select {
		case context := <-state.queue:
			EventFire(context)
			state.drainDeferred()
		case <-state.done:
			return
		}
	}
}

// drainDeferred moves parked events back onto the queue while there is room.
func (state *eventSystemState) drainDeferred() {
	state.mutex.Lock()
	defer state.mutex.Unlock()
	for !state.deferred.IsEmpty() {
		context, err := state.deferred.Peek()
		if err != nil {
			return
		}
		select {
		case state.queue <- context:
			state.deferred.Dequeue()
		default:
			return
		}
	}
}
