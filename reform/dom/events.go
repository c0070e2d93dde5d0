package dom

// Event names dispatched by the controller and the CLI.
const (
	Click = "click"
	Blur  = "blur"
)

// Event is passed to handlers during dispatch.
type Event struct {
	Type   string
	Target *Element

	prevented bool
}

// PreventDefault marks the event's default action as cancelled.
func (ev *Event) PreventDefault() {
	ev.prevented = true
}

// DefaultPrevented reports whether a handler cancelled the default action.
func (ev *Event) DefaultPrevented() bool {
	return ev.prevented
}

// Handler is an event listener.
type Handler func(ev *Event)

type listener struct {
	handle Handler
}

// On registers a listener for the named event on the element and returns a
// function that unregisters it.  Listeners are dropped when the element is
// removed or replaced.
func (e *Element) On(event string, h Handler) (remove func()) {
	byEvent, ok := e.doc.listeners[e.node]
	if !ok {
		byEvent = make(map[string][]*listener)
		e.doc.listeners[e.node] = byEvent
	}
	l := &listener{handle: h}
	byEvent[event] = append(byEvent[event], l)

	node := e.node
	return func() {
		byEvent, ok := e.doc.listeners[node]
		if !ok {
			return
		}
		kept := make([]*listener, 0, len(byEvent[event]))
		for _, other := range byEvent[event] {
			if other != l {
				kept = append(kept, other)
			}
		}
		if len(kept) == 0 {
			delete(byEvent, event)
		} else {
			byEvent[event] = kept
		}
		if len(byEvent) == 0 {
			delete(e.doc.listeners, node)
		}
	}
}

// Dispatch runs the element's listeners for the event in registration order.
// It returns false if any listener prevented the default action.  Events on
// detached elements are ignored.
func (e *Element) Dispatch(event string) bool {
	if !e.Attached() {
		return true
	}
	ev := &Event{Type: event, Target: e}
	handlers := append([]*listener(nil), e.doc.listeners[e.node][event]...)
	for _, l := range handlers {
		l.handle(ev)
	}
	return !ev.prevented
}

// Click dispatches a click event.
func (e *Element) Click() bool {
	return e.Dispatch(Click)
}

// Blur dispatches a blur (focus lost) event.
func (e *Element) Blur() bool {
	return e.Dispatch(Blur)
}

// Listeners returns the number of listeners registered for the event on the
// element.
func (e *Element) Listeners(event string) int {
	return len(e.doc.listeners[e.node][event])
}

// listenerCount returns the number of nodes with registered listeners.
func (d *Document) listenerCount() int {
	return len(d.listeners)
}
