/*
Package pluginevents provides an in-process, priority-ordered event dispatcher.

Listeners register handlers for concrete event types. Publishers pass event
instances to CallEvent, which invokes every handler registered for the
event's exact dynamic type, bucket by bucket from Lowest to Monitor, on the
calling goroutine.

# Events

An event is any type that embeds Base. Events that can be cancelled also
embed CancelState (or implement Cancellable themselves):

	type PlayerChat struct {
	    pluginevents.Base
	    pluginevents.CancelState
	    Player  string
	    Message string
	}

The registry key is the dynamic type, so a handler for *PlayerChat only sees
events published as *PlayerChat.

# Listeners

A Listener returns its handler bindings. Typed bindings are checked at compile
time; Bind and Methods are validated when the listener is registered:

	type ChatFilter struct{}

	func (f *ChatFilter) EventHandlers() []pluginevents.Binding {
	    return []pluginevents.Binding{
	        pluginevents.OnFunc("filter", f.filter, pluginevents.WithPriority(pluginevents.Low)),
	        pluginevents.OnFunc("audit", f.audit, pluginevents.WithPriority(pluginevents.Monitor)),
	    }
	}

	events := pluginevents.New(pluginevents.WithLogger(logger))
	events.RegisterListener(&ChatFilter{}, logger)

	chat := &PlayerChat{Player: "steve", Message: "hello"}
	if events.CallEvent(chat) {
	    // a handler cancelled the chat message
	}

# Dispatch Rules

Buckets run in ascending priority. Order inside a bucket is unspecified.
Before each handler the event's cancel flag is read again: a handler bound
with IgnoreCancelled is skipped while the event is cancelled, unless it sits
in the Monitor bucket, which always runs. CallEvent reports whether the event
was cancelled when the Monitor bucket was reached, so Monitor handlers can
observe the outcome but not change it.

Handler errors and panics are logged to the handler's bound logger and never
reach the publisher; the remaining handlers still run. Dispatching a type with
no registered handlers is a no-op (see WithUnregisteredPolicy).

# Singleton

New builds an independent instance for dependency injection. Default returns
a lazily created process-wide instance used by the package-level
RegisterListener and CallEvent functions.
*/
package pluginevents
