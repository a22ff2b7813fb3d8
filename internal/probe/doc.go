// Package probe implements the worker that repeatedly loads the target
// location until it is reachable, another worker wins, or its attempt budget
// runs out.
//
// The main components are:
//
//   - [Worker]: one probing loop bound to one page
//   - [State]: the worker state machine (probing, then one terminal state)
//   - [Result]: what a worker reports when it stops
//   - [Event]: progress notifications for observers (status store, callbacks)
//
// Workers coordinate only through a [Claimer] (the shared success claim) and
// a [Notifier] (the single-fire alert). Everything else a worker touches is
// its own.
package probe
