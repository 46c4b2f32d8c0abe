// Package susres implements the suspend orchestrator: the service that
// quiesces every cooperating process before power removal and restores all
// gated work on resume.
//
// The orchestrator is a single goroutine owning the subscriber table and
// the in-flight session; every operation arrives as a message through its
// queue, so there is exactly one mutator of session state and no locking.
// A companion timeout watcher goroutine is armed once per session and
// communicates back only by enqueueing a timeout message, which the
// orchestrator is free to ignore when the session it belonged to has
// already resolved.
//
// # Suspend cycle
//
// Subscribers register once with an ordering tranche (Early, Normal, Last)
// and receive a dense token. A suspend request notifies the Early tranche;
// each subscriber quiesces and reports ready; only when a whole tranche is
// ready is the next one notified. When the Last tranche is fully ready the
// hardware engine is entered synchronously and does not return until wake.
// Processes that learn suspension is imminent park themselves in
// SuspendingNow and are released after resume, so no cooperating process
// runs or issues I/O across the power transition.
//
// A cycle that overruns its deadline is abandoned, never forced: the
// non-responders are marked failed (visible through WasSuspendClean), the
// requester is answered with failure, and no power-down occurs.
package susres
