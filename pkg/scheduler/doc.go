// Package scheduler turns a route.Spec into an http.Handler.
//
// For each request the scheduler picks the repeat count, produces the
// candidate response (generator or rendered and mocked template), runs the
// processors in order and then finalizes the response, after the route's
// delay when one is set.
//
// Dispatch never blocks on the delay. Finalization runs on a timer, and the
// http.Handler returned by Build waits for outstanding timers, or for the
// client to go away, before returning to net/http.
package scheduler
