// Package execution limits how many agent tasks a contractor can run at once.
//
// A Manager admits up to MaxConcurrent running sessions per user. Further
// StartExecution calls wait in a single FIFO queue and are promoted, one per
// freed slot, inside whichever call freed it. A background sweep fails
// sessions that run past the timeout.
package execution
