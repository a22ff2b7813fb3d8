// Package store keeps the latest status of every probe worker and the
// orchestrator phase, and fans updates out to subscribers.
//
// The main components are:
//
//   - [Store]: Interface defining storage and subscription operations
//   - [MemoryStore]: In-memory implementation of Store with pub/sub
//   - [WorkerStatus]: Storage representation of one worker's progress
//   - [Snapshot]: Point-in-time view of the whole run
//
// Subscribers receive updates via channels with non-blocking sends (slow
// subscribers will miss updates rather than block the workers feeding the
// store).
package store
