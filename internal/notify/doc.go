// Package notify delivers the success alert at most once.
//
// The main components are:
//
//   - [Message]: the alert record (to, from, subject, body)
//   - [Sender]: the transport contract, implemented by [SendGridSender]
//   - [Guard]: single-fire wrapper that calls a Sender no more than once
//
// Delivery failures are logged by the Guard and never retried: an alert
// that failed to send still counts as sent.
package notify
