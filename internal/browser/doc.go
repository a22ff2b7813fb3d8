// Package browser defines the page-driving contract used by the login and
// probe loops, and ships an HTTP implementation of it.
//
// The main components are:
//
//   - [Driver]: creates pages that share one authenticated session
//   - [Page]: a single execution context (navigate, inspect location, fill and
//     submit a form, close)
//   - [HTTPDriver]: net/http-backed Driver with a shared cookie jar
//
// The HTTP driver treats a page's location as the final URL after redirects,
// which is how gated sites signal "not logged in" or "no slots available":
// by bouncing the request somewhere else.
package browser
