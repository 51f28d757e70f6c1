// Package workers runs the application's background jobs.
//
// Expired messages and share links stop being served the moment their expiry
// passes; the sweeper here is what physically deletes the rows afterwards.
package workers
