/*
Package session implements per-user session management for the quote conversation.

The Manager wraps a ports.SessionStore with one lock per user ID, so turns of the same
user are applied one at a time while different users proceed in parallel. An optional
distributed locker extends that guarantee across bot replicas sharing a Redis store.
*/
package session
