/*
Package ports defines the driven ports (interfaces) of the quote bot.

These interfaces decouple the conversation core from external implementations, allowing
the bot to work with various session backends and board sources.

# Key Interfaces

  - PartitionLookup: Finds a domain in one board and returns its publisher cost (monday.com, Loam files, a local command, memory).
  - SessionStore: Persists per-user conversation Sessions.
  - DistributedLocker: Provides distributed locking for handling concurrent session access.
*/
package ports
