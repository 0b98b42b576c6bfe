/*
Package domain contains the core models of the quote bot.

It defines the partition table entries searched for a publisher domain, the matches
returned by that search, and the per-user conversation Session. This package is kept
pure and free of I/O or persistence concerns, following Hexagonal Architecture principles.

# Key Entities

  - Partition: A (language code, board ID) pair queried during a federated search.
  - Match: A partition that listed the domain, with its publisher cost.
  - Session: The state of one user's quote conversation. Each Step carries only the
    payload valid for it (LanguageStep, CopyStep, WordCountStep).
  - Message / Reply: The inbound and outbound chat contract.
*/
package domain
