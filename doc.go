/*
Package pricebot quotes prices for sponsored articles on publisher domains.

A user starts a quote with "/price <domain>" in a chat. The bot searches every
configured partition (one board per language or market) concurrently, asks for a
language code when several boards list the domain, asks whether copywriting is
included and for how many words, then replies with the final price.

# Architecture

The core is transport-agnostic and wired through small ports:

  - pkg/pricing computes margins and copy costs with exact decimal arithmetic.
  - pkg/search fans out lookups across partitions and keeps table order.
  - pkg/session serializes turns per user over a SessionStore (memory or Redis).
  - pkg/conversation is the per-user state machine that produces replies.

Partitions are read from monday.com boards (pkg/adapters/monday), from board
documents on disk (pkg/adapters/loam) or from a local command (pkg/adapters/process).
Sessions can be sealed at rest with AES-GCM (pkg/persistence/middleware). The bot is exposed over an HTTP webhook,
an MCP server and an interactive terminal chat (cmd/pricebot).

# Usage

	cfg, err := config.Load("pricebot.yaml")
	if err != nil {
		log.Fatal(err)
	}

	engine, err := pricebot.New(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer engine.Close(context.Background())

	reply, err := engine.Handle(ctx, domain.Message{SenderID: "u1", Text: "/price acme.com"})
*/
package pricebot
