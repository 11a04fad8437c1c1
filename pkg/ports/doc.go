/*
Package ports defines the boundary interfaces of the Parley core.

The orchestrator obtains everything language-model-ish (intent detection,
slot applicability, value extraction, normalization) and everything
storage-ish through these narrow contracts, so hosts can swap rule engines,
ML models, or remote services without touching the core.
*/
package ports
