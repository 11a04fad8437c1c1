/*
Package nlu provides rule-based default implementations of the Parley
collaborator ports: weighted keyword intent detection, keyword slot
selection, pattern-based slot extraction, and deterministic date/time
normalization.

These are deliberately simple and dependency-free. Hosts that want
model-backed classification or extraction implement the same ports and
inject their own collaborators; the orchestrator does not care which.
*/
package nlu
