// Package cli constructs the repoaudit command-line interface. It wires the Cobra
// command hierarchy, the layered configuration loader, dotenv loading and the
// diagnostic logger, and registers the discover and commits pipelines.
package cli
