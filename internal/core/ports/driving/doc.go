// Package driving defines the interfaces through which external actors
// (CLI, web layer, generation component) invoke the retrieval core.
//
// These are the "driving" or "primary" ports in hexagonal architecture.
// Services in internal/core/services implement them.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or service package
package driving
