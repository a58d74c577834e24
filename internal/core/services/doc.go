// Package services implements the driving port interfaces.
// Services contain the core retrieval logic - query processing, hybrid
// search orchestration, score fusion, reranking, context assembly, and
// content ingestion - and orchestrate calls to driven ports (adapters).
//
// Services are pure Go with no external infrastructure dependencies.
package services
