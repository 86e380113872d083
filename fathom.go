// Package fathom is a CLI and web front end for a black-box deep-research
// agent workflow.
//
// Fathom owns the interactive clarification-resumption loop: it invokes the
// external researcher graph, classifies each run as complete, asking for
// clarification, or incomplete, splices human answers into the running
// conversation, and restarts the workflow over the augmented history until
// a report appears or the round limit is hit. The research itself
// (retrieval, reasoning, report synthesis) happens entirely inside the
// external engine reached through pkg/ports.Workflow.
//
// The moving parts:
//
//   - pkg/domain: conversation transcript and session state
//   - pkg/classify: the run-outcome heuristic
//   - pkg/driver: the resumable state machine shared by every frontend
//   - pkg/adapters/graph: HTTP adapter for the external engine
//   - internal/adapters/{http,mcp,redis}: web UI, MCP tools, Redis
//     checkpoints
package fathom

// Version is the release version of Fathom.
const Version = "0.2.0"
