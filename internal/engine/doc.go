// Package engine defines the inference-engine collaborator contract and
// its HTTP implementation.
//
// The pipeline treats the engine as an opaque black box: it sends images,
// receives structured detection results, and never interprets them. Model
// loading, device selection, and the forward pass live behind the engine's
// API, out of process.
//
// Engine is the contract; HTTPEngine talks to a remote detection server
// over JSON. Tests inject hand-rolled fakes.
package engine
