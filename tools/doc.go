// Package tools provides the closed tool registry and the validating
// executor. Every tool the model may invoke is registered up front with a
// JSON schema; the executor resolves names against the registry, checks
// argument shape, and normalizes every failure into an Outcome so a
// misbehaving tool can never crash the session.
package tools
