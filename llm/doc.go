// Package llm defines the wire types and provider contract for the
// vision-capable chat model driving the agent. The round controller only
// depends on the Provider interface; concrete backends live in subpackages.
package llm
