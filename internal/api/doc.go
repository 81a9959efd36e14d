// Package api exposes the toolkit over REST: tool discovery, synchronous
// invocation and the asynchronous operation pipeline.
package api
