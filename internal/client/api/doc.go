// Package api is the request facade every service goes through.
//
// A Client sends JSON requests through the transport with the stored access
// token. When the server answers 401 it asks the refresh coordinator for a
// fresh token and retries exactly once; a second 401 ends the session
// instead of refreshing again. All other failures are returned as they came
// from the transport, so callers match them with errors.Is against the
// sentinels in internal/common.
//
// Uploads are encoded once as multipart/form-data so the retry can replay
// the same bytes, and report integer progress (0..100) that never goes
// backwards. Streams are opened with the same retry policy and handed to the
// caller as a raw body for the sse package to decode.
package api
