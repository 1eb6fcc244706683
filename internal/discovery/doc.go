// Package discovery finds verified portrait artwork links for a topic.
//
// The engine runs ranked image-search queries and funnels every
// candidate URL through a tiered validator: extension allowlist, host
// trust, provider dimension metadata, byte-fetch decode, and a trusted
// fallback for hosts that block direct fetches. Discovery stops the
// moment the target number of links is accepted and never fails a call
// outright; callers interpret the returned count.
package discovery
