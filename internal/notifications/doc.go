// Package notifications pushes pipeline run events to ntfy. When no
// topic is configured a noop service is returned, so callers never
// branch on whether notifications are enabled.
package notifications
