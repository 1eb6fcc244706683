// Command loomvale drives a content backlog through its production
// pipeline: discovering verified portrait artwork links for
// discover-mode rows, deriving prompt text, seeding fresh topics, and
// optionally rendering generate-mode briefs through an image backend.
package main
