// Package search wraps the Google Programmable Search JSON API for
// image and web-title queries. Image results may lack dimension
// metadata; callers must tolerate zero width/height.
package search
