// Package pipeline analyzes the color contrast of text in an image.
//
// An image reference is loaded, its words are located with OCR (falling
// back to edge-based region detection), each word's foreground and
// background colors are sampled, and the pairs are handed to the analysis
// package. Failures upstream of analysis produce an empty report with a
// diagnostic rather than a bare error.
package pipeline
