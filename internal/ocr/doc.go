// Package ocr finds words and their bounding boxes in an image using
// Tesseract (via gosseract/v2).
//
// # Prerequisites
//
// Tesseract and its language data must be installed on the system:
//   - Ubuntu/Debian: apt-get install tesseract-ocr tesseract-ocr-eng
//   - macOS: brew install tesseract
//
// When the library or the requested language is missing, Engine.Words and
// Engine.Available return an error wrapping ErrUnavailable. Callers fall back
// to heuristic text-region detection in that case.
//
// # Filtering
//
// Only words with a confidence of at least Options.MinConfidence (0-100,
// default 60) are kept, and at most Options.MaxWords (default 50), in
// Tesseract's reading order. Small images are upscaled before recognition
// and the resulting boxes mapped back to the original coordinates.
package ocr
