// Package imaging reads colors out of decoded images.
//
// SampleColor and SampleColorsMulti read single points or small averaged
// neighborhoods, DominantColors builds a quantized histogram of a region,
// and SampleTextColors estimates the foreground and background colors of a
// text bounding box.
//
// Coordinates are 0-based with the origin at the top-left. Rectangles are
// image.Rectangle values: Min inclusive, Max exclusive.
//
// Transparent pixels are composited over white before any color is
// reported, so every returned color is opaque.
//
// All functions are stateless and safe to call concurrently on images that
// are not being modified.
package imaging
