// Package detection locates probable text in an image without OCR.
//
// DetectTextRegions slides windows over a Sobel edge map and keeps the ones
// whose edges are dense and mostly horizontal, the signature of a line of
// glyphs. Overlapping windows are merged and returned in reading order.
// Results are coarse: a region may cover several words, or an icon.
//
// Coordinates follow image.Rectangle: origin top-left, Y down, X2/Y2
// exclusive.
package detection
