// Package imagemeta reads pixel dimensions and a handful of EXIF fields
// (capture time, GPS position, camera) straight from image bytes. JPEG marker
// segments and the little-endian TIFF directory inside EXIF are walked by
// hand with bounds-checked reads; nothing is decoded beyond headers.
package imagemeta
