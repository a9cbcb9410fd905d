// Package taf reads the Toniebox audio file layout: a fixed-size
// protobuf-like header followed by an Ogg stream.
//
// Nothing here decodes audio. The header is searched for the chapter list
// field and the Ogg pages are indexed by sequence number so chapter markers
// can be turned into playback positions.
package taf
