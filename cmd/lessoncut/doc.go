// Command lessoncut is the command-line front end for the lesson editor's
// placement engine and export pipeline. It suggests and validates track
// placements, runs exports through the configured renderer, lists past
// exports and serves the HTTP API used by the editing UI.
package main
