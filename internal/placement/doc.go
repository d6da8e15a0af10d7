// Package placement recommends which track an asset should land on and
// flags placements that fight a track's accepted content.
//
// Everything here is a pure function of its inputs. SuggestTrack maps the
// asset kind to a primary track, lets name and extension heuristics override
// that mapping when they are more confident, then adjusts for the user's
// selected track and the tracks used by nearby clips. ValidatePlacement never
// blocks a drop; it reports conflicts and warnings for the UI to surface.
package placement
