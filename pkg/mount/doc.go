// Package mount installs route handlers on a host router as one block and
// swaps that block on every reload.
//
// A reload builds the complete new block first. Only when every layer was
// built are the previous layers removed and the new ones inserted where the
// previous block began (the anchor), inside a single host update. Layers
// registered on the host by others keep their positions relative to the
// block. A failed reload leaves the host untouched.
package mount
