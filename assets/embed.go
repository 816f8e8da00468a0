// assets/embed.go
//
// Embedded default data shipped with the binary.
//   - alphabet.txt: default symbol alphabet, one symbol per line, in enumeration order.
//
// Parsing lives in internal/symbols; this package only ships the bytes.

package assets

import "embed"

//go:embed alphabet.txt
var FS embed.FS

// AlphabetFile is the default alphabet's name inside FS.
const AlphabetFile = "alphabet.txt"
