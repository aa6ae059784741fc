// Package normalisers turns uploaded bytes into plain text. Each
// subpackage handles one family of MIME types; Registry dispatches to
// them, sniffing the type with mimetype when the caller does not know it.
package normalisers
