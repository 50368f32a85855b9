// Package password generates random database passwords.
//
// Every password of length 4 or more contains at least one upper-case
// letter, one lower-case letter, one digit and one special character.
// Characters that are easy to misread (I, O, l, 0, 1) never appear.
//
//	pw, err := password.Generate(password.DefaultLength)
//
// The default generator reads from crypto/rand and shuffles with fresh
// randomness. WithLegacyShuffle reproduces the older behaviour where the
// shuffle reuses the selection bytes.
package password
