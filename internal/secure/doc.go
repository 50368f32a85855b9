// Package secure holds passwords in memguard enclaves.
//
// A password is sealed as soon as it is generated or read, and only opened
// for the short moment it is needed:
//
//	pw := secure.Seal(generated) // generated is wiped
//	defer pw.Destroy()
//
//	err := pw.Use(func(b []byte) error {
//	    return send(b)
//	})
//
// Enclave contents are encrypted with XSalsa20Poly1305 and the decrypted
// buffers are mlocked and guarded. This does not protect against an attacker
// with access to the running process.
package secure
