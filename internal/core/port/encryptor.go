package port

// Encryptor seals connection strings at rest. The associated data (the
// logical connection name) is authenticated but not stored, so a ciphertext
// only opens under the name it was sealed for.
type Encryptor interface {
	Encrypt(plaintext, associated []byte) ([]byte, error)
	Decrypt(ciphertext, associated []byte) ([]byte, error)
}
