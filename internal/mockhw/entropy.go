package mockhw

import (
	"encoding/binary"
	"sync"

	"golang.org/x/crypto/chacha20"
)

// Entropy is a deterministic entropy source keyed by a test seed. It
// stands in for the hardware TRNG: a ChaCha20 keystream gives pattern
// fills the same statistical texture as TRNG output while keeping each
// test reproducible.
type Entropy struct {
	mu     sync.Mutex
	cipher *chacha20.Cipher
}

// NewEntropy creates a deterministic entropy source from seed.
func NewEntropy(seed uint64) *Entropy {
	var key [chacha20.KeySize]byte
	binary.LittleEndian.PutUint64(key[:], seed)
	var nonce [chacha20.NonceSize]byte

	cipher, err := chacha20.NewUnauthenticatedCipher(key[:], nonce[:])
	if err != nil {
		// Key and nonce sizes are fixed at compile time.
		panic(err)
	}
	return &Entropy{cipher: cipher}
}

// FillWords fills dst with keystream words.
func (e *Entropy) FillWords(dst []uint32) {
	e.mu.Lock()
	defer e.mu.Unlock()

	buf := make([]byte, 4*len(dst))
	e.cipher.XORKeyStream(buf, buf)
	for i := range dst {
		dst[i] = binary.LittleEndian.Uint32(buf[i*4:])
	}
}
