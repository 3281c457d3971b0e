package image

import (
	"crypto/sha256"
	"fmt"

	"github.com/chazu/javdin/compiler"
)

// Hash is the content hash of a program tree.
type Hash [32]byte

func (h Hash) String() string {
	return fmt.Sprintf("%x", h[:])
}

// HashProgram returns the SHA-256 of prog's canonical encoding. Source
// positions are part of the tree, so moving code changes the hash.
func HashProgram(prog *compiler.Program) (Hash, error) {
	data, err := cborEncMode.Marshal(encodeNode(prog))
	if err != nil {
		return Hash{}, fmt.Errorf("image: hash: %w", err)
	}
	return sha256.Sum256(data), nil
}
