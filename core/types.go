package core

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Address represents an account or contract address on the local chain.
type Address [20]byte

// ObjectID is the unique identifier of a state object.
type ObjectID [32]byte

// Hash is a 32-byte value produced by GetHash.
type Hash [32]byte

var (
	ZeroAddress  = Address{}
	ZeroObjectID = ObjectID{}
	ZeroHash     = Hash{}
)

func (addr Address) String() string {
	return hex.EncodeToString(addr[:])
}

func (id ObjectID) String() string {
	return hex.EncodeToString(id[:])
}

func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// AddressFromString converts a hex string, with or without a 0x prefix,
// to an Address.
func AddressFromString(s string) (Address, error) {
	var addr Address
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(s) != 2*len(addr) {
		return addr, ErrInvalidArgument
	}
	bytes, err := hex.DecodeString(s)
	if err != nil {
		return addr, err
	}
	copy(addr[:], bytes)
	return addr, nil
}

// ObjectIDFromString converts a hex string to an ObjectID.
func ObjectIDFromString(s string) (ObjectID, error) {
	var id ObjectID
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	bytes, err := hex.DecodeString(s)
	if err != nil {
		return id, err
	}
	copy(id[:], bytes)
	return id, nil
}

// GetHash calculates the SHA-256 hash of data.
func GetHash(data []byte) Hash {
	return Hash(sha256.Sum256(data))
}

// DefaultObjectID returns the ID of the default state object of a contract.
// Every contract gets one such object at deployment; its ID is the contract
// address left-aligned in a zero ObjectID.
func DefaultObjectID(contract Address) ObjectID {
	var id ObjectID
	copy(id[:], contract[:])
	return id
}
