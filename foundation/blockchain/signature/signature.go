// Package signature provides helper functions for handling the blockchain
// signature needs.
package signature

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/rblocklabs/rblock/foundation/blockchain/ecmath"
)

// ZeroHash represents a hash code of zeros.
const ZeroHash string = "0x0000000000000000000000000000000000000000000000000000000000000000"

// rblockID is an arbitrary number added to the recovery id when signing
// messages. It marks signatures as belonging to this chain. Ethereum and
// Bitcoin do the same with the value 27.
const rblockID = 31

// =============================================================================

// Hash returns a unique string for the value.
func Hash(value any) string {
	data, err := json.Marshal(value)
	if err != nil {
		return ZeroHash
	}

	hash := sha256.Sum256(data)
	return hexutil.Encode(hash[:])
}

// HashText returns the hash for raw text without any encoding applied first.
// Block messages are hashed this way so the digest commits to the exact
// concatenation of the block fields.
func HashText(text string) string {
	hash := sha256.Sum256([]byte(text))
	return hexutil.Encode(hash[:])
}

// Sign uses the specified private key to sign the data.
func Sign(value any, privateKey *ecdsa.PrivateKey) (v, r, s *big.Int, err error) {

	// Prepare the data for signing.
	data, err := stamp(value)
	if err != nil {
		return nil, nil, nil, err
	}

	// Sign the hash with the private key to produce a signature.
	sig, err := crypto.Sign(data, privateKey)
	if err != nil {
		return nil, nil, nil, err
	}

	// Extract the public key from the data and the signature.
	publicKey, err := crypto.SigToPub(data, sig)
	if err != nil {
		return nil, nil, nil, err
	}

	// Check the public key extracted from the data and signature.
	rs := sig[:crypto.RecoveryIDOffset]
	if !crypto.VerifySignature(crypto.FromECDSAPub(publicKey), data, rs) {
		return nil, nil, nil, errors.New("invalid signature")
	}

	// Convert the 65 byte signature into the [R|S|V] format.
	v, r, s = toSignatureValues(sig)

	return v, r, s, nil
}

// VerifySignature verifies the signature conforms to our standards and that
// the value was signed by the key the signature recovers to.
func VerifySignature(value any, v, r, s *big.Int) error {

	// Check the recovery id is either 0 or 1.
	uintV := v.Uint64() - rblockID
	if uintV != 0 && uintV != 1 {
		return errors.New("invalid recovery id")
	}

	// Check the signature values are valid.
	if !crypto.ValidateSignatureValues(byte(uintV), r, s, false) {
		return errors.New("invalid signature values")
	}

	// Prepare the data the signature covers.
	data, err := stamp(value)
	if err != nil {
		return err
	}

	// Capture the public key associated with this data and signature.
	sig := ToSignatureBytes(v, r, s)
	publicKey, err := crypto.SigToPub(data, sig)
	if err != nil {
		return err
	}

	// Check the ecdsa verification equation holds for that key.
	return verifyEquation(data, r, s, publicKey)
}

// FromAddress extracts the address for the account that signed the data.
func FromAddress(value any, v, r, s *big.Int) (string, error) {

	// NOTE: If the same exact data for the given signature is not provided
	// we will get the wrong from address for this transaction. There is no
	// way to check this on the node since we don't have a copy of the public
	// key used. The public key is being extracted from the data and signature.

	// Prepare the data for public key extraction.
	data, err := stamp(value)
	if err != nil {
		return "", err
	}

	// Convert the [R|S|V] format into the original 65 bytes.
	sig := ToSignatureBytes(v, r, s)

	// Capture the public key associated with this data and signature.
	publicKey, err := crypto.SigToPub(data, sig)
	if err != nil {
		return "", err
	}

	// Extract the account address from the public key.
	return crypto.PubkeyToAddress(*publicKey).String(), nil
}

// SignatureString returns the signature as a string.
func SignatureString(v, r, s *big.Int) string {
	return hexutil.Encode(ToSignatureBytesWithRblockID(v, r, s))
}

// ToVRSFromHexSignature converts a hex representation of the signature into
// its R, S and V parts.
func ToVRSFromHexSignature(sigStr string) (v, r, s *big.Int, err error) {
	sig, err := hex.DecodeString(sigStr[2:])
	if err != nil {
		return nil, nil, nil, err
	}

	r = new(big.Int).SetBytes(sig[:32])
	s = new(big.Int).SetBytes(sig[32:64])
	v = new(big.Int).SetBytes([]byte{sig[64]})

	return v, r, s, nil
}

// =============================================================================

// verifyEquation checks the ecdsa verification equation directly on the
// secp256k1 curve: with w = s⁻¹ mod N, the point u1·G + u2·Q must have an x
// coordinate congruent to r mod N. The inverse comes from the extended
// euclidean algorithm in ecmath; a failure there means s is not a usable
// scalar and must surface to the caller rather than produce a wrong verdict.
func verifyEquation(data []byte, r, s *big.Int, publicKey *ecdsa.PublicKey) error {
	curve := crypto.S256()
	n := curve.Params().N

	w, err := ecmath.ModularInverse(s, n)
	if err != nil {
		return fmt.Errorf("inverting s: %w", err)
	}

	z := new(big.Int).SetBytes(data)
	u1 := ecmath.Modulo(new(big.Int).Mul(z, w), n)
	u2 := ecmath.Modulo(new(big.Int).Mul(r, w), n)

	x1, y1 := curve.ScalarBaseMult(u1.Bytes())
	x2, y2 := curve.ScalarMult(publicKey.X, publicKey.Y, u2.Bytes())
	x, y := curve.Add(x1, y1, x2, y2)

	if x.Sign() == 0 && y.Sign() == 0 {
		return errors.New("signature resolves to the point at infinity")
	}

	if ecmath.Modulo(x, n).Cmp(r) != 0 {
		return errors.New("invalid signature")
	}

	return nil
}

// stamp returns a hash of 32 bytes that represents this data with the chain
// stamp embedded into the final hash.
func stamp(value any) ([]byte, error) {

	// Marshal the data.
	v, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}

	// Hash the data into a 32 byte array. This will provide
	// a data length consistency with all data.
	txHash := crypto.Keccak256(v)

	// This stamp is used so signatures produced when signing data
	// are always unique to this blockchain.
	stamp := []byte("\x19Rblock Signed Message:\n32")

	// Hash the stamp and txHash together in a final 32 byte array
	// that represents the data.
	data := crypto.Keccak256(stamp, txHash)

	return data, nil
}

// toSignatureValues converts the signature into the r, s, v values.
func toSignatureValues(sig []byte) (v, r, s *big.Int) {
	r = new(big.Int).SetBytes(sig[:32])
	s = new(big.Int).SetBytes(sig[32:64])
	v = new(big.Int).SetBytes([]byte{sig[64] + rblockID})

	return v, r, s
}

// ToSignatureBytes converts the r, s, v values into a slice of bytes
// with the removal of the rblockID.
func ToSignatureBytes(v, r, s *big.Int) []byte {
	sig := make([]byte, crypto.SignatureLength)

	rBytes := r.Bytes()
	copy(sig[32-len(rBytes):32], rBytes)

	sBytes := s.Bytes()
	copy(sig[64-len(sBytes):64], sBytes)

	sig[64] = byte(v.Uint64() - rblockID)

	return sig
}

// ToSignatureBytesWithRblockID converts the r, s, v values into a slice of
// bytes keeping the chain id stamp.
func ToSignatureBytesWithRblockID(v, r, s *big.Int) []byte {
	sig := ToSignatureBytes(v, r, s)
	sig[64] = byte(v.Uint64())

	return sig
}
