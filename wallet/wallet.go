// Package wallet holds the secp256k1 signing capability: SIWE
// authentication messages and matcher payload signatures. The exchange
// verifies every order against the account's wallet address, so payload
// field order here must match the matcher's digest layout exactly.
package wallet

import (
	"crypto/ecdsa"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
)

// Wallet signs on behalf of one private key.
type Wallet struct {
	key     *ecdsa.PrivateKey
	address string
	chainID string
}

// New creates a wallet from a hex-encoded private key (0x prefix optional)
// and the chain id the exchange settles on.
func New(privateKeyHex, chainID string) (*Wallet, error) {
	key := strings.TrimPrefix(strings.TrimPrefix(privateKeyHex, "0x"), "0X")

	priv, err := crypto.HexToECDSA(key)
	if err != nil {
		return nil, errors.Wrap(err, "parse private key")
	}

	return &Wallet{
		key:     priv,
		address: crypto.PubkeyToAddress(priv.PublicKey).Hex(),
		chainID: chainID,
	}, nil
}

// Address returns the checksummed wallet address.
func (w *Wallet) Address() string { return w.address }

// ChainID returns the configured chain id.
func (w *Wallet) ChainID() string { return w.chainID }

// SignMessage signs msg with the EIP-191 personal-message prefix and
// returns the 65-byte signature hex-encoded, V normalized to 27/28.
func (w *Wallet) SignMessage(msg []byte) (string, error) {
	sig, err := crypto.Sign(accounts.TextHash(msg), w.key)
	if err != nil {
		return "", errors.Wrap(err, "sign message")
	}
	sig[64] += 27
	return hexutil.Encode(sig), nil
}

// SignDigest signs an arbitrary 32-byte digest as a personal message,
// which is how the matcher expects payload digests to be signed.
func (w *Wallet) SignDigest(digest []byte) (string, error) {
	return w.SignMessage(digest)
}
