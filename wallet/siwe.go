package wallet

import (
	"fmt"

	"github.com/pkg/errors"
)

// SiweMessage carries the parts of an EIP-4361 sign-in message the
// exchange's auth service verifies.
type SiweMessage struct {
	Domain         string
	URI            string
	Statement      string
	Address        string
	Nonce          string
	ChainID        string
	ExpirationTime string
}

// Prepare renders the message in the canonical EIP-4361 layout.
func (m SiweMessage) Prepare() string {
	msg := fmt.Sprintf(
		"%s wants you to sign in with your Ethereum account:\n%s\n\n%s\n\nURI: %s\nVersion: 1\nChain ID: %s\nNonce: %s",
		m.Domain, m.Address, m.Statement, m.URI, m.ChainID, m.Nonce,
	)
	if m.ExpirationTime != "" {
		msg += "\nExpiration Time: " + m.ExpirationTime
	}
	return msg
}

// SignedAuthMessage is the rendered sign-in message plus its signature.
type SignedAuthMessage struct {
	Message   string
	Signature string
}

// SignAuthMessage builds and signs the exchange sign-in message for the
// given nonce.
func (w *Wallet) SignAuthMessage(domain, uri, statement, nonce string) (SignedAuthMessage, error) {
	message := SiweMessage{
		Domain:    domain,
		URI:       uri,
		Statement: statement,
		Address:   w.address,
		Nonce:     nonce,
		ChainID:   w.chainID,
	}.Prepare()

	sig, err := w.SignMessage([]byte(message))
	if err != nil {
		return SignedAuthMessage{}, errors.Wrap(err, "sign auth message")
	}
	return SignedAuthMessage{Message: message, Signature: sig}, nil
}
