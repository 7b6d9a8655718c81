package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/selfkeeper/internal/caip"
)

const signInStatement = "Sign in to selfkeeper to edit your basic profile."

// SignInMessage is an EIP-4361 (Sign-In with Ethereum) message.
type SignInMessage struct {
	Domain         string
	Account        caip.AccountID
	URI            string
	Nonce          string
	IssuedAt       time.Time
	ExpirationTime time.Time
}

// NewSignInMessage builds the message the wallet is asked to sign.
func NewSignInMessage(domain string, account caip.AccountID, nonce string, issuedAt time.Time, ttl time.Duration) SignInMessage {
	return SignInMessage{
		Domain:         domain,
		Account:        account,
		URI:            "selfkeeper://" + domain,
		Nonce:          nonce,
		IssuedAt:       issuedAt.UTC(),
		ExpirationTime: issuedAt.UTC().Add(ttl),
	}
}

func (m SignInMessage) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s wants you to sign in with your Ethereum account:\n", m.Domain)
	fmt.Fprintf(&b, "%s\n\n", m.Account.Address.Hex())
	fmt.Fprintf(&b, "%s\n\n", signInStatement)
	fmt.Fprintf(&b, "URI: %s\n", m.URI)
	b.WriteString("Version: 1\n")
	fmt.Fprintf(&b, "Chain ID: %d\n", m.Account.ChainID)
	fmt.Fprintf(&b, "Nonce: %s\n", m.Nonce)
	fmt.Fprintf(&b, "Issued At: %s\n", m.IssuedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "Expiration Time: %s", m.ExpirationTime.Format(time.RFC3339))
	return b.String()
}
