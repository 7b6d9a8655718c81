package auth

import (
	"fmt"

	"github.com/dmitrijs2005/selfkeeper/internal/common"
	"github.com/ethereum/go-ethereum/accounts"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// RecoverAddress returns the account that produced a personal_sign
// signature over message. Wallets emit V as 27/28; both that and 0/1 are
// accepted.
func RecoverAddress(message string, signature string) (ethcommon.Address, error) {
	sig, err := hexutil.Decode(signature)
	if err != nil {
		return ethcommon.Address{}, fmt.Errorf("%w: %v", common.ErrSignatureMismatch, err)
	}
	if len(sig) != crypto.SignatureLength {
		return ethcommon.Address{}, fmt.Errorf("%w: signature must be %d bytes", common.ErrSignatureMismatch, crypto.SignatureLength)
	}
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}

	pub, err := crypto.SigToPub(accounts.TextHash([]byte(message)), sig)
	if err != nil {
		return ethcommon.Address{}, fmt.Errorf("%w: %v", common.ErrSignatureMismatch, err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}

// VerifySignature checks that signature over message was made by want.
func VerifySignature(message string, signature string, want ethcommon.Address) error {
	got, err := RecoverAddress(message, signature)
	if err != nil {
		return err
	}
	if got != want {
		return common.ErrSignatureMismatch
	}
	return nil
}
