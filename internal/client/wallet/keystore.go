package wallet

import (
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/dmitrijs2005/selfkeeper/internal/common"
	"github.com/dmitrijs2005/selfkeeper/internal/cryptox"
	"github.com/dmitrijs2005/selfkeeper/internal/filex"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/tyler-smith/go-bip39"
)

// KeystoreName is the provider option name of the local wallet.
const KeystoreName = "keystore"

const (
	keystoreVersion = 1
	entropyBits     = 128
	keyInfo         = "selfkeeper/wallet/secp256k1/0"
)

var (
	ErrKeystoreExists   = errors.New("keystore already exists")
	ErrInvalidMnemonic  = errors.New("invalid mnemonic")
	ErrKeystoreNotFound = errors.New("keystore not found")
)

// keystoreFile is the on-disk keystore: the address in the clear and the
// mnemonic sealed under the passphrase.
type keystoreFile struct {
	Version  int               `json:"version"`
	Address  string            `json:"address"`
	Mnemonic *cryptox.Envelope `json:"mnemonic"`
}

// CreateKeystore generates a new mnemonic and stores it at path. The mnemonic
// is returned once so the user can back it up.
func CreateKeystore(path string, passphrase []byte) (string, ethcommon.Address, error) {
	entropy, err := bip39.NewEntropy(entropyBits)
	if err != nil {
		return "", ethcommon.Address{}, fmt.Errorf("entropy: %w", err)
	}
	defer common.WipeByteArray(entropy)

	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", ethcommon.Address{}, fmt.Errorf("mnemonic: %w", err)
	}

	addr, err := ImportKeystore(path, mnemonic, passphrase)
	if err != nil {
		return "", ethcommon.Address{}, err
	}
	return mnemonic, addr, nil
}

// ImportKeystore stores an existing mnemonic at path. An existing keystore is
// never overwritten.
func ImportKeystore(path, mnemonic string, passphrase []byte) (ethcommon.Address, error) {
	if filex.Exists(path) {
		return ethcommon.Address{}, fmt.Errorf("%w: %s", ErrKeystoreExists, path)
	}

	key, err := DeriveKey(mnemonic)
	if err != nil {
		return ethcommon.Address{}, err
	}
	addr := crypto.PubkeyToAddress(key.PublicKey)

	env, err := cryptox.Seal([]byte(mnemonic), passphrase)
	if err != nil {
		return ethcommon.Address{}, fmt.Errorf("seal mnemonic: %w", err)
	}

	data, err := json.MarshalIndent(keystoreFile{
		Version:  keystoreVersion,
		Address:  addr.Hex(),
		Mnemonic: env,
	}, "", "  ")
	if err != nil {
		return ethcommon.Address{}, err
	}

	if err := filex.WriteFileAtomic(path, data, 0o600); err != nil {
		return ethcommon.Address{}, err
	}
	return addr, nil
}

// OpenKeystore unseals the keystore at path and derives its key.
// A wrong passphrase yields cryptox.ErrDecrypt.
func OpenKeystore(path string, passphrase []byte) (*ecdsa.PrivateKey, error) {
	ks, err := readKeystore(path)
	if err != nil {
		return nil, err
	}

	mnemonic, err := cryptox.Open(ks.Mnemonic, passphrase)
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(mnemonic)

	key, err := DeriveKey(string(mnemonic))
	if err != nil {
		return nil, err
	}
	if crypto.PubkeyToAddress(key.PublicKey) != ethcommon.HexToAddress(ks.Address) {
		return nil, fmt.Errorf("keystore %s: address does not match mnemonic", path)
	}
	return key, nil
}

// KeystoreAddress reads the address of the keystore at path without unsealing it.
func KeystoreAddress(path string) (ethcommon.Address, error) {
	ks, err := readKeystore(path)
	if err != nil {
		return ethcommon.Address{}, err
	}
	return ethcommon.HexToAddress(ks.Address), nil
}

func readKeystore(path string) (*keystoreFile, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrKeystoreNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("read keystore: %w", err)
	}

	var ks keystoreFile
	if err := json.Unmarshal(data, &ks); err != nil {
		return nil, fmt.Errorf("decode keystore: %w", err)
	}
	if ks.Version != keystoreVersion {
		return nil, fmt.Errorf("unsupported keystore version: %d", ks.Version)
	}
	if !ethcommon.IsHexAddress(ks.Address) {
		return nil, fmt.Errorf("keystore %s: bad address %q", path, ks.Address)
	}
	return &ks, nil
}

// DeriveKey turns a BIP-39 mnemonic into the wallet's secp256k1 key.
func DeriveKey(mnemonic string) (*ecdsa.PrivateKey, error) {
	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, "")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMnemonic, err)
	}
	defer common.WipeByteArray(seed)

	raw, err := cryptox.Expand(seed, keyInfo, 32)
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(raw)

	return crypto.ToECDSA(raw)
}

// KeystoreOption registers the keystore at path as a selectable wallet.
// The passphrase is asked for when the wallet is opened.
func KeystoreOption(path string, chainID uint64, passphrase func(ctx context.Context) ([]byte, error), approve Approver) ProviderOption {
	display := "Local keystore"
	if addr, err := KeystoreAddress(path); err == nil {
		display = fmt.Sprintf("Local keystore (%s)", addr.Hex())
	}

	return ProviderOption{
		Display: display,
		Open: func(ctx context.Context) (RawProvider, error) {
			pass, err := passphrase(ctx)
			if err != nil {
				return nil, err
			}
			defer common.WipeByteArray(pass)

			key, err := OpenKeystore(path, pass)
			if err != nil {
				return nil, err
			}
			return NewLocalProvider(key, chainID, approve), nil
		},
	}
}
