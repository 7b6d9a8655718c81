// Package caip names Ethereum accounts the way the identity layer does:
// CAIP-10 account ids (eip155:<chain id>:<address>) and did:pkh DIDs.
package caip

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

const (
	Namespace = "eip155"
	DIDPrefix = "did:pkh:"
)

var (
	ErrInvalidAccountID = errors.New("invalid account id")
	ErrUnknownNetwork   = errors.New("unknown network")
)

// AccountID is a blockchain account scoped to a chain.
type AccountID struct {
	ChainID uint64
	Address common.Address
}

func NewAccountID(chainID uint64, addr common.Address) AccountID {
	return AccountID{ChainID: chainID, Address: addr}
}

// String renders eip155:<chain id>:<checksummed address>.
func (a AccountID) String() string {
	return fmt.Sprintf("%s:%d:%s", Namespace, a.ChainID, a.Address.Hex())
}

// DID renders the did:pkh identifier controlled by this account.
func (a AccountID) DID() string {
	return DIDPrefix + a.String()
}

// ParseAccountID parses a CAIP-10 eip155 account id. Address case is not
// checked, so a lower-case and a checksummed address name the same account.
func ParseAccountID(s string) (AccountID, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 || parts[0] != Namespace {
		return AccountID{}, fmt.Errorf("%w: %q", ErrInvalidAccountID, s)
	}

	chainID, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil || chainID == 0 {
		return AccountID{}, fmt.Errorf("%w: bad chain id %q", ErrInvalidAccountID, parts[1])
	}

	if !common.IsHexAddress(parts[2]) || !strings.HasPrefix(parts[2], "0x") {
		return AccountID{}, fmt.Errorf("%w: bad address %q", ErrInvalidAccountID, parts[2])
	}

	return AccountID{ChainID: chainID, Address: common.HexToAddress(parts[2])}, nil
}

// ParseDID parses a did:pkh:eip155 DID back into its account.
func ParseDID(did string) (AccountID, error) {
	if !strings.HasPrefix(did, DIDPrefix) {
		return AccountID{}, fmt.Errorf("%w: not a did:pkh %q", ErrInvalidAccountID, did)
	}
	return ParseAccountID(strings.TrimPrefix(did, DIDPrefix))
}

var networks = map[string]uint64{
	"mainnet": 1,
	"goerli":  5,
	"sepolia": 11155111,
}

// ChainID resolves a network name to its chain id.
func ChainID(network string) (uint64, error) {
	id, ok := networks[strings.ToLower(network)]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownNetwork, network)
	}
	return id, nil
}

// NetworkName is the reverse of ChainID; unknown chains render as their number.
func NetworkName(chainID uint64) string {
	for name, id := range networks {
		if id == chainID {
			return name
		}
	}
	return strconv.FormatUint(chainID, 10)
}
