package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/LeJamon/goAssetLock/internal/core/types"
	"github.com/LeJamon/goAssetLock/internal/crypto"
	"github.com/LeJamon/goAssetLock/internal/rpc"
	"github.com/spf13/cobra"
)

// SecretEnv holds the signing key when --secret is not given.
const SecretEnv = "ASSETLOCKD_SECRET"

var secretKey string

func newClient() *rpc.Client {
	return rpc.NewClient(serverURL())
}

// signingKeys resolves the key pair used to sign submitted calls.
func signingKeys() (*crypto.KeyPair, error) {
	secret := secretKey
	if secret == "" {
		secret = os.Getenv(SecretEnv)
	}
	if secret == "" {
		return nil, errors.New("no signing key: pass --secret or set " + SecretEnv)
	}
	return crypto.KeyPairFromHex(secret)
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseAccount(arg, what string) (types.AccountID, error) {
	id, err := types.ParseAccountID(arg)
	if err != nil {
		return id, fmt.Errorf("invalid %s %q: %w", what, arg, err)
	}
	return id, nil
}

func parseNonce(arg string) (uint64, error) {
	n, err := strconv.ParseUint(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid nonce %q: %w", arg, err)
	}
	return n, nil
}

func parseAmount(arg string) (types.Amount, error) {
	a, err := types.ParseAmount(arg)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", arg, err)
	}
	return a, nil
}
