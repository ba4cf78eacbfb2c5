package cli

import (
	"crypto/sha512"
	"fmt"

	"github.com/LeJamon/goAssetLock/internal/crypto"
	"github.com/spf13/cobra"
)

var keygenCmd = &cobra.Command{
	Use:   "keygen [passphrase]",
	Short: "Generate a signing key pair",
	Long: `Generate a secp256k1 key pair and print its address and keys.

With a passphrase the key is derived deterministically from it; otherwise
a random seed is used.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var seed []byte
		if len(args) == 1 {
			hash := sha512.Sum512([]byte(args[0]))
			seed = hash[:crypto.SeedSize]
		} else {
			var err error
			if seed, err = crypto.RandomSeed(); err != nil {
				return err
			}
		}

		keys := crypto.KeyPairFromSeed(seed)
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "address:     %s\n", keys.AccountID().Address())
		fmt.Fprintf(out, "public_key:  %s\n", keys.PublicKeyHex())
		fmt.Fprintf(out, "private_key: %s\n", keys.PrivateKeyHex())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(keygenCmd)
}
