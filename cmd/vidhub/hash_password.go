package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nerrad567/vidhub-core/internal/auth"
)

// NewHashPasswordCmd creates the hash-password subcommand.
// It reads one line from stdin and prints its Argon2id hash, for seeding
// accounts by hand.
func NewHashPasswordCmd() *cobra.Command {
	params := auth.DefaultPasswordParams()

	cmd := &cobra.Command{
		Use:   "hash-password",
		Short: "Hash a password read from stdin",
		Long:  `Read a password from the first line of stdin and print its Argon2id PHC string.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && line == "" {
				return fmt.Errorf("reading password: %w", err)
			}
			password := strings.TrimRight(line, "\r\n")
			if password == "" {
				return errors.New("password must not be empty")
			}

			hash, err := auth.NewPasswordHasher(params).Hash(password)
			if err != nil {
				return fmt.Errorf("hashing password: %w", err)
			}
			cmd.Println(hash)
			return nil
		},
	}

	cmd.Flags().Uint32Var(&params.Time, "time", params.Time, "Argon2id iterations")
	cmd.Flags().Uint32Var(&params.MemoryKiB, "memory", params.MemoryKiB, "Argon2id memory in KiB")
	cmd.Flags().Uint8Var(&params.Threads, "threads", params.Threads, "Argon2id parallelism")

	return cmd
}
