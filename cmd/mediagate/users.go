package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"mediagate/config"
	"mediagate/credentials"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage gateway users",
	Long: `Manage the YAML users file the login route verifies against.

The file location comes from auth.users.file in the configuration, or
the --users-file flag.`,
}

var usersAddCmd = &cobra.Command{
	Use:   "add <username>",
	Short: "Add or update a user",
	Long: `Add a user to the users file.

You will be prompted for the password; only its bcrypt hash is stored.
The file is created if it does not exist.

Examples:
  # Add a user
  mediagate users add alice --users-file users.yaml

  # Update an existing user's password
  mediagate users add alice --users-file users.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runUsersAdd,
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List users",
	RunE:  runUsersList,
}

func init() {
	usersCmd.AddCommand(usersAddCmd)
	usersCmd.AddCommand(usersListCmd)
	rootCmd.AddCommand(usersCmd)
}

// usersFilePath resolves the configured users file.
func usersFilePath(cmd *cobra.Command) (string, error) {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return "", err
	}
	if cfg.Auth.Users.File == "" {
		return "", errors.New("no users file configured (set auth.users.file or pass --users-file)")
	}
	return cfg.Auth.Users.File, nil
}

func runUsersAdd(cmd *cobra.Command, args []string) error {
	username := args[0]

	path, err := usersFilePath(cmd)
	if err != nil {
		return err
	}

	entries, err := credentials.ReadUsersFile(path)
	if err != nil {
		return err
	}

	// Check if the user already exists
	existing := -1
	for i, e := range entries {
		if e.Username == username {
			existing = i
			break
		}
	}

	if existing >= 0 {
		prompt := promptui.Prompt{
			Label:     fmt.Sprintf("User '%s' already exists. Update the password", username),
			IsConfirm: true,
		}
		if _, promptErr := prompt.Run(); promptErr != nil {
			fmt.Println("Cancelled.")
			return nil //nolint:nilerr // User cancelled, not an error
		}
	}

	passwordPrompt := promptui.Prompt{
		Label: "Password",
		Mask:  '*',
		Validate: func(input string) error {
			if input == "" {
				return errors.New("password is required")
			}
			return nil
		},
	}
	password, err := passwordPrompt.Run()
	if err != nil {
		return handlePromptError(err)
	}

	repeatPrompt := promptui.Prompt{
		Label: "Repeat password",
		Mask:  '*',
	}
	repeat, err := repeatPrompt.Run()
	if err != nil {
		return handlePromptError(err)
	}
	if repeat != password {
		return errors.New("passwords do not match")
	}

	hash, err := credentials.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	entry := credentials.UserEntry{Username: username, PasswordHash: hash}
	if existing >= 0 {
		entries[existing] = entry
	} else {
		entries = append(entries, entry)
	}

	if err := credentials.WriteUsersFile(path, entries); err != nil {
		return err
	}

	if existing >= 0 {
		fmt.Printf("User '%s' updated.\n", username)
	} else {
		fmt.Printf("User '%s' added.\n", username)
	}
	return nil
}

func runUsersList(cmd *cobra.Command, args []string) error {
	path, err := usersFilePath(cmd)
	if err != nil {
		return err
	}

	entries, err := credentials.ReadUsersFile(path)
	if err != nil {
		return err
	}

	if len(entries) == 0 {
		fmt.Println("No users configured.")
		fmt.Println("Run 'mediagate users add <username>' to create one.")
		return nil
	}

	for _, e := range entries {
		fmt.Println(e.Username)
	}
	return nil
}

// handlePromptError handles promptui errors.
func handlePromptError(err error) error {
	if errors.Is(err, promptui.ErrInterrupt) {
		fmt.Println("\nCancelled.")
		os.Exit(0)
	}
	if errors.Is(err, promptui.ErrAbort) {
		fmt.Println("Cancelled.")
		return nil
	}
	return err
}
