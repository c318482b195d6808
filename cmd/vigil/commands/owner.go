package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/teranos/vigil/db"
	"github.com/teranos/vigil/errors"
)

// OwnerCmd groups owner identity subcommands
var OwnerCmd = &cobra.Command{
	Use:   "owner",
	Short: "Manage the owner chat that receives messages",
	Long: `Manage the Telegram chat that proactive messages are sent to.

The owner chat id is stored in the database, not the config file, so it
survives config rewrites. Message any Telegram bot like @userinfobot to
find your numeric chat id.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var ownerSetCmd = &cobra.Command{
	Use:   "set <chat_id>",
	Short: "Set the owner chat id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		chatID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return errors.NewInvalidRequestError("chat id must be an integer, got %q", args[0])
		}

		database, err := openDatabase()
		if err != nil {
			return err
		}
		defer database.Close()

		if err := db.NewSettings(database).Set(db.SettingOwnerChatID, strconv.FormatInt(chatID, 10)); err != nil {
			return err
		}
		fmt.Printf("Owner chat id set to %d\n", chatID)
		return nil
	},
}

var ownerShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the owner chat id",
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := openDatabase()
		if err != nil {
			return err
		}
		defer database.Close()

		value, err := db.NewSettings(database).Get(db.SettingOwnerChatID)
		if err != nil {
			if errors.IsNotFoundError(err) {
				fmt.Println("No owner configured (run: vigil owner set <chat_id>)")
				return nil
			}
			return err
		}
		fmt.Printf("Owner chat id: %s\n", value)
		return nil
	},
}

func init() {
	OwnerCmd.AddCommand(ownerSetCmd)
	OwnerCmd.AddCommand(ownerShowCmd)
}
