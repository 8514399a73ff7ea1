package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rizki/eskala/pkg/board"
)

var (
	boardName        string
	boardDescription string
	boardID          string
	listID           string
	cardDue          string
	searchQuery      string
)

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Manage the local board store",
	Long: `Inspect and maintain the sqlite board store the assistant operates on.
Useful when reviewing what an escalated conversation was actually
trying to change.`,
}

var boardCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a board",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withBoardStore(func(store *board.Store) (interface{}, error) {
			return store.CreateBoard(boardName, boardDescription)
		}, cmd)
	},
}

var boardListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all boards",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withBoardStore(func(store *board.Store) (interface{}, error) {
			return store.Boards()
		}, cmd)
	},
}

var boardAddListCmd = &cobra.Command{
	Use:   "add-list",
	Short: "Add a list to a board",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withBoardStore(func(store *board.Store) (interface{}, error) {
			return store.CreateList(boardID, boardName)
		}, cmd)
	},
}

var boardAddCardCmd = &cobra.Command{
	Use:   "add-card",
	Short: "Add a card to a list",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withBoardStore(func(store *board.Store) (interface{}, error) {
			var due *time.Time
			if cardDue != "" {
				parsed, err := time.Parse(time.RFC3339, cardDue)
				if err != nil {
					return nil, fmt.Errorf("invalid due date: %w", err)
				}
				due = &parsed
			}
			return store.CreateCard(listID, boardName, boardDescription, due)
		}, cmd)
	},
}

var boardCardsCmd = &cobra.Command{
	Use:   "cards",
	Short: "Show the cards on a list",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withBoardStore(func(store *board.Store) (interface{}, error) {
			return store.Cards(listID)
		}, cmd)
	},
}

var boardSearchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search cards across all boards",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withBoardStore(func(store *board.Store) (interface{}, error) {
			return store.SearchCards(searchQuery)
		}, cmd)
	},
}

func init() {
	boardCreateCmd.Flags().StringVar(&boardName, "name", "", "board name")
	boardCreateCmd.Flags().StringVar(&boardDescription, "description", "", "board description")
	_ = boardCreateCmd.MarkFlagRequired("name")

	boardAddListCmd.Flags().StringVar(&boardID, "board", "", "board id")
	boardAddListCmd.Flags().StringVar(&boardName, "name", "", "list name")
	_ = boardAddListCmd.MarkFlagRequired("board")
	_ = boardAddListCmd.MarkFlagRequired("name")

	boardAddCardCmd.Flags().StringVar(&listID, "list", "", "list id")
	boardAddCardCmd.Flags().StringVar(&boardName, "name", "", "card name")
	boardAddCardCmd.Flags().StringVar(&boardDescription, "description", "", "card description")
	boardAddCardCmd.Flags().StringVar(&cardDue, "due", "", "due date (RFC 3339)")
	_ = boardAddCardCmd.MarkFlagRequired("list")
	_ = boardAddCardCmd.MarkFlagRequired("name")

	boardCardsCmd.Flags().StringVar(&listID, "list", "", "list id")
	_ = boardCardsCmd.MarkFlagRequired("list")

	boardSearchCmd.Flags().StringVar(&searchQuery, "query", "", "search text")
	_ = boardSearchCmd.MarkFlagRequired("query")

	boardCmd.AddCommand(boardCreateCmd, boardListCmd, boardAddListCmd, boardAddCardCmd, boardCardsCmd, boardSearchCmd)
	rootCmd.AddCommand(boardCmd)
}

func withBoardStore(fn func(*board.Store) (interface{}, error), cmd *cobra.Command) error {
	cfg, logger, err := loadConfigAndLogger()
	if err != nil {
		return err
	}

	store, err := board.NewStore(cfg.Storage.BoardDB, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	result, err := fn(store)
	if err != nil {
		return err
	}

	output, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to render result: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(output))
	return nil
}
