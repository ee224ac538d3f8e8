package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/philipparndt/gobim/internal/views"
	"github.com/spf13/cobra"
)

var viewsDB string

var viewsCmd = &cobra.Command{
	Use:   "views",
	Short: "Manage saved views",
}

var viewsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved views",
	Args:  cobra.NoArgs,
	Run:   runViewsList,
}

var viewsShowCmd = &cobra.Command{
	Use:   "show [name]",
	Short: "Show the object flags stored in a view",
	Args:  cobra.ExactArgs(1),
	Run:   runViewsShow,
}

var viewsDeleteCmd = &cobra.Command{
	Use:   "delete [name]",
	Short: "Delete a saved view",
	Args:  cobra.ExactArgs(1),
	Run:   runViewsDelete,
}

func init() {
	rootCmd.AddCommand(viewsCmd)
	viewsCmd.PersistentFlags().StringVar(&viewsDB, "db", "", "saved views database (default $GOBIM_VIEWS_DB)")
	viewsCmd.AddCommand(viewsListCmd, viewsShowCmd, viewsDeleteCmd)
}

func openViews() *views.Store {
	cfg, _ := setup()
	if viewsDB != "" {
		cfg.ViewsDB = viewsDB
	}
	store, err := views.Open(cfg.ViewsDB)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening views database: %v\n", err)
		os.Exit(1)
	}
	return store
}

func runViewsList(cmd *cobra.Command, args []string) {
	store := openViews()
	defer store.Close()

	list, err := store.List(cmd.Context())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error listing views: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Saved Views")
	fmt.Println("===========")
	if len(list) == 0 {
		fmt.Println("  (none)")
		return
	}
	for _, v := range list {
		fmt.Printf("  %-20s %-24s %3d objects  updated %s\n",
			v.Name, v.Snapshot.Mode, len(v.Snapshot.Objects), v.UpdatedAt.Format("2006-01-02 15:04"))
	}
}

func runViewsShow(cmd *cobra.Command, args []string) {
	store := openViews()
	defer store.Close()

	v, err := store.Get(cmd.Context(), args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading view: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("View %s (%s)\n", v.Name, v.ID)
	fmt.Printf("Mode: %s\n", v.Snapshot.Mode)
	fmt.Printf("Selection: %v\n\n", v.Snapshot.Selection)

	ids := make([]string, 0, len(v.Snapshot.Objects))
	for id := range v.Snapshot.Objects {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		fmt.Printf("  %-20s %s\n", id, formatState(v.Snapshot.Objects[id]))
	}
}

func runViewsDelete(cmd *cobra.Command, args []string) {
	store := openViews()
	defer store.Close()

	if err := store.Delete(cmd.Context(), args[0]); err != nil {
		fmt.Fprintf(os.Stderr, "Error deleting view: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Deleted view %s\n", args[0])
}
