// stanzactl is a CLI client for the stanza backend REST API. It works on any
// registered collection; records are read and written as raw JSON.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/stanza-hq/stanza-backend/pkg/client"
)

var (
	apiFlag   string
	tokenFlag string
	rootCmd   = &cobra.Command{
		Use:   "stanzactl",
		Short: "CLI client for the stanza backend REST API",
	}
)

func newResource(collection string) *client.Resource[map[string]any] {
	opts := []client.Option{}
	if tokenFlag != "" {
		opts = append(opts, client.WithToken(tokenFlag))
	}
	c := client.New(apiFlag, opts...)
	return client.NewResource[map[string]any](c, collection)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	rootCmd.PersistentFlags().StringVarP(&apiFlag, "api", "a", "http://localhost:8080", "Backend service base URL")
	rootCmd.PersistentFlags().StringVarP(&tokenFlag, "token", "t", "", "Bearer token")

	listCmd := &cobra.Command{
		Use:   "list <collection>",
		Short: "List records with optional search, sort and pagination",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			search, _ := cmd.Flags().GetString("search")
			sortBy, _ := cmd.Flags().GetString("sort-by")
			desc, _ := cmd.Flags().GetBool("desc")
			opts := client.ListOptions{Search: search, SortBy: sortBy, SortDesc: desc}
			if cmd.Flags().Changed("page") {
				page, _ := cmd.Flags().GetInt("page")
				opts.Page = &page
			}
			if cmd.Flags().Changed("page-size") {
				size, _ := cmd.Flags().GetInt("page-size")
				opts.PageSize = &size
			}
			res, err := newResource(args[0]).List(context.Background(), opts)
			if err != nil {
				return err
			}
			return printJSON(os.Stdout, res)
		},
	}
	listCmd.Flags().String("search", "", "Free-text search term")
	listCmd.Flags().String("sort-by", "", "Property to sort by")
	listCmd.Flags().Bool("desc", false, "Sort descending")
	listCmd.Flags().Int("page", 0, "Zero-based page number")
	listCmd.Flags().Int("page-size", 0, "Page size")
	rootCmd.AddCommand(listCmd)

	getCmd := &cobra.Command{
		Use:   "get <collection> <id>",
		Short: "Fetch one record by id",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			item, err := newResource(args[0]).Get(context.Background(), args[1])
			if err != nil {
				return err
			}
			return printJSON(os.Stdout, item)
		},
	}
	rootCmd.AddCommand(getCmd)

	findCmd := &cobra.Command{
		Use:   "find <collection> <filter>",
		Short: "Query records with a filter expression",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := newResource(args[0]).Find(context.Background(), args[1])
			if err != nil {
				return err
			}
			return printJSON(os.Stdout, res)
		},
	}
	rootCmd.AddCommand(findCmd)

	existsCmd := &cobra.Command{
		Use:   "exists <collection> <property> <value>",
		Short: "Check whether a record with the given property value exists",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			found, err := newResource(args[0]).Exists(context.Background(), args[1], args[2])
			if err != nil {
				return err
			}
			fmt.Println(found)
			return nil
		},
	}
	rootCmd.AddCommand(existsCmd)

	createCmd := &cobra.Command{
		Use:   "create <collection>",
		Short: "Create a record from JSON on stdin or --data",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			item, err := readPayload(cmd)
			if err != nil {
				return err
			}
			created, err := newResource(args[0]).Create(context.Background(), &item)
			if err != nil {
				return err
			}
			return printJSON(os.Stdout, created)
		},
	}
	createCmd.Flags().StringP("data", "d", "", "Record JSON (reads stdin when omitted)")
	rootCmd.AddCommand(createCmd)

	updateCmd := &cobra.Command{
		Use:   "update <collection> <id>",
		Short: "Replace a record from JSON on stdin or --data",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			item, err := readPayload(cmd)
			if err != nil {
				return err
			}
			return newResource(args[0]).Update(context.Background(), args[1], &item)
		},
	}
	updateCmd.Flags().StringP("data", "d", "", "Record JSON (reads stdin when omitted)")
	rootCmd.AddCommand(updateCmd)

	deleteCmd := &cobra.Command{
		Use:   "delete <collection> <id>",
		Short: "Delete a record, soft or hard",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var soft *bool
			if cmd.Flags().Changed("soft") {
				v, _ := cmd.Flags().GetBool("soft")
				soft = &v
			}
			return newResource(args[0]).Delete(context.Background(), args[1], soft)
		},
	}
	deleteCmd.Flags().Bool("soft", false, "Force soft (true) or hard (false) delete; default follows the type")
	rootCmd.AddCommand(deleteCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func readPayload(cmd *cobra.Command) (map[string]any, error) {
	data, _ := cmd.Flags().GetString("data")
	raw := []byte(data)
	if data == "" {
		var err error
		raw, err = io.ReadAll(os.Stdin)
		if err != nil {
			return nil, err
		}
	}
	var item map[string]any
	if err := json.Unmarshal(raw, &item); err != nil {
		return nil, fmt.Errorf("invalid JSON payload: %w", err)
	}
	return item, nil
}
