// Command cli is a small admin client for the minilake HTTP API: create and
// inspect tables, submit queries, and poll for their results or problems.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	serverURL string
	client    = &http.Client{Timeout: 30 * time.Second}
)

func main() {
	root := &cobra.Command{
		Use:   "minilake-cli",
		Short: "Admin client for the minilake tabular data service",
	}
	addServerFlag(root.PersistentFlags())

	root.AddCommand(tablesCmd(), queriesCmd(), systemCmd())
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func tablesCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "tables", Short: "Manage tables"}

	var columns []string
	create := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a table; columns as name:type pairs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cols := make([]map[string]string, 0, len(columns))
			for _, c := range columns {
				name, typ, ok := strings.Cut(c, ":")
				if !ok {
					return fmt.Errorf("column %q must be name:type", c)
				}
				cols = append(cols, map[string]string{"name": name, "type": strings.ToUpper(typ)})
			}
			return call(http.MethodPost, "/v1/tables", map[string]any{
				"name":    args[0],
				"columns": cols,
			})
		},
	}
	create.Flags().StringSliceVar(&columns, "column", nil, "column as name:type (repeatable)")
	if err := create.MarkFlagRequired("column"); err != nil {
		panic(err)
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return call(http.MethodGet, "/v1/tables", nil)
		},
	}
	get := &cobra.Command{
		Use:   "get <table-id>",
		Short: "Show a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return call(http.MethodGet, "/v1/tables/"+args[0], nil)
		},
	}
	del := &cobra.Command{
		Use:   "delete <table-id>",
		Short: "Delete a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return call(http.MethodDelete, "/v1/tables/"+args[0], nil)
		},
	}

	cmd.AddCommand(create, list, get, del)
	return cmd
}

func queriesCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "queries", Short: "Submit and inspect queries"}

	sel := &cobra.Command{
		Use:   "select <table-name>",
		Short: "Submit a select query",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return call(http.MethodPost, "/v1/queries", map[string]any{
				"queryDefinition": map[string]any{
					"select": map[string]any{"tableName": args[0]},
				},
			})
		},
	}

	var mapping []string
	var hasHeader bool
	cp := &cobra.Command{
		Use:   "copy <csv-path> <table-name>",
		Short: "Submit a copy query loading a CSV into a table",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			def := map[string]any{
				"sourceFilepath":       args[0],
				"destinationTableName": args[1],
				"doesCsvContainHeader": hasHeader,
			}
			if len(mapping) > 0 {
				def["destinationColumns"] = mapping
			}
			return call(http.MethodPost, "/v1/queries", map[string]any{
				"queryDefinition": map[string]any{"copy": def},
			})
		},
	}
	cp.Flags().StringSliceVar(&mapping, "map", nil, "destination column per CSV column, in order")
	cp.Flags().BoolVar(&hasHeader, "header", false, "skip the first CSV record as a header")

	list := &cobra.Command{
		Use:   "list",
		Short: "List queries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return call(http.MethodGet, "/v1/queries", nil)
		},
	}
	get := &cobra.Command{
		Use:   "get <query-id>",
		Short: "Show a query's status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return call(http.MethodGet, "/v1/queries/"+args[0], nil)
		},
	}

	var rowLimit int
	result := &cobra.Command{
		Use:   "result <query-id>",
		Short: "Fetch a completed query's result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/v1/queries/" + args[0] + "/result"
			if rowLimit >= 0 {
				path = fmt.Sprintf("%s?rowLimit=%d", path, rowLimit)
			}
			return call(http.MethodGet, path, nil)
		},
	}
	result.Flags().IntVar(&rowLimit, "row-limit", -1, "cap the rows returned")

	problems := &cobra.Command{
		Use:   "problems <query-id>",
		Short: "Fetch a failed query's problems",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return call(http.MethodGet, "/v1/queries/"+args[0]+"/problems", nil)
		},
	}

	cmd.AddCommand(sel, cp, list, get, result, problems)
	return cmd
}

func systemCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "system",
		Short: "Show server info",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return call(http.MethodGet, "/v1/system", nil)
		},
	}
}

// call performs the request and pretty-prints the JSON response. Non-2xx
// responses are printed and reported as an error so the exit code reflects
// failure.
func call(method, path string, body any) error {
	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		payload = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, serverURL+path, payload)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if len(data) > 0 {
		var pretty bytes.Buffer
		if json.Indent(&pretty, data, "", "  ") == nil {
			fmt.Println(pretty.String())
		} else {
			fmt.Println(string(data))
		}
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("%s %s: %s", method, path, resp.Status)
	}
	return nil
}

func addServerFlag(fs *pflag.FlagSet) {
	fs.StringVar(&serverURL, "server", "http://localhost:8080", "server base URL")
}
