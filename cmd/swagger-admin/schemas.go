/*
 * Copyright 2025 Cong Wang
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
)

type listSchemasResponse struct {
	SchemaIDs []string `json:"schema_ids"`
	Count     int      `json:"count"`
	Mode      string   `json:"mode"`
}

type schemaContentsResponse struct {
	Schemas map[string]string `json:"schemas"`
}

type schemaSummariesResponse struct {
	Summaries map[string]string `json:"summaries"`
}

func (a *admin) schemasCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schemas",
		Short: "Read the schemas built by the adapter",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List schema ids",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp listSchemasResponse
			if err := a.getJSON("/v1/schemas", false, &resp); err != nil {
				return fmt.Errorf("failed to list schemas: %w", err)
			}
			fmt.Fprintf(a.out, "Found %d schema(s), %s registration:\n\n", resp.Count, resp.Mode)
			for _, id := range resp.SchemaIDs {
				fmt.Fprintf(a.out, "  %s\n", id)
			}
			return nil
		},
	}

	var format string
	get := &cobra.Command{
		Use:   "get <schema-id>",
		Short: "Print one schema",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			endpoint := "/v1/schemas/" + url.PathEscape(args[0]) + "?format=" + url.QueryEscape(format)
			body, _, err := a.request(http.MethodGet, endpoint, nil, false)
			if err != nil {
				return fmt.Errorf("failed to get schema: %w", err)
			}
			fmt.Fprintln(a.out, string(body))
			return nil
		},
	}
	get.Flags().StringVar(&format, "format", "yaml", "Output format: yaml or json")

	summaries := &cobra.Command{
		Use:   "summaries",
		Short: "Print the SHA-256 summary of every schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp schemaSummariesResponse
			if err := a.getJSON("/v1/schemas/summaries", false, &resp); err != nil {
				return fmt.Errorf("failed to get summaries: %w", err)
			}
			for _, id := range sortedKeys(resp.Summaries) {
				fmt.Fprintf(a.out, "%s  %s\n", resp.Summaries[id], id)
			}
			return nil
		},
	}

	var dir string
	export := &cobra.Command{
		Use:   "export",
		Short: "Write every schema to <dir>/<schema-id>.yaml",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp schemaContentsResponse
			if err := a.getJSON("/v1/schemas/contents", false, &resp); err != nil {
				return fmt.Errorf("failed to export schemas: %w", err)
			}
			written, err := exportSchemas(dir, resp.Schemas)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Exported %d schema(s) to %s\n", written, dir)
			return nil
		},
	}
	export.Flags().StringVar(&dir, "dir", ".", "Output directory")

	cmd.AddCommand(list, get, summaries, export)
	return cmd
}

// exportSchemas writes each non-empty schema to dir. Schemas the adapter
// failed to serialize come back empty and are skipped.
func exportSchemas(dir string, schemas map[string]string) (int, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", dir, err)
	}

	written := 0
	for _, id := range sortedKeys(schemas) {
		content := schemas[id]
		if content == "" {
			continue
		}
		path := filepath.Join(dir, filepath.Base(id)+".yaml")
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			return written, fmt.Errorf("failed to write %s: %w", path, err)
		}
		written++
	}
	return written, nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
