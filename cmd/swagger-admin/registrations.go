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
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/servicecomb-go/swagger-adapter/internal/storage"
	"github.com/servicecomb-go/swagger-adapter/internal/types"
)

type listRegistrationsResponse struct {
	Registrations []storage.Registration `json:"registrations"`
	Count         int                    `json:"count"`
}

type registrationStatsResponse struct {
	Stats          storage.RegistrationStats `json:"stats"`
	SchemasLoaded  int                       `json:"schemas_loaded"`
	Mode           string                    `json:"mode"`
	MicroserviceID string                    `json:"microservice_id"`
}

func (a *admin) registerCommand() *cobra.Command {
	var (
		microserviceID string
		wait           time.Duration
	)

	cmd := &cobra.Command{
		Use:   "register [schema-id...]",
		Short: "Register schemas with the service registry",
		Long:  "Register schemas with the service registry. Without schema ids every schema in the store is registered.",
		RunE: func(cmd *cobra.Command, args []string) error {
			schemaIDs := args
			if len(schemaIDs) == 0 {
				var list listSchemasResponse
				if err := a.getJSON("/v1/schemas", false, &list); err != nil {
					return fmt.Errorf("failed to list schemas: %w", err)
				}
				if len(list.SchemaIDs) == 0 {
					return fmt.Errorf("adapter has no schemas to register")
				}
				schemaIDs = list.SchemaIDs
			}

			req := types.RegisterRequest{
				MicroserviceID: microserviceID,
				SchemaIDs:      schemaIDs,
			}

			body, _, err := a.request(http.MethodPost, "/v1/admin/registrations", req, true)
			if err != nil {
				return fmt.Errorf("failed to register schemas: %w", err)
			}

			var resp types.RegisterResponse
			if err := json.Unmarshal(body, &resp); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			if !resp.Done && wait > 0 {
				polled, err := a.waitForTask(resp.TaskID, wait)
				if err != nil {
					return err
				}
				resp = *polled
			}

			a.printTask(&resp)
			if failed := countFailed(resp.Results); failed > 0 {
				return fmt.Errorf("%d schema(s) failed to register", failed)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&microserviceID, "microservice-id", "", "Microservice id owning the schemas")
	cmd.Flags().DurationVar(&wait, "wait", 0, "Poll an asynchronous registration until it finishes or the duration elapses")
	_ = cmd.MarkFlagRequired("microservice-id")
	return cmd
}

func (a *admin) registrationsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "registrations",
		Short: "Inspect the registration history",
	}

	var filter storage.RegistrationFilter
	list := &cobra.Command{
		Use:   "list",
		Short: "List registration attempts, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp listRegistrationsResponse
			if err := a.getJSON("/v1/admin/registrations"+filterQuery(filter), true, &resp); err != nil {
				return fmt.Errorf("failed to list registrations: %w", err)
			}

			fmt.Fprintf(a.out, "Found %d registration(s):\n\n", resp.Count)
			for _, r := range resp.Registrations {
				fmt.Fprintf(a.out, "  %s  %-10s %-8s %s/%s",
					r.Timestamp.Format(time.RFC3339), r.Status, r.Mode, r.MicroserviceID, r.SchemaID)
				if r.Error != "" {
					fmt.Fprintf(a.out, "  (%s)", r.Error)
				}
				fmt.Fprintln(a.out)
			}
			return nil
		},
	}
	list.Flags().StringVar(&filter.MicroserviceID, "microservice-id", "", "Filter by microservice id")
	list.Flags().StringVar(&filter.SchemaID, "schema-id", "", "Filter by schema id")
	list.Flags().StringVar(&filter.TaskID, "task-id", "", "Filter by task id")
	list.Flags().StringVar(&filter.Status, "status", "", "Filter by status (registered, failed)")
	list.Flags().IntVar(&filter.Limit, "limit", 0, "Maximum number of entries")

	stats := &cobra.Command{
		Use:   "stats",
		Short: "Show registration counters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp registrationStatsResponse
			if err := a.getJSON("/v1/admin/registrations/stats", true, &resp); err != nil {
				return fmt.Errorf("failed to get registration stats: %w", err)
			}

			fmt.Fprintf(a.out, "Microservice:   %s\n", valueOr(resp.MicroserviceID, "(not published)"))
			fmt.Fprintf(a.out, "Mode:           %s\n", resp.Mode)
			fmt.Fprintf(a.out, "Schemas loaded: %d\n", resp.SchemasLoaded)
			fmt.Fprintf(a.out, "Attempts:       %d\n", resp.Stats.Total)
			fmt.Fprintf(a.out, "  Registered:   %d\n", resp.Stats.Registered)
			fmt.Fprintf(a.out, "  Failed:       %d\n", resp.Stats.Failed)
			return nil
		},
	}

	get := &cobra.Command{
		Use:   "get <task-id>",
		Short: "Show one registration task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := a.getTask(args[0])
			if err != nil {
				return err
			}
			a.printTask(resp)
			return nil
		},
	}

	cmd.AddCommand(list, stats, get)
	return cmd
}

func (a *admin) getTask(taskID string) (*types.RegisterResponse, error) {
	var resp types.RegisterResponse
	if err := a.getJSON("/v1/admin/registrations/"+url.PathEscape(taskID), true, &resp); err != nil {
		return nil, fmt.Errorf("failed to get registration task: %w", err)
	}
	return &resp, nil
}

func (a *admin) waitForTask(taskID string, timeout time.Duration) (*types.RegisterResponse, error) {
	deadline := time.Now().Add(timeout)
	for {
		resp, err := a.getTask(taskID)
		if err != nil {
			return nil, err
		}
		if resp.Done || time.Now().After(deadline) {
			return resp, nil
		}
		time.Sleep(pollInterval)
	}
}

var pollInterval = 500 * time.Millisecond

func (a *admin) printTask(resp *types.RegisterResponse) {
	state := "running"
	if resp.Done {
		state = "done"
	}
	fmt.Fprintf(a.out, "Task %s (%s, %s) for %s\n", resp.TaskID, resp.Mode, state, resp.MicroserviceID)
	for _, r := range resp.Results {
		line := fmt.Sprintf("  %-10s %s", r.Status, r.SchemaID)
		if r.Error != "" {
			line += ": " + r.Error
		}
		fmt.Fprintln(a.out, line)
	}
}

func countFailed(results []types.RegistrationResult) int {
	n := 0
	for _, r := range results {
		if r.Status == storage.StatusFailed {
			n++
		}
	}
	return n
}

func filterQuery(f storage.RegistrationFilter) string {
	q := url.Values{}
	if f.MicroserviceID != "" {
		q.Set("microservice_id", f.MicroserviceID)
	}
	if f.SchemaID != "" {
		q.Set("schema_id", f.SchemaID)
	}
	if f.TaskID != "" {
		q.Set("task_id", f.TaskID)
	}
	if f.Status != "" {
		q.Set("status", f.Status)
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
