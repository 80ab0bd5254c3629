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
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/servicecomb-go/swagger-adapter/internal/config"
	"github.com/servicecomb-go/swagger-adapter/internal/registry"
)

// Drift kinds
const (
	DriftMissing = "missing" // built locally, not in the registry
	DriftChanged = "changed" // summaries differ
	DriftExtra   = "extra"   // in the registry, not built locally
)

// Drift is one schema whose local and registered summaries disagree
type Drift struct {
	SchemaID string
	Kind     string
	Local    string
	Remote   string
}

// diffSummaries compares the adapter's summaries with the registry's and
// returns the differences sorted by schema id
func diffSummaries(local map[string]string, remote []registry.SchemaSummary) []Drift {
	remoteByID := make(map[string]string, len(remote))
	for _, s := range remote {
		remoteByID[s.SchemaID] = s.Summary
	}

	var drifts []Drift
	for id, summary := range local {
		remoteSummary, ok := remoteByID[id]
		switch {
		case !ok:
			drifts = append(drifts, Drift{SchemaID: id, Kind: DriftMissing, Local: summary})
		case remoteSummary != summary:
			drifts = append(drifts, Drift{SchemaID: id, Kind: DriftChanged, Local: summary, Remote: remoteSummary})
		}
	}
	for id, summary := range remoteByID {
		if _, ok := local[id]; !ok {
			drifts = append(drifts, Drift{SchemaID: id, Kind: DriftExtra, Remote: summary})
		}
	}

	sort.Slice(drifts, func(i, j int) bool { return drifts[i].SchemaID < drifts[j].SchemaID })
	return drifts
}

func (a *admin) driftCommand() *cobra.Command {
	var (
		microserviceID string
		registryCfg    config.RegistryConfig
	)

	cmd := &cobra.Command{
		Use:   "drift",
		Short: "Compare the adapter's schema summaries with the service registry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if microserviceID == "" {
				var stats registrationStatsResponse
				if err := a.getJSON("/v1/admin/registrations/stats", true, &stats); err != nil {
					return fmt.Errorf("failed to resolve microservice id: %w", err)
				}
				if stats.MicroserviceID == "" {
					return fmt.Errorf("adapter has not published a microservice, pass --microservice-id")
				}
				microserviceID = stats.MicroserviceID
			}

			var local schemaSummariesResponse
			if err := a.getJSON("/v1/schemas/summaries", false, &local); err != nil {
				return fmt.Errorf("failed to get summaries: %w", err)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), registryTimeout(registryCfg))
			defer cancel()

			remote, err := registry.NewHTTPClient(registryCfg).ListSchemas(ctx, microserviceID)
			if err != nil {
				return fmt.Errorf("failed to list registered schemas: %w", err)
			}

			drifts := diffSummaries(local.Summaries, remote)
			if len(drifts) == 0 {
				fmt.Fprintf(a.out, "No drift: %d schema(s) match for %s\n", len(local.Summaries), microserviceID)
				return nil
			}

			fmt.Fprintf(a.out, "Found %d drifted schema(s) for %s:\n\n", len(drifts), microserviceID)
			for _, d := range drifts {
				fmt.Fprintf(a.out, "  %-8s %s\n", d.Kind, d.SchemaID)
				if a.verbose {
					fmt.Fprintf(a.out, "           local=%s remote=%s\n", valueOr(d.Local, "-"), valueOr(d.Remote, "-"))
				}
			}
			return fmt.Errorf("%d schema(s) drifted", len(drifts))
		},
	}
	cmd.Flags().StringVar(&microserviceID, "microservice-id", "", "Microservice id (defaults to the one the adapter published)")
	cmd.Flags().StringVar(&registryCfg.Address, "registry-url", "http://localhost:30100", "Service registry URL")
	cmd.Flags().StringVar(&registryCfg.Project, "project", "default", "Registry project")
	cmd.Flags().StringVar(&registryCfg.Domain, "domain", "default", "Registry domain")
	cmd.Flags().StringVar(&registryCfg.AuthToken, "registry-token", "", "Registry bearer token")
	cmd.Flags().DurationVar(&registryCfg.Timeout, "registry-timeout", 10*time.Second, "Registry request timeout")
	return cmd
}

func registryTimeout(cfg config.RegistryConfig) time.Duration {
	if cfg.Timeout <= 0 {
		return 10 * time.Second
	}
	return cfg.Timeout
}
