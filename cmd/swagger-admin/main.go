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
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

// admin holds the global flags shared by every command
type admin struct {
	adapterURL   string
	adminKeyFile string
	verbose      bool
	out          io.Writer
	httpClient   *http.Client
}

func main() {
	if err := newRootCommand(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand(out io.Writer) *cobra.Command {
	a := &admin{
		out:        out,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}

	root := &cobra.Command{
		Use:          "swagger-admin",
		Short:        "Inspect and register the swagger schemas served by a swagger adapter",
		SilenceUsage: true,
	}
	root.SetOut(out)
	root.PersistentFlags().StringVar(&a.adapterURL, "adapter-url", "http://localhost:8080", "Swagger adapter URL")
	root.PersistentFlags().StringVar(&a.adminKeyFile, "admin-key-file", "", "Admin API key file for registration commands")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Verbose output")

	root.AddCommand(
		a.schemasCommand(),
		a.registerCommand(),
		a.registrationsCommand(),
		a.driftCommand(),
	)
	return root
}

// request calls the adapter and returns the response body. Admin requests
// carry the first key of the admin key file.
func (a *admin) request(method, endpoint string, body interface{}, adminRequest bool) ([]byte, int, error) {
	url := strings.TrimRight(a.adapterURL, "/") + endpoint

	if a.verbose {
		fmt.Fprintf(a.out, "Making %s request to: %s\n", method, url)
	}

	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonData)

		if a.verbose {
			fmt.Fprintf(a.out, "Request body: %s\n", string(jsonData))
		}
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if adminRequest && a.adminKeyFile != "" {
		key, err := readAdminKey(a.adminKeyFile)
		if err != nil {
			return nil, 0, err
		}
		req.Header.Set("X-Admin-Key", key)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}

	if a.verbose {
		fmt.Fprintf(a.out, "Response status: %d\n", resp.StatusCode)
	}

	if resp.StatusCode >= 400 {
		var errorResp struct {
			Error struct {
				Code    string `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		}
		if json.Unmarshal(respBody, &errorResp) == nil && errorResp.Error.Message != "" {
			return nil, resp.StatusCode, fmt.Errorf("API error (%d) %s: %s", resp.StatusCode, errorResp.Error.Code, errorResp.Error.Message)
		}
		return nil, resp.StatusCode, fmt.Errorf("API error (%d): %s", resp.StatusCode, string(respBody))
	}

	return respBody, resp.StatusCode, nil
}

func (a *admin) getJSON(endpoint string, adminRequest bool, v interface{}) error {
	body, _, err := a.request(http.MethodGet, endpoint, nil, adminRequest)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// readAdminKey returns the first key of an admin key file
func readAdminKey(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read admin key file: %w", err)
	}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "#") {
			return line, nil
		}
	}
	return "", fmt.Errorf("admin key file is empty")
}
