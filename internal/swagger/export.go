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

package swagger

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-openapi/spec"
	"gopkg.in/yaml.v3"
)

// ToJSON serializes a swagger object to JSON
func ToJSON(sw *spec.Swagger) ([]byte, error) {
	if sw == nil {
		return nil, fmt.Errorf("swagger object is nil")
	}
	return json.Marshal(sw)
}

// ToYAML serializes a swagger object to YAML. Key order follows the JSON
// form, so identical objects always produce identical text.
func ToYAML(sw *spec.Swagger) (string, error) {
	data, err := ToJSON(sw)
	if err != nil {
		return "", err
	}
	return JSONToYAML(data)
}

// JSONToYAML re-encodes a JSON document as block style YAML
func JSONToYAML(data []byte) (string, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return "", fmt.Errorf("failed to decode json document: %w", err)
	}
	plain(&node)

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&node); err != nil {
		return "", fmt.Errorf("failed to encode yaml document: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("failed to encode yaml document: %w", err)
	}
	return buf.String(), nil
}

// plain drops the flow and quoting styles the JSON parser attached. Tags are
// kept, so strings such as "2.0" stay quoted on output. Strings a YAML 1.1
// parser would read as a bool, null or number are double quoted.
func plain(node *yaml.Node) {
	node.Style = 0
	if node.Kind == yaml.ScalarNode && node.Tag == "!!str" && isYAML11Special(node.Value) {
		node.Style = yaml.DoubleQuotedStyle
	}
	for _, child := range node.Content {
		plain(child)
	}
}

var yaml11Words = map[string]bool{
	"y": true, "Y": true, "yes": true, "Yes": true, "YES": true,
	"n": true, "N": true, "no": true, "No": true, "NO": true,
	"true": true, "True": true, "TRUE": true,
	"false": true, "False": true, "FALSE": true,
	"on": true, "On": true, "ON": true,
	"off": true, "Off": true, "OFF": true,
	"~": true, "null": true, "Null": true, "NULL": true, "": true,
	".inf": true, ".Inf": true, ".INF": true,
	"+.inf": true, "+.Inf": true, "+.INF": true,
	"-.inf": true, "-.Inf": true, "-.INF": true,
	".nan": true, ".NaN": true, ".NAN": true,
}

// YAML 1.1 int and float forms: binary, octal, hex, sexagesimal and
// underscore separated digits
var yaml11Number = regexp.MustCompile(`^(?:` +
	`[-+]?0b[01_]+` +
	`|[-+]?0x[0-9a-fA-F_]+` +
	`|[-+]?[0-9][0-9_]*(?::[0-5]?[0-9])+(?:\.[0-9_]*)?` +
	`|[-+]?(?:[0-9][0-9_]*)?\.?[0-9_]*(?:[eE][-+]?[0-9]+)?` +
	`)$`)

func isYAML11Special(s string) bool {
	if yaml11Words[s] {
		return true
	}
	return s != "." && s != "_" && strings.ContainsAny(s, "0123456789") && yaml11Number.MatchString(s)
}

// Summary returns the lowercase hex SHA-256 of the UTF-8 content
func Summary(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
