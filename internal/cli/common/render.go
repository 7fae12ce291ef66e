package common

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/crmarques/vaultapi/vault"
)

// RenderSecret writes a two-column Key/Value table. Lease fields come first,
// then token fields when the response issued a token, then data keys sorted.
func RenderSecret(w io.Writer, secret *vault.Secret) error {
	table := tabwriter.NewWriter(w, 0, 4, 4, ' ', 0)
	row := func(key string, value any) {
		_, _ = fmt.Fprintf(table, "%s\t%s\n", key, formatCell(value))
	}

	row("Key", "Value")
	row("---", "-----")
	if secret.LeaseID != "" {
		row("lease_id", secret.LeaseID)
	}
	if secret.LeaseDuration > 0 {
		row("lease_duration", secret.LeaseDuration)
		row("lease_renewable", secret.Renewable)
	}
	if auth := secret.Auth; auth != nil {
		row("token", auth.ClientToken)
		row("token_accessor", auth.Accessor)
		row("token_duration", auth.LeaseDuration)
		row("token_renewable", auth.Renewable)
		row("token_policies", auth.TokenPolicies)
		row("policies", auth.Policies)
		for _, key := range sortedKeys(auth.Metadata) {
			row("token_meta_"+key, auth.Metadata[key])
		}
	}
	for _, key := range sortedKeys(secret.Data) {
		row(key, secret.Data[key])
	}

	if err := table.Flush(); err != nil {
		return err
	}
	for _, warning := range secret.Warnings {
		if _, err := fmt.Fprintf(w, "WARNING: %s\n", warning); err != nil {
			return err
		}
	}
	return nil
}

// RenderList writes the keys of a list response one per line.
func RenderList(w io.Writer, secret *vault.Secret) error {
	keys, _ := secret.Data["keys"].([]any)
	for _, key := range keys {
		if _, err := fmt.Fprintln(w, formatCell(key)); err != nil {
			return err
		}
	}
	return nil
}

func formatCell(value any) string {
	switch typed := value.(type) {
	case nil:
		return "n/a"
	case string:
		return typed
	case []string:
		return "[" + strings.Join(typed, " ") + "]"
	case json.Number, bool, int:
		return fmt.Sprint(typed)
	default:
		encoded, err := json.Marshal(typed)
		if err != nil {
			return fmt.Sprint(typed)
		}
		return string(encoded)
	}
}

func sortedKeys[V any](values map[string]V) []string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
