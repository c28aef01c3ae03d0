package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// dotEnvEntry is one assignment of a dotenv file, in file order.
type dotEnvEntry struct {
	Key   string
	Value string
}

// loadDotEnv applies the assignments of a dotenv file to the process
// environment. A missing file is not an error. Variables already set in the
// environment win over the file.
func loadDotEnv(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	defer f.Close()

	entries, err := parseDotEnv(f)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	for _, e := range entries {
		if os.Getenv(e.Key) != "" {
			continue
		}
		if err := os.Setenv(e.Key, e.Value); err != nil {
			return fmt.Errorf("%s: set %s: %w", path, e.Key, err)
		}
	}
	return nil
}

// parseDotEnv reads KEY=VALUE lines. Blank lines and # comments are skipped
// and an "export " prefix is allowed. Single-quoted values are literal.
// Double-quoted values understand \n, \t, \" and \\ escapes. Unquoted values
// end at " #". Unquoted and double-quoted values expand ${KEY} and $KEY
// from earlier lines of the file, then from the environment.
func parseDotEnv(r io.Reader) ([]dotEnvEntry, error) {
	var entries []dotEnvEntry
	seen := make(map[string]string)
	lookup := func(key string) string {
		if v, ok := seen[key]; ok {
			return v
		}
		return os.Getenv(key)
	}

	sc := bufio.NewScanner(r)
	for n := 1; sc.Scan(); n++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimSpace(strings.TrimPrefix(line, "export "))

		k, v, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("line %d: missing '=' in %q", n, line)
		}
		k = strings.TrimSpace(k)
		if k == "" || strings.ContainsAny(k, " \t") {
			return nil, fmt.Errorf("line %d: invalid key %q", n, k)
		}

		value, err := dotEnvValue(strings.TrimSpace(v), lookup)
		if err != nil {
			return nil, fmt.Errorf("line %d: %s: %w", n, k, err)
		}
		seen[k] = value
		entries = append(entries, dotEnvEntry{Key: k, Value: value})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func dotEnvValue(v string, lookup func(string) string) (string, error) {
	if v == "" {
		return "", nil
	}
	switch v[0] {
	case '\'':
		end := strings.LastIndexByte(v, '\'')
		if end == 0 {
			return "", errors.New("unterminated single quote")
		}
		return v[1:end], nil
	case '"':
		end := strings.LastIndexByte(v, '"')
		if end == 0 {
			return "", errors.New("unterminated double quote")
		}
		return os.Expand(unescape(v[1:end]), lookup), nil
	}
	if i := strings.Index(v, " #"); i >= 0 {
		v = strings.TrimSpace(v[:i])
	}
	return os.Expand(v, lookup), nil
}

var dotEnvEscapes = strings.NewReplacer(`\n`, "\n", `\t`, "\t", `\"`, `"`, `\\`, `\`)

func unescape(s string) string {
	return dotEnvEscapes.Replace(s)
}
