package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mikelcalvo/erp-admin/internal/entity"
	"github.com/mikelcalvo/erp-admin/internal/resource"
)

// lookupEntity resolves an entity name given on the command line.
func lookupEntity(name string) (*resource.Schema, error) {
	s, ok := entity.Lookup(strings.ToLower(name))
	if !ok {
		return nil, fmt.Errorf("unknown entity %q (one of: %s)", name, strings.Join(entity.Names(), ", "))
	}
	return s, nil
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return id, nil
}

// parseAssignments turns key=value arguments into field values, parsed
// the same way the console parses form input. An empty value clears the
// field.
func parseAssignments(s *resource.Schema, args []string) (resource.Record, error) {
	out := resource.Record{}
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("expected field=value, got %q", arg)
		}
		f, found := s.Field(key)
		if !found {
			return nil, fmt.Errorf("unknown field %q for %s", key, s.Name)
		}
		if f.ReadOnly {
			return nil, fmt.Errorf("field %q is read-only", key)
		}
		v, err := f.Parse(value)
		if err != nil {
			return nil, err
		}
		out[key] = v
	}
	return out, nil
}

// parseFilters reads --filter field=value flags.
func parseFilters(s *resource.Schema, filters []string) (map[string]string, error) {
	out := map[string]string{}
	for _, f := range filters {
		key, value, ok := strings.Cut(f, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("expected field=value, got %q", f)
		}
		key = strings.TrimSpace(key)
		if _, found := s.Field(key); !found {
			return nil, fmt.Errorf("unknown field %q for %s", key, s.Name)
		}
		out[key] = value
	}
	return out, nil
}

// confirm asks a yes/no question on in. Anything but y or yes is a no.
func confirm(in io.Reader, out io.Writer, prompt string) bool {
	fmt.Fprintf(out, "%s%s%s [y/N]: ", Yellow, prompt, Reset)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		fmt.Fprintln(out)
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}
