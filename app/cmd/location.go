package cmd

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"go.lsp.dev/protocol"
)

// location is a cursor given on the command line as FILE:LINE[:COL], with
// 1-based line and column.
type location struct {
	path string
	pos  protocol.Position
}

func parseLocation(arg, root string) (location, error) {
	parts := strings.Split(arg, ":")
	if len(parts) < 2 {
		return location{}, fmt.Errorf("location %q must be FILE:LINE[:COL]", arg)
	}
	col := 1
	numbers := parts[len(parts)-1:]
	if len(parts) >= 3 {
		if _, err := strconv.Atoi(parts[len(parts)-2]); err == nil {
			numbers = parts[len(parts)-2:]
		}
	}
	path := strings.Join(parts[:len(parts)-len(numbers)], ":")
	if path == "" {
		return location{}, fmt.Errorf("location %q has no file", arg)
	}
	line, err := strconv.Atoi(numbers[0])
	if err != nil || line < 1 {
		return location{}, fmt.Errorf("location %q: line must be a positive number", arg)
	}
	if len(numbers) == 2 {
		col, err = strconv.Atoi(numbers[1])
		if err != nil || col < 1 {
			return location{}, fmt.Errorf("location %q: column must be a positive number", arg)
		}
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(root, path)
	}
	return location{
		path: filepath.Clean(path),
		pos:  protocol.Position{Line: uint32(line - 1), Character: uint32(col - 1)},
	}, nil
}
