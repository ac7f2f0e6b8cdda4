package cmd

import (
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/lexcodex/lsptree/hierarchy"
)

var errNotLocal = errors.New("target is not a local file")

// commandOpener runs open_command with {path}, {line} and {col} substituted.
// An empty command leaves the target to the caller.
type commandOpener struct {
	argv []string
}

func (o commandOpener) OpenCommand(target hierarchy.Target) (*exec.Cmd, error) {
	if len(o.argv) == 0 {
		return nil, nil
	}
	path, ok := target.Filename()
	if !ok {
		return nil, fmt.Errorf("open %s: %w", target.URI, errNotLocal)
	}
	replacer := strings.NewReplacer(
		"{path}", path,
		"{line}", strconv.Itoa(int(target.Position.Line)+1),
		"{col}", strconv.Itoa(int(target.Position.Character)+1),
	)
	args := make([]string, len(o.argv))
	for i, arg := range o.argv {
		args[i] = replacer.Replace(arg)
	}
	return exec.Command(args[0], args[1:]...), nil
}
