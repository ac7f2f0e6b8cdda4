package lspconn

import (
	"context"
	"errors"
	"io"
	"os/exec"
	"path/filepath"

	"go.lsp.dev/protocol"
	"go.uber.org/zap"
	"go.uber.org/zap/zapio"
)

// ProcessConfig defines how to spin up a language server process.
type ProcessConfig struct {
	Command    string
	Args       []string
	RootDir    string
	LanguageID string
}

// Process is a Conn backed by a child language server speaking over stdio.
type Process struct {
	*Conn

	cfg    ProcessConfig
	cmd    *exec.Cmd
	cancel context.CancelFunc
	stderr io.WriteCloser
}

// StartProcess launches the configured server and performs the LSP handshake.
func StartProcess(ctx context.Context, cfg ProcessConfig, opts ...Option) (*Process, error) {
	if cfg.Command == "" {
		return nil, errors.New("command is required for language server")
	}
	if cfg.LanguageID == "" {
		return nil, errors.New("language id is required for language server")
	}
	root := cfg.RootDir
	if root == "" {
		root = "."
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	cfg.RootDir = absRoot

	procCtx, cancel := context.WithCancel(context.Background())
	cmd := exec.CommandContext(procCtx, cfg.Command, cfg.Args...)
	cmd.Dir = absRoot

	stdin, err := cmd.StdinPipe()
	if err != nil {
		cancel()
		return nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, err
	}

	p := &Process{cfg: cfg, cmd: cmd, cancel: cancel}
	p.Conn = NewConn(procCtx, &stdioReadWriteCloser{reader: stdout, writer: stdin}, opts...)

	stderrLog := &zapio.Writer{
		Log:   p.logger.With(zap.String("server", cfg.Command)),
		Level: zap.DebugLevel,
	}
	cmd.Stderr = stderrLog
	p.stderr = stderrLog

	if err := cmd.Start(); err != nil {
		cancel()
		return nil, err
	}
	p.logger.Info("language server started",
		zap.String("command", cfg.Command),
		zap.Strings("args", cfg.Args),
		zap.Int("pid", cmd.Process.Pid),
	)

	if err := p.Initialize(ctx, absRoot); err != nil {
		cancel()
		_ = cmd.Wait()
		return nil, err
	}
	return p, nil
}

// LanguageID returns the language the server was started for.
func (p *Process) LanguageID() string { return p.cfg.LanguageID }

// Open sends didOpen for path using the server's language id.
func (p *Process) Open(ctx context.Context, path string) (protocol.DocumentURI, error) {
	return p.OpenDocument(ctx, path, p.cfg.LanguageID)
}

// Close shuts the server down and terminates the process.
func (p *Process) Close(ctx context.Context) error {
	if p == nil {
		return nil
	}
	err := p.Shutdown(ctx)
	p.cancel()
	if p.cmd != nil && p.cmd.Process != nil {
		_ = p.cmd.Wait()
	}
	if p.stderr != nil {
		_ = p.stderr.Close()
	}
	return err
}

type stdioReadWriteCloser struct {
	reader io.ReadCloser
	writer io.WriteCloser
}

func (s *stdioReadWriteCloser) Read(p []byte) (int, error)  { return s.reader.Read(p) }
func (s *stdioReadWriteCloser) Write(p []byte) (int, error) { return s.writer.Write(p) }
func (s *stdioReadWriteCloser) Close() error {
	_ = s.reader.Close()
	return s.writer.Close()
}
