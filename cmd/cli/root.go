package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ValentinKolb/respkv/cmd/util"
	"github.com/ValentinKolb/respkv/rpc/client"
	"github.com/ValentinKolb/respkv/rpc/server"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/mattn/go-isatty"
	"github.com/peterh/liner"
	"github.com/spf13/cobra"
)

const (
	historyFileEnv     = "RESPKV_HISTFILE"
	historyFileDefault = ".respkv_history"
)

var (
	Logger = logger.GetLogger("cli")

	// CliCmd starts the interactive shell
	CliCmd = &cobra.Command{
		Use:   "cli",
		Short: "Interactive shell for a respkv server",
		Long: `Starts an interactive shell connected to a respkv server.

Commands are entered like in redis-cli, arguments with spaces can be quoted
("hello world"). A leading number repeats a command (e.g. "3 INCR counter").
Type "quit" or "exit" to leave. If stdin is not a terminal, one command per
line is read from stdin and the replies are printed.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return util.BindCommandFlags(cmd)
		},
		RunE: run,
	}
)

func init() {
	cobra.OnInitialize(util.InitConfig)
	util.SetupRPCClientFlags(CliCmd)
}

func run(_ *cobra.Command, _ []string) error {
	c, err := util.NewClient()
	if err != nil {
		return err
	}
	defer c.Close()

	if isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd()) {
		return repl(c)
	}
	return pipe(c, os.Stdin, os.Stdout)
}

// repl runs the interactive shell with line editing and history
func repl(c *client.Client) error {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)
	line.SetCompleter(complete)

	historyFile := historyPath()
	if historyFile != "" {
		if f, err := os.Open(historyFile); err == nil {
			_, _ = line.ReadHistory(f)
			_ = f.Close()
		}
	}
	defer func() {
		if historyFile == "" {
			return
		}
		f, err := os.Create(historyFile)
		if err != nil {
			Logger.Warningf("failed to write history file %s: %v", historyFile, err)
			return
		}
		defer f.Close()
		_, _ = line.WriteHistory(f)
	}()

	prompt := fmt.Sprintf("%s> ", strings.Join(util.GetClientConfig().Transport.Endpoints, ","))
	for {
		input, err := line.Prompt(prompt)
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		if strings.TrimSpace(input) == "" {
			continue
		}
		line.AppendHistory(input)

		if quit, err := execute(c, input, os.Stdout); err != nil {
			return err
		} else if quit {
			return nil
		}
	}
}

// pipe executes one command per line of r
func pipe(c *client.Client, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 512*1024*1024)
	for scanner.Scan() {
		if quit, err := execute(c, scanner.Text(), w); err != nil {
			return err
		} else if quit {
			return nil
		}
	}
	return scanner.Err()
}

// execute runs one input line. It reports whether the shell should exit.
// Error replies are printed, transport errors are returned.
func execute(c *client.Client, input string, w io.Writer) (bool, error) {
	args, err := SplitArgs(input)
	if err != nil {
		_, _ = fmt.Fprintf(w, "Invalid argument(s): %v\n", err)
		return false, nil
	}
	if len(args) == 0 {
		return false, nil
	}

	// check if we have a repeat command option and need to skip the first arg
	repeat := 1
	if n, err := strconv.Atoi(args[0]); err == nil && len(args) > 1 {
		if n <= 0 {
			_, _ = fmt.Fprintln(w, "Invalid repeat command option value.")
			return false, nil
		}
		repeat = n
		args = args[1:]
	}

	if strings.EqualFold(args[0], "quit") || strings.EqualFold(args[0], "exit") {
		return true, nil
	}

	for i := 0; i < repeat; i++ {
		ctx, cancel := util.RequestContext()
		reply, err := c.Do(ctx, args...)
		cancel()
		if err := util.PrintReply(w, reply, err); err != nil {
			return false, err
		}
	}
	return false, nil
}

// complete suggests command names for the first word of the line
func complete(line string) []string {
	if strings.ContainsAny(line, " \t") {
		return nil
	}
	var out []string
	lower := strings.ToLower(line)
	for _, name := range server.CommandNames() {
		if strings.HasPrefix(name, lower) {
			if line != lower {
				name = strings.ToUpper(name)
			}
			out = append(out, name)
		}
	}
	return out
}

// historyPath returns the history file from RESPKV_HISTFILE or ~/.respkv_history.
// An empty RESPKV_HISTFILE (or "/dev/null") disables the history file.
func historyPath() string {
	if path, ok := os.LookupEnv(historyFileEnv); ok {
		if path == "/dev/null" {
			return ""
		}
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, historyFileDefault)
}
