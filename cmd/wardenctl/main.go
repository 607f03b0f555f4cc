package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/cnl-ai/warden/pkg/version"
	"github.com/spf13/cobra"
)

const defaultEndpoint = "http://127.0.0.1:8485/rpc"

type rpcEnvelope struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      int         `json:"id"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
}

type rpcReply struct {
	Result json.RawMessage `json:"result"`
	Error  *struct {
		Code    int         `json:"code"`
		Message string      `json:"message"`
		Data    interface{} `json:"data"`
	} `json:"error"`
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "wardenctl",
		Short: "Control plane for the warden safety daemon",
	}

	rootCmd.PersistentFlags().String("server", defaultEndpoint, "daemon RPC endpoint")
	rootCmd.PersistentFlags().String("session", "cli", "safety session ID")
	rootCmd.PersistentFlags().String("tenant", "", "tenant (organization) ID")
	rootCmd.PersistentFlags().String("client", "", "client label for backup paths")

	rootCmd.AddCommand(
		classifyCmd(),
		requestCmd(),
		respondCmd(),
		backupCmd(),
		backupsCmd(),
		undoCmd(),
		dryrunCmd(),
		endCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func classifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify <operation>",
		Short: "Grade an operation's safety level",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opArgs, err := argsFlag(cmd)
			if err != nil {
				return err
			}
			return call(cmd, "warden.classify", map[string]any{
				"operation": args[0],
				"args":      opArgs,
			})
		},
	}
	cmd.Flags().String("args", "", "operation arguments as JSON")
	return cmd
}

func requestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "request <operation>",
		Short: "Raise a confirmation request for an operation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opArgs, err := argsFlag(cmd)
			if err != nil {
				return err
			}
			return call(cmd, "warden.confirm.request", map[string]any{
				"operation":  args[0],
				"args":       opArgs,
				"session_id": flagValue(cmd, "session"),
				"tenant_id":  flagValue(cmd, "tenant"),
				"client":     flagValue(cmd, "client"),
			})
		},
	}
	cmd.Flags().String("args", "", "operation arguments as JSON")
	return cmd
}

func respondCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "respond <request-id>",
		Short: "Answer a pending confirmation request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reject, _ := cmd.Flags().GetBool("reject")
			typed, _ := cmd.Flags().GetString("typed")
			return call(cmd, "warden.confirm.respond", map[string]any{
				"request_id":         args[0],
				"approved":           !reject,
				"typed_confirmation": typed,
			})
		},
	}
	cmd.Flags().Bool("reject", false, "reject instead of approving")
	cmd.Flags().String("typed", "", "typed confirmation phrase for dangerous operations")
	return cmd
}

func backupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup <operation>",
		Short: "Capture the pre-change backup an operation requires",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opArgs, err := argsFlag(cmd)
			if err != nil {
				return err
			}
			return call(cmd, "warden.backup.before", map[string]any{
				"operation":  args[0],
				"args":       opArgs,
				"session_id": flagValue(cmd, "session"),
				"tenant_id":  flagValue(cmd, "tenant"),
				"client":     flagValue(cmd, "client"),
			})
		},
	}
	cmd.Flags().String("args", "", "operation arguments as JSON")
	return cmd
}

func backupsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backups",
		Short: "List the session's retained backups, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return call(cmd, "warden.backups.list", map[string]any{
				"session_id": flagValue(cmd, "session"),
			})
		},
	}
}

func undoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "undo",
		Short: "Inspect or execute the session's undo slot",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "info",
			Short: "Describe what an undo would restore",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return call(cmd, "warden.undo.info", map[string]any{
					"session_id": flagValue(cmd, "session"),
				})
			},
		},
		&cobra.Command{
			Use:   "run",
			Short: "Restore the last operation from its backup",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return call(cmd, "warden.undo.execute", map[string]any{
					"session_id": flagValue(cmd, "session"),
					"tenant_id":  flagValue(cmd, "tenant"),
				})
			},
		},
	)
	return cmd
}

func dryrunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dryrun <operation>",
		Short: "Project an operation's impact without executing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opArgs, err := argsFlag(cmd)
			if err != nil {
				return err
			}
			return call(cmd, "warden.dryrun.execute", map[string]any{
				"operation": args[0],
				"args":      opArgs,
			})
		},
	}
	cmd.Flags().String("args", "", "operation arguments as JSON")

	cmd.AddCommand(&cobra.Command{
		Use:   "detect <message>",
		Short: "Check whether a message asks for a dry run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return call(cmd, "warden.dryrun.detect", map[string]any{
				"message": args[0],
			})
		},
	})
	return cmd
}

func endCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "end <session-id>",
		Short: "End a session, discarding its backups and pending requests",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return call(cmd, "warden.session.end", map[string]any{
				"session_id": args[0],
			})
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the wardenctl version",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Println(version.String())
		},
	}
}

func argsFlag(cmd *cobra.Command) (map[string]any, error) {
	raw, _ := cmd.Flags().GetString("args")
	if raw == "" {
		return nil, nil
	}
	var parsed map[string]any
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("parse --args: %w", err)
	}
	return parsed, nil
}

func flagValue(cmd *cobra.Command, name string) string {
	flag := cmd.Flag(name)
	if flag == nil {
		return ""
	}
	return flag.Value.String()
}

func call(cmd *cobra.Command, method string, params any) error {
	endpoint := flagValue(cmd, "server")
	result, err := callRPC(endpoint, method, params)
	if err != nil {
		return err
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, result, "", "  "); err != nil {
		fmt.Println(string(result))
		return nil
	}
	fmt.Println(pretty.String())
	return nil
}

func callRPC(endpoint, method string, params any) (json.RawMessage, error) {
	body, err := json.Marshal(rpcEnvelope{JSONRPC: "2.0", ID: 1, Method: method, Params: params})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpClient := &http.Client{Timeout: 30 * time.Second}
	resp, err := httpClient.Post(endpoint, "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("call daemon: %w", err)
	}
	defer resp.Body.Close()

	var reply rpcReply
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if reply.Error != nil {
		return nil, fmt.Errorf("%s (code %d): %v", reply.Error.Message, reply.Error.Code, reply.Error.Data)
	}
	return reply.Result, nil
}
