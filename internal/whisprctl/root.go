// Package whisprctl implements the command tree of the whisprctl
// binary, a thin client for the whisprd HTTP API.
package whisprctl

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/b2tsrl/openwhispr/pkg/types"
)

// Execute runs the whisprctl command tree against args.
func Execute(args []string) error {
	root := buildRootCmd()
	root.SetArgs(args)
	return root.Execute()
}

// buildRootCmd constructs the Cobra command tree.
func buildRootCmd() *cobra.Command {
	var (
		addr    string
		timeout time.Duration
		asJSON  bool
	)
	root := &cobra.Command{
		Use:           "whisprctl",
		Short:         "Control a running whisprd daemon",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	defaultAddr := os.Getenv("OPENWHISPR_ADDR")
	if defaultAddr == "" {
		defaultAddr = "127.0.0.1:8484"
	}
	root.PersistentFlags().StringVar(&addr, "addr", defaultAddr, "Daemon address (defaults OPENWHISPR_ADDR or 127.0.0.1:8484)")
	root.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Minute, "Per-request timeout")
	root.PersistentFlags().BoolVar(&asJSON, "json", false, "Print raw JSON responses")

	client := func() *Client { return NewClient(addr, timeout) }
	printJSON := func(cmd *cobra.Command, v any) error {
		b, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(b))
		return nil
	}

	statusCmd := &cobra.Command{Use: "status", Short: "Show the managed server's status", RunE: func(cmd *cobra.Command, args []string) error {
		st, err := client().Status(cmd.Context())
		if err != nil {
			return err
		}
		if asJSON {
			return printJSON(cmd, st)
		}
		printStatus(cmd, st)
		return nil
	}}

	var (
		useGPU   bool
		language string
		threads  int
	)
	startCmd := &cobra.Command{Use: "start <model-path>", Short: "Start (or replace) the managed whisper server", Example: "  whisprctl start ~/.openwhispr/models/ggml-base.en.bin --gpu", Args: cobra.ExactArgs(1), RunE: func(cmd *cobra.Command, args []string) error {
		st, err := client().Start(cmd.Context(), types.StartRequest{
			ModelPath: args[0],
			UseGPU:    useGPU,
			Language:  language,
			Threads:   threads,
		})
		if err != nil {
			return err
		}
		if asJSON {
			return printJSON(cmd, st)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "started: state=%s pid=%d port=%d variant=%s\n", st.State, st.PID, st.Port, st.Variant)
		if st.AccelFallback {
			fmt.Fprintln(cmd.OutOrStdout(), "note: accelerated binary unavailable, running on CPU")
		}
		return nil
	}}
	startCmd.Flags().BoolVar(&useGPU, "gpu", false, "Request the GPU-accelerated server variant")
	startCmd.Flags().StringVar(&language, "language", "", "Default language hint (ISO 639-1 or auto)")
	startCmd.Flags().IntVar(&threads, "threads", 0, "Inference threads (0 = server default)")

	stopCmd := &cobra.Command{Use: "stop", Short: "Stop the managed whisper server", RunE: func(cmd *cobra.Command, args []string) error {
		st, err := client().Stop(cmd.Context())
		if err != nil {
			return err
		}
		if asJSON {
			return printJSON(cmd, st)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "stopped: state=%s\n", st.State)
		return nil
	}}

	modelsCmd := &cobra.Command{Use: "models", Short: "List model files the daemon can serve", RunE: func(cmd *cobra.Command, args []string) error {
		models, err := client().Models(cmd.Context())
		if err != nil {
			return err
		}
		if asJSON {
			return printJSON(cmd, models)
		}
		if len(models) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no models found")
			return nil
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tSIZE\tPATH")
		for _, m := range models {
			fmt.Fprintf(tw, "%s\t%d MB\t%s\n", m.ID, m.SizeMB, m.Path)
		}
		return tw.Flush()
	}}

	var historyLimit int
	historyCmd := &cobra.Command{Use: "history", Short: "List recent transcriptions", RunE: func(cmd *cobra.Command, args []string) error {
		entries, err := client().History(cmd.Context(), historyLimit)
		if err != nil {
			return err
		}
		if asJSON {
			return printJSON(cmd, entries)
		}
		if len(entries) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no history")
			return nil
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "WHEN\tTOOK\tTEXT")
		for _, e := range entries {
			fmt.Fprintf(tw, "%s\t%dms\t%s\n",
				time.Unix(e.CreatedAtUnix, 0).Format("2006-01-02 15:04:05"),
				e.TookMS, snippet(e.Text, 60))
		}
		return tw.Flush()
	}}
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum entries to show")

	var (
		trLanguage string
		trPrompt   string
	)
	transcribeCmd := &cobra.Command{Use: "transcribe <audio-file>", Short: "Transcribe an audio file via the daemon", Example: "  whisprctl transcribe note.wav --language en", Args: cobra.ExactArgs(1), RunE: func(cmd *cobra.Command, args []string) error {
		tr, err := client().Transcribe(cmd.Context(), args[0], trLanguage, trPrompt)
		if err != nil {
			return err
		}
		if asJSON {
			return printJSON(cmd, tr)
		}
		fmt.Fprintln(cmd.OutOrStdout(), tr.Text)
		return nil
	}}
	transcribeCmd.Flags().StringVar(&trLanguage, "language", "", "Language hint (ISO 639-1 or auto)")
	transcribeCmd.Flags().StringVar(&trPrompt, "prompt", "", "Decoding prompt to bias vocabulary")

	invalidateCmd := &cobra.Command{Use: "invalidate-binaries", Short: "Drop the daemon's cached accelerated-binary path", RunE: func(cmd *cobra.Command, args []string) error {
		if err := client().InvalidateBinaries(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "invalidated")
		return nil
	}}

	root.AddCommand(statusCmd, startCmd, stopCmd, modelsCmd, historyCmd, transcribeCmd, invalidateCmd)

	completionCmd := &cobra.Command{Use: "completion", Short: "Generate the autocompletion script for the specified shell"}
	completionCmd.AddCommand(&cobra.Command{Use: "bash", Short: "Bash completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenBashCompletion(os.Stdout) }})
	completionCmd.AddCommand(&cobra.Command{Use: "zsh", Short: "Zsh completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenZshCompletion(os.Stdout) }})
	completionCmd.AddCommand(&cobra.Command{Use: "fish", Short: "Fish completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenFishCompletion(os.Stdout, true) }})
	completionCmd.AddCommand(&cobra.Command{Use: "powershell", Short: "PowerShell completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenPowerShellCompletionWithDesc(os.Stdout) }})
	root.AddCommand(completionCmd)

	return root
}

func printStatus(cmd *cobra.Command, st types.StatusResponse) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "state:        %s\n", st.State)
	if st.PID != 0 {
		fmt.Fprintf(out, "pid:          %d\n", st.PID)
		fmt.Fprintf(out, "port:         %d\n", st.Port)
		fmt.Fprintf(out, "model:        %s\n", st.ModelPath)
		fmt.Fprintf(out, "variant:      %s", st.Variant)
		if st.AccelFallback {
			fmt.Fprint(out, " (fell back from GPU)")
		}
		fmt.Fprintln(out)
		fmt.Fprintf(out, "convert:      %v\n", st.CanConvert)
		fmt.Fprintf(out, "uptime:       %s\n", (time.Duration(st.UptimeSeconds) * time.Second).String())
	}
	fmt.Fprintf(out, "accelerator:  present=%v binary=%v\n", st.AcceleratorPresent, st.AcceleratedBinary)
	fmt.Fprintf(out, "starts:       %d (crashes %d)\n", st.StartsTotal, st.CrashesTotal)
	if st.LastError != "" {
		fmt.Fprintf(out, "last error:   %s\n", st.LastError)
	}
}

// snippet returns s cut to max runes with an ellipsis, newlines
// flattened for table output.
func snippet(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "…"
}
