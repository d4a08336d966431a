package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"nllbd/internal/common/fsutil"
	"nllbd/pkg/types"
)

func newInvokeCmd(o *rootOptions) *cobra.Command {
	var text, lang, testInput string
	cmd := &cobra.Command{
		Use:   "invoke",
		Short: "Run one job and print the result payload",
		Example: "  nllbd invoke --text Hello --lang fr\n" +
			"  nllbd invoke --test-input '{\"input\":{\"text\":\"Hello\",\"lang_code\":\"ko\"}}'\n" +
			"  nllbd invoke --test-input @test_input.json",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			job, err := buildJob(cmd, text, lang, testInput)
			if err != nil {
				return err
			}
			mgr, err := o.buildManager(cmd.Context())
			if err != nil {
				return err
			}
			defer mgr.Close()
			out := o.buildHandler(mgr).Handle(cmd.Context(), job)
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetEscapeHTML(false)
			return enc.Encode(out)
		},
	}
	cmd.Flags().StringVar(&text, "text", "", "Text to translate")
	cmd.Flags().StringVar(&lang, "lang", "", "Target language tag (defaults eng_Latn)")
	cmd.Flags().StringVar(&testInput, "test-input", "", "Job JSON, or @file to read it from a file")
	cmd.Flags().Bool("strict", false, "Reject unknown language tags instead of falling back to eng_Latn")
	return cmd
}

// buildJob assembles the job from --test-input or --text/--lang.
func buildJob(cmd *cobra.Command, text, lang, testInput string) (types.Job, error) {
	job := types.Job{ID: "cli"}
	if testInput != "" {
		if cmd.Flags().Changed("text") || cmd.Flags().Changed("lang") {
			return job, errors.New("--test-input cannot be combined with --text or --lang")
		}
		raw := []byte(testInput)
		if path, ok := strings.CutPrefix(testInput, "@"); ok {
			b, _, err := fsutil.ReadFile(path)
			if err != nil {
				return job, fmt.Errorf("read test input: %w", err)
			}
			raw = b
		}
		if err := json.Unmarshal(raw, &job); err != nil {
			return job, fmt.Errorf("parse test input: %w", err)
		}
		if job.ID == "" {
			job.ID = "cli"
		}
		return job, nil
	}
	if !cmd.Flags().Changed("text") {
		return job, errors.New("either --text or --test-input is required")
	}
	in := types.JobInput{Text: &text}
	if cmd.Flags().Changed("lang") {
		in.LangCode = &lang
	}
	b, err := json.Marshal(in)
	if err != nil {
		return job, err
	}
	job.Input = b
	return job, nil
}
