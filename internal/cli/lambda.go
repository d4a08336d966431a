package cli

import (
	"github.com/spf13/cobra"

	"nllbd/internal/lambdahost"
)

func newLambdaCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "lambda",
		Short: "Load the model and run the AWS Lambda event loop",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := o.buildManager(cmd.Context())
			if err != nil {
				return err
			}
			host := lambdahost.New(o.buildHandler(mgr),
				lambdahost.WithLogger(o.log.With().Str("component", "lambdahost").Logger()),
				lambdahost.WithMaxFanOut(o.cfg.WarmupMaxConcurrency))
			host.Start()
			return nil
		},
	}
}
