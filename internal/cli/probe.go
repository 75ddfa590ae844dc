package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	routegen "github.com/ferro-labs/routegen"
	"github.com/ferro-labs/routegen/providers"
)

// NewProbeCmd smoke-tests every Bedrock entry a manifest expands to: one
// minimal Converse call per generated path, with the entry's own region
// and key material. The document is never modified; the command only
// reports which paths will not serve.
func NewProbeCmd(opts *Options) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Call every generated Bedrock path once to verify it serves",
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := routegen.LoadManifest(opts.ManifestPath)
			if err != nil {
				return err
			}
			session, err := m.Build()
			if err != nil {
				return err
			}

			targets := probeTargets(session.Entries())
			if len(targets) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No Bedrock entries to probe.")
				return nil
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			out := cmd.OutOrStdout()
			failed := 0
			for _, result := range providers.ProbeBedrock(ctx, targets) {
				if result.OK() {
					fmt.Fprintf(out, "OK    %-24s %-44s %-16s %s\n",
						result.Target.Name, result.Target.ModelID, result.Target.Region,
						result.Latency.Round(time.Millisecond))
					continue
				}
				failed++
				fmt.Fprintf(out, "FAIL  %-24s %-44s %-16s %v\n",
					result.Target.Name, result.Target.ModelID, result.Target.Region, result.Err)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d probes failed", failed, len(targets))
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 60*time.Second, "Overall probe deadline")
	return cmd
}

// probeTargets extracts one probe per Bedrock entry. Entries for other
// providers are skipped; credential parameters ride along when the entry
// carries them, otherwise the ambient AWS chain applies.
func probeTargets(entries []routegen.Entry) []providers.ProbeTarget {
	targets := make([]providers.ProbeTarget, 0, len(entries))
	for _, e := range entries {
		modelID, ok := strings.CutPrefix(e.Model, "bedrock/")
		if !ok {
			continue
		}
		region, _ := e.Params["aws_region_name"].(string)
		accessKey, _ := e.Params["aws_access_key_id"].(string)
		secretKey, _ := e.Params["aws_secret_access_key"].(string)
		sessionToken, _ := e.Params["aws_session_token"].(string)
		targets = append(targets, providers.ProbeTarget{
			Name:            e.Name,
			ModelID:         modelID,
			Region:          region,
			AccessKeyID:     accessKey,
			SecretAccessKey: secretKey,
			SessionToken:    sessionToken,
		})
	}
	return targets
}
