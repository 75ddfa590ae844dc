package providers

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"

	"github.com/ferro-labs/routegen/internal/ratelimit"
)

// Probe pacing per region. Converse throttles per account and region, so
// probes must not eat the budget production traffic runs on.
const (
	probeRatePerSecond = 2
	probeBurst         = 4
)

// ProbeTarget identifies one concrete Bedrock path to smoke-test: the
// resolved model identifier plus the region and key material its entry
// would call with. Key fields left empty fall back to the ambient chain.
type ProbeTarget struct {
	Name            string
	ModelID         string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
}

// ProbeResult reports the outcome of one probe call.
type ProbeResult struct {
	Target  ProbeTarget
	Latency time.Duration
	Err     error
}

// OK reports whether the probe round-tripped.
func (r ProbeResult) OK() bool { return r.Err == nil }

// ProbeBedrock issues a one-token Converse call per target and reports
// each outcome, paced per region. Probing is an opt-in diagnostic for
// generated documents; a failed probe never invalidates the document, it
// only tells the operator which paths will not serve.
func ProbeBedrock(ctx context.Context, targets []ProbeTarget) []ProbeResult {
	pacer := ratelimit.NewStore(probeRatePerSecond, probeBurst)
	results := make([]ProbeResult, 0, len(targets))
	for _, target := range targets {
		if err := pacer.Wait(ctx, target.Region); err != nil {
			results = append(results, ProbeResult{Target: target, Err: err})
			continue
		}
		results = append(results, probeOne(ctx, target))
	}
	return results
}

func probeOne(ctx context.Context, target ProbeTarget) ProbeResult {
	var opts []func(*config.LoadOptions) error
	if target.Region != "" {
		opts = append(opts, config.WithRegion(target.Region))
	}
	if target.AccessKeyID != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(
				target.AccessKeyID, target.SecretAccessKey, target.SessionToken)))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return ProbeResult{Target: target, Err: fmt.Errorf("load AWS config: %w", err)}
	}
	client := bedrockruntime.NewFromConfig(cfg)

	start := time.Now()
	_, err = client.Converse(ctx, &bedrockruntime.ConverseInput{
		ModelId: aws.String(target.ModelID),
		Messages: []types.Message{{
			Role:    types.ConversationRoleUser,
			Content: []types.ContentBlock{&types.ContentBlockMemberText{Value: "ping"}},
		}},
		InferenceConfig: &types.InferenceConfiguration{
			MaxTokens: aws.Int32(1),
		},
	})
	if err != nil {
		err = fmt.Errorf("converse %s in %s: %w", target.ModelID, target.Region, err)
	}
	return ProbeResult{Target: target, Latency: time.Since(start), Err: err}
}
