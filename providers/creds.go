package providers

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
)

// Credential is one named bundle on the credential axis: the call
// parameters that select an account or key when the same model is routed
// through several of them. Params are merged into each generated entry on
// top of the region pointer, so a per-credential region override wins.
type Credential struct {
	Name   string
	Params map[string]any
}

// APIKey builds a bearer-key credential for API-key providers. Values
// placed here verbatim end up in the rendered document; pass an
// "os.environ/NAME" reference to keep secrets out of it.
func APIKey(name, key string) Credential {
	return Credential{
		Name:   name,
		Params: map[string]any{"api_key": key},
	}
}

// AWSKeyPair builds a static AWS key credential.
func AWSKeyPair(name, accessKeyID, secretAccessKey string) Credential {
	return Credential{
		Name: name,
		Params: map[string]any{
			"aws_access_key_id":     accessKeyID,
			"aws_secret_access_key": secretAccessKey,
		},
	}
}

// WithParam returns a copy of the credential with one extra parameter,
// e.g. a session token or a per-credential region override.
func (c Credential) WithParam(key string, value any) Credential {
	params := make(map[string]any, len(c.Params)+1)
	for k, v := range c.Params {
		params[k] = v
	}
	params[key] = value
	return Credential{Name: c.Name, Params: params}
}

// AWSFromEnv snapshots the ambient AWS credential chain (env vars, shared
// config, instance metadata) into a static bundle. The snapshot is taken
// once; rotating session credentials should be re-resolved per build.
func AWSFromEnv(ctx context.Context, name string) (Credential, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return Credential{}, fmt.Errorf("load AWS config: %w", err)
	}
	return snapshotAWS(ctx, name, cfg)
}

// AWSFromProfile resolves a named shared-config profile into a static
// bundle. This is how one build fans the same model out across accounts
// configured in ~/.aws/credentials.
func AWSFromProfile(ctx context.Context, name, profile string) (Credential, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithSharedConfigProfile(profile))
	if err != nil {
		return Credential{}, fmt.Errorf("load AWS profile %q: %w", profile, err)
	}
	return snapshotAWS(ctx, name, cfg)
}

func snapshotAWS(ctx context.Context, name string, cfg aws.Config) (Credential, error) {
	creds, err := cfg.Credentials.Retrieve(ctx)
	if err != nil {
		return Credential{}, fmt.Errorf("resolve AWS credentials: %w", err)
	}
	c := AWSKeyPair(name, creds.AccessKeyID, creds.SecretAccessKey)
	if creds.SessionToken != "" {
		c = c.WithParam("aws_session_token", creds.SessionToken)
	}
	return c, nil
}
