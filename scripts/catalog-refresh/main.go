// catalog-refresh regenerates catalog/identifiers.json from the live
// provider APIs. The bedrock section is rebuilt from ListFoundationModels
// and ListInferenceProfiles in one representative region per geo; the
// openai section is rebuilt from the models endpoint when OPENAI_API_KEY
// is set and carried over from the existing file otherwise. The process
// exits with code 2 on any API failure so the GitHub Action can open an
// issue instead of committing a truncated table.
//
// Usage:
//
// go run ./scripts/catalog-refresh                  # writes catalog/identifiers.json in cwd
// go run ./scripts/catalog-refresh -out /path/to/identifiers.json
// go run ./scripts/catalog-refresh -regions eu-central-1,us-east-1,ap-northeast-1
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrock"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/ferro-labs/routegen/catalog"
)

func main() {
	outPath := flag.String("out", "catalog/identifiers.json", "path to the identifier table to rewrite")
	regionsFlag := flag.String("regions", "eu-central-1,us-east-1", "AWS regions to list, one per geo")
	timeout := flag.Duration("timeout", 2*time.Minute, "overall deadline for all API calls")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	// Start from the existing file so sections this run cannot rebuild
	// survive untouched.
	table := map[string][]string{}
	if data, err := os.ReadFile(*outPath); err == nil {
		_ = json.Unmarshal(data, &table)
	}

	bedrockIDs, err := listBedrockIdentifiers(ctx, strings.Split(*regionsFlag, ","))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}
	table["bedrock"] = bedrockIDs
	fmt.Fprintf(os.Stderr, "bedrock: %d identifiers\n", len(bedrockIDs))

	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		openaiIDs, err := listOpenAIIdentifiers(ctx, key)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(2)
		}
		table["openai"] = openaiIDs
		fmt.Fprintf(os.Stderr, "openai: %d identifiers\n", len(openaiIDs))
	} else {
		fmt.Fprintf(os.Stderr, "OPENAI_API_KEY not set; keeping existing openai section (%d identifiers)\n", len(table["openai"]))
	}

	buf, err := json.MarshalIndent(table, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: cannot encode table: %v\n", err)
		os.Exit(2)
	}
	buf = append(buf, '\n')
	if err := os.WriteFile(*outPath, buf, 0o644); err != nil { //nolint:gosec
		fmt.Fprintf(os.Stderr, "error: cannot write table: %v\n", err)
		os.Exit(2)
	}
	fmt.Fprintf(os.Stderr, "wrote %s\n", *outPath)
}

// listBedrockIdentifiers collects foundation model IDs and inference
// profile IDs across the given regions. Profiles are regional: eu.*
// profiles are only visible from EU regions, so each geo needs one region
// in the list.
func listBedrockIdentifiers(ctx context.Context, regions []string) ([]string, error) {
	seen := map[string]bool{}
	var ids []string
	add := func(id string) {
		if id != "" && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	for _, region := range regions {
		region = strings.TrimSpace(region)
		if region == "" {
			continue
		}
		cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
		if err != nil {
			return nil, fmt.Errorf("loading AWS config for %s: %w", region, err)
		}
		client := bedrock.NewFromConfig(cfg)

		models, err := client.ListFoundationModels(ctx, &bedrock.ListFoundationModelsInput{})
		if err != nil {
			return nil, fmt.Errorf("listing foundation models in %s: %w", region, err)
		}
		for _, m := range models.ModelSummaries {
			add(aws.ToString(m.ModelId))
		}

		in := &bedrock.ListInferenceProfilesInput{}
		for {
			out, err := client.ListInferenceProfiles(ctx, in)
			if err != nil {
				return nil, fmt.Errorf("listing inference profiles in %s: %w", region, err)
			}
			for _, p := range out.InferenceProfileSummaries {
				add(aws.ToString(p.InferenceProfileId))
			}
			if out.NextToken == nil {
				break
			}
			in.NextToken = out.NextToken
		}
	}

	// Keep each identifier next to its geo-tagged variants so diffs of the
	// table stay reviewable.
	sort.SliceStable(ids, func(i, j int) bool {
		bareI, tagI := catalog.ParseIdentifier(ids[i])
		bareJ, tagJ := catalog.ParseIdentifier(ids[j])
		if bareI != bareJ {
			return bareI < bareJ
		}
		return tagI < tagJ
	})
	return ids, nil
}

func listOpenAIIdentifiers(ctx context.Context, apiKey string) ([]string, error) {
	client := openai.NewClient(option.WithAPIKey(apiKey))

	var ids []string
	pager := client.Models.ListAutoPaging(ctx)
	for pager.Next() {
		ids = append(ids, pager.Current().ID)
	}
	if err := pager.Err(); err != nil {
		return nil, fmt.Errorf("listing openai models: %w", err)
	}
	sort.Strings(ids)
	return ids, nil
}
