package config

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/rs/zerolog/log"
)

// ParameterStore is the subset of the SSM client used to read secrets.
type ParameterStore interface {
	GetParametersByPath(ctx context.Context, params *ssm.GetParametersByPathInput, optFns ...func(*ssm.Options)) (*ssm.GetParametersByPathOutput, error)
}

// NewParameterStore builds an SSM client from the default AWS credential chain.
func NewParameterStore(ctx context.Context) (ParameterStore, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return ssm.NewFromConfig(awsCfg), nil
}

// OverlaySSM copies every parameter found under parameterPath into config.
// The parameter name below the path becomes the key, so
// /portfolio/prod/SUPABASE_JWT_SECRET is stored as SUPABASE_JWT_SECRET.
// Values already present in the environment win.
func OverlaySSM(ctx context.Context, store ParameterStore, config map[string]string, parameterPath string) (int, error) {
	if parameterPath == "" {
		return 0, nil
	}

	input := &ssm.GetParametersByPathInput{
		Path:           aws.String(parameterPath),
		Recursive:      aws.Bool(true),
		WithDecryption: aws.Bool(true),
	}

	loaded := 0
	paginator := ssm.NewGetParametersByPathPaginator(store, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return loaded, fmt.Errorf("read parameters under %s: %w", parameterPath, err)
		}

		for _, param := range page.Parameters {
			key := strings.TrimPrefix(path.Base(aws.ToString(param.Name)), "/")
			if key == "" {
				continue
			}
			if existing, ok := config[key]; ok && existing != "" {
				log.Debug().Str("key", key).Msg("Skipping SSM parameter already set in environment")
				continue
			}
			config[key] = aws.ToString(param.Value)
			loaded++
		}
	}

	return loaded, nil
}
