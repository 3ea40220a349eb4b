package dal

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/Billy-Davies-2/fighter-matchup/internal/catalog"
	"github.com/Billy-Davies-2/fighter-matchup/internal/config"
	"github.com/Billy-Davies-2/fighter-matchup/internal/logger"
	"github.com/Billy-Davies-2/fighter-matchup/internal/models"
)

// objectGetter is the part of the S3 client the source uses
type objectGetter interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Source reads the catalog JSON documents from an S3 compatible bucket
// (AWS S3, Cloudflare R2, MinIO)
type S3Source struct {
	client      objectGetter
	bucket      string
	fightersKey string
	winRatesKey string
}

// NewS3Source builds an S3 client from the configuration. Static credentials
// are used when given, otherwise the default AWS credential chain.
func NewS3Source(ctx context.Context, cfg config.S3Config) (*S3Source, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load S3 config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return newS3Source(client, cfg), nil
}

func newS3Source(client objectGetter, cfg config.S3Config) *S3Source {
	return &S3Source{
		client:      client,
		bucket:      cfg.Bucket,
		fightersKey: cfg.FightersKey,
		winRatesKey: cfg.WinRatesKey,
	}
}

func (s *S3Source) Name() string { return "s3" }

func (s *S3Source) Close() error { return nil }

// Load fetches and decodes both objects
func (s *S3Source) Load(ctx context.Context) (catalog.Data, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.fightersKey),
	})
	if err != nil {
		return catalog.Data{}, fmt.Errorf("get s3://%s/%s: %w", s.bucket, s.fightersKey, err)
	}
	defer out.Body.Close()

	doc, err := catalog.DecodeFighters(out.Body)
	if err != nil {
		return catalog.Data{}, err
	}

	m, err := s.LoadMatrix(ctx)
	if err != nil {
		return catalog.Data{}, err
	}
	return catalog.Data{Fighters: doc.Fighters, Definitions: doc.Definitions, Matrix: m}, nil
}

// LoadMatrix fetches the win-rate object. A missing object is an empty matrix.
func (s *S3Source) LoadMatrix(ctx context.Context) (models.WinMatrix, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.winRatesKey),
	})
	var missing *types.NoSuchKey
	if errors.As(err, &missing) {
		logger.Warn("Win rate object not found, all win rates will be unknown", "bucket", s.bucket, "key", s.winRatesKey)
		return models.WinMatrix{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get s3://%s/%s: %w", s.bucket, s.winRatesKey, err)
	}
	defer out.Body.Close()

	return catalog.DecodeMatrix(out.Body)
}
