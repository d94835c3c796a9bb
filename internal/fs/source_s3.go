package fs

import (
	"context"
	"fmt"
	"path"
	"slices"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/justyntemme/shelf/internal/debug"
)

// S3API is the subset of the S3 client used by S3Source.
type S3API interface {
	s3.ListObjectsV2APIClient
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// S3SourceConfig configures an S3-backed tree. Decoded from the trees[].options
// section of the configuration.
type S3SourceConfig struct {
	Bucket          string `mapstructure:"bucket"`
	KeyPrefix       string `mapstructure:"key_prefix"`
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
}

// S3Source exports a bucket (optionally below a key prefix) as a document
// tree. Directories are the common prefixes of a "/"-delimited listing.
// Document ids are "<bucket>:<relative/key>".
type S3Source struct {
	authority string
	bucket    string
	keyPrefix string
	client    S3API
}

// NewS3Source builds the AWS client from cfg and wraps it.
func NewS3Source(ctx context.Context, authority string, cfg S3SourceConfig) (*S3Source, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 source %s: bucket is required", authority)
	}
	if cfg.Region == "" {
		return nil, fmt.Errorf("s3 source %s: region is required", authority)
	}

	opts := []func(*awsConfig.LoadOptions) error{
		awsConfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsConfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsConfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("s3 source %s: load aws config: %w", authority, err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		// Custom endpoints (MinIO, Localstack) need path-style addressing
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return NewS3SourceWithClient(authority, cfg.Bucket, cfg.KeyPrefix, client), nil
}

// NewS3SourceWithClient wraps an existing client.
func NewS3SourceWithClient(authority, bucket, keyPrefix string, client S3API) *S3Source {
	keyPrefix = strings.Trim(keyPrefix, "/")
	if keyPrefix != "" {
		keyPrefix += "/"
	}
	return &S3Source{
		authority: authority,
		bucket:    bucket,
		keyPrefix: keyPrefix,
		client:    client,
	}
}

func (s *S3Source) Authority() string { return s.authority }

// RootDocID is the document id of the bucket root.
func (s *S3Source) RootDocID() string { return joinDocID(s.bucket, "") }

func (s *S3Source) rel(docID string) (string, error) {
	root, rel, err := splitDocID(docID)
	if err != nil {
		return "", err
	}
	if root != s.bucket {
		return "", fmt.Errorf("%w: unknown bucket %q", ErrNotAccessible, root)
	}
	return rel, nil
}

// dirPrefix is the listing prefix for a directory document.
func (s *S3Source) dirPrefix(rel string) string {
	if rel == "" {
		return s.keyPrefix
	}
	return s.keyPrefix + rel + "/"
}

func (s *S3Source) Stat(ctx context.Context, docID string) (SourceEntry, error) {
	rel, err := s.rel(docID)
	if err != nil {
		return SourceEntry{}, err
	}
	if rel == "" {
		return SourceEntry{DocID: s.RootDocID(), Name: s.bucket, IsDir: true}, nil
	}

	_, err = s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.keyPrefix + rel),
	})
	if err == nil {
		return SourceEntry{DocID: docID, Name: path.Base(rel), IsDir: false}, nil
	}
	headErr := err

	// Not an object: it is a directory if anything lives below it
	out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(s.bucket),
		Prefix:  aws.String(s.dirPrefix(rel)),
		MaxKeys: aws.Int32(1),
	})
	if err != nil {
		return SourceEntry{}, fmt.Errorf("stat %s: %w", docID, err)
	}
	if len(out.Contents) == 0 && len(out.CommonPrefixes) == 0 {
		return SourceEntry{}, fmt.Errorf("stat %s: %w", docID, headErr)
	}
	return SourceEntry{DocID: docID, Name: path.Base(rel), IsDir: true}, nil
}

func (s *S3Source) List(ctx context.Context, docID string) ([]SourceEntry, error) {
	rel, err := s.rel(docID)
	if err != nil {
		return nil, err
	}
	prefix := s.dirPrefix(rel)

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket:    aws.String(s.bucket),
		Prefix:    aws.String(prefix),
		Delimiter: aws.String("/"),
	})

	var out []SourceEntry
	for paginator.HasMorePages() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", docID, err)
		}
		for _, cp := range page.CommonPrefixes {
			name := strings.TrimSuffix(strings.TrimPrefix(aws.ToString(cp.Prefix), prefix), "/")
			if name == "" {
				continue
			}
			out = append(out, SourceEntry{
				DocID: joinDocID(s.bucket, path.Join(rel, name)),
				Name:  name,
				IsDir: true,
			})
		}
		for _, obj := range page.Contents {
			name := strings.TrimPrefix(aws.ToString(obj.Key), prefix)
			// Zero-byte "folder" markers list as the prefix itself
			if name == "" || strings.Contains(name, "/") {
				continue
			}
			out = append(out, SourceEntry{
				DocID: joinDocID(s.bucket, path.Join(rel, name)),
				Name:  name,
				IsDir: false,
			})
		}
	}

	slices.SortFunc(out, func(a, b SourceEntry) int {
		return strings.Compare(a.Name, b.Name)
	})
	debug.Log(debug.FS, "S3Source.List: %s -> %d entries", docID, len(out))
	return out, nil
}
