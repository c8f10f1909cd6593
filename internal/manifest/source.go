package manifest

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/opendid-docs/docroutes/internal/config"
	"github.com/opendid-docs/docroutes/internal/errors"
	"github.com/opendid-docs/docroutes/pkg/router"
)

// MaxManifestSize is the largest manifest the loader accepts.
const MaxManifestSize = 32 << 20

// manifestLimit is MaxManifestSize, lowered in tests.
var manifestLimit int64 = MaxManifestSize

// ObjectGetter is the part of the S3 API the loader needs.
type ObjectGetter interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Loader reads manifests from files and S3.
type Loader struct {
	s3     ObjectGetter
	logger *slog.Logger
}

// Option configures a Loader.
type Option func(*Loader)

// WithS3 sets the client used for s3:// sources.
func WithS3(client ObjectGetter) Option {
	return func(l *Loader) {
		l.s3 = client
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		l.logger = logger
	}
}

// NewLoader creates a Loader. Without WithS3, s3:// sources fail.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.logger = l.logger.With("component", "manifest")
	return l
}

// NewS3Client builds an S3 client from configuration. Static credentials
// are used when an access key is set; otherwise requests are anonymous.
func NewS3Client(cfg config.S3Config) *s3.Client {
	opts := []func(*s3.Options){
		func(o *s3.Options) {
			o.Region = cfg.Region
		},
	}

	if cfg.AccessKey != "" {
		opts = append(opts, func(o *s3.Options) {
			o.Credentials = credentials.NewStaticCredentialsProvider(
				cfg.AccessKey,
				cfg.SecretKey,
				"",
			)
		})
	}

	if cfg.Endpoint != "" {
		opts = append(opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = cfg.PathStyle
		})
	}

	return s3.New(s3.Options{}, opts...)
}

// Load reads and decodes a single manifest.
func (l *Loader) Load(ctx context.Context, source string) (*Manifest, error) {
	data, name, err := l.read(ctx, source)
	if err != nil {
		return nil, err
	}

	m, err := Parse(data, FormatOf(name, data), source)
	if err != nil {
		return nil, err
	}

	l.logger.Debug("manifest loaded",
		"source", source,
		"routes", len(m.Routes),
		"bytes", len(data))
	return m, nil
}

// LoadAll loads every source and concatenates their top-level routes in
// order.
func (l *Loader) LoadAll(ctx context.Context, sources []string) ([]router.RouteNode, error) {
	if len(sources) == 0 {
		return nil, errors.New("D003").
			WithDetail("No manifest sources given").
			WithSuggestion("Pass --manifest or list manifests in docroutes.yaml")
	}

	var routes []router.RouteNode
	for _, source := range sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		m, err := l.Load(ctx, source)
		if err != nil {
			return nil, err
		}
		routes = append(routes, m.Routes...)
	}
	return routes, nil
}

// Build loads every source and builds the route table.
func (l *Loader) Build(ctx context.Context, sources []string) (*router.RouteTable, error) {
	table, _, err := l.Snapshot(ctx, sources)
	return table, err
}

// Snapshot is Build that also returns the Digest of the loaded routes.
func (l *Loader) Snapshot(ctx context.Context, sources []string) (*router.RouteTable, string, error) {
	routes, err := l.LoadAll(ctx, sources)
	if err != nil {
		return nil, "", err
	}
	table, err := router.Build(routes)
	if err != nil {
		return nil, "", errors.New("D005").
			Wrap(err).
			WithSuggestion("Check the manifests listed in " + strings.Join(sources, ", "))
	}
	return table, Digest(routes), nil
}

// read returns the raw bytes of source and the name used to pick a format.
func (l *Loader) read(ctx context.Context, source string) ([]byte, string, error) {
	switch {
	case strings.HasPrefix(source, "s3://"):
		return l.readS3(ctx, source)
	case strings.HasPrefix(source, "file://"):
		u, err := url.Parse(source)
		if err != nil {
			return nil, "", errors.New("D003").Wrap(err)
		}
		return readFile(u.Path)
	default:
		return readFile(source)
	}
}

func readFile(path string) ([]byte, string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", errors.New("D003").
				WithDetail("No manifest at " + path).
				WithSuggestion("Build the site first or fix the manifest path")
		}
		return nil, "", errors.New("D003").Wrap(err)
	}
	defer f.Close()

	data, err := readLimited(f, "D003", path)
	if err != nil {
		return nil, "", err
	}
	return data, path, nil
}

func (l *Loader) readS3(ctx context.Context, source string) ([]byte, string, error) {
	bucket, key, err := parseS3URL(source)
	if err != nil {
		return nil, "", errors.New("D006").Wrap(err)
	}
	if l.s3 == nil {
		return nil, "", errors.New("D006").
			WithDetail("No S3 client configured for " + source)
	}

	out, err := l.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, "", wrapS3Error(source, err)
	}
	defer out.Body.Close()

	data, err := readLimited(out.Body, "D006", source)
	if err != nil {
		return nil, "", err
	}
	return data, key, nil
}

// readLimited reads r whole. Oversized manifests fail with code instead of
// being cut short.
func readLimited(r io.Reader, code, source string) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, manifestLimit+1))
	if err != nil {
		return nil, errors.New(code).Wrap(err)
	}
	if int64(len(data)) > manifestLimit {
		return nil, errors.New(code).
			WithDetail(fmt.Sprintf("%s: manifest exceeds %d bytes", source, manifestLimit)).
			WithSuggestion("Split the route tree across several manifests")
	}
	return data, nil
}

// parseS3URL splits s3://bucket/key.
func parseS3URL(source string) (bucket, key string, err error) {
	u, err := url.Parse(source)
	if err != nil {
		return "", "", err
	}
	bucket = u.Host
	key = strings.TrimPrefix(u.Path, "/")
	if bucket == "" || key == "" {
		return "", "", fmt.Errorf("invalid S3 URL %q: want s3://bucket/key", source)
	}
	return bucket, key, nil
}

// wrapS3Error maps missing objects to D003 and everything else to D006.
func wrapS3Error(source string, err error) error {
	var notFound *types.NoSuchKey
	if stderrors.As(err, &notFound) {
		return errors.New("D003").
			WithDetail("No manifest object at " + source).
			Wrap(err)
	}

	var apiErr smithy.APIError
	if stderrors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return errors.New("D003").
				WithDetail("No manifest object at " + source).
				Wrap(err)
		case "AccessDenied", "Forbidden":
			return errors.New("D006").
				WithDetail("Access to " + source + " was denied").
				WithSuggestion("Check s3.accessKey and s3.secretKey or AWS_ACCESS_KEY_ID").
				Wrap(err)
		}
	}

	return errors.New("D006").Wrap(err)
}
