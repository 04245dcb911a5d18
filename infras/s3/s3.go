package s3

//go:generate go run go.uber.org/mock/mockgen -source=./s3.go -destination=./mocks/s3_mock.go -package=mocks

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"path"
	"rental/config"
	"rental/infras/otel"
	"rental/shared/constant"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
)

const (
	otelAttrObjectKey = "object_key"
	otelAttrBucket    = "bucket"
)

// S3 stores objects in the configured bucket and hands back their public URL.
type S3 interface {
	UploadFile(ctx context.Context, directory string, file multipart.File, fileHeader *multipart.FileHeader, fileName string) (url string, err error)
	DeleteFile(ctx context.Context, url string) error
	GetObjectKeyFromURL(url string) (objectKey string)
}

type s3Impl struct {
	client *s3.Client
	config *config.Config
	otel   otel.Otel
}

func New(config *config.Config, otel otel.Otel) S3 {
	staticProvider := credentials.NewStaticCredentialsProvider(
		config.External.S3.AccessKeyID,
		config.External.S3.SecretAccessKey,
		"",
	)

	cfg, err := awsConfig.LoadDefaultConfig(
		context.Background(),
		awsConfig.WithCredentialsProvider(staticProvider),
	)
	if err != nil {
		log.Err(err).Msg("Error loading AWS configuration")
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(config.External.S3.APIEndpoint)
		o.UsePathStyle = true
		o.Region = "auto"
	})

	return &s3Impl{
		client: client,
		config: config,
		otel:   otel,
	}
}

func (svc *s3Impl) bucket() string {
	return svc.config.External.S3.BucketName
}

func (svc *s3Impl) UploadFile(ctx context.Context, directory string, file multipart.File, fileHeader *multipart.FileHeader, fileName string) (url string, err error) {
	ctx, scope := svc.otel.NewScope(ctx, constant.OtelS3ScopeName, constant.OtelS3ScopeName+".UploadFile")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	objectKey := path.Join(directory, fileName+path.Ext(fileHeader.Filename))

	scope.SetAttributes(map[string]any{
		otelAttrObjectKey: objectKey,
		otelAttrBucket:    svc.bucket(),
	})

	if _, err = file.Seek(0, io.SeekStart); err != nil {
		return constant.Empty, fmt.Errorf("failed to rewind file: %w", err)
	}

	_, err = svc.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(svc.bucket()),
		Key:           aws.String(objectKey),
		Body:          file,
		ContentType:   aws.String(fileHeader.Header.Get(constant.RequestHeaderContentType)),
		ContentLength: aws.Int64(fileHeader.Size),
	})
	if err != nil {
		log.Error().Err(err).Str(otelAttrObjectKey, objectKey).Msg("failed to upload file to S3")

		return constant.Empty, fmt.Errorf("failed to upload file to S3: %w", err)
	}

	return fmt.Sprintf("%s/%s", strings.TrimSuffix(svc.config.External.S3.PublicDomain, "/"), objectKey), nil
}

func (svc *s3Impl) DeleteFile(ctx context.Context, url string) (err error) {
	ctx, scope := svc.otel.NewScope(ctx, constant.OtelS3ScopeName, constant.OtelS3ScopeName+".DeleteFile")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	objectKey := svc.GetObjectKeyFromURL(url)
	if objectKey == constant.Empty {
		return fmt.Errorf("url %q does not belong to bucket %s", url, svc.bucket())
	}

	scope.SetAttributes(map[string]any{
		otelAttrObjectKey: objectKey,
		otelAttrBucket:    svc.bucket(),
	})

	_, err = svc.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(svc.bucket()),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		log.Error().Err(err).Str(otelAttrObjectKey, objectKey).Msg("failed to delete file from S3")

		return fmt.Errorf("failed to delete file from S3: %w", err)
	}

	return nil
}

// GetObjectKeyFromURL accepts URLs on the public domain or the path-style API endpoint.
func (svc *s3Impl) GetObjectKeyFromURL(url string) string {
	prefixes := []string{
		strings.TrimSuffix(svc.config.External.S3.PublicDomain, "/") + "/",
		fmt.Sprintf("%s/%s/", strings.TrimSuffix(svc.config.External.S3.APIEndpoint, "/"), svc.bucket()),
	}

	for _, prefix := range prefixes {
		if prefix != "/" && strings.HasPrefix(url, prefix) {
			return strings.TrimPrefix(url, prefix)
		}
	}

	return constant.Empty
}
