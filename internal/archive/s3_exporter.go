package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"logline-fusion/internal/background"
	appconfig "logline-fusion/internal/config"
	"logline-fusion/internal/domain/logevent"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Exporter writes committed events to an S3 bucket as JSON objects. Export
// runs through the background sink; a failed export never touches the write
// path.
type Exporter struct {
	s3     *s3.Client
	bucket string
}

func NewExporter(ctx context.Context, cfg appconfig.ArchiveConfig) (*Exporter, error) {
	if cfg.Region == "" || cfg.Bucket == "" {
		return nil, errors.New("archive region and bucket are required")
	}

	var opts []func(*config.LoadOptions) error
	opts = append(opts, config.WithRegion(cfg.Region))

	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &Exporter{s3: client, bucket: cfg.Bucket}, nil
}

// Task builds the fire-and-forget export task for one committed event.
func (e *Exporter) Task(ev *logevent.LogEvent) background.Task {
	return background.Task{
		Name: "s3_archive:" + ev.ID,
		Run: func(ctx context.Context) error {
			body, err := json.Marshal(ev)
			if err != nil {
				return err
			}
			key := objectKey(ev)
			_, err = e.s3.PutObject(ctx, &s3.PutObjectInput{
				Bucket:      aws.String(e.bucket),
				Key:         aws.String(key),
				Body:        bytes.NewReader(body),
				ContentType: aws.String("application/json"),
			})
			return err
		},
	}
}

func objectKey(ev *logevent.LogEvent) string {
	return fmt.Sprintf("events/%s/%s.json", ev.Timestamp.UTC().Format("2006/01/02"), ev.ID)
}
