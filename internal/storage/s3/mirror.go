package s3

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	cargoships3 "github.com/scttfrdmn/cargoship/pkg/aws/s3"

	"github.com/actuatorprobe/actuatorprobe/pkg/errors"
	"github.com/actuatorprobe/actuatorprobe/pkg/utils"
)

type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type archiveUploader func(ctx context.Context, archive cargoships3.Archive) error

// Mirror copies dump files into a bucket. Local files are left in place.
type Mirror struct {
	bucket string
	prefix string
	tier   string

	client        objectPutter
	uploadArchive archiveUploader
	logger        utils.Logger
}

// NewMirror creates a mirror uploading through cm. When cm has a CargoShip
// transporter it is tried first, with a plain PutObject as fallback.
func NewMirror(cm *ClientManager) *Mirror {
	m := &Mirror{
		bucket: cm.config.Bucket,
		prefix: strings.Trim(cm.config.Prefix, "/"),
		tier:   cm.config.StorageTier,
		client: cm.client,
		logger: cm.logger,
	}

	if transporter := cm.transporter; transporter != nil {
		logger := cm.logger
		m.uploadArchive = func(ctx context.Context, archive cargoships3.Archive) error {
			result, err := transporter.Upload(ctx, archive)
			if err != nil {
				return err
			}
			logger.Debugf("CargoShip upload of %s completed (throughput %v, duration %v)",
				archive.Key, result.Throughput, result.Duration)
			return nil
		}
	}
	return m
}

// Key returns the object key a dump file is stored under.
func (m *Mirror) Key(file string) string {
	name := filepath.Base(file)
	if m.prefix == "" {
		return name
	}
	return path.Join(m.prefix, name)
}

// Upload copies the file at path into the bucket.
func (m *Mirror) Upload(ctx context.Context, file string) error {
	f, err := os.Open(file)
	if err != nil {
		return errors.NewError(errors.ErrCodeUploadFailed, fmt.Sprintf("cannot open %s", file)).
			WithCause(err).WithComponent("mirror")
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return errors.NewError(errors.ErrCodeUploadFailed, fmt.Sprintf("cannot stat %s", file)).
			WithCause(err).WithComponent("mirror")
	}

	key := m.Key(file)
	start := time.Now()
	metadata := map[string]string{
		"actuatorprobe-dump": "true",
		"content-type":       detectContentType(key),
	}

	if m.uploadArchive != nil {
		err := m.uploadArchive(ctx, cargoships3.Archive{
			Key:          key,
			Reader:       f,
			Size:         info.Size(),
			StorageClass: convertTierToCargoShipStorageClass(m.tier),
			Metadata:     metadata,
		})
		if err == nil {
			m.logger.Infof("Mirrored %s to s3://%s/%s (%s)", file, m.bucket, key, utils.FormatBytes(info.Size()))
			return nil
		}
		m.logger.Warnf("CargoShip upload of %s failed, falling back to standard S3: %v", key, err)
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return errors.NewError(errors.ErrCodeUploadFailed, fmt.Sprintf("cannot rewind %s", file)).
				WithCause(err).WithComponent("mirror")
		}
	}

	_, err = m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(m.bucket),
		Key:           aws.String(key),
		Body:          f,
		ContentLength: aws.Int64(info.Size()),
		ContentType:   aws.String(detectContentType(key)),
		StorageClass:  convertTierToStorageClass(m.tier),
		Metadata:      map[string]string{"actuatorprobe-dump": "true"},
	})
	if err != nil {
		return m.translateError(err, key)
	}

	m.logger.Infof("Mirrored %s to s3://%s/%s (%s) in %v", file, m.bucket, key,
		utils.FormatBytes(info.Size()), time.Since(start).Round(time.Millisecond))
	return nil
}

func (m *Mirror) translateError(err error, key string) error {
	var noBucket *s3types.NoSuchBucket
	if stderrors.As(err, &noBucket) {
		return errors.NewError(errors.ErrCodeUploadFailed, fmt.Sprintf("bucket not found: %s", m.bucket)).
			WithCause(err).WithComponent("mirror").WithDetail("key", key)
	}
	return errors.NewError(errors.ErrCodeUploadFailed, fmt.Sprintf("PutObject failed for %s", key)).
		WithCause(err).WithComponent("mirror").WithDetail("bucket", m.bucket)
}

func detectContentType(key string) string {
	switch {
	case strings.HasSuffix(key, ".txt"):
		return "text/plain"
	default:
		return "application/octet-stream"
	}
}
