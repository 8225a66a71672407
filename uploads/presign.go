// Package uploads hands out presigned URLs so clients can put issue images
// straight into S3-compatible object storage.
package uploads

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cityfix-be/errs"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

const (
	keyPrefix     = "issues/"
	presignExpiry = 15 * time.Minute
)

var imageExtensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
	"image/gif":  "gif",
}

type Options struct {
	Bucket        string
	Endpoint      string
	Region        string
	AccessKey     string
	SecretKey     string
	PublicBaseURL string
}

// Upload is what a client needs to push one object.
type Upload struct {
	UploadURL string    `json:"uploadUrl"`
	Method    string    `json:"method"`
	Key       string    `json:"key"`
	PublicURL string    `json:"publicUrl"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type Presigner struct {
	client        *s3.PresignClient
	bucket        string
	publicBaseURL string
	now           func() time.Time
}

func NewPresigner(opts Options) *Presigner {
	region := opts.Region
	if region == "" {
		region = "auto"
	}
	s3Opts := s3.Options{
		Credentials: credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		Region:      region,
	}
	if opts.Endpoint != "" {
		s3Opts.BaseEndpoint = aws.String(opts.Endpoint)
		s3Opts.UsePathStyle = true
	}
	return NewPresignerFromClient(s3.New(s3Opts), opts.Bucket, opts.PublicBaseURL)
}

func NewPresignerFromClient(client *s3.Client, bucket, publicBaseURL string) *Presigner {
	return &Presigner{
		client:        s3.NewPresignClient(client),
		bucket:        bucket,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		now:           time.Now,
	}
}

// PresignImage returns a PUT URL for a new object under issues/.
func (p *Presigner) PresignImage(ctx context.Context, contentType string) (*Upload, error) {
	ext, ok := imageExtensions[strings.ToLower(strings.TrimSpace(contentType))]
	if !ok {
		return nil, errs.Newf(errs.InvalidInput, "Unsupported image type %q", contentType)
	}

	key := fmt.Sprintf("%s%s.%s", keyPrefix, uuid.NewString(), ext)
	req, err := p.client.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(presignExpiry))
	if err != nil {
		return nil, errs.Upstream(err, "Failed to create upload URL")
	}

	return &Upload{
		UploadURL: req.URL,
		Method:    req.Method,
		Key:       key,
		PublicURL: p.publicURL(key),
		ExpiresAt: p.now().Add(presignExpiry),
	}, nil
}

func (p *Presigner) publicURL(key string) string {
	if p.publicBaseURL == "" {
		return key
	}
	return p.publicBaseURL + "/" + key
}
