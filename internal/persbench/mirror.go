package persbench

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Mirror settings, populated from the config file in initConfig. All four
// must be present for the mirror to be consulted.
var (
	mirrorEndpoint  string
	mirrorBucket    string
	mirrorAccessKey string
	mirrorSecretKey string
)

// MirrorClient wraps an S3 client for the optional artifact mirror. Archives
// for targets that normally come from flaky project servers (perseus,
// JavaPlex) can be staged in a bucket and fetched from there first.
type MirrorClient struct {
	Client     *s3.Client
	BucketName string
}

// newMirrorClient returns nil when the mirror is not configured.
func newMirrorClient() *MirrorClient {
	if mirrorEndpoint == "" || mirrorBucket == "" || mirrorAccessKey == "" || mirrorSecretKey == "" {
		return nil
	}

	resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		return aws.Endpoint{URL: mirrorEndpoint}, nil
	})

	options := []func(*config.LoadOptions) error{
		config.WithEndpointResolverWithOptions(resolver),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(mirrorAccessKey, mirrorSecretKey, "")),
		config.WithRegion("auto"),
	}

	if Debug {
		options = append(options, config.WithClientLogMode(aws.LogSigning|aws.LogRetries|aws.LogRequest|aws.LogResponse))
	}

	awsCfg, err := config.LoadDefaultConfig(context.TODO(), options...)
	if err != nil {
		debugf("failed to load mirror config: %v\n", err)
		return nil
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})

	return &MirrorClient{
		Client:     client,
		BucketName: mirrorBucket,
	}
}

// Download fetches key from the mirror bucket into destPath.
func (m *MirrorClient) Download(key, destPath string) error {
	output, err := m.Client.GetObject(context.TODO(), &s3.GetObjectInput{
		Bucket: aws.String(m.BucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		return err
	}
	defer output.Body.Close()

	out, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", destPath, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, output.Body); err != nil {
		return fmt.Errorf("failed to write %s: %w", destPath, err)
	}
	return nil
}
